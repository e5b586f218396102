package util

import "github.com/go-playground/validator/v10"

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterValidation("latitude", validateLatitude)
	validate.RegisterValidation("longitude", validateLongitude)
	validate.RegisterValidation("incidenttype", validateIncidentType)
}

func validateLatitude(fl validator.FieldLevel) bool {
	lat := fl.Field().Float()
	return lat >= -90 && lat <= 90
}

func validateLongitude(fl validator.FieldLevel) bool {
	lon := fl.Field().Float()
	return lon >= -180 && lon <= 180
}

func validateIncidentType(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "ACCIDENT", "MEDICAL", "FIRE", "INFRASTRUCTURE", "CRIME":
		return true
	}
	return false
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}
