package model

import (
	"time"

	"github.com/google/uuid"
)

type IncidentType string

const (
	TypeAccident       IncidentType = "ACCIDENT"
	TypeMedical        IncidentType = "MEDICAL"
	TypeFire           IncidentType = "FIRE"
	TypeInfrastructure IncidentType = "INFRASTRUCTURE"
	TypeCrime          IncidentType = "CRIME"
)

type IncidentStatus string

const (
	StatusUnverified IncidentStatus = "UNVERIFIED"
	StatusVerified   IncidentStatus = "VERIFIED"
	StatusInProgress IncidentStatus = "IN_PROGRESS"
	StatusResolved   IncidentStatus = "RESOLVED"
	StatusFalse      IncidentStatus = "FALSE"
)

func ValidIncidentType(t string) bool {
	switch IncidentType(t) {
	case TypeAccident, TypeMedical, TypeFire, TypeInfrastructure, TypeCrime:
		return true
	}
	return false
}

func ValidIncidentStatus(s string) bool {
	switch IncidentStatus(s) {
	case StatusUnverified, StatusVerified, StatusInProgress, StatusResolved, StatusFalse:
		return true
	}
	return false
}

type Incident struct {
	ID                int64          `json:"id"`
	IncidentCode      string         `json:"incident_code"`
	Type              IncidentType   `json:"type"`
	Description       string         `json:"description"`
	Latitude          float64        `json:"latitude"`
	Longitude         float64        `json:"longitude"`
	Address           *string        `json:"address,omitempty"`
	GpsAccuracy       *float64       `json:"gps_accuracy,omitempty"` // meters
	ImageURL          *string        `json:"image_url,omitempty"`
	Status            IncidentStatus `json:"status"`
	ConfidenceScore   int            `json:"confidence_score"`
	ConfirmationCount int            `json:"confirmation_count"`
	ReporterID        *uuid.UUID     `json:"reporter_id,omitempty"`
	ReporterUsername  *string        `json:"reporter_username,omitempty"`
	AdminNotes        *string        `json:"admin_notes,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Coordinates are pointers so an absent field fails required validation
// instead of binding to 0,0.
type CreateIncidentRequest struct {
	Type             string   `json:"type" validate:"required,incidenttype"`
	Description      string   `json:"description" validate:"required"`
	Latitude         *float64 `json:"latitude" validate:"required,latitude"`
	Longitude        *float64 `json:"longitude" validate:"required,longitude"`
	Address          string   `json:"address,omitempty"`
	GpsAccuracy      *float64 `json:"gps_accuracy,omitempty"`
	ImageURL         string   `json:"image_url,omitempty"`
	ReporterUsername string   `json:"reporter_username,omitempty"`
}

type CreateIncidentResponse struct {
	Incident            Incident   `json:"incident"`
	PotentialDuplicates []Incident `json:"potential_duplicates"`
}

type ConfirmIncidentRequest struct {
	IncidentID int64    `json:"incident_id" validate:"required"`
	Latitude   *float64 `json:"latitude" validate:"required,latitude"`
	Longitude  *float64 `json:"longitude" validate:"required,longitude"`
	Username   string   `json:"username,omitempty"`
}

type StatusUpdateRequest struct {
	Status string `json:"status" validate:"required"`
	Notes  string `json:"notes,omitempty"`
}

type QueryIncidentsParams struct {
	Latitude      float64
	Longitude     float64
	RadiusKm      float64
	Type          string
	Status        string
	MinConfidence *int
	Limit         int
	Offset        int
}

// IncidentWithDistance annotates a query hit with its distance from the
// caller's position.
type IncidentWithDistance struct {
	Incident
	DistanceKm float64 `json:"distance_km"`
}

type TimelineEntry struct {
	ID         int64          `json:"id"`
	IncidentID int64          `json:"incident_id"`
	Status     IncidentStatus `json:"status"`
	Notes      *string        `json:"notes,omitempty"`
	UpdatedBy  *string        `json:"updated_by,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type Confirmation struct {
	ID         int64     `json:"id"`
	IncidentID int64     `json:"incident_id"`
	UserID     uuid.UUID `json:"user_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CreatedAt  time.Time `json:"created_at"`
}
