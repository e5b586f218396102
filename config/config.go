package config

import (
	"log"

	"github.com/caarlos0/env/v11"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int    `env:"PORT" envDefault:"8080"`
	Dsn           string `env:"DSN" envDefault:"localhost:5432"`
	MigrationsDir string `env:"MIGRATIONS_DIR" envDefault:"migrations"`
	JwtSecret     string `env:"JWT_SECRET"`
	JwtExpires    string `env:"JWT_EXPIRES" envDefault:"24h"`

	CloudinaryCloudName string `env:"CLOUDINARY_CLOUD_NAME"`
	CloudinaryAPIKey    string `env:"CLOUDINARY_API_KEY"`
	CloudinaryAPISecret string `env:"CLOUDINARY_API_SECRET"`

	// Confidence scoring knobs
	ConfidenceBaseScore  int `env:"CONFIDENCE_BASE_SCORE" envDefault:"30"`
	ConfidenceImageBonus int `env:"CONFIDENCE_IMAGE_BONUS" envDefault:"20"`
	ConfirmationBonus    int `env:"CONFIDENCE_CONFIRMATION_BONUS" envDefault:"15"`
	ReputationBonusMax   int `env:"CONFIDENCE_REPUTATION_BONUS_MAX" envDefault:"20"`
	GpsAccuracyBonusMax  int `env:"CONFIDENCE_GPS_ACCURACY_BONUS_MAX" envDefault:"15"`

	// Duplicate detection
	DuplicateDistanceMeters    float64 `env:"DUPLICATE_DISTANCE_THRESHOLD_METERS" envDefault:"300"`
	DuplicateTimeWindowMinutes int     `env:"DUPLICATE_TIME_WINDOW_MINUTES" envDefault:"10"`

	// Positioned websocket subscribers only hear about incidents this close
	BroadcastRadiusKm float64 `env:"BROADCAST_RADIUS_KM" envDefault:"25"`

	// Seed accounts, created at startup when missing
	SeedAdminPassword     string `env:"SEED_ADMIN_PASSWORD" envDefault:"admin123"`
	SeedResponderPassword string `env:"SEED_RESPONDER_PASSWORD" envDefault:"responder123"`
}

func New() *Config {
	if loadErr := godotenv.Load(".env"); loadErr != nil {
		log.Println("[Env]: unable to load .env file", loadErr)
	}

	var cfg Config

	if parseErr := env.Parse(&cfg); parseErr != nil {
		log.Println("[Env]: failed to parse environment variables:", parseErr)
	}

	return &cfg
}
