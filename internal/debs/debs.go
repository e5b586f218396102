package deps

import (
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vberk/incident_triage_api/config"
	"github.com/vberk/incident_triage_api/internal/db"
	"github.com/vberk/incident_triage_api/internal/scoring"
	"github.com/vberk/incident_triage_api/util/storage"
	"github.com/vberk/incident_triage_api/util/websockets"
)

type Dependencies struct {
	DB         *db.DB
	Cloudinary *storage.Cloudinary
	WebSocket  *websockets.WebSocketManager
	Scorer     *scoring.Calculator
}

func New(cfg *config.Config) *Dependencies {
	database, err := db.New(cfg.Dsn)
	if err != nil {
		log.Panicln("failed to connect to database", "error", err)
	}

	cloudinary := storage.NewCloudinary(cfg)
	websocket := websockets.NewWebSocketManager()
	scorer := scoring.NewCalculator(cfg)

	deps := Dependencies{
		DB:         database,
		Cloudinary: cloudinary,
		WebSocket:  websocket,
		Scorer:     scorer,
	}
	return &deps
}

func (d *Dependencies) Pool() *pgxpool.Pool {
	return d.DB.Pool()
}
