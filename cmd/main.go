package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/vberk/incident_triage_api/config"
	deps "github.com/vberk/incident_triage_api/internal/debs"
	api "github.com/vberk/incident_triage_api/internal/http/rest"
)

const (
	allowConnectionsAfterShutdown = 1 * time.Second
	seedTimeout                   = 10 * time.Second
)

func runMigrations(cfg *config.Config) error {
	migrationURL := cfg.Dsn
	if strings.HasPrefix(migrationURL, "postgres://") {
		migrationURL = strings.Replace(migrationURL, "postgres://", "pgx5://", 1)
	}

	m, err := migrate.New(fmt.Sprintf("file://%s", cfg.MigrationsDir), migrationURL)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Println("Database migrations applied")
	return nil
}

func main() {
	cfg := config.New()

	if err := runMigrations(cfg); err != nil {
		log.Fatalln(err)
	}

	deps := deps.New(cfg)

	a := &api.API{
		Config: cfg,
		Deps:   deps,
		DB:     deps.Pool(),
	}

	seedCtx, cancel := context.WithTimeout(context.Background(), seedTimeout)
	if err := a.EnsureSeedUsers(seedCtx); err != nil {
		cancel()
		log.Fatalln("failed to seed default users:", err)
	}
	cancel()

	go deps.WebSocket.Run()
	go func() {
		log.Printf("Server running on port %v ...", cfg.Port)
		log.Fatal(a.Serve())
	}()

	stopChan := make(chan os.Signal, 1)
	signal.Notify(stopChan, os.Interrupt, syscall.SIGTERM, syscall.SIGINT)
	<-stopChan

	log.Println("Request to shutdown server. Doing nothing for ", allowConnectionsAfterShutdown)
	waitTimer := time.NewTimer(allowConnectionsAfterShutdown)
	<-waitTimer.C

	log.Println("Shutting down server...")

	if err := a.Shutdown(); err != nil {
		log.Println("server shutdown error:", err)
	}
	deps.DB.Close()
	log.Println("Database connections closed.")
}
