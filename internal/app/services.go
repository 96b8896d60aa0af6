package app

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/remoctl/internal/config"
	"github.com/dokzlo13/remoctl/internal/db"
	"github.com/dokzlo13/remoctl/internal/ledger"
)

// Ledger entries older than this are pruned at startup
const ledgerRetention = 30 * 24 * time.Hour

// Services is a container for all application services.
// It manages service initialization order and dependencies.
type Services struct {
	cfg *config.Config

	// Core infrastructure
	DB     *db.DB
	Ledger *ledger.Ledger

	// High-level services
	Climate *ClimateService
	Status  *StatusService
}

// NewServices creates all services with proper dependency injection.
func NewServices(cfg *config.Config) (*Services, error) {
	s := &Services{cfg: cfg}

	// Initialize database
	database, err := db.Open(cfg.Database.Path)
	if err != nil {
		return nil, err
	}
	s.DB = database

	// Initialize ledger
	s.Ledger = ledger.New(database.DB)
	if n, err := s.Ledger.DeleteOlderThan(ledgerRetention); err != nil {
		log.Warn().Err(err).Msg("Failed to prune ledger")
	} else if n > 0 {
		log.Info().Int64("deleted", n).Msg("Pruned ledger")
	}

	// Initialize climate service
	s.Climate, err = NewClimateService(cfg, s.Ledger)
	if err != nil {
		s.Close()
		return nil, err
	}

	// Initialize status service
	s.Status = NewStatusService(cfg, s.Climate.Session)

	return s, nil
}

// Start starts all background services.
func (s *Services) Start(ctx context.Context) error {
	s.Climate.StartBackground(ctx)
	s.Status.Start(ctx)
	return nil
}

// Stop gracefully stops all services. The context passed to Start must be cancelled first;
// the database is closed only after the poller has returned or the shutdown timeout passed.
func (s *Services) Stop() error {
	var err error
	if done := s.Climate.Done(); done != nil {
		select {
		case <-done:
		case <-time.After(s.cfg.ShutdownTimeout.Duration()):
			err = errors.New("timed out waiting for the poller to stop")
		}
	}
	s.Close()
	return err
}

// Close releases all resources.
func (s *Services) Close() {
	if s.Climate != nil {
		s.Climate.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}
