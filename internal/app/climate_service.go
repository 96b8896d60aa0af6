package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/remoctl/internal/climate"
	"github.com/dokzlo13/remoctl/internal/config"
	"github.com/dokzlo13/remoctl/internal/ledger"
	"github.com/dokzlo13/remoctl/internal/poller"
	"github.com/dokzlo13/remoctl/internal/remo"
)

// ClimateService wraps the climate components: API client, session, synchronizer, commander and poller.
type ClimateService struct {
	cfg *config.Config

	Client       *remo.Client
	Session      *climate.Session
	Synchronizer *climate.Synchronizer
	Commander    *climate.Commander
	Poller       *poller.Poller

	done chan struct{}
}

// NewClimateService creates a new ClimateService with all components initialized but not started.
func NewClimateService(cfg *config.Config, l *ledger.Ledger) (*ClimateService, error) {
	client, err := remo.NewClient(cfg.Remo.BaseURL, cfg.Remo.Token, remo.Options{
		Timeout:        cfg.Remo.Timeout.Duration(),
		RateLimitRPS:   cfg.Remo.RateLimitRPS,
		RateLimitBurst: cfg.Remo.RateLimitBurst,
	})
	if err != nil {
		return nil, err
	}

	policy, err := climate.ParseStepPolicy(cfg.Climate.StepFailurePolicy)
	if err != nil {
		return nil, err
	}

	session := climate.NewSession()

	syncer := climate.NewSynchronizer(client, session, climate.Target{
		SensorDeviceID: cfg.Climate.SensorDeviceID,
		ApplianceID:    cfg.Climate.ApplianceID,
		SensorType:     cfg.Climate.SensorType,
	}, l)

	commander := climate.NewCommander(client, session, syncer, climate.CommanderConfig{
		ApplianceID:        cfg.Climate.ApplianceID,
		DefaultTemperature: cfg.Climate.DefaultTemperature,
		Step:               cfg.Climate.Step,
		StepPolicy:         policy,
	}, l)

	p := poller.New(func(ctx context.Context) error {
		_, err := syncer.Synchronize(ctx)
		return err
	}, cfg.Poller.Interval.Duration(), cfg.Remo.Timeout.Duration())

	return &ClimateService{
		cfg:          cfg,
		Client:       client,
		Session:      session,
		Synchronizer: syncer,
		Commander:    commander,
		Poller:       p,
	}, nil
}

// StartBackground starts the poller. It stops when ctx is cancelled.
func (s *ClimateService) StartBackground(ctx context.Context) {
	log.Info().
		Str("appliance", s.cfg.Climate.ApplianceID).
		Str("sensor", s.cfg.Climate.SensorDeviceID).
		Str("step_policy", s.cfg.Climate.StepFailurePolicy).
		Msg("Starting climate session")

	s.done = make(chan struct{})
	go func() {
		defer close(s.done)
		if err := s.Poller.Run(ctx); err != nil {
			log.Error().Err(err).Msg("Poller error")
		}
	}()
}

// Done is closed after the poller returned, including its last in-flight tick.
// It is nil before StartBackground.
func (s *ClimateService) Done() <-chan struct{} {
	return s.done
}

// Close releases all resources.
func (s *ClimateService) Close() {
	if s.Client != nil {
		s.Client.Close()
	}
}
