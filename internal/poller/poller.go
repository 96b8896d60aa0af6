// Package poller runs the periodic synchronization loop.
package poller

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// SyncFunc performs one synchronization
type SyncFunc func(ctx context.Context) error

// Poller calls a SyncFunc immediately and then on every tick until its context ends
type Poller struct {
	sync     SyncFunc
	interval time.Duration
	timeout  time.Duration
}

// New creates a new Poller. timeout bounds each tick; 0 means no extra deadline.
func New(sync SyncFunc, interval, timeout time.Duration) *Poller {
	if interval <= 0 {
		interval = 100 * time.Second
	}
	return &Poller{
		sync:     sync,
		interval: interval,
		timeout:  timeout,
	}
}

// Run starts the loop. It returns when ctx is cancelled; sync failures never stop it.
func (p *Poller) Run(ctx context.Context) error {
	log.Info().Dur("interval", p.interval).Msg("Poller started")

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Poller stopping")
			return nil

		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	tickCtx := ctx
	if p.timeout > 0 {
		var cancel context.CancelFunc
		tickCtx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	if err := p.sync(tickCtx); err != nil {
		log.Debug().Err(err).Msg("Poll tick failed")
	}
}
