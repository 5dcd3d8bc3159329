package wired

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Setupper is the part of Connection the poller drives.
type Setupper interface {
	Setup(ctx context.Context, req SetupRequest) (Status, error)
}

// Poller re-runs Setup on a fixed interval and reports status changes.
type Poller struct {
	Conn     Setupper
	Request  SetupRequest
	Interval time.Duration
	Logger   zerolog.Logger
	// OnStatus, when set, is called after every pass with its result.
	OnStatus func(Status, error)
}

// Run polls until ctx is cancelled. Setup errors are logged and polling
// continues; the next pass starts from the device's current state.
func (p *Poller) Run(ctx context.Context) error {
	interval := p.Interval
	if interval <= 0 {
		interval = time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last Status
	var lastErr string
	first := true

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		status, err := p.Conn.Setup(ctx, p.Request)
		if p.OnStatus != nil {
			p.OnStatus(status, err)
		}

		switch {
		case err != nil:
			if err.Error() != lastErr {
				p.Logger.Error().Err(err).Msg("wired connection setup failed")
			}
			lastErr = err.Error()
			first = true
		case first || status != last:
			p.Logger.Info().Bool("ready", status.Ready).Str("reason", status.Reason).Msg("wired connection status")
			last = status
			lastErr = ""
			first = false
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
