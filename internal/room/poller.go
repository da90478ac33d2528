package room

import (
	"context"
	"fmt"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/dutchbamin/together/pkg/logger"
)

// Poller re-runs the synchronizer on a fixed period until its context is
// cancelled. It stands in for server push: every tick is a background
// refresh, and a tick whose predecessor has not resolved is skipped.
type Poller struct {
	syncer   *Syncer
	interval time.Duration
	clock    clockwork.Clock
	logg     *logger.Logger
}

// NewPoller builds a poller over the given synchronizer. In production
// the clock is real; tests inject clockwork.NewFakeClock.
func NewPoller(syncer *Syncer, interval time.Duration, clock clockwork.Clock, logg *logger.Logger) (*Poller, error) {
	if syncer == nil {
		return nil, fmt.Errorf("syncer is required")
	}
	if interval <= 0 {
		return nil, fmt.Errorf("poll interval must be positive")
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	return &Poller{
		syncer:   syncer,
		interval: interval,
		clock:    clock,
		logg:     logg,
	}, nil
}

// Run blocks, refreshing on every tick, until ctx is cancelled. The
// initial load is the caller's responsibility; Run only does background
// refreshes.
func (p *Poller) Run(ctx context.Context) {
	ctx = p.logg.WithRoomID(ctx, p.syncer.RoomID())
	p.logg.Info(ctx, "room polling started")

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logg.Info(ctx, "room polling stopped")
			return
		case <-ticker.Chan():
			p.syncer.TryBackgroundLoad(ctx)
		}
	}
}
