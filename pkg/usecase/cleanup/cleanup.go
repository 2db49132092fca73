package cleanup

import (
	"context"
	"time"

	"github.com/m-mizutani/minaret/pkg/service/state"
	"github.com/m-mizutani/minaret/pkg/utils/logging"
	"github.com/m-mizutani/minaret/pkg/utils/metrics"
)

const defaultSessionTTL = 20 * time.Minute

// SessionWriter writes a cleared session back to the source of truth.
type SessionWriter interface {
	ClearSession(ctx context.Context, path string) error
}

// Cleaner reclaims prayer sessions that have been active for too long,
// clearing them both in the state store and at the source of truth. This
// is the only component that mutates the source of truth on its own.
type Cleaner struct {
	store  *state.Store
	writer SessionWriter
	ttl    time.Duration
	now    func() time.Time
}

type Option func(*Cleaner)

// WithSessionTTL overrides the maximum session age.
func WithSessionTTL(ttl time.Duration) Option {
	return func(c *Cleaner) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(c *Cleaner) {
		c.now = now
	}
}

func New(store *state.Store, writer SessionWriter, opts ...Option) *Cleaner {
	c := &Cleaner{
		store:  store,
		writer: writer,
		ttl:    defaultSessionTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Sweep scans the state store once and clears every expired session.
// Per-entity failures are logged and do not stop the scan. Returns the
// number of sessions cleared.
func (c *Cleaner) Sweep(ctx context.Context) int {
	logger := logging.From(ctx).With("component", "cleanup")
	cutoff := c.now().Add(-c.ttl)
	cleared := 0

	for path, st := range c.store.Members() {
		if st.Session == nil || st.Session.StartedAt.IsZero() || st.Session.StartedAt.After(cutoff) {
			continue
		}

		if err := c.writer.ClearSession(ctx, path); err != nil {
			logger.Error("failed to clear stale session", "path", path, "error", err)
			continue
		}

		c.store.ClearSession(path)
		cleared++
		metrics.SessionsCleared.Inc()
		logger.Debug("cleared stale session", "path", path)
	}

	if cleared > 0 {
		logger.Info("cleanup done", "cleared", cleared)
	}
	return cleared
}

// Run sweeps on a fixed interval until ctx is done.
func (c *Cleaner) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Sweep(ctx)
		}
	}
}
