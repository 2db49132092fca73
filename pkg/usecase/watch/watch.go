package watch

import (
	"context"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/minaret/pkg/model"
	"github.com/m-mizutani/minaret/pkg/repository"
	"github.com/m-mizutani/minaret/pkg/usecase/detect"
	"github.com/m-mizutani/minaret/pkg/usecase/notify"
	"github.com/m-mizutani/minaret/pkg/utils/logging"
	"github.com/m-mizutani/minaret/pkg/utils/metrics"
	"golang.org/x/sync/errgroup"
)

const defaultWorkerLimit = 8

// Feed is the slice of the repository the watcher consumes.
type Feed interface {
	WatchMembers(ctx context.Context) (<-chan repository.MemberBatch, error)
	WatchEncouragements(ctx context.Context) (<-chan repository.EncouragementBatch, error)
}

// Watcher consumes the two change feeds and drives detection and routing.
// Batches flagged Reset are baseline replays: they populate the state
// store and emit nothing.
type Watcher struct {
	feed     Feed
	detector *detect.Detector
	router   *notify.Router
	limit    int
}

type Option func(*Watcher)

// WithWorkerLimit bounds the number of concurrent per-document handlers
// within one batch.
func WithWorkerLimit(n int) Option {
	return func(w *Watcher) {
		if n > 0 {
			w.limit = n
		}
	}
}

func New(feed Feed, detector *detect.Detector, router *notify.Router, opts ...Option) *Watcher {
	w := &Watcher{
		feed:     feed,
		detector: detector,
		router:   router,
		limit:    defaultWorkerLimit,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run consumes both feeds until ctx is cancelled or the feeds close.
func (w *Watcher) Run(ctx context.Context) error {
	members, err := w.feed.WatchMembers(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to open member feed")
	}
	encouragements, err := w.feed.WatchEncouragements(ctx)
	if err != nil {
		return goerr.Wrap(err, "failed to open encouragement feed")
	}

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		w.consumeMembers(ctx, members)
		return nil
	})
	eg.Go(func() error {
		w.consumeEncouragements(ctx, encouragements)
		return nil
	})
	return eg.Wait()
}

func (w *Watcher) consumeMembers(ctx context.Context, feed <-chan repository.MemberBatch) {
	logger := logging.From(ctx).With("component", "watcher")

	for batch := range feed {
		if batch.Reset {
			for _, c := range batch.Changes {
				if c.Member != nil {
					w.detector.SeedMember(c.Path, c.Member)
				}
			}
			metrics.FeedResets.WithLabelValues("members").Inc()
			logger.Info("member baseline loaded", "docs", len(batch.Changes))
			continue
		}

		w.dispatchMembers(ctx, batch.Changes)
	}
}

// dispatchMembers fans the batch out to a bounded pool. Handlers for
// different documents have no ordering guarantee relative to each other;
// a document's state-store update happens inside its own task, after
// detection. The pool is drained before the next batch starts.
func (w *Watcher) dispatchMembers(ctx context.Context, changes []repository.MemberChange) {
	eg := &errgroup.Group{}
	eg.SetLimit(w.limit)

	for _, c := range changes {
		eg.Go(func() error {
			for _, ev := range w.detector.OnMemberChange(c) {
				w.router.Dispatch(ctx, ev)
			}
			return nil
		})
	}
	_ = eg.Wait()
}

func (w *Watcher) consumeEncouragements(ctx context.Context, feed <-chan repository.EncouragementBatch) {
	logger := logging.From(ctx).With("component", "watcher")

	for batch := range feed {
		if batch.Reset {
			for _, c := range batch.Changes {
				w.detector.SeedEncouragement(c.ID)
			}
			metrics.FeedResets.WithLabelValues("encouragements").Inc()
			logger.Info("encouragement baseline loaded", "docs", len(batch.Changes))
			continue
		}

		w.dispatchEncouragements(ctx, batch.Changes)
	}
}

func (w *Watcher) dispatchEncouragements(ctx context.Context, changes []repository.EncouragementChange) {
	eg := &errgroup.Group{}
	eg.SetLimit(w.limit)

	for _, c := range changes {
		if c.Kind != model.DocAdded {
			continue
		}
		eg.Go(func() error {
			for _, ev := range w.detector.OnEncouragementChange(c) {
				w.router.Dispatch(ctx, ev)
			}
			return nil
		})
	}
	_ = eg.Wait()
}
