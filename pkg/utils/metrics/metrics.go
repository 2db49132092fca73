package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// NotificationsSent counts deliveries accepted by the push provider.
	NotificationsSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minaret",
		Name:      "notifications_sent_total",
		Help:      "Notifications accepted by the delivery provider",
	}, []string{"type"})

	// NotificationsSuppressed counts events dropped by the dedup window.
	NotificationsSuppressed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minaret",
		Name:      "notifications_suppressed_total",
		Help:      "Events suppressed as recent duplicates",
	}, []string{"type"})

	// NotificationsDropped counts events dropped by eligibility rules or
	// expected delivery outcomes (ghost mode, no admin, stale token, ...).
	NotificationsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minaret",
		Name:      "notifications_dropped_total",
		Help:      "Events dropped before or during delivery for expected reasons",
	}, []string{"type"})

	// NotificationsFailed counts unexpected delivery errors.
	NotificationsFailed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minaret",
		Name:      "notifications_failed_total",
		Help:      "Unexpected delivery failures",
	}, []string{"type"})

	// FeedResets counts baseline replays per change feed.
	FeedResets = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minaret",
		Name:      "feed_resets_total",
		Help:      "Baseline replays observed per change feed",
	}, []string{"feed"})

	// SessionsCleared counts stale sessions reclaimed by the cleaner.
	SessionsCleared = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "minaret",
		Name:      "sessions_cleared_total",
		Help:      "Stale prayer sessions cleared",
	})
)
