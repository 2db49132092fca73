package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/m-mizutani/minaret/pkg/adapter"
	"github.com/m-mizutani/minaret/pkg/model"
	"github.com/m-mizutani/minaret/pkg/repository"
	"github.com/m-mizutani/minaret/pkg/service/dedup"
	"github.com/m-mizutani/minaret/pkg/utils/logging"
	"github.com/m-mizutani/minaret/pkg/utils/metrics"
)

// Dedup windows per event kind. Fixed policy, not configurable per call.
const (
	newMemberTTL       = 30 * time.Second
	prayingNowTTL      = 90 * time.Second
	prayerCompletedTTL = 5 * time.Minute
	encouragementTTL   = 5 * time.Second
)

// Router turns semantic events into delivery requests, applying dedup and
// eligibility checks before handing them to the push provider. It is the
// single dispatch core shared by the change-stream watcher and the admin
// API.
type Router struct {
	directory repository.Directory
	messenger adapter.Messenger
	cache     *dedup.Cache
	locale    *model.Locale
}

func New(directory repository.Directory, messenger adapter.Messenger, cache *dedup.Cache, locale *model.Locale) *Router {
	if locale == nil {
		locale = model.DefaultLocale()
	}
	return &Router{
		directory: directory,
		messenger: messenger,
		cache:     cache,
		locale:    locale,
	}
}

// Dispatch routes one event. Suppressed or ineligible events drop
// silently; delivery failures are logged and swallowed so one event never
// blocks its siblings in the same change batch.
func (r *Router) Dispatch(ctx context.Context, ev model.Event) {
	switch ev.Kind {
	case model.EventNewMember:
		r.newMember(ctx, ev)
	case model.EventPrayingNow, model.EventPrayerCompleted:
		r.activity(ctx, ev)
	case model.EventEncouragement, model.EventDua:
		r.encouragement(ctx, ev)
	default:
		logging.From(ctx).Warn("unknown event kind", "kind", ev.Kind)
	}
}

func (r *Router) newMember(ctx context.Context, ev model.Event) {
	key := fmt.Sprintf("new_member:%s:%s", ev.GroupID, ev.UserID)
	if r.cache.ShouldSuppress(key, newMemberTTL) {
		metrics.NotificationsSuppressed.WithLabelValues(string(ev.Kind)).Inc()
		return
	}

	adminID := r.directory.GroupAdmin(ctx, ev.GroupID)
	if adminID == "" || adminID == ev.UserID {
		// No admin to notify, or the admin joined their own group.
		metrics.NotificationsDropped.WithLabelValues(string(ev.Kind)).Inc()
		return
	}

	token := r.directory.DeliveryToken(ctx, adminID)
	if token == "" {
		metrics.NotificationsDropped.WithLabelValues(string(ev.Kind)).Inc()
		return
	}

	name := ev.DisplayName
	if name == "" {
		name = "مستخدم جديد"
	}

	r.send(ctx, &model.Notification{
		Destination: model.Destination{Token: token},
		Title:       name + " انضم لعائلتك 👋",
		Body:        "افتح التطبيق لترحيب به",
		Data: r.payload(ev.Kind, ev.GroupID, map[string]string{
			"memberId": string(ev.UserID),
		}),
	})
}

func (r *Router) activity(ctx context.Context, ev model.Event) {
	var key string
	var ttl time.Duration
	if ev.Kind == model.EventPrayingNow {
		key = fmt.Sprintf("praying_now:%s:%s:%s", ev.GroupID, ev.UserID, ev.Prayer)
		ttl = prayingNowTTL
	} else {
		key = fmt.Sprintf("prayer_done:%s:%s:%s:%s", ev.GroupID, ev.UserID, ev.Prayer, ev.DayKey)
		ttl = prayerCompletedTTL
	}

	if r.cache.ShouldSuppress(key, ttl) {
		metrics.NotificationsSuppressed.WithLabelValues(string(ev.Kind)).Inc()
		return
	}

	if r.directory.GhostMode(ctx, ev.UserID) {
		metrics.NotificationsDropped.WithLabelValues(string(ev.Kind)).Inc()
		return
	}

	title, body := r.activityText(ev.Kind, ev.DisplayName, ev.Prayer)
	r.send(ctx, &model.Notification{
		Destination: model.Destination{Topic: model.TopicOf(ev.GroupID)},
		Title:       title,
		Body:        body,
		Data: r.payload(ev.Kind, ev.GroupID, map[string]string{
			"userId":     string(ev.UserID),
			"prayerName": string(ev.Prayer),
		}),
	})
}

func (r *Router) encouragement(ctx context.Context, ev model.Event) {
	// Keyed on (target, sender): a repeat seconds apart is a genuine user
	// action, only near-simultaneous duplicate deliveries are dropped.
	key := fmt.Sprintf("encouragement:%s:%s", ev.TargetID, ev.FromName)
	if r.cache.ShouldSuppress(key, encouragementTTL) {
		metrics.NotificationsSuppressed.WithLabelValues(string(ev.Kind)).Inc()
		return
	}

	token := r.directory.DeliveryToken(ctx, ev.TargetID)
	if token == "" {
		metrics.NotificationsDropped.WithLabelValues(string(ev.Kind)).Inc()
		return
	}

	var title, body string
	if ev.Kind == model.EventDua {
		title = ev.FromName + " دعا لك 🤲"
		body = "اللهم تقبل صلاتك"
	} else {
		title = ev.FromName + " يشجّعك على الصلاة 💪"
		body = "لا تفوّت هذه الصلاة مع عائلتك"
	}

	r.send(ctx, &model.Notification{
		Destination: model.Destination{Token: token},
		Title:       title,
		Body:        body,
		Data: r.payload(ev.Kind, ev.GroupID, map[string]string{
			"fromName": ev.FromName,
		}),
	})
}

// BroadcastActivity sends a group broadcast for a manually triggered
// activity event, bypassing detection, dedup, and ghost mode. Used by the
// admin API.
func (r *Router) BroadcastActivity(ctx context.Context, kind model.EventKind, groupID model.GroupID, memberName string, prayer model.PrayerName) error {
	title, body := r.activityText(kind, memberName, prayer)
	return r.send(ctx, &model.Notification{
		Destination: model.Destination{Topic: model.TopicOf(groupID)},
		Title:       title,
		Body:        body,
		Data: r.payload(kind, groupID, map[string]string{
			"memberName": memberName,
			"prayerName": string(prayer),
		}),
	})
}

func (r *Router) activityText(kind model.EventKind, name string, prayer model.PrayerName) (string, string) {
	if name == "" {
		name = "أحد أفراد العائلة"
	}
	display := r.locale.Prayer(prayer)

	if kind == model.EventPrayingNow {
		return name + " يصلّي " + display + " الآن 🤲", "اللهم تقبل"
	}
	return name + " أكمل " + display + " ✨", "ما شاء الله — اللهم تقبل"
}

func (r *Router) payload(kind model.EventKind, groupID model.GroupID, extra map[string]string) map[string]string {
	data := map[string]string{
		"type":       string(kind),
		"groupId":    string(groupID),
		"deliveryId": uuid.New().String(),
	}
	for k, v := range extra {
		data[k] = v
	}
	return data
}

// send performs exactly one delivery-provider call. Expected outcomes
// (empty topic, stale token) are logged at warning level and swallowed;
// unexpected failures are logged as errors and reported to the caller,
// who decides whether they surface (admin API) or not (watcher).
func (r *Router) send(ctx context.Context, n *model.Notification) error {
	logger := logging.From(ctx)
	kind := n.Data["type"]

	if err := r.messenger.Send(ctx, n); err != nil {
		if adapter.IsExpected(err) {
			logger.Warn("notification not deliverable", "error", err)
			metrics.NotificationsDropped.WithLabelValues(kind).Inc()
			return nil
		}
		logger.Error("failed to send notification", "error", err, "title", n.Title)
		metrics.NotificationsFailed.WithLabelValues(kind).Inc()
		return err
	}

	metrics.NotificationsSent.WithLabelValues(kind).Inc()
	logger.Info("notification sent",
		"type", kind,
		"topic", n.Destination.Topic,
		"title", n.Title)
	return nil
}
