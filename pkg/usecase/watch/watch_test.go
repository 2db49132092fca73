package watch_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/minaret/pkg/model"
	"github.com/m-mizutani/minaret/pkg/repository"
	"github.com/m-mizutani/minaret/pkg/service/dedup"
	"github.com/m-mizutani/minaret/pkg/service/state"
	"github.com/m-mizutani/minaret/pkg/usecase/detect"
	"github.com/m-mizutani/minaret/pkg/usecase/notify"
	"github.com/m-mizutani/minaret/pkg/usecase/watch"
)

type fakeFeed struct {
	members        chan repository.MemberBatch
	encouragements chan repository.EncouragementBatch
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{
		members:        make(chan repository.MemberBatch),
		encouragements: make(chan repository.EncouragementBatch),
	}
}

func (f *fakeFeed) WatchMembers(_ context.Context) (<-chan repository.MemberBatch, error) {
	return f.members, nil
}

func (f *fakeFeed) WatchEncouragements(_ context.Context) (<-chan repository.EncouragementBatch, error) {
	return f.encouragements, nil
}

type fakeDirectory struct{}

func (fakeDirectory) DeliveryToken(_ context.Context, userID model.UserID) string {
	return "tok-" + string(userID)
}
func (fakeDirectory) GhostMode(context.Context, model.UserID) bool { return false }

func (fakeDirectory) GroupAdmin(context.Context, model.GroupID) model.UserID { return "admin1" }

type fakeMessenger struct {
	mu   sync.Mutex
	sent []*model.Notification
}

func (m *fakeMessenger) Send(_ context.Context, n *model.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, n)
	return nil
}

func (m *fakeMessenger) Sent() []*model.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*model.Notification{}, m.sent...)
}

func memberDoc(prayer model.PrayerName) *model.Member {
	m := &model.Member{
		UserID:      "u1",
		DisplayName: "Amina",
		IsActive:    true,
	}
	if prayer != "" {
		m.PrayingNow = &model.Session{PrayerName: prayer, StartedAt: time.Now()}
	}
	return m
}

func memberChange(kind model.ChangeKind, m *model.Member) repository.MemberChange {
	return repository.MemberChange{
		Kind:    kind,
		Path:    "groups/g1/members/u1",
		GroupID: "g1",
		Member:  m,
	}
}

func run(t *testing.T, feed *fakeFeed) (*fakeMessenger, *state.Store, func()) {
	t.Helper()

	store := state.New()
	msg := &fakeMessenger{}
	detector := detect.New(store)
	router := notify.New(fakeDirectory{}, msg, dedup.New(), model.DefaultLocale())
	watcher := watch.New(feed, detector, router, watch.WithWorkerLimit(4))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = watcher.Run(context.Background())
	}()

	return msg, store, func() {
		close(feed.members)
		close(feed.encouragements)
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	}
}

func TestBaselineEmitsNothing(t *testing.T) {
	feed := newFakeFeed()
	msg, store, stop := run(t, feed)

	feed.members <- repository.MemberBatch{
		Reset: true,
		Changes: []repository.MemberChange{
			memberChange(model.DocAdded, memberDoc("fajr")),
		},
	}
	feed.encouragements <- repository.EncouragementBatch{
		Reset: true,
		Changes: []repository.EncouragementChange{
			{Kind: model.DocAdded, ID: "e1", Encouragement: &model.Encouragement{To: "u2", From: "Amina"}},
		},
	}
	stop()

	// Initial load populates state but produces zero notifications.
	gt.Equal(t, len(msg.Sent()), 0)
	st, ok := store.Member("groups/g1/members/u1")
	gt.True(t, ok)
	gt.V(t, st.Session.PrayerName).Equal(model.PrayerName("fajr"))
	gt.False(t, store.MarkSeen("e1"))
}

func TestIncrementalBatchDispatches(t *testing.T) {
	feed := newFakeFeed()
	msg, _, stop := run(t, feed)

	feed.members <- repository.MemberBatch{Reset: true}
	feed.members <- repository.MemberBatch{
		Changes: []repository.MemberChange{
			memberChange(model.DocModified, memberDoc("fajr")),
		},
	}
	stop()

	sent := msg.Sent()
	gt.Equal(t, len(sent), 1)
	gt.Equal(t, sent[0].Destination.Topic, "family_g1")
	gt.Equal(t, sent[0].Data["type"], "praying_now")
}

func TestReconnectReplayIsBaseline(t *testing.T) {
	feed := newFakeFeed()
	msg, _, stop := run(t, feed)

	feed.members <- repository.MemberBatch{Reset: true}
	feed.members <- repository.MemberBatch{
		Changes: []repository.MemberChange{
			memberChange(model.DocModified, memberDoc("fajr")),
		},
	}

	// After a feed error the full dataset replays with Reset set; the
	// same documents must not be reinterpreted as new activity.
	feed.members <- repository.MemberBatch{
		Reset: true,
		Changes: []repository.MemberChange{
			memberChange(model.DocAdded, memberDoc("dhuhr")),
		},
	}
	stop()

	gt.Equal(t, len(msg.Sent()), 1)
}

func TestEncouragementDispatch(t *testing.T) {
	feed := newFakeFeed()
	msg, _, stop := run(t, feed)

	feed.encouragements <- repository.EncouragementBatch{Reset: true}
	feed.encouragements <- repository.EncouragementBatch{
		Changes: []repository.EncouragementChange{
			{Kind: model.DocAdded, ID: "e1", Encouragement: &model.Encouragement{
				Type: "dua", To: "u2", From: "Amina", GroupID: "g1",
			}},
			// Non-added changes never dispatch.
			{Kind: model.DocRemoved, ID: "e0"},
		},
	}
	stop()

	sent := msg.Sent()
	gt.Equal(t, len(sent), 1)
	gt.Equal(t, sent[0].Destination.Token, "tok-u2")
	gt.Equal(t, sent[0].Data["type"], "dua")
}
