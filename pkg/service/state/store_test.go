package state_test

import (
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	"github.com/m-mizutani/minaret/pkg/model"
	"github.com/m-mizutani/minaret/pkg/service/state"
)

func TestMemberLifecycle(t *testing.T) {
	store := state.New()

	_, ok := store.Member("groups/g1/members/u1")
	gt.False(t, ok)

	st := model.MemberState{
		Session:       &model.Session{PrayerName: "fajr", StartedAt: time.Now()},
		CompletedDate: "2026-02-23",
	}
	store.SetMember("groups/g1/members/u1", st)

	got, ok := store.Member("groups/g1/members/u1")
	gt.True(t, ok)
	gt.V(t, got.Session.PrayerName).Equal(model.PrayerName("fajr"))
	gt.Equal(t, store.Len(), 1)

	store.DeleteMember("groups/g1/members/u1")
	_, ok = store.Member("groups/g1/members/u1")
	gt.False(t, ok)
	gt.Equal(t, store.Len(), 0)
}

func TestClearSession(t *testing.T) {
	store := state.New()
	store.SetMember("groups/g1/members/u1", model.MemberState{
		Session:        &model.Session{PrayerName: "asr"},
		CompletedToday: []model.PrayerName{"fajr"},
		CompletedDate:  "2026-02-23",
	})

	store.ClearSession("groups/g1/members/u1")

	got, ok := store.Member("groups/g1/members/u1")
	gt.True(t, ok)
	gt.V(t, got.Session).Nil()
	// Only the session is cleared, the rest of the snapshot survives.
	gt.Equal(t, len(got.CompletedToday), 1)

	// Unknown path is a no-op.
	store.ClearSession("groups/g1/members/unknown")
}

func TestMarkSeen(t *testing.T) {
	store := state.New()

	gt.True(t, store.MarkSeen("e1"))
	gt.False(t, store.MarkSeen("e1"))
	gt.True(t, store.MarkSeen("e2"))
}

func TestMembersSnapshot(t *testing.T) {
	store := state.New()
	store.SetMember("p1", model.MemberState{CompletedDate: "2026-02-23"})
	store.SetMember("p2", model.MemberState{})

	snapshot := store.Members()
	gt.Equal(t, len(snapshot), 2)

	// Mutating the store does not affect the returned copy.
	store.DeleteMember("p1")
	gt.Equal(t, len(snapshot), 2)
	gt.Equal(t, store.Len(), 1)
}
