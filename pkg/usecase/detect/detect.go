package detect

import (
	"time"

	"github.com/m-mizutani/minaret/pkg/model"
	"github.com/m-mizutani/minaret/pkg/repository"
	"github.com/m-mizutani/minaret/pkg/service/state"
)

// Detector derives semantic events from document changes by comparing the
// incoming revision against the stored snapshot. After detection the
// snapshot is always replaced with the new revision (last-write-wins).
type Detector struct {
	store *state.Store
	now   func() time.Time
}

type Option func(*Detector)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) Option {
	return func(d *Detector) {
		d.now = now
	}
}

func New(store *state.Store, opts ...Option) *Detector {
	d := &Detector{
		store: store,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// SeedMember records a baseline document without emitting events.
func (d *Detector) SeedMember(path string, m *model.Member) {
	d.store.SetMember(path, model.StateOf(m))
}

// SeedEncouragement records a baseline encouragement id without emitting
// events.
func (d *Detector) SeedEncouragement(id string) {
	d.store.MarkSeen(id)
}

// OnMemberChange returns the events implied by one member-document change
// and replaces the stored snapshot.
func (d *Detector) OnMemberChange(c repository.MemberChange) []model.Event {
	switch c.Kind {
	case model.DocAdded:
		d.store.SetMember(c.Path, model.StateOf(c.Member))
		if c.Member == nil || !c.Member.IsActive || c.Member.IsShadow {
			return nil
		}
		return []model.Event{{
			Kind:        model.EventNewMember,
			GroupID:     c.GroupID,
			UserID:      c.Member.UserID,
			DisplayName: c.Member.DisplayName,
		}}

	case model.DocModified:
		if c.Member == nil {
			return nil
		}
		prev, _ := d.store.Member(c.Path)
		events := d.diff(c, prev)
		d.store.SetMember(c.Path, model.StateOf(c.Member))
		return events

	case model.DocRemoved:
		// Removal is not a user-facing activity.
		d.store.DeleteMember(c.Path)
	}

	return nil
}

func (d *Detector) diff(c repository.MemberChange, prev model.MemberState) []model.Event {
	var events []model.Event
	m := c.Member

	if s := m.PrayingNow; s != nil && (prev.Session == nil || prev.Session.PrayerName != s.PrayerName) {
		events = append(events, model.Event{
			Kind:        model.EventPrayingNow,
			GroupID:     c.GroupID,
			UserID:      m.UserID,
			DisplayName: m.DisplayName,
			Prayer:      s.PrayerName,
		})
	}

	today := model.DayKey(d.now())
	newList := model.StateOf(m).EffectiveCompleted(today)
	prevList := prev.EffectiveCompleted(today)

	if len(newList) > len(prevList) {
		added := subtract(newList, prevList)
		if len(added) == 0 {
			// Entries were reordered rather than appended; fall back to
			// the positional suffix.
			added = newList[len(prevList):]
		}
		for _, prayer := range added {
			events = append(events, model.Event{
				Kind:        model.EventPrayerCompleted,
				GroupID:     c.GroupID,
				UserID:      m.UserID,
				DisplayName: m.DisplayName,
				Prayer:      prayer,
				DayKey:      today,
			})
		}
	}

	return events
}

// OnEncouragementChange returns the event implied by one encouragement
// change. Only newly added, never-seen documents produce an event.
func (d *Detector) OnEncouragementChange(c repository.EncouragementChange) []model.Event {
	if c.Kind != model.DocAdded {
		return nil
	}
	if !d.store.MarkSeen(c.ID) {
		return nil
	}

	e := c.Encouragement
	if e == nil || e.To == "" || e.From == "" {
		return nil
	}

	return []model.Event{{
		Kind:     e.EventKind(),
		GroupID:  e.GroupID,
		FromName: e.From,
		TargetID: e.To,
	}}
}

// subtract returns the members of list absent from base, preserving the
// order of list.
func subtract(list, base []model.PrayerName) []model.PrayerName {
	inBase := make(map[model.PrayerName]struct{}, len(base))
	for _, p := range base {
		inBase[p] = struct{}{}
	}

	var out []model.PrayerName
	for _, p := range list {
		if _, ok := inBase[p]; !ok {
			out = append(out, p)
		}
	}
	return out
}
