package model

import (
	"time"
)

type GroupID string
type UserID string
type PrayerName string

// Session is the transient "praying now" marker on a member document.
type Session struct {
	PrayerName PrayerName `firestore:"prayerName"`
	StartedAt  time.Time  `firestore:"startedAt"`
}

// Member mirrors the fields of a groups/{groupId}/members document that the
// pipeline consumes. Extra fields on the document are ignored.
type Member struct {
	UserID           UserID       `firestore:"userId"`
	DisplayName      string       `firestore:"displayName"`
	IsActive         bool         `firestore:"isActive"`
	IsShadow         bool         `firestore:"isShadow"`
	PrayingNow       *Session     `firestore:"prayingNow"`
	TodayPrayers     []PrayerName `firestore:"todayPrayers"`
	TodayPrayersDate string       `firestore:"todayPrayersDate"`
}

// MemberState is the per-document snapshot kept in memory between
// revisions. It is replaced wholesale on every observed revision.
type MemberState struct {
	Session        *Session
	CompletedToday []PrayerName
	CompletedDate  string
}

// EffectiveCompleted returns the completed-prayer list, applying the
// stale-day reset: the list is trusted only when its date stamp matches
// the given day key.
func (s MemberState) EffectiveCompleted(today string) []PrayerName {
	if s.CompletedDate != today {
		return nil
	}
	return s.CompletedToday
}

// StateOf derives the stored MemberState from a document revision.
func StateOf(m *Member) MemberState {
	if m == nil {
		return MemberState{}
	}
	return MemberState{
		Session:        m.PrayingNow,
		CompletedToday: m.TodayPrayers,
		CompletedDate:  m.TodayPrayersDate,
	}
}

// DayKey returns the UTC calendar-day key ("2026-02-23") that scopes
// todayPrayers on member documents.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}
