package model

type EventKind string

const (
	EventNewMember       EventKind = "new_member"
	EventPrayingNow      EventKind = "praying_now"
	EventPrayerCompleted EventKind = "prayer_completed"
	EventEncouragement   EventKind = "encouragement"
	EventDua             EventKind = "dua"
)

// Event is a semantic activity event derived from a document change. Kind
// selects the variant; only the fields of that variant are populated. Events
// are transient and never persisted.
type Event struct {
	Kind    EventKind
	GroupID GroupID

	// new_member / praying_now / prayer_completed
	UserID      UserID
	DisplayName string

	// praying_now / prayer_completed
	Prayer PrayerName

	// prayer_completed
	DayKey string

	// encouragement / dua
	FromName string
	TargetID UserID
}
