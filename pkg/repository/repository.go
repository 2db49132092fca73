package repository

import (
	"context"

	"github.com/m-mizutani/minaret/pkg/model"
)

// MemberChange is one member-document change delivered by the feed. Member
// is nil for removed documents.
type MemberChange struct {
	Kind    model.ChangeKind
	Path    string // document path relative to the database root
	GroupID model.GroupID
	Member  *model.Member
}

// MemberBatch is one delivery of the member feed. Reset marks the first
// batch after (re)connection: a full replay of the current dataset that
// must be treated as baseline, not as new activity.
type MemberBatch struct {
	Changes []MemberChange
	Reset   bool
}

// EncouragementChange is one encouragements-document change.
type EncouragementChange struct {
	Kind          model.ChangeKind
	ID            string
	Encouragement *model.Encouragement
}

// EncouragementBatch is one delivery of the encouragement feed.
type EncouragementBatch struct {
	Changes []EncouragementChange
	Reset   bool
}

// Directory resolves routing facts about users and groups. Lookups are
// point reads against the source of truth, never cached, and tolerant of
// missing data: a missing record or field yields the zero value so a
// lookup failure degrades to a dropped notification, not a pipeline error.
type Directory interface {
	// DeliveryToken resolves a user's push-delivery address. "" when the
	// user has no registered device.
	DeliveryToken(ctx context.Context, userID model.UserID) string

	// GhostMode reports whether the user opted out of activity broadcasts
	// about them.
	GhostMode(ctx context.Context, userID model.UserID) bool

	// GroupAdmin resolves the administrator of a group. "" when the group
	// has no admin.
	GroupAdmin(ctx context.Context, groupID model.GroupID) model.UserID
}

// Repository is the full source-of-truth surface: the two change feeds,
// the directory, and the single writeback the pipeline performs.
type Repository interface {
	Directory

	// WatchMembers streams member-document batches until ctx is done. The
	// subscription is long-lived and reconnects on its own; each reconnect
	// produces a batch with Reset set.
	WatchMembers(ctx context.Context) (<-chan MemberBatch, error)

	// WatchEncouragements streams encouragement-document batches with the
	// same reconnect semantics as WatchMembers.
	WatchEncouragements(ctx context.Context) (<-chan EncouragementBatch, error)

	// ClearSession writes a cleared prayingNow back to a member document.
	ClearSession(ctx context.Context, path string) error

	Close() error
}
