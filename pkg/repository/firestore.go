package repository

import (
	"context"
	"strings"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/minaret/pkg/model"
	"github.com/m-mizutani/minaret/pkg/utils/logging"
	"google.golang.org/api/option"
)

const (
	membersCollection        = "members"
	encouragementsCollection = "encouragements"
	usersCollection          = "users"
	groupsCollection         = "groups"

	reconnectWait = 5 * time.Second
)

// firestoreRepo implements Repository against Firestore.
type firestoreRepo struct {
	client *firestore.Client
}

// NewFirestore creates a Firestore-backed repository.
func NewFirestore(ctx context.Context, projectID, databaseID string, opts ...option.ClientOption) (Repository, error) {
	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID, opts...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("project", projectID), goerr.V("database", databaseID))
	}

	return &firestoreRepo{client: client}, nil
}

func (r *firestoreRepo) Close() error {
	return r.client.Close()
}

func (r *firestoreRepo) WatchMembers(ctx context.Context) (<-chan MemberBatch, error) {
	ch := make(chan MemberBatch)
	go r.watchMembers(ctx, ch)
	return ch, nil
}

func (r *firestoreRepo) watchMembers(ctx context.Context, ch chan<- MemberBatch) {
	defer close(ch)
	logger := logging.From(ctx).With("component", "member_feed")

	for ctx.Err() == nil {
		it := r.client.CollectionGroup(membersCollection).Snapshots(ctx)
		reset := true

		for {
			snap, err := it.Next()
			if err != nil {
				it.Stop()
				if ctx.Err() != nil {
					return
				}
				// Next batch after reconnect replays the full dataset,
				// so the Reset flag re-arms downstream baseline handling.
				logger.Error("member feed interrupted", "error", err)
				break
			}

			batch := MemberBatch{Reset: reset}
			reset = false
			for _, c := range snap.Changes {
				mc, err := memberChange(c)
				if err != nil {
					logger.Warn("skipping malformed member change", "error", err)
					continue
				}
				batch.Changes = append(batch.Changes, mc)
			}

			select {
			case ch <- batch:
			case <-ctx.Done():
				it.Stop()
				return
			}
		}

		select {
		case <-time.After(reconnectWait):
		case <-ctx.Done():
			return
		}
	}
}

func memberChange(c firestore.DocumentChange) (MemberChange, error) {
	ref := c.Doc.Ref
	group := ref.Parent.Parent
	if group == nil {
		return MemberChange{}, goerr.New("member document has no parent group", goerr.V("path", ref.Path))
	}

	mc := MemberChange{
		Kind:    changeKind(c.Kind),
		Path:    relPath(ref),
		GroupID: model.GroupID(group.ID),
	}

	if c.Kind != firestore.DocumentRemoved {
		var m model.Member
		if err := c.Doc.DataTo(&m); err != nil {
			return MemberChange{}, goerr.Wrap(err, "failed to decode member document", goerr.V("path", ref.Path))
		}
		mc.Member = &m
	}

	return mc, nil
}

func (r *firestoreRepo) WatchEncouragements(ctx context.Context) (<-chan EncouragementBatch, error) {
	ch := make(chan EncouragementBatch)
	go r.watchEncouragements(ctx, ch)
	return ch, nil
}

func (r *firestoreRepo) watchEncouragements(ctx context.Context, ch chan<- EncouragementBatch) {
	defer close(ch)
	logger := logging.From(ctx).With("component", "encouragement_feed")

	for ctx.Err() == nil {
		it := r.client.CollectionGroup(encouragementsCollection).Snapshots(ctx)
		reset := true

		for {
			snap, err := it.Next()
			if err != nil {
				it.Stop()
				if ctx.Err() != nil {
					return
				}
				logger.Error("encouragement feed interrupted", "error", err)
				break
			}

			batch := EncouragementBatch{Reset: reset}
			reset = false
			for _, c := range snap.Changes {
				ec := EncouragementChange{
					Kind: changeKind(c.Kind),
					ID:   c.Doc.Ref.ID,
				}
				if c.Kind != firestore.DocumentRemoved {
					var e model.Encouragement
					if err := c.Doc.DataTo(&e); err != nil {
						logger.Warn("skipping malformed encouragement", "path", c.Doc.Ref.Path, "error", err)
						continue
					}
					ec.Encouragement = &e
				}
				batch.Changes = append(batch.Changes, ec)
			}

			select {
			case ch <- batch:
			case <-ctx.Done():
				it.Stop()
				return
			}
		}

		select {
		case <-time.After(reconnectWait):
		case <-ctx.Done():
			return
		}
	}
}

func (r *firestoreRepo) DeliveryToken(ctx context.Context, userID model.UserID) string {
	if userID == "" {
		return ""
	}
	doc, err := r.client.Collection(usersCollection).Doc(string(userID)).Get(ctx)
	if err != nil {
		logging.From(ctx).Debug("user lookup failed", "user", userID, "error", err)
		return ""
	}
	token, _ := doc.Data()["fcmToken"].(string)
	return token
}

func (r *firestoreRepo) GhostMode(ctx context.Context, userID model.UserID) bool {
	if userID == "" {
		return false
	}
	doc, err := r.client.Collection(usersCollection).Doc(string(userID)).Get(ctx)
	if err != nil {
		logging.From(ctx).Debug("user lookup failed", "user", userID, "error", err)
		return false
	}
	ghost, _ := doc.Data()["familyGhostMode"].(bool)
	return ghost
}

func (r *firestoreRepo) GroupAdmin(ctx context.Context, groupID model.GroupID) model.UserID {
	if groupID == "" {
		return ""
	}
	doc, err := r.client.Collection(groupsCollection).Doc(string(groupID)).Get(ctx)
	if err != nil {
		logging.From(ctx).Debug("group lookup failed", "group", groupID, "error", err)
		return ""
	}
	admin, _ := doc.Data()["adminId"].(string)
	return model.UserID(admin)
}

func (r *firestoreRepo) ClearSession(ctx context.Context, path string) error {
	_, err := r.client.Doc(path).Update(ctx, []firestore.Update{
		{Path: "prayingNow", Value: nil},
	})
	if err != nil {
		return goerr.Wrap(err, "failed to clear session", goerr.V("path", path))
	}
	return nil
}

func changeKind(k firestore.DocumentChangeKind) model.ChangeKind {
	switch k {
	case firestore.DocumentModified:
		return model.DocModified
	case firestore.DocumentRemoved:
		return model.DocRemoved
	default:
		return model.DocAdded
	}
}

// relPath strips the project/database prefix from a document resource name
// so the path can be fed back to client.Doc.
func relPath(ref *firestore.DocumentRef) string {
	const marker = "/documents/"
	if i := strings.Index(ref.Path, marker); i >= 0 {
		return ref.Path[i+len(marker):]
	}
	return ref.Path
}
