package state

import (
	"sync"

	"github.com/m-mizutani/minaret/pkg/model"
)

// Store keeps the last observed transient state per member document and
// the set of encouragement ids already handled. It is rebuildable from
// the source of truth at any time and is never persisted.
type Store struct {
	mu      sync.RWMutex
	members map[string]model.MemberState // keyed by document path
	seen    map[string]struct{}          // encouragement document ids
}

func New() *Store {
	return &Store{
		members: make(map[string]model.MemberState),
		seen:    make(map[string]struct{}),
	}
}

// Member returns the stored snapshot for a document path.
func (s *Store) Member(path string) (model.MemberState, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st, ok := s.members[path]
	return st, ok
}

// SetMember replaces the snapshot for a document path wholesale.
func (s *Store) SetMember(path string, st model.MemberState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[path] = st
}

// DeleteMember drops the snapshot for a removed document.
func (s *Store) DeleteMember(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.members, path)
}

// ClearSession clears only the session field of a stored snapshot. No-op
// when the path is unknown.
func (s *Store) ClearSession(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if st, ok := s.members[path]; ok {
		st.Session = nil
		s.members[path] = st
	}
}

// MarkSeen records an encouragement id and reports whether it was new.
func (s *Store) MarkSeen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[id]; ok {
		return false
	}
	s.seen[id] = struct{}{}
	return true
}

// Members returns a point-in-time copy of all member snapshots. Callers
// iterate the copy, so mutating the store during iteration is safe.
func (s *Store) Members() map[string]model.MemberState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.MemberState, len(s.members))
	for path, st := range s.members {
		out[path] = st
	}
	return out
}

// Len returns the number of tracked member documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}
