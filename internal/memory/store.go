// Package memory keeps a bounded recent-turn window per (group, user) pair.
package memory

import (
	"context"
	"log"
	"sync"
	"time"

	"communibot/internal/model"
)

const (
	DefaultCap = 10
	DefaultTTL = 30 * time.Minute
)

// SnapshotCache persists turn windows across restarts, best effort. A nil
// cache disables snapshots.
type SnapshotCache interface {
	GetTurns(ctx context.Context, groupID string, userID int64) ([]model.ConversationTurn, bool, error)
	SetTurns(ctx context.Context, groupID string, userID int64, turns []model.ConversationTurn) error
	DeleteTurns(ctx context.Context, groupID string, userID int64) error
}

type pairKey struct {
	groupID string
	userID  int64
}

// window holds one pair's turns. Its mutex serializes appends so rapid
// successive questions from the same user cannot interleave.
type window struct {
	mu     sync.Mutex
	turns  []model.ConversationTurn
	loaded bool // snapshot restore attempted
}

// Store is the conversation memory. Pairs are fully independent of each
// other; eviction is oldest-first once a window exceeds its cap.
type Store struct {
	mu    sync.Mutex
	pairs map[pairKey]*window

	cap       int
	ttl       time.Duration
	snapshots SnapshotCache
	now       func() time.Time
}

func NewStore(capacity int, ttl time.Duration, snapshots SnapshotCache) *Store {
	if capacity <= 0 {
		capacity = DefaultCap
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Store{
		pairs:     make(map[pairKey]*window),
		cap:       capacity,
		ttl:       ttl,
		snapshots: snapshots,
		now:       time.Now,
	}
}

func (s *Store) window(key pairKey) *window {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.pairs[key]
	if !ok {
		w = &window{}
		s.pairs[key] = w
	}
	return w
}

// restoreLocked loads the pair's snapshot once per process lifetime.
// Caller holds w.mu.
func (s *Store) restoreLocked(ctx context.Context, key pairKey, w *window) {
	if w.loaded {
		return
	}
	w.loaded = true
	if s.snapshots == nil || len(w.turns) > 0 {
		return
	}
	turns, hit, err := s.snapshots.GetTurns(ctx, key.groupID, key.userID)
	if err != nil {
		log.Printf("memory snapshot restore failed for %s/%d: %v", key.groupID, key.userID, err)
		return
	}
	if hit {
		w.turns = turns
	}
}

// pruneLocked drops expired turns and enforces the cap, oldest first.
// Caller holds w.mu.
func (s *Store) pruneLocked(w *window) {
	cutoff := s.now().Add(-s.ttl)
	turns := w.turns
	for len(turns) > 0 && turns[0].Timestamp.Before(cutoff) {
		turns = turns[1:]
	}
	if len(turns) > s.cap {
		turns = turns[len(turns)-s.cap:]
	}
	w.turns = turns
}

// Record appends a turn to its pair's window, evicting the oldest turn if
// the window is over capacity.
func (s *Store) Record(ctx context.Context, turn model.ConversationTurn) {
	if turn.Timestamp.IsZero() {
		turn.Timestamp = s.now()
	}
	key := pairKey{groupID: turn.GroupID, userID: turn.UserID}
	w := s.window(key)

	w.mu.Lock()
	defer w.mu.Unlock()
	s.restoreLocked(ctx, key, w)
	w.turns = append(w.turns, turn)
	s.pruneLocked(w)

	if s.snapshots != nil {
		if err := s.snapshots.SetTurns(ctx, key.groupID, key.userID, w.turns); err != nil {
			log.Printf("memory snapshot write failed for %s/%d: %v", key.groupID, key.userID, err)
		}
	}
}

// Recent returns the last n turns for the pair in chronological order.
func (s *Store) Recent(ctx context.Context, groupID string, userID int64, n int) []model.ConversationTurn {
	if n <= 0 {
		n = s.cap
	}
	key := pairKey{groupID: groupID, userID: userID}
	w := s.window(key)

	w.mu.Lock()
	defer w.mu.Unlock()
	s.restoreLocked(ctx, key, w)
	s.pruneLocked(w)

	turns := w.turns
	if n < len(turns) {
		turns = turns[len(turns)-n:]
	}
	out := make([]model.ConversationTurn, len(turns))
	copy(out, turns)
	return out
}

// Forget drops the pair's window and its snapshot.
func (s *Store) Forget(ctx context.Context, groupID string, userID int64) {
	key := pairKey{groupID: groupID, userID: userID}
	s.mu.Lock()
	delete(s.pairs, key)
	s.mu.Unlock()

	if s.snapshots != nil {
		if err := s.snapshots.DeleteTurns(ctx, groupID, userID); err != nil {
			log.Printf("memory snapshot delete failed for %s/%d: %v", groupID, userID, err)
		}
	}
}
