package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"communibot/internal/model"
)

func turn(group string, user int64, role, content string, at time.Time) model.ConversationTurn {
	return model.ConversationTurn{
		GroupID:   group,
		UserID:    user,
		Role:      role,
		Content:   content,
		Timestamp: at,
	}
}

func TestRecordEvictsOldestBeyondCap(t *testing.T) {
	s := NewStore(10, 30*time.Minute, nil)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	for i := 0; i < 12; i++ {
		s.Record(ctx, turn("g", 7, model.RoleUser, fmt.Sprintf("msg-%d", i), base.Add(time.Duration(i)*time.Second)))
	}

	got := s.Recent(ctx, "g", 7, 10)
	require.Len(t, got, 10)
	assert.Equal(t, "msg-2", got[0].Content, "two oldest turns must be evicted")
	assert.Equal(t, "msg-11", got[9].Content)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Timestamp.Before(got[i-1].Timestamp), "turns must stay chronological")
	}
}

func TestRecentLimitsAndCopies(t *testing.T) {
	s := NewStore(10, 30*time.Minute, nil)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	for i := 0; i < 6; i++ {
		s.Record(ctx, turn("g", 1, model.RoleUser, fmt.Sprintf("m%d", i), base))
	}

	got := s.Recent(ctx, "g", 1, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "m3", got[0].Content)

	got[0].Content = "mutated"
	again := s.Recent(ctx, "g", 1, 3)
	assert.Equal(t, "m3", again[0].Content, "Recent must return a copy")
}

func TestPairsAreIsolated(t *testing.T) {
	s := NewStore(10, 30*time.Minute, nil)
	ctx := context.Background()

	s.Record(ctx, turn("g1", 1, model.RoleUser, "alpha", time.Now()))
	s.Record(ctx, turn("g1", 2, model.RoleUser, "beta", time.Now()))
	s.Record(ctx, turn("g2", 1, model.RoleUser, "gamma", time.Now()))

	require.Len(t, s.Recent(ctx, "g1", 1, 10), 1)
	assert.Equal(t, "alpha", s.Recent(ctx, "g1", 1, 10)[0].Content)
	assert.Equal(t, "beta", s.Recent(ctx, "g1", 2, 10)[0].Content)
	assert.Equal(t, "gamma", s.Recent(ctx, "g2", 1, 10)[0].Content)
}

func TestExpiredTurnsArePruned(t *testing.T) {
	s := NewStore(10, 30*time.Minute, nil)
	ctx := context.Background()
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return base }

	s.Record(ctx, turn("g", 1, model.RoleUser, "old", base.Add(-40*time.Minute)))
	s.Record(ctx, turn("g", 1, model.RoleUser, "fresh", base.Add(-5*time.Minute)))

	got := s.Recent(ctx, "g", 1, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].Content)

	s.now = func() time.Time { return base.Add(time.Hour) }
	assert.Empty(t, s.Recent(ctx, "g", 1, 10), "everything expires eventually")
}

func TestForgetDropsWindow(t *testing.T) {
	s := NewStore(10, 30*time.Minute, nil)
	ctx := context.Background()

	s.Record(ctx, turn("g", 1, model.RoleUser, "hello", time.Now()))
	s.Forget(ctx, "g", 1)
	assert.Empty(t, s.Recent(ctx, "g", 1, 10))
}

type fakeSnapshots struct {
	data    map[string][]model.ConversationTurn
	failGet bool
}

func newFakeSnapshots() *fakeSnapshots {
	return &fakeSnapshots{data: make(map[string][]model.ConversationTurn)}
}

func (f *fakeSnapshots) key(groupID string, userID int64) string {
	return fmt.Sprintf("%s/%d", groupID, userID)
}

func (f *fakeSnapshots) GetTurns(_ context.Context, groupID string, userID int64) ([]model.ConversationTurn, bool, error) {
	if f.failGet {
		return nil, false, errors.New("cache down")
	}
	turns, ok := f.data[f.key(groupID, userID)]
	return turns, ok, nil
}

func (f *fakeSnapshots) SetTurns(_ context.Context, groupID string, userID int64, turns []model.ConversationTurn) error {
	cp := make([]model.ConversationTurn, len(turns))
	copy(cp, turns)
	f.data[f.key(groupID, userID)] = cp
	return nil
}

func (f *fakeSnapshots) DeleteTurns(_ context.Context, groupID string, userID int64) error {
	delete(f.data, f.key(groupID, userID))
	return nil
}

func TestSnapshotRestoreAndWriteThrough(t *testing.T) {
	ctx := context.Background()
	snaps := newFakeSnapshots()
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	seed := NewStore(10, 30*time.Minute, snaps)
	seed.now = func() time.Time { return now }
	seed.Record(ctx, turn("g", 1, model.RoleUser, "before restart", now))

	// Fresh store simulating a restart sees the snapshot.
	s := NewStore(10, 30*time.Minute, snaps)
	s.now = func() time.Time { return now }
	got := s.Recent(ctx, "g", 1, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "before restart", got[0].Content)

	s.Forget(ctx, "g", 1)
	assert.Empty(t, snaps.data, "Forget must clear the snapshot too")
}

func TestSnapshotFailureIsNonFatal(t *testing.T) {
	ctx := context.Background()
	snaps := newFakeSnapshots()
	snaps.failGet = true

	s := NewStore(10, 30*time.Minute, snaps)
	s.Record(ctx, turn("g", 1, model.RoleUser, "still works", time.Now()))
	got := s.Recent(ctx, "g", 1, 10)
	require.Len(t, got, 1)
	assert.Equal(t, "still works", got[0].Content)
}
