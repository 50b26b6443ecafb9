package session

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelquiz/internal/models"
)

func sampleSession(userID models.UserID) *models.Session {
	return &models.Session{
		ID:     "s-1",
		UserID: userID,
		Filter: models.FilterFor(models.LevelB1),
		Questions: []models.Question{
			{ID: 1, Level: models.LevelB1, Text: "Q1", Options: []string{"a", "b"}, CorrectIndex: 1},
			{ID: 2, Level: models.LevelB1, Text: "Q2", Options: []string{"a", "b"}, CorrectIndex: 0},
		},
		LivesEnabled: true,
		Lives:        3,
		StartedAt:    time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
}

// exerciseStore checks the behaviour every Store implementation shares
func exerciseStore(t *testing.T, store Store) {
	ctx := context.Background()
	const user models.UserID = 42

	got, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, got, "unknown user has no session")

	s := sampleSession(user)
	require.NoError(t, store.Save(ctx, s))

	got, err = store.Get(ctx, user)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, models.LevelB1, got.Filter.Level)
	assert.Len(t, got.Questions, 2)
	assert.True(t, got.StartedAt.Equal(s.StartedAt))

	// Mutating the returned copy must not leak into the store
	got.Cursor = 1
	got.WrongAnswers = append(got.WrongAnswers, got.Questions[0])
	again, err := store.Get(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, again.Cursor)
	assert.Empty(t, again.WrongAnswers)

	replacement := sampleSession(user)
	replacement.ID = "s-2"
	require.NoError(t, store.Save(ctx, replacement))
	got, err = store.Get(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, "s-2", got.ID, "save overwrites the previous session")

	other, err := store.Get(ctx, user+1)
	require.NoError(t, err)
	assert.Nil(t, other, "sessions are per user")

	require.NoError(t, store.Delete(ctx, user))
	got, err = store.Get(ctx, user)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.Delete(ctx, user), "deleting a missing session is not an error")
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	exerciseStore(t, store)
	assert.Zero(t, store.Len())
}

func TestRedisStore(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL not set")
	}
	client, err := DialRedis(context.Background(), url)
	require.NoError(t, err)
	defer client.Close()

	exerciseStore(t, NewRedisStore(client, time.Minute))
}

func TestDialRedisRejectsBadURL(t *testing.T) {
	_, err := DialRedis(context.Background(), "not-a-url")
	assert.Error(t, err)
}

func TestSessionKey(t *testing.T) {
	assert.Equal(t, "quiz:session:1234", sessionKey(1234))
}

func TestMemoryStorePurgeStale(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	idle := sampleSession(1)
	fresh := sampleSession(2)
	fresh.StartedAt = idle.StartedAt.Add(2 * time.Hour)
	require.NoError(t, store.Save(ctx, idle))
	require.NoError(t, store.Save(ctx, fresh))

	assert.Equal(t, 1, store.PurgeStale(idle.StartedAt.Add(time.Hour)))
	assert.Equal(t, 1, store.Len())

	got, err := store.Get(ctx, 2)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Zero(t, store.PurgeStale(idle.StartedAt), "nothing idle before the cutoff is left")
}

func TestMemoryStorePurgeKeepsLongQuizzesAndPendingResults(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	now := time.Date(2026, 5, 3, 12, 0, 0, 0, time.UTC)
	cutoff := now.Add(-24 * time.Hour)

	// Started 25 hours ago, last answered a minute ago
	longRunning := sampleSession(1)
	longRunning.StartedAt = now.Add(-25 * time.Hour)
	longRunning.Cursor = 1
	longRunning.LastActivityAt = now.Add(-time.Minute)

	// Finished long ago, result write still outstanding
	pending := sampleSession(2)
	pending.StartedAt = now.Add(-25 * time.Hour)
	pending.Cursor = len(pending.Questions)
	pending.EndedAt = now.Add(-25 * time.Hour)
	pending.LastActivityAt = pending.EndedAt

	require.NoError(t, store.Save(ctx, longRunning))
	require.NoError(t, store.Save(ctx, pending))

	assert.Zero(t, store.PurgeStale(cutoff))
	for _, id := range []models.UserID{1, 2} {
		got, err := store.Get(ctx, id)
		require.NoError(t, err)
		assert.NotNil(t, got, "session of user %s survives the sweep", id)
	}
}

func TestRedisExpiry(t *testing.T) {
	store := NewRedisStore(nil, time.Hour)

	active := sampleSession(1)
	assert.Equal(t, time.Hour, store.expiryFor(active))

	ended := sampleSession(1)
	ended.Cursor = len(ended.Questions)
	ended.EndedAt = ended.StartedAt.Add(time.Minute)
	assert.Zero(t, store.expiryFor(ended), "a result waiting to be written never expires")
}
