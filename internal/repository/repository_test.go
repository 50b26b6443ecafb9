package repository

import (
	"context"
	"path/filepath"
	"sort"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelquiz/internal/database"
	"levelquiz/internal/models"
)

func newTestDB(t *testing.T) *database.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	db, err := database.Initialize(filepath.Join(t.TempDir(), "repo.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.RunMigrations(context.Background()))
	return db
}

func createUser(t *testing.T, db *database.DB, subject string) models.UserID {
	t.Helper()
	u, err := NewUserRepository(db).EnsureExternalUser(context.Background(), models.ProviderTelegram, subject, subject, "", "")
	require.NoError(t, err)
	return u.ID
}

func TestUserRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserRepository(db)
	ctx := context.Background()

	first, err := repo.CreateWebUser(ctx, "Alice", "Alice Smith", "alice@example.com", "hash")
	require.NoError(t, err)
	assert.True(t, first.IsAdmin, "first web account becomes admin")

	second, err := repo.CreateWebUser(ctx, "bob", "Bob", "", "hash")
	require.NoError(t, err)
	assert.False(t, second.IsAdmin)

	found, err := repo.GetWebUser(ctx, "ALICE")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, first.ID, found.ID)
	assert.Equal(t, "hash", found.PasswordHash)

	missing, err := repo.GetUserByID(ctx, 9999)
	require.NoError(t, err)
	assert.Nil(t, missing)

	tg, err := repo.EnsureExternalUser(ctx, models.ProviderTelegram, "555", "tguser", "TG User", "")
	require.NoError(t, err)
	again, err := repo.EnsureExternalUser(ctx, models.ProviderTelegram, "555", "renamed", "TG User", "")
	require.NoError(t, err)
	assert.Equal(t, tg.ID, again.ID, "same identity maps to the same user")
	assert.Equal(t, "renamed", again.Username)
	assert.NotEqual(t, first.ID, tg.ID, "identities from different providers get distinct ids")

	require.NoError(t, repo.SetAdmin(ctx, tg.ID, true))
	reloaded, err := repo.GetUserByID(ctx, tg.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.IsAdmin)
	assert.ErrorIs(t, repo.SetAdmin(ctx, 9999, true), ErrNotFound)
}

func TestQuestionRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	q := &models.Question{Level: models.LevelA1, Text: "How are you?", Options: []string{"Fine", "Blue"}, CorrectIndex: 0}
	require.NoError(t, repo.CreateQuestion(ctx, q))
	assert.NotZero(t, q.ID)

	invalid := &models.Question{Level: models.LevelA1, Text: "Bad", Options: []string{"only"}}
	assert.Error(t, repo.CreateQuestion(ctx, invalid))

	n, err := repo.ImportQuestions(ctx, []models.Question{
		{Level: models.LevelB1, Text: "I wish I ___ taller.", Options: []string{"am", "were", "was"}, CorrectIndex: 1},
		{Level: models.LevelB1, Text: "She has been ___ for hours.", Options: []string{"waiting", "wait"}, CorrectIndex: 0},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	got, err := repo.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, []string{"Fine", "Blue"}, got.Options)

	b1, err := repo.FetchQuestions(ctx, models.FilterFor(models.LevelB1))
	require.NoError(t, err)
	assert.Len(t, b1, 2)
	for _, bq := range b1 {
		assert.Equal(t, models.LevelB1, bq.Level)
	}

	all, err := repo.FetchQuestions(ctx, models.AllLevels)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	empty, err := repo.FetchQuestions(ctx, models.FilterFor(models.LevelC1))
	require.NoError(t, err)
	assert.Empty(t, empty)

	got.Text = "How are you today?"
	got.CorrectIndex = 1
	require.NoError(t, repo.UpdateQuestion(ctx, got))
	updated, err := repo.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, "How are you today?", updated.Text)
	assert.Equal(t, 1, updated.CorrectIndex)

	require.NoError(t, repo.DeleteQuestion(ctx, q.ID))
	assert.ErrorIs(t, repo.DeleteQuestion(ctx, q.ID), ErrNotFound)
	gone, err := repo.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)
}

func TestFetchQuestionsShuffles(t *testing.T) {
	db := newTestDB(t)
	repo := NewQuestionRepository(db)
	ctx := context.Background()

	for i := 0; i < 4; i++ {
		require.NoError(t, repo.CreateQuestion(ctx, &models.Question{
			Level: models.LevelA2, Text: string(rune('a' + i)), Options: []string{"x", "y"},
		}))
	}

	// Reverse instead of a random permutation so the result is predictable
	repo.shuffle = func(n int, swap func(i, j int)) {
		for i := 0; i < n/2; i++ {
			swap(i, n-1-i)
		}
	}
	questions, err := repo.FetchQuestions(ctx, models.AllLevels)
	require.NoError(t, err)
	require.Len(t, questions, 4)
	assert.Equal(t, "d", questions[0].Text)
	assert.Equal(t, "a", questions[3].Text)
}

func TestResultRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewResultRepository(db)
	ctx := context.Background()
	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")

	results := []*models.Result{
		{UserID: alice, Level: models.LevelA1, Score: 1, Total: 2, WrongQuestionIDs: []int64{2}, ElapsedSeconds: 30},
		{UserID: alice, Level: models.LevelC1, Score: 9, Total: 10, ElapsedSeconds: 120},
		{UserID: bob, Level: models.LevelB2, Score: 4, Total: 5, ElapsedSeconds: 60},
	}
	for _, r := range results {
		require.NoError(t, repo.RecordResult(ctx, r))
		assert.NotZero(t, r.ID)
	}

	mine, err := repo.GetUserResults(ctx, alice, 10)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	ids := []int64{mine[0].ID, mine[1].ID}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	assert.Equal(t, []int64{results[0].ID, results[1].ID}, ids)

	limited, err := repo.GetUserResults(ctx, alice, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	board, err := repo.Leaderboard(ctx, 20)
	require.NoError(t, err)
	require.Len(t, board, 3)
	assert.Equal(t, 90.0, board[0].Percentage)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, "alice", board[0].Name)
	assert.Equal(t, 80.0, board[1].Percentage)
	assert.Equal(t, 50.0, board[2].Percentage)

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []int64{2}, all[0].WrongQuestionIDs)
	assert.Empty(t, all[1].WrongQuestionIDs)
}

func TestHintRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewHintRepository(db)
	ctx := context.Background()
	user := models.UserID(77)

	bal, err := repo.Balance(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, bal)

	granted, remaining, err := repo.Consume(ctx, user)
	require.NoError(t, err)
	assert.False(t, granted, "no hint without a balance")
	assert.Zero(t, remaining)

	already, bal, err := repo.ClaimDailyBonus(ctx, user, "2026-03-01")
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, 1, bal)

	already, bal, err = repo.ClaimDailyBonus(ctx, user, "2026-03-01")
	require.NoError(t, err)
	assert.True(t, already)
	assert.Equal(t, 1, bal, "second claim on the same day grants nothing")

	already, bal, err = repo.ClaimDailyBonus(ctx, user, "2026-03-02")
	require.NoError(t, err)
	assert.False(t, already)
	assert.Equal(t, 2, bal)

	granted, remaining, err = repo.Consume(ctx, user)
	require.NoError(t, err)
	assert.True(t, granted)
	assert.Equal(t, 1, remaining)

	bal, err = repo.Grant(ctx, user, 3)
	require.NoError(t, err)
	assert.Equal(t, 4, bal)
}

func TestHintConsumeNeverGoesNegative(t *testing.T) {
	db := newTestDB(t)
	repo := NewHintRepository(db)
	ctx := context.Background()
	user := models.UserID(5)

	_, err := repo.Grant(ctx, user, 3)
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	grants := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := repo.Consume(ctx, user)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				grants++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 3, grants)
	bal, err := repo.Balance(ctx, user)
	require.NoError(t, err)
	assert.Zero(t, bal)
}

func TestModerationRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewModerationRepository(db)
	questions := NewQuestionRepository(db)
	ctx := context.Background()
	user := createUser(t, db, "carol")

	banned, err := repo.IsBanned(ctx, user)
	require.NoError(t, err)
	assert.False(t, banned)

	require.NoError(t, repo.Ban(ctx, user, "spam"))
	require.NoError(t, repo.Ban(ctx, user, "abuse"), "banning again replaces the entry")

	banned, err = repo.IsBanned(ctx, user)
	require.NoError(t, err)
	assert.True(t, banned)

	bans, err := repo.ListBans(ctx)
	require.NoError(t, err)
	require.Len(t, bans, 1)
	assert.Equal(t, "abuse", bans[0].Reason)
	assert.Equal(t, "carol", bans[0].Username)

	require.NoError(t, repo.Unban(ctx, user))
	assert.ErrorIs(t, repo.Unban(ctx, user), ErrNotFound)

	q := &models.Question{Level: models.LevelA1, Text: "Q?", Options: []string{"a", "b"}}
	require.NoError(t, questions.CreateQuestion(ctx, q))
	report, err := repo.ReportQuestion(ctx, q.ID, user, "typo")
	require.NoError(t, err)
	assert.NotZero(t, report.ID)

	reports, err := repo.ListReports(ctx)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "Q?", reports[0].QuestionText)
	assert.Equal(t, "typo", reports[0].Reason)

	stats, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Users)
	assert.Equal(t, 0, stats.WebUsers)
	assert.Equal(t, 1, stats.Questions)
	assert.Equal(t, 1, stats.Reports)
	assert.Equal(t, 0, stats.Bans)
}
