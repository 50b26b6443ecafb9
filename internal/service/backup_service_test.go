package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelquiz/internal/models"
	"levelquiz/internal/repository"
)

func TestBackupRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := newServiceTestDB(t, "src.db")

	users := repository.NewUserRepository(src)
	questions := repository.NewQuestionRepository(src)
	results := repository.NewResultRepository(src)
	moderation := repository.NewModerationRepository(src)

	alice, err := users.CreateWebUser(ctx, "alice", "Alice", "alice@example.com", "hash")
	require.NoError(t, err)
	tg, err := users.EnsureExternalUser(ctx, models.ProviderTelegram, "42", "tg", "TG", "")
	require.NoError(t, err)

	q1 := &models.Question{Level: models.LevelA1, Text: "One?", Options: []string{"a", "b"}, CorrectIndex: 1}
	q2 := &models.Question{Level: models.LevelB2, Text: "Two?", Options: []string{"a", "b", "c"}, CorrectIndex: 2}
	require.NoError(t, questions.CreateQuestion(ctx, q1))
	require.NoError(t, questions.CreateQuestion(ctx, q2))

	require.NoError(t, results.RecordResult(ctx, &models.Result{
		UserID: alice.ID, Level: models.LevelA2, Score: 1, Total: 2,
		WrongQuestionIDs: []int64{q2.ID}, ElapsedSeconds: 30, CompletedAt: time.Now(),
	}))
	require.NoError(t, moderation.Ban(ctx, tg.ID, "spam"))

	var buf bytes.Buffer
	require.NoError(t, NewBackupService(src).ExportToWriter(ctx, &buf))

	var exported BackupData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &exported))
	assert.Equal(t, "sqlite3", exported.DatabaseType)
	assert.Len(t, exported.Users, 2)
	assert.Len(t, exported.Questions, 2)
	assert.Len(t, exported.Results, 1)
	assert.Len(t, exported.Bans, 1)
	assert.Equal(t, "hash", exported.Users[0].PasswordHash)

	// The target already has a question so imported ids shift
	dst := newServiceTestDB(t, "dst.db")
	require.NoError(t, repository.NewQuestionRepository(dst).CreateQuestion(ctx,
		&models.Question{Level: models.LevelC1, Text: "Existing?", Options: []string{"x", "y"}, CorrectIndex: 0}))

	summary, err := NewBackupService(dst).ImportFromReader(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, &ImportSummary{Users: 2, Questions: 2, Results: 1, Bans: 1}, summary)

	dstUsers := repository.NewUserRepository(dst)
	imported, err := dstUsers.GetWebUser(ctx, "alice")
	require.NoError(t, err)
	require.NotNil(t, imported)
	assert.True(t, imported.IsAdmin)

	history, err := repository.NewResultRepository(dst).GetUserResults(ctx, imported.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Len(t, history[0].WrongQuestionIDs, 1)

	wrong, err := repository.NewQuestionRepository(dst).GetQuestion(ctx, history[0].WrongQuestionIDs[0])
	require.NoError(t, err)
	require.NotNil(t, wrong)
	assert.Equal(t, "Two?", wrong.Text, "wrong answers follow the remapped question ids")

	tgImported, err := dstUsers.GetUserByIdentity(ctx, models.ProviderTelegram, "42")
	require.NoError(t, err)
	require.NotNil(t, tgImported)
	banned, err := repository.NewModerationRepository(dst).IsBanned(ctx, tgImported.ID)
	require.NoError(t, err)
	assert.True(t, banned)

	// Importing again reuses the users and skips the existing ban
	summary, err = NewBackupService(dst).ImportFromReader(ctx, bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Users)
	assert.Equal(t, 0, summary.Bans)
}

func TestImportRejectsBadInput(t *testing.T) {
	ctx := context.Background()
	db := newServiceTestDB(t, "bad.db")
	svc := NewBackupService(db)

	_, err := svc.ImportFromReader(ctx, strings.NewReader("not json"))
	assert.Error(t, err)

	_, err = svc.ImportFromReader(ctx, strings.NewReader(`{"questions":[{"level":"Z9","text":"?","options":["a"],"correct_index":0}]}`))
	assert.Error(t, err)

	count, err := repository.NewModerationRepository(db).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count.Questions, "failed import leaves nothing behind")
}
