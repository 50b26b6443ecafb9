package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runAdmin(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestAdminCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping database test in short mode")
	}
	t.Setenv("REDIS_URL", "")
	t.Setenv("SES_FROM_EMAIL", "")

	dir := t.TempDir()
	db := filepath.Join(dir, "admin.db")

	out, err := runAdmin(t, "migrate", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")

	csvPath := filepath.Join(dir, "questions.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"level,question,option1,option2,option3,option4,correct\n"+
			"B1,I have lived here ___ 2010,since,for,from,at,1\n"+
			"B2,If I ___ you,am,were,be,was,2\n"), 0644))

	out, err = runAdmin(t, "import-questions", csvPath, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Imported 2 questions")

	_, err = runAdmin(t, "import-questions", filepath.Join(dir, "missing.csv"), "--db", db)
	assert.Error(t, err)

	_, err = runAdmin(t, "ban", "not-a-number", "--db", db)
	assert.Error(t, err)
	_, err = runAdmin(t, "ban", "999", "--reason", "spam", "--db", db)
	assert.Error(t, err, "unknown users cannot be banned")
	_, err = runAdmin(t, "unban", "999", "--db", db)
	assert.Error(t, err, "user is not banned")

	backup := filepath.Join(dir, "out", "backup.json")
	out, err = runAdmin(t, "export", "-o", backup, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "Exported to")
	assert.FileExists(t, backup)

	other := filepath.Join(dir, "other.db")
	_, err = runAdmin(t, "migrate", "--db", other)
	require.NoError(t, err)
	out, err = runAdmin(t, "import", backup, "--db", other)
	require.NoError(t, err)
	assert.Contains(t, out, "0 users")

	_, err = runAdmin(t, "import", filepath.Join(dir, "nope.json"), "--db", other)
	assert.Error(t, err)
}

func TestAdminArgs(t *testing.T) {
	_, err := runAdmin(t, "ban")
	assert.Error(t, err)
	_, err = runAdmin(t, "migrate", "extra")
	assert.Error(t, err)
}
