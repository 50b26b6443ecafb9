package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"levelquiz/internal/database"
	"levelquiz/internal/models"
)

// BackupData is the portable export of the question bank and everything
// that refers to it. Ids are remapped on import so a backup can be loaded
// into a database of any dialect that already has data.
type BackupData struct {
	Version      string            `json:"version"`
	ExportedAt   time.Time         `json:"exported_at"`
	DatabaseType string            `json:"database_type"`
	Users        []UserBackup      `json:"users"`
	Questions    []models.Question `json:"questions"`
	Results      []models.Result   `json:"results"`
	Bans         []models.BanEntry `json:"bans"`
}

// UserBackup is a user record including the fields hidden from JSON APIs
type UserBackup struct {
	ID           models.UserID `json:"id"`
	Provider     string        `json:"provider"`
	Subject      string        `json:"subject"`
	Username     string        `json:"username"`
	FullName     string        `json:"full_name"`
	Email        string        `json:"email"`
	PasswordHash string        `json:"password_hash"`
	IsAdmin      bool          `json:"is_admin"`
}

// ImportSummary counts what an import wrote
type ImportSummary struct {
	Users     int
	Questions int
	Results   int
	Bans      int
}

// BackupService exports and imports the database as JSON
type BackupService struct {
	db *database.DB
}

// NewBackupService creates a new backup service
func NewBackupService(db *database.DB) *BackupService {
	return &BackupService{db: db}
}

// Export writes a backup to the file at outputPath
func (s *BackupService) Export(ctx context.Context, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create backup file: %w", err)
	}
	defer file.Close()

	if err := s.ExportToWriter(ctx, file); err != nil {
		return err
	}
	log.Printf("Backup written to %s", outputPath)
	return nil
}

// Import restores the backup file at inputPath
func (s *BackupService) Import(ctx context.Context, inputPath string) (*ImportSummary, error) {
	file, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open backup file: %w", err)
	}
	defer file.Close()

	return s.ImportFromReader(ctx, file)
}

// ExportToWriter writes a complete backup as indented JSON
func (s *BackupService) ExportToWriter(ctx context.Context, w io.Writer) error {
	backup := &BackupData{
		Version:      "1.0",
		ExportedAt:   time.Now().UTC(),
		DatabaseType: s.db.Dialect.DriverName(),
	}

	if err := s.exportUsers(ctx, backup); err != nil {
		return fmt.Errorf("failed to export users: %w", err)
	}
	if err := s.exportQuestions(ctx, backup); err != nil {
		return fmt.Errorf("failed to export questions: %w", err)
	}
	if err := s.exportResults(ctx, backup); err != nil {
		return fmt.Errorf("failed to export results: %w", err)
	}
	if err := s.exportBans(ctx, backup); err != nil {
		return fmt.Errorf("failed to export bans: %w", err)
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(backup); err != nil {
		return fmt.Errorf("failed to encode backup: %w", err)
	}

	log.Printf("Exported: %d users, %d questions, %d results, %d bans",
		len(backup.Users), len(backup.Questions), len(backup.Results), len(backup.Bans))
	return nil
}

// ImportFromReader restores a backup in a single transaction. Users are
// matched on their identity, questions are always added.
func (s *BackupService) ImportFromReader(ctx context.Context, r io.Reader) (*ImportSummary, error) {
	var backup BackupData
	if err := json.NewDecoder(r).Decode(&backup); err != nil {
		return nil, fmt.Errorf("failed to decode backup: %w", err)
	}
	log.Printf("Backup version: %s, exported at: %s", backup.Version, backup.ExportedAt)

	summary := &ImportSummary{}
	err := s.db.WithTx(ctx, func(tx *database.Tx) error {
		userIDs, err := importUsers(ctx, tx, backup.Users, summary)
		if err != nil {
			return fmt.Errorf("failed to import users: %w", err)
		}
		questionIDs, err := importQuestions(ctx, tx, backup.Questions, summary)
		if err != nil {
			return fmt.Errorf("failed to import questions: %w", err)
		}
		if err := importResults(ctx, tx, backup.Results, userIDs, questionIDs, summary); err != nil {
			return fmt.Errorf("failed to import results: %w", err)
		}
		if err := importBans(ctx, tx, backup.Bans, userIDs, summary); err != nil {
			return fmt.Errorf("failed to import bans: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("Imported: %d users, %d questions, %d results, %d bans",
		summary.Users, summary.Questions, summary.Results, summary.Bans)
	return summary, nil
}

func (s *BackupService) exportUsers(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, provider, subject, username, full_name, email, password_hash, is_admin
		FROM users ORDER BY id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var u UserBackup
		var id int64
		if err := rows.Scan(&id, &u.Provider, &u.Subject, &u.Username, &u.FullName, &u.Email, &u.PasswordHash, &u.IsAdmin); err != nil {
			return err
		}
		u.ID = models.UserID(id)
		backup.Users = append(backup.Users, u)
	}
	return rows.Err()
}

func (s *BackupService) exportQuestions(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT id, level, question_text, options, correct_index FROM questions ORDER BY id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var q models.Question
		var level, options string
		if err := rows.Scan(&q.ID, &level, &q.Text, &options, &q.CorrectIndex); err != nil {
			return err
		}
		q.Level = models.Level(level)
		if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
			return fmt.Errorf("question %d: %w", q.ID, err)
		}
		backup.Questions = append(backup.Questions, q)
	}
	return rows.Err()
}

func (s *BackupService) exportResults(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, level, score, total, wrong_question_ids, elapsed_seconds, completed_at
		FROM results ORDER BY id
	`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var r models.Result
		var uid int64
		var level, wrong string
		if err := rows.Scan(&r.ID, &uid, &level, &r.Score, &r.Total, &wrong, &r.ElapsedSeconds, &r.CompletedAt); err != nil {
			return err
		}
		r.UserID = models.UserID(uid)
		r.Level = models.Level(level)
		if err := json.Unmarshal([]byte(wrong), &r.WrongQuestionIDs); err != nil {
			return fmt.Errorf("result %d: %w", r.ID, err)
		}
		backup.Results = append(backup.Results, r)
	}
	return rows.Err()
}

func (s *BackupService) exportBans(ctx context.Context, backup *BackupData) error {
	rows, err := s.db.QueryContext(ctx, "SELECT user_id, reason, banned_at FROM banned_users ORDER BY user_id")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var b models.BanEntry
		var uid int64
		if err := rows.Scan(&uid, &b.Reason, &b.BannedAt); err != nil {
			return err
		}
		b.UserID = models.UserID(uid)
		backup.Bans = append(backup.Bans, b)
	}
	return rows.Err()
}

func importUsers(ctx context.Context, tx *database.Tx, users []UserBackup, summary *ImportSummary) (map[models.UserID]models.UserID, error) {
	ids := make(map[models.UserID]models.UserID, len(users))
	for _, u := range users {
		var existing int64
		err := tx.QueryRowContext(ctx, "SELECT id FROM users WHERE provider = ? AND subject = ?", u.Provider, u.Subject).Scan(&existing)
		if err == nil {
			ids[u.ID] = models.UserID(existing)
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("user %d: %w", u.ID, err)
		}

		id, err := tx.ExecReturningID(ctx, `
			INSERT INTO users (provider, subject, username, full_name, email, password_hash, is_admin)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, u.Provider, u.Subject, u.Username, u.FullName, u.Email, u.PasswordHash, u.IsAdmin)
		if err != nil {
			return nil, fmt.Errorf("user %d: %w", u.ID, err)
		}
		ids[u.ID] = models.UserID(id)
		summary.Users++
	}
	return ids, nil
}

func importQuestions(ctx context.Context, tx *database.Tx, questions []models.Question, summary *ImportSummary) (map[int64]int64, error) {
	ids := make(map[int64]int64, len(questions))
	for _, q := range questions {
		if err := q.Validate(); err != nil {
			return nil, fmt.Errorf("question %d: %w", q.ID, err)
		}
		options, err := json.Marshal(q.Options)
		if err != nil {
			return nil, err
		}
		id, err := tx.ExecReturningID(ctx,
			"INSERT INTO questions (level, question_text, options, correct_index) VALUES (?, ?, ?, ?)",
			string(q.Level), q.Text, string(options), q.CorrectIndex)
		if err != nil {
			return nil, fmt.Errorf("question %d: %w", q.ID, err)
		}
		ids[q.ID] = id
		summary.Questions++
	}
	return ids, nil
}

func importResults(ctx context.Context, tx *database.Tx, results []models.Result,
	userIDs map[models.UserID]models.UserID, questionIDs map[int64]int64, summary *ImportSummary) error {
	for _, r := range results {
		userID, ok := userIDs[r.UserID]
		if !ok {
			return fmt.Errorf("result %d refers to unknown user %d", r.ID, r.UserID)
		}
		wrong := make([]int64, 0, len(r.WrongQuestionIDs))
		for _, qid := range r.WrongQuestionIDs {
			if mapped, ok := questionIDs[qid]; ok {
				wrong = append(wrong, mapped)
			}
		}
		wrongJSON, err := json.Marshal(wrong)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO results (user_id, level, score, total, wrong_question_ids, elapsed_seconds, completed_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, int64(userID), string(r.Level), r.Score, r.Total, string(wrongJSON), r.ElapsedSeconds, r.CompletedAt.UTC())
		if err != nil {
			return fmt.Errorf("result %d: %w", r.ID, err)
		}
		summary.Results++
	}
	return nil
}

func importBans(ctx context.Context, tx *database.Tx, bans []models.BanEntry,
	userIDs map[models.UserID]models.UserID, summary *ImportSummary) error {
	insert := tx.GetDialect().InsertIgnore("banned_users", "user_id", "reason", "banned_at")
	for _, b := range bans {
		userID, ok := userIDs[b.UserID]
		if !ok {
			userID = b.UserID
		}
		res, err := tx.ExecContext(ctx, insert, int64(userID), b.Reason, b.BannedAt.UTC())
		if err != nil {
			return fmt.Errorf("ban of user %d: %w", b.UserID, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			summary.Bans++
		}
	}
	return nil
}
