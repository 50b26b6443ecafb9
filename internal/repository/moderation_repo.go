package repository

import (
	"context"
	"fmt"
	"time"

	"levelquiz/internal/database"
	"levelquiz/internal/models"
)

// ModerationRepository stores bans and question reports
type ModerationRepository struct {
	db *database.DB
}

// NewModerationRepository creates a new moderation repository
func NewModerationRepository(db *database.DB) *ModerationRepository {
	return &ModerationRepository{db: db}
}

// IsBanned reports whether a ban entry exists for the user
func (r *ModerationRepository) IsBanned(ctx context.Context, userID models.UserID) (bool, error) {
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM banned_users WHERE user_id = ?", int64(userID)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("failed to check ban: %w", err)
	}
	return count > 0, nil
}

// Ban creates or replaces the ban entry for a user
func (r *ModerationRepository) Ban(ctx context.Context, userID models.UserID, reason string) error {
	return r.db.WithTx(ctx, func(tx *database.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM banned_users WHERE user_id = ?", int64(userID)); err != nil {
			return fmt.Errorf("failed to replace ban: %w", err)
		}
		_, err := tx.ExecContext(ctx, "INSERT INTO banned_users (user_id, reason, banned_at) VALUES (?, ?, ?)",
			int64(userID), reason, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to ban user: %w", err)
		}
		return nil
	})
}

// Unban removes the ban entry. It returns ErrNotFound when the user was not banned.
func (r *ModerationRepository) Unban(ctx context.Context, userID models.UserID) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM banned_users WHERE user_id = ?", int64(userID))
	if err != nil {
		return fmt.Errorf("failed to unban user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListBans returns every ban, newest first
func (r *ModerationRepository) ListBans(ctx context.Context) ([]models.BanEntry, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT b.user_id, COALESCE(u.username, ''), b.reason, b.banned_at
		FROM banned_users b
		LEFT JOIN users u ON u.id = b.user_id
		ORDER BY b.banned_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bans: %w", err)
	}
	defer rows.Close()

	var bans []models.BanEntry
	for rows.Next() {
		var b models.BanEntry
		var uid int64
		if err := rows.Scan(&uid, &b.Username, &b.Reason, &b.BannedAt); err != nil {
			return nil, fmt.Errorf("failed to scan ban: %w", err)
		}
		b.UserID = models.UserID(uid)
		bans = append(bans, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bans: %w", err)
	}
	return bans, nil
}

// ReportQuestion files a user's complaint about a question
func (r *ModerationRepository) ReportQuestion(ctx context.Context, questionID int64, userID models.UserID, reason string) (*models.QuestionReport, error) {
	report := &models.QuestionReport{
		QuestionID: questionID,
		UserID:     userID,
		Reason:     reason,
		ReportedAt: time.Now().UTC(),
	}
	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO question_reports (question_id, user_id, reason, reported_at) VALUES (?, ?, ?, ?)",
		questionID, int64(userID), reason, report.ReportedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to report question: %w", err)
	}
	report.ID = id
	return report, nil
}

// ListReports returns every report with its question text, newest first
func (r *ModerationRepository) ListReports(ctx context.Context) ([]models.QuestionReport, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT qr.id, qr.question_id, q.question_text, qr.user_id, COALESCE(u.username, ''), qr.reason, qr.reported_at
		FROM question_reports qr
		JOIN questions q ON q.id = qr.question_id
		LEFT JOIN users u ON u.id = qr.user_id
		ORDER BY qr.reported_at DESC, qr.id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []models.QuestionReport
	for rows.Next() {
		var rep models.QuestionReport
		var uid int64
		if err := rows.Scan(&rep.ID, &rep.QuestionID, &rep.QuestionText, &uid, &rep.Username, &rep.Reason, &rep.ReportedAt); err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		rep.UserID = models.UserID(uid)
		reports = append(reports, rep)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate reports: %w", err)
	}
	return reports, nil
}

// Stats counts the rows behind the admin dashboard
func (r *ModerationRepository) Stats(ctx context.Context) (*models.Stats, error) {
	stats := &models.Stats{}
	counters := []struct {
		query string
		args  []interface{}
		dest  *int
	}{
		{"SELECT COUNT(*) FROM users", nil, &stats.Users},
		{"SELECT COUNT(*) FROM users WHERE provider = ?", []interface{}{models.ProviderWeb}, &stats.WebUsers},
		{"SELECT COUNT(*) FROM questions", nil, &stats.Questions},
		{"SELECT COUNT(*) FROM results", nil, &stats.Results},
		{"SELECT COUNT(*) FROM question_reports", nil, &stats.Reports},
		{"SELECT COUNT(*) FROM banned_users", nil, &stats.Bans},
	}
	for _, c := range counters {
		if err := r.db.QueryRowContext(ctx, c.query, c.args...).Scan(c.dest); err != nil {
			return nil, fmt.Errorf("failed to count stats: %w", err)
		}
	}
	return stats, nil
}
