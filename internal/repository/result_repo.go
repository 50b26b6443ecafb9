package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"levelquiz/internal/database"
	"levelquiz/internal/models"
)

// ResultRepository stores finished quiz results
type ResultRepository struct {
	db *database.DB
}

// NewResultRepository creates a new result repository
func NewResultRepository(db *database.DB) *ResultRepository {
	return &ResultRepository{db: db}
}

// RecordResult persists a finished quiz and fills in its id
func (r *ResultRepository) RecordResult(ctx context.Context, result *models.Result) error {
	wrong := result.WrongQuestionIDs
	if wrong == nil {
		wrong = []int64{}
	}
	wrongJSON, err := json.Marshal(wrong)
	if err != nil {
		return fmt.Errorf("failed to encode wrong answers: %w", err)
	}
	if result.CompletedAt.IsZero() {
		result.CompletedAt = time.Now()
	}

	query := `
		INSERT INTO results (user_id, level, score, total, wrong_question_ids, elapsed_seconds, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		int64(result.UserID), string(result.Level), result.Score, result.Total,
		string(wrongJSON), result.ElapsedSeconds, result.CompletedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to record result: %w", err)
	}
	result.ID = id
	return nil
}

// GetUserResults returns a user's most recent results, newest first
func (r *ResultRepository) GetUserResults(ctx context.Context, userID models.UserID, limit int) ([]models.Result, error) {
	query := `
		SELECT id, user_id, level, score, total, wrong_question_ids, elapsed_seconds, completed_at
		FROM results
		WHERE user_id = ?
		ORDER BY completed_at DESC, id DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, int64(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

// Leaderboard ranks individual results by percentage, most recent first on ties
func (r *ResultRepository) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT r.user_id, u.full_name, u.username, r.level, r.score, r.total, r.completed_at
		FROM results r
		JOIN users u ON r.user_id = u.id
		WHERE r.total > 0
		ORDER BY (r.score * 100.0) / r.total DESC, r.completed_at DESC
		LIMIT ?
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []models.LeaderboardEntry
	for rows.Next() {
		var e models.LeaderboardEntry
		var uid int64
		var fullName, username, level string
		if err := rows.Scan(&uid, &fullName, &username, &level, &e.Score, &e.Total, &e.Date); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		u := models.User{ID: models.UserID(uid), FullName: fullName, Username: username}
		e.Rank = len(entries) + 1
		e.UserID = u.ID
		e.Name = u.DisplayName()
		e.Level = models.Level(level)
		e.Percentage = models.Percentage(e.Score, e.Total)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}
	return entries, nil
}

// ListAll returns every stored result, oldest first
func (r *ResultRepository) ListAll(ctx context.Context) ([]models.Result, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, level, score, total, wrong_question_ids, elapsed_seconds, completed_at
		FROM results ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %w", err)
	}
	defer rows.Close()

	return scanResults(rows)
}

func scanResults(rows *sql.Rows) ([]models.Result, error) {
	var results []models.Result
	for rows.Next() {
		var res models.Result
		var uid int64
		var level, wrong string
		if err := rows.Scan(&res.ID, &uid, &level, &res.Score, &res.Total, &wrong, &res.ElapsedSeconds, &res.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		res.UserID = models.UserID(uid)
		res.Level = models.Level(level)
		if err := json.Unmarshal([]byte(wrong), &res.WrongQuestionIDs); err != nil {
			return nil, fmt.Errorf("failed to decode wrong answers of result %d: %w", res.ID, err)
		}
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate results: %w", err)
	}
	return results, nil
}
