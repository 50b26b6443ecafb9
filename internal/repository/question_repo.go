package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"

	"levelquiz/internal/database"
	"levelquiz/internal/models"
)

// QuestionRepository is the SQL-backed question bank
type QuestionRepository struct {
	db      *database.DB
	shuffle func(n int, swap func(i, j int))
}

// NewQuestionRepository creates a new question repository
func NewQuestionRepository(db *database.DB) *QuestionRepository {
	return &QuestionRepository{db: db, shuffle: rand.Shuffle}
}

const questionColumns = "id, level, question_text, options, correct_index, created_at"

// FetchQuestions returns every question matching the filter in a fresh
// random order. An empty slice means the pool is empty.
func (r *QuestionRepository) FetchQuestions(ctx context.Context, filter models.LevelFilter) ([]models.Question, error) {
	questions, err := r.ListQuestions(ctx, filter)
	if err != nil {
		return nil, err
	}
	r.shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})
	return questions, nil
}

// ListQuestions returns the questions matching the filter ordered by level then id
func (r *QuestionRepository) ListQuestions(ctx context.Context, filter models.LevelFilter) ([]models.Question, error) {
	query := "SELECT " + questionColumns + " FROM questions"
	var args []interface{}
	if !filter.IsAll() {
		query += " WHERE level = ?"
		args = append(args, string(filter.Level))
	}
	query += " ORDER BY level, id"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query questions: %w", err)
	}
	defer rows.Close()

	var questions []models.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate questions: %w", err)
	}
	return questions, nil
}

// GetQuestion retrieves one question, or nil when it does not exist
func (r *QuestionRepository) GetQuestion(ctx context.Context, id int64) (*models.Question, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+questionColumns+" FROM questions WHERE id = ?", id)
	q, err := scanQuestion(row)
	if err == errNoRow {
		return nil, nil
	}
	return q, err
}

// CreateQuestion validates and stores a new question
func (r *QuestionRepository) CreateQuestion(ctx context.Context, q *models.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	id, err := r.db.ExecReturningID(ctx,
		"INSERT INTO questions (level, question_text, options, correct_index) VALUES (?, ?, ?, ?)",
		string(q.Level), q.Text, string(options), q.CorrectIndex)
	if err != nil {
		return fmt.Errorf("failed to create question: %w", err)
	}
	q.ID = id
	return nil
}

// UpdateQuestion replaces the content of an existing question
func (r *QuestionRepository) UpdateQuestion(ctx context.Context, q *models.Question) error {
	if err := q.Validate(); err != nil {
		return err
	}
	options, err := json.Marshal(q.Options)
	if err != nil {
		return fmt.Errorf("failed to encode options: %w", err)
	}

	res, err := r.db.ExecContext(ctx,
		"UPDATE questions SET level = ?, question_text = ?, options = ?, correct_index = ? WHERE id = ?",
		string(q.Level), q.Text, string(options), q.CorrectIndex, q.ID)
	if err != nil {
		return fmt.Errorf("failed to update question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteQuestion removes a question and, through the foreign key, its reports
func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete question: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ImportQuestions validates and bulk-inserts questions in one transaction
func (r *QuestionRepository) ImportQuestions(ctx context.Context, questions []models.Question) (int, error) {
	for i := range questions {
		if err := questions[i].Validate(); err != nil {
			return 0, fmt.Errorf("question %d: %w", i+1, err)
		}
	}
	return r.db.InsertQuestions(ctx, questions)
}

func scanQuestion(row rowScanner) (*models.Question, error) {
	q := &models.Question{}
	var level, options string
	err := row.Scan(&q.ID, &level, &q.Text, &options, &q.CorrectIndex, &q.CreatedAt)
	if err != nil {
		if isNoRows(err) {
			return nil, errNoRow
		}
		return nil, fmt.Errorf("failed to scan question: %w", err)
	}
	q.Level = models.Level(level)
	if err := json.Unmarshal([]byte(options), &q.Options); err != nil {
		return nil, fmt.Errorf("failed to decode options of question %d: %w", q.ID, err)
	}
	return q, nil
}
