package database

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"log"

	"levelquiz/internal/models"
)

//go:embed seed/questions.csv
var defaultQuestions []byte

// SeedQuestions fills an empty question bank with the built-in sample set
func (db *DB) SeedQuestions(ctx context.Context) error {
	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM questions").Scan(&count); err != nil {
		return fmt.Errorf("failed to check question count: %w", err)
	}

	if count > 0 {
		log.Printf("Question bank already populated with %d questions", count)
		return nil
	}

	questions, err := models.ReadQuestionsCSV(bytes.NewReader(defaultQuestions))
	if err != nil {
		return fmt.Errorf("failed to parse built-in questions: %w", err)
	}

	added, err := db.InsertQuestions(ctx, questions)
	if err != nil {
		return err
	}

	log.Printf("Question bank seeded with %d questions", added)
	return nil
}

// InsertQuestions bulk-inserts questions in one transaction and returns how
// many rows were written
func (db *DB) InsertQuestions(ctx context.Context, questions []models.Question) (int, error) {
	added := 0
	err := db.WithTx(ctx, func(tx *Tx) error {
		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO questions (level, question_text, options, correct_index) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, q := range questions {
			options, err := json.Marshal(q.Options)
			if err != nil {
				return fmt.Errorf("failed to encode options: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, string(q.Level), q.Text, string(options), q.CorrectIndex); err != nil {
				return fmt.Errorf("failed to insert question %q: %w", q.Text, err)
			}
			added++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return added, nil
}
