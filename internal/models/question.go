package models

import (
	"errors"
	"time"
)

// Question is one multiple-choice item in the question bank
type Question struct {
	ID           int64     `json:"id"`
	Level        Level     `json:"level"`
	Text         string    `json:"text"`
	Options      []string  `json:"options"`
	CorrectIndex int       `json:"correct_index"`
	CreatedAt    time.Time `json:"created_at,omitempty"`
}

// Validate checks the structural rules every stored question must satisfy
func (q *Question) Validate() error {
	if !q.Level.Valid() {
		return errors.New("question level is invalid")
	}
	if q.Text == "" {
		return errors.New("question text is required")
	}
	if len(q.Options) < 2 {
		return errors.New("question needs at least two options")
	}
	for _, opt := range q.Options {
		if opt == "" {
			return errors.New("question options cannot be empty")
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return errors.New("correct answer is out of range")
	}
	return nil
}

// IsCorrect reports whether choice selects the correct option.
// Out-of-range choices are never correct.
func (q *Question) IsCorrect(choice int) bool {
	return choice == q.CorrectIndex
}

// CorrectOption returns the text of the correct option
func (q *Question) CorrectOption() string {
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ""
	}
	return q.Options[q.CorrectIndex]
}

// QuestionReport is a user's complaint about a question
type QuestionReport struct {
	ID           int64     `json:"id"`
	QuestionID   int64     `json:"question_id"`
	QuestionText string    `json:"question_text,omitempty"`
	UserID       UserID    `json:"user_id"`
	Username     string    `json:"username,omitempty"`
	Reason       string    `json:"reason"`
	ReportedAt   time.Time `json:"reported_at"`
}
