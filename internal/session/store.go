// Package session holds in-progress quiz sessions, one per user.
package session

import (
	"context"

	"levelquiz/internal/models"
)

// Store keeps the live session of each user. Get returns (nil, nil) when the
// user has no session. Save replaces any existing session for the same user.
type Store interface {
	Get(ctx context.Context, userID models.UserID) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Delete(ctx context.Context, userID models.UserID) error
}

// clone copies a session so callers never share slices with the store
func clone(s *models.Session) *models.Session {
	c := *s
	c.Questions = append([]models.Question(nil), s.Questions...)
	c.WrongAnswers = append([]models.Question(nil), s.WrongAnswers...)
	return &c
}
