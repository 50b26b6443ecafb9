package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"levelquiz/internal/models"
	"levelquiz/internal/repository"
	"levelquiz/internal/validation"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNotBanned        = errors.New("user is not banned")
)

// SessionAbandoner drops a user's running quiz
type SessionAbandoner interface {
	Abandon(ctx context.Context, userID models.UserID) (bool, error)
}

// AdminService covers the question bank, moderation and dashboard counters
type AdminService struct {
	questionRepo   *repository.QuestionRepository
	moderationRepo *repository.ModerationRepository
	userRepo       *repository.UserRepository
	sessions       SessionAbandoner
}

// NewAdminService creates a new admin service. sessions may be nil when no
// engine runs in the process (the operator CLI).
func NewAdminService(questionRepo *repository.QuestionRepository, moderationRepo *repository.ModerationRepository,
	userRepo *repository.UserRepository, sessions SessionAbandoner) *AdminService {
	return &AdminService{
		questionRepo:   questionRepo,
		moderationRepo: moderationRepo,
		userRepo:       userRepo,
		sessions:       sessions,
	}
}

// Stats returns the dashboard counters
func (s *AdminService) Stats(ctx context.Context) (*models.Stats, error) {
	return s.moderationRepo.Stats(ctx)
}

// ListQuestions returns the questions matching filter ordered by level
func (s *AdminService) ListQuestions(ctx context.Context, filter models.LevelFilter) ([]models.Question, error) {
	return s.questionRepo.ListQuestions(ctx, filter)
}

// CreateQuestion validates and stores a new question
func (s *AdminService) CreateQuestion(ctx context.Context, q *models.Question) error {
	normalizeQuestion(q)
	if err := q.Validate(); err != nil {
		return validation.ValidationError{Field: "question", Message: err.Error()}
	}
	return s.questionRepo.CreateQuestion(ctx, q)
}

// UpdateQuestion replaces the content of an existing question
func (s *AdminService) UpdateQuestion(ctx context.Context, q *models.Question) error {
	normalizeQuestion(q)
	if err := q.Validate(); err != nil {
		return validation.ValidationError{Field: "question", Message: err.Error()}
	}
	err := s.questionRepo.UpdateQuestion(ctx, q)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrQuestionNotFound
	}
	return err
}

// DeleteQuestion removes a question and its reports
func (s *AdminService) DeleteQuestion(ctx context.Context, id int64) error {
	err := s.questionRepo.DeleteQuestion(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrQuestionNotFound
	}
	return err
}

// ImportQuestionsCSV loads questions from CSV; either all rows are stored or none
func (s *AdminService) ImportQuestionsCSV(ctx context.Context, r io.Reader) (int, error) {
	questions, err := models.ReadQuestionsCSV(r)
	if err != nil {
		return 0, validation.ValidationError{Field: "file", Message: err.Error()}
	}
	n, err := s.questionRepo.ImportQuestions(ctx, questions)
	if err != nil {
		return 0, fmt.Errorf("failed to import questions: %w", err)
	}
	log.Printf("Imported %d questions", n)
	return n, nil
}

// ReportQuestion files a user's complaint about a question
func (s *AdminService) ReportQuestion(ctx context.Context, userID models.UserID, questionID int64, reason string) (*models.QuestionReport, error) {
	if err := validation.ValidateReportReason(reason); err != nil {
		return nil, err
	}
	q, err := s.questionRepo.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question: %w", err)
	}
	if q == nil {
		return nil, ErrQuestionNotFound
	}
	report, err := s.moderationRepo.ReportQuestion(ctx, questionID, userID, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	report.QuestionText = q.Text
	log.Printf("Question %d reported by user %s", questionID, userID)
	return report, nil
}

// ListReports returns every question report, newest first
func (s *AdminService) ListReports(ctx context.Context) ([]models.QuestionReport, error) {
	return s.moderationRepo.ListReports(ctx)
}

// ListBans returns every ban, newest first
func (s *AdminService) ListBans(ctx context.Context) ([]models.BanEntry, error) {
	return s.moderationRepo.ListBans(ctx)
}

// Ban blocks a user from starting quizzes and ends the quiz they are taking
func (s *AdminService) Ban(ctx context.Context, userID models.UserID, reason string) error {
	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return ErrUserNotFound
	}
	if err := s.moderationRepo.Ban(ctx, userID, strings.TrimSpace(reason)); err != nil {
		return err
	}
	log.Printf("User %s banned: %s", userID, reason)

	if s.sessions != nil {
		if _, err := s.sessions.Abandon(ctx, userID); err != nil {
			log.Printf("Failed to end quiz of banned user %s: %v", userID, err)
		}
	}
	return nil
}

// Unban lifts a ban
func (s *AdminService) Unban(ctx context.Context, userID models.UserID) error {
	err := s.moderationRepo.Unban(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotBanned
	}
	if err == nil {
		log.Printf("User %s unbanned", userID)
	}
	return err
}

func normalizeQuestion(q *models.Question) {
	q.Text = strings.TrimSpace(q.Text)
	for i := range q.Options {
		q.Options[i] = strings.TrimSpace(q.Options[i])
	}
}
