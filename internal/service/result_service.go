package service

import (
	"context"

	"levelquiz/internal/models"
	"levelquiz/internal/repository"
)

const (
	DefaultHistoryLimit     = 10
	DefaultLeaderboardLimit = 20
)

// ResultService serves result history and the leaderboard
type ResultService struct {
	resultRepo *repository.ResultRepository
}

// NewResultService creates a new result service
func NewResultService(resultRepo *repository.ResultRepository) *ResultService {
	return &ResultService{resultRepo: resultRepo}
}

// History returns the user's most recent results, newest first
func (s *ResultService) History(ctx context.Context, userID models.UserID, limit int) ([]models.Result, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.resultRepo.GetUserResults(ctx, userID, limit)
}

// Leaderboard returns the best results across all users
func (s *ResultService) Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	return s.resultRepo.Leaderboard(ctx, limit)
}
