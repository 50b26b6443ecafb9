package models

import "time"

// Result is the permanent record of a finished quiz
type Result struct {
	ID               int64     `json:"id"`
	UserID           UserID    `json:"user_id"`
	Level            Level     `json:"level"`
	Score            int       `json:"score"`
	Total            int       `json:"total"`
	WrongQuestionIDs []int64   `json:"wrong_question_ids"`
	ElapsedSeconds   int       `json:"elapsed_seconds"`
	CompletedAt      time.Time `json:"completed_at"`
}

// Percentage returns the share of correct answers on a 0-100 scale
func (r *Result) Percentage() float64 {
	return Percentage(r.Score, r.Total)
}

// Percentage computes score/total*100, treating an empty quiz as 0
func Percentage(score, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(score) / float64(total) * 100
}

// LeaderboardEntry is one ranked result joined with its owner
type LeaderboardEntry struct {
	Rank       int       `json:"rank"`
	UserID     UserID    `json:"user_id"`
	Name       string    `json:"name"`
	Level      Level     `json:"level"`
	Score      int       `json:"score"`
	Total      int       `json:"total"`
	Percentage float64   `json:"percentage"`
	Date       time.Time `json:"date"`
}

// Stats are the admin dashboard counters
type Stats struct {
	Users     int `json:"users"`
	WebUsers  int `json:"web_users"`
	Questions int `json:"questions"`
	Results   int `json:"results"`
	Reports   int `json:"reports"`
	Bans      int `json:"bans"`
}
