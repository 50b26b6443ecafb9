package models

import "time"

// Session is one in-progress quiz attempt. The question order is fixed when
// the session starts.
type Session struct {
	ID           string      `json:"id"`
	UserID       UserID      `json:"user_id"`
	Filter       LevelFilter `json:"filter"`
	Questions    []Question  `json:"questions"`
	Cursor       int         `json:"cursor"`
	Score        int         `json:"score"`
	LivesEnabled bool        `json:"lives_enabled"`
	Lives        int         `json:"lives"`
	WrongAnswers []Question  `json:"wrong_answers"`
	HintsUsed    int         `json:"hints_used"`
	StartedAt    time.Time   `json:"started_at"`
	// LastActivityAt is refreshed every time the session is saved
	LastActivityAt time.Time `json:"last_activity_at"`

	// EndedAt is set once the attempt terminates. A session that has ended
	// but is still stored is waiting for its result to be written.
	EndedAt time.Time `json:"ended_at"`
}

// Current returns the question at the cursor, or nil once every question
// has been presented
func (s *Session) Current() *Question {
	if s.Cursor < 0 || s.Cursor >= len(s.Questions) {
		return nil
	}
	return &s.Questions[s.Cursor]
}

// OutOfLives reports whether the life mechanic ended the attempt
func (s *Session) OutOfLives() bool {
	return s.LivesEnabled && s.Lives <= 0
}

// Exhausted reports whether every question has been presented
func (s *Session) Exhausted() bool {
	return s.Cursor >= len(s.Questions)
}

// Ended reports whether no further answers are accepted
func (s *Session) Ended() bool {
	return s.OutOfLives() || s.Exhausted()
}

// WrongQuestionIDs lists the ids of the incorrectly answered questions in
// the order they were answered
func (s *Session) WrongQuestionIDs() []int64 {
	ids := make([]int64, 0, len(s.WrongAnswers))
	for _, q := range s.WrongAnswers {
		ids = append(ids, q.ID)
	}
	return ids
}

// IdleSince returns the last time the session changed
func (s *Session) IdleSince() time.Time {
	if s.LastActivityAt.IsZero() {
		return s.StartedAt
	}
	return s.LastActivityAt
}

// Elapsed returns the whole seconds since the session started
func (s *Session) Elapsed(now time.Time) int {
	secs := int(now.Sub(s.StartedAt).Seconds())
	if secs < 0 {
		return 0
	}
	return secs
}
