package models

import (
	"strconv"
	"time"
)

// UserID identifies a user across every front-end
type UserID int64

func (id UserID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseUserID parses the decimal form of a user id
func ParseUserID(s string) (UserID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return UserID(n), nil
}

// Identity providers a user account can originate from
const (
	ProviderWeb      = "web"
	ProviderTelegram = "telegram"
	ProviderGoogle   = "google"
)

// User is an account. Provider and Subject together name the external
// identity (a Telegram chat user id, a Google subject, or a web username).
type User struct {
	ID           UserID    `json:"id"`
	Provider     string    `json:"provider"`
	Subject      string    `json:"-"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

// DisplayName prefers the full name and falls back to the username
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	if u.Username != "" {
		return u.Username
	}
	return "User " + u.ID.String()
}

// BanEntry records that a user may not start quizzes
type BanEntry struct {
	UserID   UserID    `json:"user_id"`
	Username string    `json:"username,omitempty"`
	Reason   string    `json:"reason"`
	BannedAt time.Time `json:"banned_at"`
}

// HintBalance is the number of hints a user can still spend
type HintBalance struct {
	UserID UserID `json:"user_id"`
	Count  int    `json:"count"`
}
