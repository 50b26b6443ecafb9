package security

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"levelquiz/internal/models"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("testPassword123")
	require.NoError(t, err)
	assert.NotEqual(t, "testPassword123", hash)

	hash2, err := HashPassword("testPassword123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, hash2, "salted hashes differ")

	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "correct password", password: "testPassword123", want: true},
		{name: "incorrect password", password: "wrongPassword", want: false},
		{name: "empty password", password: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckPassword(tt.password, hash))
		})
	}
}

func TestTokenManager(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := NewTokenManager("secret", time.Hour)
	m.now = func() time.Time { return now }

	token, expires, err := m.Issue(&models.User{ID: 42, IsAdmin: true})
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), expires)

	claims, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, models.UserID(42), claims.UserID)
	assert.True(t, claims.IsAdmin)
	assert.Equal(t, "42", claims.Subject)
	assert.NotEmpty(t, claims.ID)

	_, err = NewTokenManager("other", time.Hour).Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "wrong secret")

	_, err = m.Parse(token + "x")
	assert.ErrorIs(t, err, ErrInvalidToken, "tampered signature")

	now = now.Add(2 * time.Hour)
	_, err = m.Parse(token)
	assert.ErrorIs(t, err, ErrInvalidToken, "expired")
}

func TestStateSigner(t *testing.T) {
	s := NewStateSigner("secret")
	state := s.Generate()
	assert.True(t, s.Validate(state))
	assert.NotEqual(t, state, s.Generate())

	nonce, _, _ := strings.Cut(state, ".")
	assert.False(t, s.Validate(nonce+".deadbeef"))
	assert.False(t, s.Validate(nonce))
	assert.False(t, s.Validate(""))
	assert.False(t, NewStateSigner("other").Validate(state))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(2, time.Minute)
	defer rl.Stop()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("a"))
	assert.True(t, rl.Allow("a"))
	assert.False(t, rl.Allow("a"))
	assert.True(t, rl.Allow("b"), "keys are limited independently")

	now = now.Add(time.Minute)
	assert.True(t, rl.Allow("a"), "a new window refills")

	now = now.Add(3 * time.Minute)
	rl.sweep()
	rl.mu.Lock()
	assert.Empty(t, rl.visitors)
	rl.mu.Unlock()
}

func TestGetClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	assert.Equal(t, "10.0.0.1", GetClientIP(r))

	r.Header.Set("X-Real-IP", "10.0.0.2")
	assert.Equal(t, "10.0.0.2", GetClientIP(r))

	r.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.3")
	assert.Equal(t, "203.0.113.7", GetClientIP(r))
}

func TestIsSecureRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "http://example.com/", nil)
	assert.False(t, IsSecureRequest(r))
	r.Header.Set("X-Forwarded-Proto", "https")
	assert.True(t, IsSecureRequest(r))

	c := TempCookie(r, "oauth_state", "v", 10*time.Minute)
	assert.True(t, c.Secure)
	assert.True(t, c.HttpOnly)
	assert.Equal(t, 600, c.MaxAge)
	assert.Equal(t, -1, DeleteCookie(r, "oauth_state").MaxAge)
}
