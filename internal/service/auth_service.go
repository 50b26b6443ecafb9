package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"levelquiz/internal/models"
	"levelquiz/internal/repository"
	"levelquiz/internal/security"
	"levelquiz/internal/validation"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrUnauthorized       = errors.New("authentication required")
)

// AuthResult is a signed-in user with their API token
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// AuthService handles web accounts, external identities and API tokens
type AuthService struct {
	userRepo *repository.UserRepository
	tokens   *security.TokenManager
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo *repository.UserRepository, tokens *security.TokenManager) *AuthService {
	return &AuthService{userRepo: userRepo, tokens: tokens}
}

// Register creates a web account and signs it in
func (s *AuthService) Register(ctx context.Context, username, password, fullName, email string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	fullName = strings.TrimSpace(fullName)
	email = strings.TrimSpace(email)

	if err := validation.ValidateUsername(username); err != nil {
		return nil, err
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, err
	}
	if fullName != "" {
		if err := validation.ValidateName(fullName); err != nil {
			return nil, err
		}
	}
	if err := validation.ValidateOptionalEmail(email); err != nil {
		return nil, err
	}

	existing, err := s.userRepo.GetWebUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	passwordHash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.userRepo.CreateWebUser(ctx, username, fullName, email, passwordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return s.issue(user)
}

// Login checks a web account's password and signs it in
func (s *AuthService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	user, err := s.userRepo.GetWebUser(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil || !security.CheckPassword(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return s.issue(user)
}

// ExternalLogin signs in an identity verified by an OAuth provider,
// creating the account on first sign-in
func (s *AuthService) ExternalLogin(ctx context.Context, provider, subject, email, name string) (*AuthResult, error) {
	if subject == "" {
		return nil, errors.New("provider did not return a user id")
	}
	username := name
	if at := strings.Index(email, "@"); username == "" && at > 0 {
		username = email[:at]
	}
	user, err := s.userRepo.EnsureExternalUser(ctx, provider, subject, username, name, email)
	if err != nil {
		return nil, fmt.Errorf("failed to sign in %s user: %w", provider, err)
	}
	return s.issue(user)
}

// TelegramUser returns the account of a chat user, creating it on first contact
func (s *AuthService) TelegramUser(ctx context.Context, telegramID int64, username, fullName string) (*models.User, error) {
	user, err := s.userRepo.EnsureExternalUser(ctx, models.ProviderTelegram,
		strconv.FormatInt(telegramID, 10), username, fullName, "")
	if err != nil {
		return nil, fmt.Errorf("failed to register telegram user: %w", err)
	}
	return user, nil
}

// Authenticate resolves a bearer token to its user
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.tokens.Parse(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	user, err := s.userRepo.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if user == nil {
		return nil, ErrUnauthorized
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResult, error) {
	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, ExpiresAt: expiresAt, User: user}, nil
}
