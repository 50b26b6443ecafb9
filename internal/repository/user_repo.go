package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"levelquiz/internal/database"
	"levelquiz/internal/models"
)

// UserRepository handles database operations for accounts of every provider
type UserRepository struct {
	db *database.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = "id, provider, subject, username, full_name, email, password_hash, is_admin, created_at"

// CreateWebUser inserts a password account. The first web account becomes admin.
func (r *UserRepository) CreateWebUser(ctx context.Context, username, fullName, email, passwordHash string) (*models.User, error) {
	var webUsers int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE provider = ?", models.ProviderWeb).Scan(&webUsers)
	if err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	user := &models.User{
		Provider:     models.ProviderWeb,
		Subject:      strings.ToLower(username),
		Username:     username,
		FullName:     fullName,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      webUsers == 0,
	}
	if err := r.insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// EnsureExternalUser returns the account linked to an external identity,
// creating it on first contact and refreshing the display names otherwise
func (r *UserRepository) EnsureExternalUser(ctx context.Context, provider, subject, username, fullName, email string) (*models.User, error) {
	existing, err := r.GetUserByIdentity(ctx, provider, subject)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.Username != username || existing.FullName != fullName {
			_, err := r.db.ExecContext(ctx, "UPDATE users SET username = ?, full_name = ? WHERE id = ?",
				username, fullName, int64(existing.ID))
			if err != nil {
				return nil, fmt.Errorf("failed to update user: %w", err)
			}
			existing.Username = username
			existing.FullName = fullName
		}
		return existing, nil
	}

	user := &models.User{
		Provider: provider,
		Subject:  subject,
		Username: username,
		FullName: fullName,
		Email:    email,
	}
	if err := r.insert(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepository) insert(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (provider, subject, username, full_name, email, password_hash, is_admin)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	id, err := r.db.ExecReturningID(ctx, query,
		user.Provider, user.Subject, user.Username, user.FullName, user.Email, user.PasswordHash, user.IsAdmin)
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.ID = models.UserID(id)
	user.CreatedAt = time.Now()
	return nil
}

// GetUserByID retrieves a user by id. It returns nil when there is no such user.
func (r *UserRepository) GetUserByID(ctx context.Context, id models.UserID) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = ?", int64(id))
	return scanUser(row)
}

// GetUserByIdentity retrieves the account linked to provider and subject
func (r *UserRepository) GetUserByIdentity(ctx context.Context, provider, subject string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE provider = ? AND subject = ?", provider, subject)
	return scanUser(row)
}

// GetWebUser retrieves a password account by username, ignoring case
func (r *UserRepository) GetWebUser(ctx context.Context, username string) (*models.User, error) {
	return r.GetUserByIdentity(ctx, models.ProviderWeb, strings.ToLower(username))
}

// SetAdmin grants or revokes admin rights
func (r *UserRepository) SetAdmin(ctx context.Context, id models.UserID, isAdmin bool) error {
	res, err := r.db.ExecContext(ctx, "UPDATE users SET is_admin = ? WHERE id = ?", isAdmin, int64(id))
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanUser(row rowScanner) (*models.User, error) {
	user := &models.User{}
	var id int64
	err := row.Scan(
		&id,
		&user.Provider,
		&user.Subject,
		&user.Username,
		&user.FullName,
		&user.Email,
		&user.PasswordHash,
		&user.IsAdmin,
		&user.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.ID = models.UserID(id)
	return user, nil
}
