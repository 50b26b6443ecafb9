package repository

import (
	"context"
	"fmt"

	"levelquiz/internal/database"
	"levelquiz/internal/models"
)

// HintRepository keeps per-user hint balances and daily bonus claims.
// Every balance change is a single statement so concurrent calls for the
// same user can never drive the balance below zero.
type HintRepository struct {
	db *database.DB
}

// NewHintRepository creates a new hint repository
func NewHintRepository(db *database.DB) *HintRepository {
	return &HintRepository{db: db}
}

// Balance returns the user's hint count; users without a row have zero
func (r *HintRepository) Balance(ctx context.Context, userID models.UserID) (int, error) {
	return balance(ctx, r.db, userID)
}

// Consume spends one hint if the balance allows it. It reports whether a
// hint was spent and the balance afterwards.
func (r *HintRepository) Consume(ctx context.Context, userID models.UserID) (bool, int, error) {
	res, err := r.db.ExecContext(ctx,
		"UPDATE user_hints SET hints_count = hints_count - 1 WHERE user_id = ? AND hints_count > 0",
		int64(userID))
	if err != nil {
		return false, 0, fmt.Errorf("failed to use hint: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, 0, fmt.Errorf("failed to use hint: %w", err)
	}

	remaining, err := balance(ctx, r.db, userID)
	if err != nil {
		return false, 0, err
	}
	return n > 0, remaining, nil
}

// Grant adds hints to a user's balance
func (r *HintRepository) Grant(ctx context.Context, userID models.UserID, amount int) (int, error) {
	upsert := r.db.Dialect.UpsertAdd("user_hints", "user_id", "hints_count")
	if _, err := r.db.ExecContext(ctx, upsert, int64(userID), amount); err != nil {
		return 0, fmt.Errorf("failed to grant hints: %w", err)
	}
	return balance(ctx, r.db, userID)
}

// ClaimDailyBonus grants one hint the first time it is called for a user on
// the given calendar day (YYYY-MM-DD). Later calls that day change nothing.
// It reports whether the bonus had already been claimed and the balance.
func (r *HintRepository) ClaimDailyBonus(ctx context.Context, userID models.UserID, day string) (bool, int, error) {
	var alreadyClaimed bool
	var newBalance int

	err := r.db.WithTx(ctx, func(tx *database.Tx) error {
		insert := tx.GetDialect().InsertIgnore("daily_bonus", "user_id", "bonus_date")
		res, err := tx.ExecContext(ctx, insert, int64(userID), day)
		if err != nil {
			return fmt.Errorf("failed to record daily bonus: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to record daily bonus: %w", err)
		}
		alreadyClaimed = n == 0

		if !alreadyClaimed {
			upsert := tx.GetDialect().UpsertAdd("user_hints", "user_id", "hints_count")
			if _, err := tx.ExecContext(ctx, upsert, int64(userID), 1); err != nil {
				return fmt.Errorf("failed to grant daily hint: %w", err)
			}
		}

		newBalance, err = balance(ctx, tx, userID)
		return err
	})
	if err != nil {
		return false, 0, err
	}
	return alreadyClaimed, newBalance, nil
}

func balance(ctx context.Context, q database.DBTX, userID models.UserID) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT hints_count FROM user_hints WHERE user_id = ?", int64(userID)).Scan(&count)
	if isNoRows(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get hint balance: %w", err)
	}
	return count, nil
}
