package repository

import (
	"context"
	"fmt"
	"time"

	"iris/internal/models"
)

// RewardRepository is the append-only points ledger
type RewardRepository struct {
	db Querier
}

// NewRewardRepository creates a new reward repository
func NewRewardRepository(db Querier) *RewardRepository {
	return &RewardRepository{db: db}
}

// Create appends a ledger entry
func (r *RewardRepository) Create(ctx context.Context, rw *models.Reward) error {
	query := `INSERT INTO rewards (id, user_id, points, reason, awarded_at) VALUES ($1, $2, $3, $4, $5)`
	if rw.AwardedAt.IsZero() {
		rw.AwardedAt = time.Now()
	}
	if _, err := r.db.ExecContext(ctx, query, rw.ID, rw.UserID, rw.Points, rw.Reason, rw.AwardedAt); err != nil {
		return fmt.Errorf("failed to create reward: %w", err)
	}
	return nil
}

// SumPoints returns the balance of a user, derived from the ledger
func (r *RewardRepository) SumPoints(ctx context.Context, userID string) (int, error) {
	var total int
	query := `SELECT COALESCE(SUM(points), 0) FROM rewards WHERE user_id = $1`
	if err := r.db.QueryRowContext(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to sum reward points: %w", err)
	}
	return total, nil
}

// ListByUser returns the ledger entries of a user, newest first
func (r *RewardRepository) ListByUser(ctx context.Context, userID string) ([]models.Reward, error) {
	query := `
		SELECT id, user_id, points, reason, awarded_at
		FROM rewards
		WHERE user_id = $1
		ORDER BY awarded_at DESC
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list rewards: %w", err)
	}
	defer closeRows(rows)

	var rewards []models.Reward
	for rows.Next() {
		var rw models.Reward
		if err := rows.Scan(&rw.ID, &rw.UserID, &rw.Points, &rw.Reason, &rw.AwardedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reward: %w", err)
		}
		rewards = append(rewards, rw)
	}
	return rewards, rows.Err()
}
