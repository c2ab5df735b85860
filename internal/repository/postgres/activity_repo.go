package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stride-app/stride-backend/internal/domain"
)

const activityColumns = `id, title, description, image, type, duration, owner_id, challenge_id, created_at, updated_at`

// ActivityRepository implements domain.ActivityRepository using
// PostgreSQL
type ActivityRepository struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new ActivityRepository
func NewActivityRepository(pool *pgxpool.Pool) *ActivityRepository {
	return &ActivityRepository{pool: pool}
}

// Create inserts a new activity
func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) (*domain.Activity, error) {
	row := r.pool.QueryRow(ctx,
		`INSERT INTO activities (id, title, description, image, type, duration, owner_id, challenge_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+activityColumns,
		activity.ID, activity.Title, activity.Description, activity.Image,
		activity.Type, activity.Duration, activity.OwnerID, activity.ChallengeID)
	return scanActivity(row)
}

// GetByID retrieves an activity by primary key
func (r *ActivityRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Activity, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE id = $1`, id)
	return scanActivity(row)
}

// ListByChallenge retrieves all activities logged against a challenge
func (r *ActivityRepository) ListByChallenge(ctx context.Context, challengeID uuid.UUID) ([]*domain.Activity, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activities WHERE challenge_id = $1`, challengeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.Activity{}
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		result = append(result, a)
	}
	return result, rows.Err()
}

// Update merges the non-nil fields of upd onto the stored row
func (r *ActivityRepository) Update(ctx context.Context, id uuid.UUID, upd domain.ActivityUpdate) (*domain.Activity, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE activities
		 SET title = COALESCE($2, title),
		     description = COALESCE($3, description),
		     type = COALESCE($4, type),
		     duration = COALESCE($5, duration),
		     image = COALESCE($6, image),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+activityColumns,
		id, upd.Title, upd.Description, upd.Type, upd.Duration, upd.Image)
	return scanActivity(row)
}

// Delete hard-deletes an activity
func (r *ActivityRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrActivityNotFound
	}
	return nil
}

func scanActivity(row pgx.Row) (*domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(&a.ID, &a.Title, &a.Description, &a.Image, &a.Type,
		&a.Duration, &a.OwnerID, &a.ChallengeID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrActivityNotFound
		}
		return nil, err
	}
	return &a, nil
}
