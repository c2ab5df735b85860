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

const challengeColumns = `id, name, description, start_date, end_date, is_active, member_limit, image, owner_id, workspace_id, created_at, updated_at`

// ChallengeRepository implements domain.ChallengeRepository using
// PostgreSQL
type ChallengeRepository struct {
	pool *pgxpool.Pool
}

// NewChallengeRepository creates a new ChallengeRepository
func NewChallengeRepository(pool *pgxpool.Pool) *ChallengeRepository {
	return &ChallengeRepository{pool: pool}
}

// Create inserts a challenge and the creator's membership record in
// one transaction.
func (r *ChallengeRepository) Create(ctx context.Context, challenge *domain.Challenge) (*domain.Challenge, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`INSERT INTO challenges (id, name, description, start_date, end_date, is_active, member_limit, image, owner_id, workspace_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING `+challengeColumns,
		challenge.ID, challenge.Name, challenge.Description, challenge.StartDate,
		challenge.EndDate, challenge.IsActive, challenge.MemberLimit,
		challenge.Image, challenge.OwnerID, challenge.WorkspaceID)
	created, err := scanChallenge(row)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO challenge_members (challenge_id, user_id) VALUES ($1, $2)`,
		created.ID, created.OwnerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a challenge by primary key
func (r *ChallengeRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Challenge, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = $1`, id)
	return scanChallenge(row)
}

// ListByWorkspace retrieves all challenges in a workspace
func (r *ChallengeRepository) ListByWorkspace(ctx context.Context, workspaceID uuid.UUID) ([]*domain.Challenge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE workspace_id = $1`, workspaceID)
	if err != nil {
		return nil, err
	}
	return scanChallenges(rows)
}

// ListOwnedBy retrieves all challenges owned by a user
func (r *ChallengeRepository) ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]*domain.Challenge, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE owner_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return scanChallenges(rows)
}

// ListByIDs retrieves the challenges with the given ids
func (r *ChallengeRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Challenge, error) {
	if len(ids) == 0 {
		return []*domain.Challenge{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+challengeColumns+` FROM challenges WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return scanChallenges(rows)
}

// Update merges the non-nil fields of upd onto the stored row
func (r *ChallengeRepository) Update(ctx context.Context, id uuid.UUID, upd domain.ChallengeUpdate) (*domain.Challenge, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE challenges
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     start_date = COALESCE($4, start_date),
		     end_date = COALESCE($5, end_date),
		     is_active = COALESCE($6, is_active),
		     member_limit = COALESCE($7, member_limit),
		     image = COALESCE($8, image),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+challengeColumns,
		id, upd.Name, upd.Description, upd.StartDate, upd.EndDate,
		upd.IsActive, upd.MemberLimit, upd.Image)
	return scanChallenge(row)
}

// Delete hard-deletes a challenge; activities and memberships cascade
func (r *ChallengeRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrChallengeNotFound
	}
	return nil
}

// GetParent implements domain.ParentStore for the membership ledger
func (r *ChallengeRepository) GetParent(ctx context.Context, id uuid.UUID) (*domain.ParentRef, error) {
	ch, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ParentRef{ID: ch.ID, Name: ch.Name, OwnerID: ch.OwnerID}, nil
}

func scanChallenge(row pgx.Row) (*domain.Challenge, error) {
	var c domain.Challenge
	err := row.Scan(&c.ID, &c.Name, &c.Description, &c.StartDate, &c.EndDate,
		&c.IsActive, &c.MemberLimit, &c.Image, &c.OwnerID, &c.WorkspaceID,
		&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrChallengeNotFound
		}
		return nil, err
	}
	return &c, nil
}

func scanChallenges(rows pgx.Rows) ([]*domain.Challenge, error) {
	defer rows.Close()
	result := []*domain.Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("scan challenge: %w", err)
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
