package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/stride-app/stride-backend/internal/domain"
)

// MembershipRepository implements domain.MembershipRepository over a
// join table. The same implementation backs workspace and challenge
// memberships; only the table and parent column differ.
type MembershipRepository struct {
	pool      *pgxpool.Pool
	table     string
	parentCol string
}

// NewWorkspaceMemberRepository creates the user-workspace membership
// repository
func NewWorkspaceMemberRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool, table: "workspace_members", parentCol: "workspace_id"}
}

// NewChallengeMemberRepository creates the user-challenge membership
// repository
func NewChallengeMemberRepository(pool *pgxpool.Pool) *MembershipRepository {
	return &MembershipRepository{pool: pool, table: "challenge_members", parentCol: "challenge_id"}
}

// Add inserts a membership record. The unique constraint on
// (parent, user) makes concurrent duplicate joins surface as
// ErrAlreadyMember rather than duplicate rows.
func (r *MembershipRepository) Add(ctx context.Context, parentID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		fmt.Sprintf(`INSERT INTO %s (%s, user_id) VALUES ($1, $2)`, r.table, r.parentCol),
		parentID, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyMember
		}
		return err
	}
	return nil
}

// Remove deletes a membership record
func (r *MembershipRepository) Remove(ctx context.Context, parentID, userID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND user_id = $2`, r.table, r.parentCol),
		parentID, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotAMember
	}
	return nil
}

// Exists reports whether a membership record exists for (parent, user)
func (r *MembershipRepository) Exists(ctx context.Context, parentID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE %s = $1 AND user_id = $2)`, r.table, r.parentCol),
		parentID, userID).Scan(&exists)
	return exists, err
}

// ListMembers returns all users holding a membership record for the
// parent, password and secret fields excluded by projection.
func (r *MembershipRepository) ListMembers(ctx context.Context, parentID uuid.UUID) ([]*domain.User, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT u.id, u.name, u.email, u.password_hash, u.avatar, u.verified, u.verify_code, u.google_id, u.created_at, u.updated_at
		 FROM users u
		 JOIN %s m ON m.user_id = u.id
		 WHERE m.%s = $1`, r.table, r.parentCol),
		parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []*domain.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// ListJoined returns the parent ids the user holds membership records
// for
func (r *MembershipRepository) ListJoined(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE user_id = $1`, r.parentCol, r.table),
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uuid.UUID{}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
