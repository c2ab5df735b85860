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

const workspaceColumns = `id, name, description, is_private, is_active, member_limit, image, owner_id, created_at, updated_at`

// WorkspaceRepository implements domain.WorkspaceRepository using
// PostgreSQL
type WorkspaceRepository struct {
	pool *pgxpool.Pool
}

// NewWorkspaceRepository creates a new WorkspaceRepository
func NewWorkspaceRepository(pool *pgxpool.Pool) *WorkspaceRepository {
	return &WorkspaceRepository{pool: pool}
}

// Create inserts a workspace and the creator's membership record in
// one transaction.
func (r *WorkspaceRepository) Create(ctx context.Context, workspace *domain.Workspace) (*domain.Workspace, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`INSERT INTO workspaces (id, name, description, is_private, is_active, member_limit, image, owner_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+workspaceColumns,
		workspace.ID, workspace.Name, workspace.Description, workspace.IsPrivate,
		workspace.IsActive, workspace.MemberLimit, workspace.Image, workspace.OwnerID)
	created, err := scanWorkspace(row)
	if err != nil {
		return nil, err
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO workspace_members (workspace_id, user_id) VALUES ($1, $2)`,
		created.ID, created.OwnerID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a workspace by primary key
func (r *WorkspaceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Workspace, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = $1`, id)
	return scanWorkspace(row)
}

// ListOwnedBy retrieves all workspaces owned by a user
func (r *WorkspaceRepository) ListOwnedBy(ctx context.Context, userID uuid.UUID) ([]*domain.Workspace, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE owner_id = $1`, userID)
	if err != nil {
		return nil, err
	}
	return scanWorkspaces(rows)
}

// ListByIDs retrieves the workspaces with the given ids
func (r *WorkspaceRepository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Workspace, error) {
	if len(ids) == 0 {
		return []*domain.Workspace{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+workspaceColumns+` FROM workspaces WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return scanWorkspaces(rows)
}

// Update merges the non-nil fields of upd onto the stored row
func (r *WorkspaceRepository) Update(ctx context.Context, id uuid.UUID, upd domain.WorkspaceUpdate) (*domain.Workspace, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE workspaces
		 SET name = COALESCE($2, name),
		     description = COALESCE($3, description),
		     is_private = COALESCE($4, is_private),
		     is_active = COALESCE($5, is_active),
		     member_limit = COALESCE($6, member_limit),
		     image = COALESCE($7, image),
		     updated_at = now()
		 WHERE id = $1
		 RETURNING `+workspaceColumns,
		id, upd.Name, upd.Description, upd.IsPrivate, upd.IsActive,
		upd.MemberLimit, upd.Image)
	return scanWorkspace(row)
}

// Delete hard-deletes a workspace; challenges and memberships cascade
func (r *WorkspaceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM workspaces WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWorkspaceNotFound
	}
	return nil
}

// GetParent implements domain.ParentStore for the membership ledger
func (r *WorkspaceRepository) GetParent(ctx context.Context, id uuid.UUID) (*domain.ParentRef, error) {
	ws, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &domain.ParentRef{ID: ws.ID, Name: ws.Name, OwnerID: ws.OwnerID}, nil
}

func scanWorkspace(row pgx.Row) (*domain.Workspace, error) {
	var w domain.Workspace
	err := row.Scan(&w.ID, &w.Name, &w.Description, &w.IsPrivate, &w.IsActive,
		&w.MemberLimit, &w.Image, &w.OwnerID, &w.CreatedAt, &w.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWorkspaceNotFound
		}
		return nil, err
	}
	return &w, nil
}

func scanWorkspaces(rows pgx.Rows) ([]*domain.Workspace, error) {
	defer rows.Close()
	result := []*domain.Workspace{}
	for rows.Next() {
		w, err := scanWorkspace(rows)
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}
		result = append(result, w)
	}
	return result, rows.Err()
}
