// Package repository implements role and policy persistence.
//
// PostgreSQL implementations use native UUID columns, MySQL implementations use
// BINARY(16). Both honor the transaction carried by the context via database.GetTx.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	authzDomain "github.com/allisson/vault/internal/authz/domain"
	"github.com/allisson/vault/internal/database"
	apperrors "github.com/allisson/vault/internal/errors"
)

// PostgreSQLRoleRepository implements Role persistence for PostgreSQL.
type PostgreSQLRoleRepository struct {
	db *sql.DB
}

// Create inserts a new role. A duplicate name returns ErrRoleAlreadyExists.
func (p *PostgreSQLRoleRepository) Create(ctx context.Context, role *authzDomain.Role) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO roles (id, name, description, created_at, updated_at)
			  VALUES ($1, $2, $3, $4, $5)`

	_, err := querier.ExecContext(
		ctx,
		query,
		role.ID,
		role.Name,
		role.Description,
		role.CreatedAt,
		role.UpdatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return authzDomain.ErrRoleAlreadyExists
		}
		return apperrors.Storage(err, "failed to create role")
	}
	return nil
}

// Get retrieves a role by ID.
func (p *PostgreSQLRoleRepository) Get(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = $1`

	return p.scanOne(querier.QueryRowContext(ctx, query, roleID))
}

// GetByName retrieves a role by its unique name.
func (p *PostgreSQLRoleRepository) GetByName(ctx context.Context, name string) (*authzDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, description, created_at, updated_at FROM roles WHERE name = $1`

	return p.scanOne(querier.QueryRowContext(ctx, query, name))
}

func (p *PostgreSQLRoleRepository) scanOne(row *sql.Row) (*authzDomain.Role, error) {
	var role authzDomain.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authzDomain.ErrRoleNotFound
		}
		return nil, apperrors.Storage(err, "failed to get role")
	}
	return &role, nil
}

// List retrieves roles ordered by name with pagination.
func (p *PostgreSQLRoleRepository) List(ctx context.Context, offset, limit int) ([]*authzDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT id, name, description, created_at, updated_at
			  FROM roles
			  ORDER BY name ASC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list roles")
	}
	return p.scanRows(rows)
}

// Delete removes a role. Memberships and policy attachments cascade.
func (p *PostgreSQLRoleRepository) Delete(ctx context.Context, roleID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM roles WHERE id = $1`, roleID)
	if err != nil {
		return apperrors.Storage(err, "failed to delete role")
	}
	return requireAffected(result, authzDomain.ErrRoleNotFound, "failed to delete role")
}

// AssignToUser links a user to a role. Repeated assignments are no-ops.
func (p *PostgreSQLRoleRepository) AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO user_roles (user_id, role_id) VALUES ($1, $2)
			  ON CONFLICT (user_id, role_id) DO NOTHING`

	if _, err := querier.ExecContext(ctx, query, userID, roleID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return authzDomain.ErrAssignmentTargetNotFound
		}
		return apperrors.Storage(err, "failed to assign role")
	}
	return nil
}

// UnassignFromUser removes a user's membership in a role.
func (p *PostgreSQLRoleRepository) UnassignFromUser(ctx context.Context, userID, roleID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM user_roles WHERE user_id = $1 AND role_id = $2`,
		userID,
		roleID,
	)
	if err != nil {
		return apperrors.Storage(err, "failed to unassign role")
	}
	return requireAffected(result, authzDomain.ErrAssignmentTargetNotFound, "failed to unassign role")
}

// ListByUserID returns the roles a user is a member of.
func (p *PostgreSQLRoleRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*authzDomain.Role, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT r.id, r.name, r.description, r.created_at, r.updated_at
			  FROM roles r
			  JOIN user_roles ur ON ur.role_id = r.id
			  WHERE ur.user_id = $1
			  ORDER BY r.name ASC`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list user roles")
	}
	return p.scanRows(rows)
}

func (p *PostgreSQLRoleRepository) scanRows(rows *sql.Rows) ([]*authzDomain.Role, error) {
	defer func() {
		_ = rows.Close()
	}()

	roles := make([]*authzDomain.Role, 0)
	for rows.Next() {
		var role authzDomain.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, apperrors.Storage(err, "failed to scan role row")
		}
		roles = append(roles, &role)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating role rows")
	}

	return roles, nil
}

// NewPostgreSQLRoleRepository creates a new PostgreSQL role repository.
func NewPostgreSQLRoleRepository(db *sql.DB) *PostgreSQLRoleRepository {
	return &PostgreSQLRoleRepository{db: db}
}

// requireAffected turns a zero-row result into notFound.
func requireAffected(result sql.Result, notFound error, msg string) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Storage(err, msg)
	}
	if affected == 0 {
		return notFound
	}
	return nil
}
