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

// MySQLRoleRepository implements Role persistence for MySQL using BINARY(16) ids.
type MySQLRoleRepository struct {
	db *sql.DB
}

// Create inserts a new role. A duplicate name returns ErrRoleAlreadyExists.
func (m *MySQLRoleRepository) Create(ctx context.Context, role *authzDomain.Role) error {
	querier := database.GetTx(ctx, m.db)

	id, err := role.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `INSERT INTO roles (id, name, description, created_at, updated_at)
			  VALUES (?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(ctx, query, id, role.Name, role.Description, role.CreatedAt, role.UpdatedAt)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return authzDomain.ErrRoleAlreadyExists
		}
		return apperrors.Storage(err, "failed to create role")
	}
	return nil
}

// Get retrieves a role by ID.
func (m *MySQLRoleRepository) Get(ctx context.Context, roleID uuid.UUID) (*authzDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := roleID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `SELECT id, name, description, created_at, updated_at FROM roles WHERE id = ?`

	return m.scanOne(querier.QueryRowContext(ctx, query, id))
}

// GetByName retrieves a role by its unique name.
func (m *MySQLRoleRepository) GetByName(ctx context.Context, name string) (*authzDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, description, created_at, updated_at FROM roles WHERE name = ?`

	return m.scanOne(querier.QueryRowContext(ctx, query, name))
}

func (m *MySQLRoleRepository) scanOne(row *sql.Row) (*authzDomain.Role, error) {
	var role authzDomain.Role
	var idBytes []byte
	err := row.Scan(&idBytes, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authzDomain.ErrRoleNotFound
		}
		return nil, apperrors.Storage(err, "failed to get role")
	}
	if err := role.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal role id")
	}
	return &role, nil
}

// List retrieves roles ordered by name with pagination.
func (m *MySQLRoleRepository) List(ctx context.Context, offset, limit int) ([]*authzDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT id, name, description, created_at, updated_at
			  FROM roles
			  ORDER BY name ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list roles")
	}
	return m.scanRows(rows)
}

// Delete removes a role. Memberships and policy attachments cascade.
func (m *MySQLRoleRepository) Delete(ctx context.Context, roleID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := roleID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal role id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM roles WHERE id = ?`, id)
	if err != nil {
		return apperrors.Storage(err, "failed to delete role")
	}
	return requireAffected(result, authzDomain.ErrRoleNotFound, "failed to delete role")
}

// AssignToUser links a user to a role. Repeated assignments are no-ops.
func (m *MySQLRoleRepository) AssignToUser(ctx context.Context, userID, roleID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	uid, rid, err := marshalPair(userID, roleID)
	if err != nil {
		return err
	}

	// ON DUPLICATE KEY keeps foreign key failures visible, unlike INSERT IGNORE.
	query := `INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)
			  ON DUPLICATE KEY UPDATE role_id = role_id`

	if _, err := querier.ExecContext(ctx, query, uid, rid); err != nil {
		if database.IsForeignKeyViolation(err) {
			return authzDomain.ErrAssignmentTargetNotFound
		}
		return apperrors.Storage(err, "failed to assign role")
	}
	return nil
}

// UnassignFromUser removes a user's membership in a role.
func (m *MySQLRoleRepository) UnassignFromUser(ctx context.Context, userID, roleID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	uid, rid, err := marshalPair(userID, roleID)
	if err != nil {
		return err
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id = ? AND role_id = ?`, uid, rid)
	if err != nil {
		return apperrors.Storage(err, "failed to unassign role")
	}
	return requireAffected(result, authzDomain.ErrAssignmentTargetNotFound, "failed to unassign role")
}

// ListByUserID returns the roles a user is a member of.
func (m *MySQLRoleRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*authzDomain.Role, error) {
	querier := database.GetTx(ctx, m.db)

	uid, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT r.id, r.name, r.description, r.created_at, r.updated_at
			  FROM roles r
			  JOIN user_roles ur ON ur.role_id = r.id
			  WHERE ur.user_id = ?
			  ORDER BY r.name ASC`

	rows, err := querier.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list user roles")
	}
	return m.scanRows(rows)
}

func (m *MySQLRoleRepository) scanRows(rows *sql.Rows) ([]*authzDomain.Role, error) {
	defer func() {
		_ = rows.Close()
	}()

	roles := make([]*authzDomain.Role, 0)
	for rows.Next() {
		var role authzDomain.Role
		var idBytes []byte
		if err := rows.Scan(&idBytes, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, apperrors.Storage(err, "failed to scan role row")
		}
		if err := role.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal role id")
		}
		roles = append(roles, &role)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating role rows")
	}

	return roles, nil
}

// NewMySQLRoleRepository creates a new MySQL role repository.
func NewMySQLRoleRepository(db *sql.DB) *MySQLRoleRepository {
	return &MySQLRoleRepository{db: db}
}

func marshalPair(a, b uuid.UUID) ([]byte, []byte, error) {
	first, err := a.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal id")
	}
	second, err := b.MarshalBinary()
	if err != nil {
		return nil, nil, apperrors.Wrap(err, "failed to marshal id")
	}
	return first, second, nil
}
