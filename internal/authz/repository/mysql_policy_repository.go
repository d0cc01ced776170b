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

const mysqlPolicyColumns = `p.id, p.name, p.description, p.resource_type, p.action, p.effect, p.created_at`

// MySQLPolicyRepository implements Policy persistence for MySQL using BINARY(16) ids.
type MySQLPolicyRepository struct {
	db *sql.DB
}

// Create inserts a new policy. A duplicate name returns ErrPolicyAlreadyExists.
func (m *MySQLPolicyRepository) Create(ctx context.Context, policy *authzDomain.Policy) error {
	querier := database.GetTx(ctx, m.db)

	id, err := policy.ID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy id")
	}

	query := `INSERT INTO policies (id, name, description, resource_type, action, effect, created_at)
			  VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err = querier.ExecContext(
		ctx,
		query,
		id,
		policy.Name,
		policy.Description,
		policy.ResourceType,
		policy.Action,
		string(policy.Effect),
		policy.CreatedAt,
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return authzDomain.ErrPolicyAlreadyExists
		}
		return apperrors.Storage(err, "failed to create policy")
	}
	return nil
}

// Get retrieves a policy by ID.
func (m *MySQLPolicyRepository) Get(ctx context.Context, policyID uuid.UUID) (*authzDomain.Policy, error) {
	querier := database.GetTx(ctx, m.db)

	id, err := policyID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal policy id")
	}

	query := `SELECT ` + mysqlPolicyColumns + ` FROM policies p WHERE p.id = ?`

	var policy authzDomain.Policy
	var idBytes []byte
	var effect string
	err = querier.QueryRowContext(ctx, query, id).Scan(
		&idBytes,
		&policy.Name,
		&policy.Description,
		&policy.ResourceType,
		&policy.Action,
		&effect,
		&policy.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, authzDomain.ErrPolicyNotFound
		}
		return nil, apperrors.Storage(err, "failed to get policy")
	}
	if err := policy.ID.UnmarshalBinary(idBytes); err != nil {
		return nil, apperrors.Wrap(err, "failed to unmarshal policy id")
	}
	policy.Effect = authzDomain.Effect(effect)

	return &policy, nil
}

// List retrieves policies ordered by name with pagination.
func (m *MySQLPolicyRepository) List(ctx context.Context, offset, limit int) ([]*authzDomain.Policy, error) {
	querier := database.GetTx(ctx, m.db)

	query := `SELECT ` + mysqlPolicyColumns + `
			  FROM policies p
			  ORDER BY p.name ASC
			  LIMIT ? OFFSET ?`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list policies")
	}
	return m.scanRows(rows)
}

// Delete removes a policy. Role attachments cascade.
func (m *MySQLPolicyRepository) Delete(ctx context.Context, policyID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	id, err := policyID.MarshalBinary()
	if err != nil {
		return apperrors.Wrap(err, "failed to marshal policy id")
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM policies WHERE id = ?`, id)
	if err != nil {
		return apperrors.Storage(err, "failed to delete policy")
	}
	return requireAffected(result, authzDomain.ErrPolicyNotFound, "failed to delete policy")
}

// AttachToRole links a policy to a role. Repeated attachments are no-ops.
func (m *MySQLPolicyRepository) AttachToRole(ctx context.Context, roleID, policyID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	rid, pid, err := marshalPair(roleID, policyID)
	if err != nil {
		return err
	}

	query := `INSERT INTO role_policies (role_id, policy_id) VALUES (?, ?)
			  ON DUPLICATE KEY UPDATE policy_id = policy_id`

	if _, err := querier.ExecContext(ctx, query, rid, pid); err != nil {
		if database.IsForeignKeyViolation(err) {
			return authzDomain.ErrAssignmentTargetNotFound
		}
		return apperrors.Storage(err, "failed to attach policy")
	}
	return nil
}

// DetachFromRole removes a policy from a role.
func (m *MySQLPolicyRepository) DetachFromRole(ctx context.Context, roleID, policyID uuid.UUID) error {
	querier := database.GetTx(ctx, m.db)

	rid, pid, err := marshalPair(roleID, policyID)
	if err != nil {
		return err
	}

	result, err := querier.ExecContext(ctx, `DELETE FROM role_policies WHERE role_id = ? AND policy_id = ?`, rid, pid)
	if err != nil {
		return apperrors.Storage(err, "failed to detach policy")
	}
	return requireAffected(result, authzDomain.ErrAssignmentTargetNotFound, "failed to detach policy")
}

// ListByRoleID returns the policies attached to a role.
func (m *MySQLPolicyRepository) ListByRoleID(ctx context.Context, roleID uuid.UUID) ([]*authzDomain.Policy, error) {
	querier := database.GetTx(ctx, m.db)

	rid, err := roleID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal role id")
	}

	query := `SELECT ` + mysqlPolicyColumns + `
			  FROM policies p
			  JOIN role_policies rp ON rp.policy_id = p.id
			  WHERE rp.role_id = ?
			  ORDER BY p.name ASC`

	rows, err := querier.QueryContext(ctx, query, rid)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list role policies")
	}
	return m.scanRows(rows)
}

// ListByUserID returns every distinct policy reachable through the user's roles
// in a single query.
func (m *MySQLPolicyRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*authzDomain.Policy, error) {
	querier := database.GetTx(ctx, m.db)

	uid, err := userID.MarshalBinary()
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to marshal user id")
	}

	query := `SELECT DISTINCT ` + mysqlPolicyColumns + `
			  FROM policies p
			  JOIN role_policies rp ON rp.policy_id = p.id
			  JOIN user_roles ur ON ur.role_id = rp.role_id
			  WHERE ur.user_id = ?`

	rows, err := querier.QueryContext(ctx, query, uid)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list user policies")
	}
	return m.scanRows(rows)
}

func (m *MySQLPolicyRepository) scanRows(rows *sql.Rows) ([]*authzDomain.Policy, error) {
	defer func() {
		_ = rows.Close()
	}()

	policies := make([]*authzDomain.Policy, 0)
	for rows.Next() {
		var policy authzDomain.Policy
		var idBytes []byte
		var effect string
		err := rows.Scan(
			&idBytes,
			&policy.Name,
			&policy.Description,
			&policy.ResourceType,
			&policy.Action,
			&effect,
			&policy.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Storage(err, "failed to scan policy row")
		}
		if err := policy.ID.UnmarshalBinary(idBytes); err != nil {
			return nil, apperrors.Wrap(err, "failed to unmarshal policy id")
		}
		policy.Effect = authzDomain.Effect(effect)
		policies = append(policies, &policy)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating policy rows")
	}

	return policies, nil
}

// NewMySQLPolicyRepository creates a new MySQL policy repository.
func NewMySQLPolicyRepository(db *sql.DB) *MySQLPolicyRepository {
	return &MySQLPolicyRepository{db: db}
}
