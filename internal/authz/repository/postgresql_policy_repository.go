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

const pgPolicyColumns = `p.id, p.name, p.description, p.resource_type, p.action, p.effect, p.created_at`

// PostgreSQLPolicyRepository implements Policy persistence for PostgreSQL.
type PostgreSQLPolicyRepository struct {
	db *sql.DB
}

// Create inserts a new policy. A duplicate name returns ErrPolicyAlreadyExists.
func (p *PostgreSQLPolicyRepository) Create(ctx context.Context, policy *authzDomain.Policy) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO policies (id, name, description, resource_type, action, effect, created_at)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := querier.ExecContext(
		ctx,
		query,
		policy.ID,
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
func (p *PostgreSQLPolicyRepository) Get(ctx context.Context, policyID uuid.UUID) (*authzDomain.Policy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgPolicyColumns + ` FROM policies p WHERE p.id = $1`

	var policy authzDomain.Policy
	var effect string
	err := querier.QueryRowContext(ctx, query, policyID).Scan(
		&policy.ID,
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
	policy.Effect = authzDomain.Effect(effect)

	return &policy, nil
}

// List retrieves policies ordered by name with pagination.
func (p *PostgreSQLPolicyRepository) List(ctx context.Context, offset, limit int) ([]*authzDomain.Policy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgPolicyColumns + `
			  FROM policies p
			  ORDER BY p.name ASC
			  LIMIT $1 OFFSET $2`

	rows, err := querier.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list policies")
	}
	return p.scanRows(rows)
}

// Delete removes a policy. Role attachments cascade.
func (p *PostgreSQLPolicyRepository) Delete(ctx context.Context, policyID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(ctx, `DELETE FROM policies WHERE id = $1`, policyID)
	if err != nil {
		return apperrors.Storage(err, "failed to delete policy")
	}
	return requireAffected(result, authzDomain.ErrPolicyNotFound, "failed to delete policy")
}

// AttachToRole links a policy to a role. Repeated attachments are no-ops.
func (p *PostgreSQLPolicyRepository) AttachToRole(ctx context.Context, roleID, policyID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	query := `INSERT INTO role_policies (role_id, policy_id) VALUES ($1, $2)
			  ON CONFLICT (role_id, policy_id) DO NOTHING`

	if _, err := querier.ExecContext(ctx, query, roleID, policyID); err != nil {
		if database.IsForeignKeyViolation(err) {
			return authzDomain.ErrAssignmentTargetNotFound
		}
		return apperrors.Storage(err, "failed to attach policy")
	}
	return nil
}

// DetachFromRole removes a policy from a role.
func (p *PostgreSQLPolicyRepository) DetachFromRole(ctx context.Context, roleID, policyID uuid.UUID) error {
	querier := database.GetTx(ctx, p.db)

	result, err := querier.ExecContext(
		ctx,
		`DELETE FROM role_policies WHERE role_id = $1 AND policy_id = $2`,
		roleID,
		policyID,
	)
	if err != nil {
		return apperrors.Storage(err, "failed to detach policy")
	}
	return requireAffected(result, authzDomain.ErrAssignmentTargetNotFound, "failed to detach policy")
}

// ListByRoleID returns the policies attached to a role.
func (p *PostgreSQLPolicyRepository) ListByRoleID(ctx context.Context, roleID uuid.UUID) ([]*authzDomain.Policy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT ` + pgPolicyColumns + `
			  FROM policies p
			  JOIN role_policies rp ON rp.policy_id = p.id
			  WHERE rp.role_id = $1
			  ORDER BY p.name ASC`

	rows, err := querier.QueryContext(ctx, query, roleID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list role policies")
	}
	return p.scanRows(rows)
}

// ListByUserID returns every distinct policy reachable through the user's roles
// in a single query.
func (p *PostgreSQLPolicyRepository) ListByUserID(ctx context.Context, userID uuid.UUID) ([]*authzDomain.Policy, error) {
	querier := database.GetTx(ctx, p.db)

	query := `SELECT DISTINCT ` + pgPolicyColumns + `
			  FROM policies p
			  JOIN role_policies rp ON rp.policy_id = p.id
			  JOIN user_roles ur ON ur.role_id = rp.role_id
			  WHERE ur.user_id = $1`

	rows, err := querier.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, apperrors.Storage(err, "failed to list user policies")
	}
	return p.scanRows(rows)
}

func (p *PostgreSQLPolicyRepository) scanRows(rows *sql.Rows) ([]*authzDomain.Policy, error) {
	defer func() {
		_ = rows.Close()
	}()

	policies := make([]*authzDomain.Policy, 0)
	for rows.Next() {
		var policy authzDomain.Policy
		var effect string
		err := rows.Scan(
			&policy.ID,
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
		policy.Effect = authzDomain.Effect(effect)
		policies = append(policies, &policy)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Storage(err, "error iterating policy rows")
	}

	return policies, nil
}

// NewPostgreSQLPolicyRepository creates a new PostgreSQL policy repository.
func NewPostgreSQLPolicyRepository(db *sql.DB) *PostgreSQLPolicyRepository {
	return &PostgreSQLPolicyRepository{db: db}
}
