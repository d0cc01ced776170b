package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/google/uuid"

	userDomain "github.com/allisson/vault/internal/user/domain"
)

// UserLookup resolves a username to a user.
type UserLookup interface {
	GetByUsername(ctx context.Context, username string) (*userDomain.User, error)
}

// TokenRevoker revokes every live refresh token of a user.
type TokenRevoker interface {
	RevokeAll(ctx context.Context, userID uuid.UUID) (int64, error)
}

// RunRevokeTokens revokes the refresh tokens of username. Access tokens already
// issued remain valid until they expire.
func RunRevokeTokens(
	ctx context.Context,
	users UserLookup,
	revoker TokenRevoker,
	logger *slog.Logger,
	out io.Writer,
	username, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}
	if username == "" {
		return fmt.Errorf("username is required")
	}

	user, err := users.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to find user %s: %w", username, err)
	}

	count, err := revoker.RevokeAll(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}

	logger.Info("refresh tokens revoked",
		slog.String("user_id", user.ID.String()),
		slog.Int64("revoked", count),
	)

	if format == "json" {
		return writeJSON(out, map[string]any{
			"user_id": user.ID.String(),
			"revoked": count,
		})
	}

	_, err = fmt.Fprintf(out, "Revoked %d refresh token(s) of %s\n", count, user.Username)
	return err
}
