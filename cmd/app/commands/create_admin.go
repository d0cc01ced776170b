package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	userDomain "github.com/allisson/vault/internal/user/domain"
	userUseCase "github.com/allisson/vault/internal/user/usecase"
)

// RunCreateAdmin creates the first administrator: the user, the admin role
// allowing every built-in permission, and the membership.
func RunCreateAdmin(
	ctx context.Context,
	bootstrapUseCase userUseCase.BootstrapUseCase,
	logger *slog.Logger,
	out io.Writer,
	username, email, password, format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	user, err := bootstrapUseCase.CreateAdmin(ctx, userDomain.CreateUserInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	if err != nil {
		return fmt.Errorf("failed to create admin: %w", err)
	}

	logger.Info("admin created",
		slog.String("user_id", user.ID.String()),
		slog.String("username", user.Username),
	)

	if format == "json" {
		return writeJSON(out, map[string]any{
			"id":       user.ID.String(),
			"username": user.Username,
			"email":    user.Email,
			"role":     "admin",
		})
	}

	_, err = fmt.Fprintf(out, "Admin %s created with id %s\n", user.Username, user.ID)
	return err
}
