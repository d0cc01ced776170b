package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// ExpiredTokenCleaner deletes or counts refresh tokens past their expiry.
type ExpiredTokenCleaner interface {
	CleanExpired(ctx context.Context, dryRun bool) (int64, error)
}

// RunCleanExpiredTokens deletes expired refresh tokens. In dry-run mode it only
// reports how many would be deleted.
func RunCleanExpiredTokens(
	ctx context.Context,
	cleaner ExpiredTokenCleaner,
	logger *slog.Logger,
	out io.Writer,
	dryRun bool,
	format string,
) error {
	if err := validateFormat(format); err != nil {
		return err
	}

	logger.Info("cleaning expired refresh tokens", slog.Bool("dry_run", dryRun))

	count, err := cleaner.CleanExpired(ctx, dryRun)
	if err != nil {
		return fmt.Errorf("failed to cleanup expired tokens: %w", err)
	}

	logger.Info("cleanup completed", slog.Int64("count", count), slog.Bool("dry_run", dryRun))

	if format == "json" {
		return writeJSON(out, map[string]any{
			"count":   count,
			"dry_run": dryRun,
		})
	}

	if dryRun {
		_, err = fmt.Fprintf(out, "Dry-run mode: Would delete %d expired refresh token(s)\n", count)
	} else {
		_, err = fmt.Fprintf(out, "Successfully deleted %d expired refresh token(s)\n", count)
	}
	return err
}
