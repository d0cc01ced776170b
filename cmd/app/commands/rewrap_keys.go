package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
	cryptoUseCase "github.com/allisson/vault/internal/crypto/usecase"
)

// RunRewrapKeys moves every wrapped DEK still sealed under oldKEK to newKEK in
// batches. Secret payloads are never decrypted.
func RunRewrapKeys(
	ctx context.Context,
	rewrapUseCase cryptoUseCase.RewrapUseCase,
	oldKEK, newKEK *cryptoDomain.RootKey,
	logger *slog.Logger,
	out io.Writer,
	batchSize int,
) error {
	if batchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if oldKEK == nil {
		return errors.New("PREVIOUS_ROOT_KEK is not configured")
	}
	if newKEK == nil {
		return errors.New("ROOT_KEK is not configured")
	}
	if oldKEK.ID == newKEK.ID {
		return fmt.Errorf("previous and active root keys share the id %s", newKEK.ID)
	}

	logger.Info("starting DEK rewrap",
		slog.String("from_kek_id", oldKEK.ID),
		slog.String("to_kek_id", newKEK.ID),
		slog.Int("batch_size", batchSize),
	)

	total := 0
	for {
		count, err := rewrapUseCase.Rewrap(ctx, oldKEK, newKEK, batchSize)
		if err != nil {
			return fmt.Errorf("failed to rewrap DEKs in batch: %w", err)
		}
		if count == 0 {
			break
		}

		total += count
		logger.Info("rewrapped batch of DEKs",
			slog.Int("rewrapped_in_batch", count),
			slog.Int("total_rewrapped", total),
		)
	}

	fmt.Fprintf(out, "Rewrapped %d key(s) from %s to %s\n", total, oldKEK.ID, newKEK.ID)
	logger.Info("DEK rewrap completed", slog.Int("total_rewrapped", total))
	return nil
}
