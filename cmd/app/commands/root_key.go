package commands

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"filippo.io/age"
	"filippo.io/age/armor"

	cryptoDomain "github.com/allisson/vault/internal/crypto/domain"
	cryptoService "github.com/allisson/vault/internal/crypto/service"
)

// RunCreateRootKey generates a 32-byte root KEK and prints it as environment
// variables.
//
// With kmsKeyURI the printed ROOT_KEK is the KMS ciphertext. With age recipients
// the raw key is additionally sealed to them in an armored block, and the
// plaintext key is never printed. Without either, the plaintext key is printed.
func RunCreateRootKey(
	ctx context.Context,
	kms cryptoService.KMSService,
	logger *slog.Logger,
	out io.Writer,
	keyID string,
	ageRecipients []string,
	kmsKeyURI string,
) error {
	if keyID == "" {
		keyID = fmt.Sprintf("root-key-%s", time.Now().UTC().Format("2006-01-02"))
	}

	recipients, err := parseAgeRecipients(ageRecipients)
	if err != nil {
		return err
	}

	key := make([]byte, cryptoDomain.KeySize)
	if _, err := rand.Read(key); err != nil {
		return fmt.Errorf("failed to generate root key: %w", err)
	}
	defer cryptoDomain.Zero(key)

	fmt.Fprintln(out, "# Root key configuration")
	fmt.Fprintf(out, "ROOT_KEK_ID=%q\n", keyID)

	if kmsKeyURI != "" {
		sealed, err := cryptoService.SealRootKey(ctx, kms, kmsKeyURI, key)
		if err != nil {
			return fmt.Errorf("failed to seal root key: %w", err)
		}
		fmt.Fprintf(out, "KMS_KEY_URI=%q\n", kmsKeyURI)
		fmt.Fprintf(out, "ROOT_KEK=%q\n", sealed)
	}

	if len(recipients) > 0 {
		escrow, err := sealForRecipients(keyID, key, recipients)
		if err != nil {
			return err
		}
		fmt.Fprintln(out)
		fmt.Fprintf(out, "# Escrow copy of %s, readable with: age --decrypt -i <identity>\n", keyID)
		fmt.Fprint(out, escrow)
	} else if kmsKeyURI == "" {
		fmt.Fprintf(out, "ROOT_KEK=%q\n", base64.StdEncoding.EncodeToString(key))
	}

	logger.Info("root key created",
		slog.String("root_kek_id", keyID),
		slog.Bool("kms", kmsKeyURI != ""),
		slog.Int("age_recipients", len(recipients)),
	)
	return nil
}

func parseAgeRecipients(keys []string) ([]age.Recipient, error) {
	recipients := make([]age.Recipient, 0, len(keys))
	for _, key := range keys {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		recipient, err := age.ParseX25519Recipient(key)
		if err != nil {
			return nil, fmt.Errorf("invalid age recipient %q: %w", key, err)
		}
		recipients = append(recipients, recipient)
	}
	return recipients, nil
}

// sealForRecipients encrypts the ROOT_KEK line to the recipients as ASCII armor.
func sealForRecipients(keyID string, key []byte, recipients []age.Recipient) (string, error) {
	var buf bytes.Buffer
	armorWriter := armor.NewWriter(&buf)

	writer, err := age.Encrypt(armorWriter, recipients...)
	if err != nil {
		return "", fmt.Errorf("creating age encryptor: %w", err)
	}

	line := []byte(fmt.Sprintf("ROOT_KEK_ID=%q\nROOT_KEK=%q\n", keyID, base64.StdEncoding.EncodeToString(key)))
	defer cryptoDomain.Zero(line)

	if _, err := writer.Write(line); err != nil {
		return "", fmt.Errorf("writing root key to age encryptor: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("finalizing age encryption: %w", err)
	}
	if err := armorWriter.Close(); err != nil {
		return "", fmt.Errorf("finalizing age armor: %w", err)
	}
	return buf.String(), nil
}
