package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/allisson/vault/cmd/app/commands"
	"github.com/allisson/vault/internal/app"
	"github.com/allisson/vault/internal/config"
)

func getKeyCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "create-root-key",
			Usage: "Generate a new root key encryption key",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "id",
					Aliases: []string{"i"},
					Usage:   "Root key ID (e.g., root-key-2026)",
				},
				&cli.StringSliceFlag{
					Name:    "age-recipient",
					Aliases: []string{"r"},
					Usage:   "age public key (age1...) that receives an escrow copy; repeatable",
				},
				&cli.StringFlag{
					Name:    "kms-key-uri",
					Aliases: []string{"k"},
					Usage:   "gocloud.dev secrets URI used to seal the key (e.g., awskms:///alias/vault)",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container := app.NewContainer(config.Load())
				defer func() { _ = container.Shutdown(ctx) }()

				return commands.RunCreateRootKey(
					ctx,
					container.KMSService(),
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("id"),
					cmd.StringSlice("age-recipient"),
					cmd.String("kms-key-uri"),
				)
			},
		},
		{
			Name:  "rewrap-keys",
			Usage: "Re-wrap stored DEKs from PREVIOUS_ROOT_KEK to ROOT_KEK",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:    "batch-size",
					Aliases: []string{"b"},
					Value:   100,
					Usage:   "Number of keys rewrapped per transaction",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				container, err := loadContainer()
				if err != nil {
					return err
				}
				defer func() { _ = container.Shutdown(ctx) }()

				previous, err := container.PreviousRootKey()
				if err != nil {
					return err
				}
				active, err := container.RootKey()
				if err != nil {
					return err
				}
				rewrapUseCase, err := container.RewrapUseCase()
				if err != nil {
					return err
				}

				return commands.RunRewrapKeys(
					ctx,
					rewrapUseCase,
					previous,
					active,
					container.Logger(),
					commands.DefaultIO().Writer,
					int(cmd.Int("batch-size")),
				)
			},
		},
	}
}
