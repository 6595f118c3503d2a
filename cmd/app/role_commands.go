package main

import (
	"context"

	"github.com/urfave/cli/v3"

	"github.com/helperhq/helper/cmd/app/commands"
	"github.com/helperhq/helper/internal/app"
	"github.com/helperhq/helper/internal/config"
)

func getRoleCommands() []*cli.Command {
	return []*cli.Command{
		{
			Name:  "seed-roles",
			Usage: "Ensure the built-in roles exist",
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				roleUseCase, err := container.RoleUseCase()
				if err != nil {
					return err
				}

				return commands.RunSeedRoles(
					ctx,
					roleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
				)
			},
		},
		{
			Name:  "grant-role",
			Usage: "Grant a role to a user, optionally scoped to a group",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "user",
					Aliases:  []string{"u"},
					Required: true,
					Usage:    "User ID (UUID)",
				},
				&cli.StringFlag{
					Name:     "role",
					Aliases:  []string{"r"},
					Required: true,
					Usage:    "Role name (site-admin or group-admin)",
				},
				&cli.StringFlag{
					Name:    "group",
					Aliases: []string{"g"},
					Usage:   "Group ID (UUID) to scope the grant to",
				},
			},
			Action: func(ctx context.Context, cmd *cli.Command) error {
				cfg := config.Load()
				container := app.NewContainer(cfg)
				defer func() { _ = container.Shutdown(ctx) }()

				roleUseCase, err := container.RoleUseCase()
				if err != nil {
					return err
				}

				return commands.RunGrantRole(
					ctx,
					roleUseCase,
					container.Logger(),
					commands.DefaultIO().Writer,
					cmd.String("user"),
					cmd.String("role"),
					cmd.String("group"),
				)
			},
		},
	}
}
