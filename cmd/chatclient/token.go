package main

import (
	"context"
	"fmt"
	"time"

	"ai-memchat-be/internal/pkg/serverutils"

	"github.com/google/uuid"
	"github.com/urfave/cli/v3"
)

// tokenCommand signs a development credential with the server's secret.
func tokenCommand() *cli.Command {
	var (
		secret string
		userID string
		ttl    time.Duration
	)

	return &cli.Command{
		Name:  "token",
		Usage: "Issue a JWT for a user id",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "secret",
				Sources:     cli.EnvVars("JWT_SECRET"),
				Destination: &secret,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "user-id",
				Aliases:     []string{"u"},
				Destination: &userID,
				Required:    true,
			},
			&cli.DurationFlag{
				Name:        "ttl",
				Value:       24 * time.Hour,
				Destination: &ttl,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			id, err := uuid.Parse(userID)
			if err != nil {
				return fmt.Errorf("invalid user id: %w", err)
			}

			token, err := serverutils.NewTokenVerifier(secret).Issue(id, ttl)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.Root().Writer, token)
			return nil
		},
	}
}
