package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"ai-memchat-be/pkg/chatclient"

	"github.com/urfave/cli/v3"
)

func chatCommand() *cli.Command {
	var (
		url        string
		token      string
		cookieName string
		chatID     string
		timeout    time.Duration
	)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive chat over the socket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "url",
				Usage:       "Socket endpoint",
				Value:       "ws://localhost:3000/ws",
				Sources:     cli.EnvVars("MEMCHAT_URL"),
				Destination: &url,
			},
			&cli.StringFlag{
				Name:        "token",
				Aliases:     []string{"t"},
				Usage:       "JWT presented as the auth cookie",
				Sources:     cli.EnvVars("MEMCHAT_TOKEN"),
				Destination: &token,
				Required:    true,
			},
			&cli.StringFlag{
				Name:        "cookie-name",
				Value:       "token",
				Sources:     cli.EnvVars("AUTH_COOKIE_NAME"),
				Destination: &cookieName,
			},
			&cli.StringFlag{
				Name:        "chat",
				Aliases:     []string{"c"},
				Usage:       "Chat ID to talk in",
				Sources:     cli.EnvVars("MEMCHAT_CHAT_ID"),
				Destination: &chatID,
				Required:    true,
			},
			&cli.DurationFlag{
				Name:        "timeout",
				Usage:       "How long to wait for each reply",
				Value:       2 * time.Minute,
				Destination: &timeout,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			client, err := chatclient.Dial(ctx, url, cookieName, token)
			if err != nil {
				return err
			}
			defer client.Close()

			out := c.Root().Writer
			scanner := bufio.NewScanner(os.Stdin)
			fmt.Fprintf(out, "Connected. Type 'exit' to quit.\n")

			for {
				fmt.Fprintf(out, "> ")
				if !scanner.Scan() {
					break
				}

				message := strings.TrimSpace(scanner.Text())
				if message == "exit" {
					break
				}
				if message == "" {
					continue
				}

				reply, err := client.Ask(chatID, message, timeout)
				if errors.Is(err, chatclient.ErrRemote) {
					fmt.Fprintf(out, "! %v\n", err)
					continue
				}
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s\n", reply)
			}

			return nil
		},
	}
}
