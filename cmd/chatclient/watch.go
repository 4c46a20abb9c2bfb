package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"ai-memchat-be/pkg/events"
	pktNats "ai-memchat-be/pkg/nats"

	"github.com/urfave/cli/v3"
)

func watchCommand() *cli.Command {
	var natsURL string

	return &cli.Command{
		Name:  "watch",
		Usage: "Print exchange_completed events as they are published",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "nats-url",
				Value:       "nats://localhost:4222",
				Sources:     cli.EnvVars("NATS_URL"),
				Destination: &natsURL,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sub, err := pktNats.NewSubscriber(natsURL)
			if err != nil {
				return err
			}
			defer sub.Close()

			out := c.Root().Writer
			err = sub.Subscribe(ctx, events.TypeExchangeCompleted, func(ctx context.Context, event events.Event) error {
				line, err := json.Marshal(event.Payload())
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s %s\n", event.Timestamp().Format("15:04:05"), line)
				return nil
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(out, "Watching %s (Ctrl+C to stop)\n", pktNats.Subject(events.TypeExchangeCompleted))
			<-ctx.Done()
			return nil
		},
	}
}
