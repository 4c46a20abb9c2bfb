package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:  "chatclient",
		Usage: "Terminal client for the memory chat backend",
		Commands: []*cli.Command{
			chatCommand(),
			watchCommand(),
			tokenCommand(),
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
