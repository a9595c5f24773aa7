// Package main is the entry point for the vpub CLI tool.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/aidanlsb/vpub/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
