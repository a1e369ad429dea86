// ABOUTME: Entry point for the leadengine CLI and MCP server
// ABOUTME: Hands control to the cobra command tree and cancels on interrupt
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/harperreed/leadengine/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
