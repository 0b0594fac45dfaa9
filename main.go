package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/fnos-labs/fnos-cli/internal/cli"
)

// Build metadata, set via -ldflags "-X main.version=...".
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	// Interrupts cancel in-flight API calls and plugin subprocesses.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx, cli.BuildInfo{Version: version, Commit: commit, Date: date})
	stop()
	os.Exit(cli.ExitCode(err))
}
