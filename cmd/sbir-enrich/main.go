// Command sbir-enrich enriches award records against a reference registry
// in resumable, memory-bounded chunks.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/hollomancer/sbir-analytics-sub001/internal/cli"
)

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version)
	if err := root.ExecuteContext(ctx); err != nil {
		// Cobra already printed the error; the exit code is the signal.
		return 1
	}
	return 0
}
