// Command hitl drives the staged review engine over stdin/stdout.
// Each invocation runs one subcommand (start, run-stage, apply-edits,
// summarize) against the shared database, reading a JSON request from
// stdin and writing a single JSON document to stdout. Logs go to
// stderr so stdout stays machine-readable.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/cairnhq/cairn/internal/api"
	"github.com/cairnhq/cairn/internal/bridge"
	"github.com/cairnhq/cairn/internal/config"
	"github.com/cairnhq/cairn/internal/infrastructure"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("config load failed: ", err)
	}

	infra, err := infrastructure.New(cfg)
	if err != nil {
		log.Fatal("infrastructure init failed: ", err)
	}

	runtime := api.NewRuntime(cfg, infra)
	domain := api.NewDomain(runtime)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(bridge.Dispatch(ctx, domain.Review, os.Args[1:], os.Stdin, os.Stdout))
}
