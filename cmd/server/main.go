// cheeko-server runs the token/auth web server and serves the
// frontend.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/altio-ai/cheeko/pkg/config"
	"github.com/altio-ai/cheeko/server"
)

func main() {
	cfg := config.Load()
	if !cfg.HasLiveKit() {
		log.Printf("[Server] warning: LiveKit credentials not set, token endpoint will refuse requests")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.New(cfg).ListenAndServe(ctx); err != nil {
		log.Printf("[Server] %v", err)
		os.Exit(1)
	}
}
