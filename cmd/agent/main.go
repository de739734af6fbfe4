// cheeko-agent joins a LiveKit room and runs one Cheeko voice session.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/altio-ai/cheeko/agent"
	"github.com/altio-ai/cheeko/pkg/config"
	googlert "github.com/altio-ai/cheeko/pkg/llm/providers/google/realtime"
)

func main() {
	roomFlag := flag.String("room", "", "Room to join (overrides CHEEKO_ROOM)")
	flag.Parse()

	cfg := config.Load()
	if *roomFlag != "" {
		cfg.RoomName = *roomFlag
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := agent.NewSession(cfg, googlert.New())
	if err := session.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("[Agent] session ended with error: %v", err)
		os.Exit(1)
	}
	log.Printf("[Agent] session ended")
}
