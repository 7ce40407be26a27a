package main

import (
	"context"
	"fmt"
	"os"

	"github.com/thereayou/zenlist-realtime/internal/config"
	"github.com/thereayou/zenlist-realtime/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Log.Level)

	srv, err := NewServer(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize server", "error", err)
	}

	if err := srv.Run(context.Background()); err != nil {
		log.Fatal("Server stopped with error", "error", err)
	}
}
