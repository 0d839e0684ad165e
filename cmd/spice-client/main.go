package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sprice/spice-client/internal/logger"
	"github.com/sprice/spice-client/spice"
)

// processTickMs bounds how long one Client.Process call blocks waiting for
// channel events.
const processTickMs = 200

func main() {
	cfg, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if cfg.showVersion {
		fmt.Println(version)
		return
	}

	logger.Init()
	if err := logger.SetLevel(cfg.logLevel); err != nil {
		fmt.Printf("Warning: invalid log level %q, using default\n", cfg.logLevel)
	}
	log := logger.Logger().With("component", "cli")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := spice.Connect(ctx, cfg.host, cfg.port, cfg.password, cfg.playback)
	if err != nil {
		log.Error("failed to connect", "error", err)
		os.Exit(1)
	}
	log.Info("connected", "host", cfg.host, "port", cfg.port, "version", version)

	for ctx.Err() == nil {
		if !client.Process(processTickMs) {
			log.Info("session ended")
			break
		}
	}

	if ctx.Err() != nil {
		log.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if err := client.Disconnect(); err != nil {
			log.Error("disconnect error", "error", err)
		}
		close(done)
	}()

	select {
	case <-done:
		log.Info("disconnected cleanly")
	case <-shutdownCtx.Done():
		log.Error("forced exit after timeout")
	}
}
