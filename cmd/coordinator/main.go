// Command coordinator runs the distributed key-value store's coordinator
// process: it publishes cs_config.txt, accepts client and node connections,
// and sweeps the ring for silent nodes.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"go.uber.org/zap"

	"github.com/plethora-kv/plethora/config"
	"github.com/plethora-kv/plethora/coordinator"
)

func main() {
	if len(os.Args) != 3 {
		fmt.Fprintf(os.Stderr, "usage: %s <ip> <port>\n", os.Args[0])
		os.Exit(1)
	}
	ip := os.Args[1]
	port, err := strconv.Atoi(os.Args[2])
	if err != nil {
		fmt.Fprintf(os.Stderr, "bad port %q: %v\n", os.Args[2], err)
		os.Exit(1)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfgPath := os.Getenv("PLETHORA_CONFIG")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	srv := coordinator.New(ip, port, cfg.Coordinator, logger)

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutting down")
		srv.Shutdown()
		cancel()
	}()

	if err := srv.Start(ctx); err != nil {
		logger.Error("coordinator exited with error", zap.Error(err))
		os.Exit(1)
	}
}
