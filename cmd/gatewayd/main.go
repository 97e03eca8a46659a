// Command gatewayd runs the alert gateway: the canonical HTTP surface that
// both detection engines POST alerts to.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/config"
	"github.com/arvid-berndtsson/protocol-argus-cortex/internal/gateway"
)

func main() {
	configPath := flag.String("config", "gateway.yaml", "path to gateway configuration file")
	flag.Parse()

	cfg, err := config.LoadGatewayConfig(*configPath)
	if err != nil {
		slog.Error("failed to load gateway configuration", "error", err)
		os.Exit(1)
	}

	store, err := gateway.NewStore(cfg.LogPath())
	if err != nil {
		slog.Error("failed to open alert log", "path", cfg.LogPath(), "error", err)
		os.Exit(1)
	}
	defer store.Close()

	server := gateway.NewServer(cfg.Addr(), store)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutting down alert gateway")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("gateway shutdown error", "error", err)
		}
	case err := <-errCh:
		if err != nil {
			slog.Error("alert gateway exited", "error", err)
			os.Exit(1)
		}
	}
}
