package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/tzmonths/internal/adapters/nats"
	"github.com/samirrijal/tzmonths/internal/bootstrap"
	"github.com/samirrijal/tzmonths/internal/pkg/config"
	"github.com/samirrijal/tzmonths/internal/pkg/logging"
	"github.com/samirrijal/tzmonths/internal/pkg/telemetry"
)

// Standalone NATS worker answering month-start requests.
func main() {
	cfg, err := config.Load("tzmonths-responder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	svc, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer svc.Close()

	nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
	if err != nil {
		log.Fatalf("nats: %v", err)
	}
	defer nc.Drain()

	responder := natsadapter.NewResponder(nc, svc.Months, time.Duration(cfg.Server.RequestTimeout)*time.Second)
	if err := responder.Start(cfg.NATS.Subject, cfg.NATS.Queue); err != nil {
		log.Fatalf("responder: %v", err)
	}
	defer responder.Close()

	slog.Info("responder listening", "subject", cfg.NATS.Subject, "queue", cfg.NATS.Queue, "backend", svc.Backend)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	slog.Info("received signal, shutting down responder", "signal", sig.String())
}
