package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/samirrijal/tzmonths/internal/adapters/http"
	natsadapter "github.com/samirrijal/tzmonths/internal/adapters/nats"
	"github.com/samirrijal/tzmonths/internal/bootstrap"
	"github.com/samirrijal/tzmonths/internal/pkg/config"
	"github.com/samirrijal/tzmonths/internal/pkg/logging"
	"github.com/samirrijal/tzmonths/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("tzmonths-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Resolver chain, caches and use cases
	svc, err := bootstrap.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap: %v", err)
	}
	defer svc.Close()

	deps := &http.Dependencies{
		Months:         svc.Months,
		Zones:          svc.Zones,
		Backend:        svc.Backend,
		DB:             svc.DB,
		Cache:          svc.Cache,
		RequestTimeout: time.Duration(cfg.Server.RequestTimeout) * time.Second,
		RateLimit:      cfg.Server.RateLimit,
	}

	// NATS responder runs in-process when enabled
	if cfg.NATS.Enabled {
		nc, err := natsadapter.Connect(cfg.NATS.URL, cfg.Telemetry.ServiceName)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			defer nc.Drain()
			responder := natsadapter.NewResponder(nc, svc.Months, deps.RequestTimeout)
			if err := responder.Start(cfg.NATS.Subject, cfg.NATS.Queue); err != nil {
				slog.Warn("nats responder not started", "error", err)
			} else {
				defer responder.Close()
				slog.Info("nats responder listening", "subject", cfg.NATS.Subject, "queue", cfg.NATS.Queue)
			}
			deps.NATS = nc
		}
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    64 * 1024,
		AppName:      "tzmonths API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "backend", svc.Backend)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
