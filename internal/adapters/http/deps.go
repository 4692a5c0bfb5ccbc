package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/tzmonths/internal/adapters/postgres"
	"github.com/samirrijal/tzmonths/internal/adapters/valkey"
	"github.com/samirrijal/tzmonths/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Months  *usecases.MonthService
	Zones   *usecases.TimeZoneService
	Backend string // resolver chain name, reported by /v1/health
	DB      *postgres.DB
	Cache   *valkey.Cache
	NATS    *nats.Conn

	RequestTimeout time.Duration // per-request budget, default 15s
	RateLimit      int           // requests per minute per IP, 0 disables
}
