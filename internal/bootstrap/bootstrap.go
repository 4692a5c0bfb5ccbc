// Package bootstrap wires configuration into the month-start services shared
// by the API server, the NATS responder and the CLI.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/tzmonths/internal/adapters/memcache"
	"github.com/samirrijal/tzmonths/internal/adapters/postgres"
	"github.com/samirrijal/tzmonths/internal/adapters/tzlookup"
	"github.com/samirrijal/tzmonths/internal/adapters/valkey"
	"github.com/samirrijal/tzmonths/internal/core/usecases"
	"github.com/samirrijal/tzmonths/internal/pkg/civiltime"
	"github.com/samirrijal/tzmonths/internal/pkg/config"
	"github.com/samirrijal/tzmonths/internal/pkg/dateparse"
)

// Services holds the wired use cases and the connections they own.
type Services struct {
	Months  *usecases.MonthService
	Zones   *usecases.TimeZoneService
	Backend string

	DB    *postgres.DB    // nil unless database.enabled
	Cache *valkey.Cache   // nil unless valkey.enabled and reachable
	Local *memcache.Cache // nil when timezone.local_cache is 0
}

// Build creates the resolver chain, cache tiers and use cases described by cfg.
func Build(ctx context.Context, cfg *config.Config) (*Services, error) {
	s := &Services{}

	if cfg.Database.Enabled {
		db, err := postgres.New(ctx, cfg.Database.DSN(), time.Duration(cfg.Database.MaxWait)*time.Second)
		if err != nil {
			return nil, fmt.Errorf("database: %w", err)
		}
		s.DB = db
	}

	chain, err := resolverChain(cfg.TimeZone, s.DB)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.Backend = chain.Name()

	var tiers []usecases.CacheTier
	if cfg.TimeZone.LocalCache > 0 {
		s.Local = memcache.New(cfg.TimeZone.LocalCache)
		tiers = append(tiers, usecases.CacheTier{Name: "memory", Cache: s.Local})
	}
	if cfg.Valkey.Enabled {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "addr", cfg.Valkey.Addr, "error", err)
		} else {
			s.Cache = cache
			tiers = append(tiers, usecases.CacheTier{Name: "valkey", Cache: cache})
		}
	}
	s.Zones = usecases.NewTimeZoneService(chain, cfg.TimeZone.CacheTTL, tiers...)

	loc, err := cfg.Months.Location()
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("months.date_location: %w", err)
	}
	parser := usecases.NewRequestParser(dateparse.New(loc))
	s.Months = usecases.NewMonthService(s.Zones, civiltime.NewConverter(), parser, cfg.Months.MaxRange)

	slog.Info("month service ready",
		"backend", s.Backend,
		"cache_tiers", len(tiers),
		"max_range", cfg.Months.MaxRange,
	)
	return s, nil
}

// Close releases the connections opened by Build.
func (s *Services) Close() {
	if s.Cache != nil {
		s.Cache.Close()
	}
	if s.Local != nil {
		s.Local.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
}

func resolverChain(cfg config.TimeZoneConfig, db *postgres.DB) (*tzlookup.Chain, error) {
	var resolvers []tzlookup.Named
	for _, name := range cfg.Backends() {
		var r tzlookup.Named
		switch name {
		case tzlookup.BackendTZF:
			start := time.Now()
			finder, err := tzlookup.NewTZF()
			if err != nil {
				return nil, err
			}
			slog.Info("tzf dataset loaded", "took", time.Since(start).String())
			r = finder
		case tzlookup.BackendLatLong:
			r = tzlookup.NewLatLong()
		case tzlookup.BackendPostGIS:
			if db == nil {
				return nil, fmt.Errorf("timezone backend postgis requires a database")
			}
			r = postgres.NewTimeZoneRepo(db)
		default:
			return nil, fmt.Errorf("unknown timezone backend %q", name)
		}
		if cfg.RejectOcean {
			r = tzlookup.OceanFilter{Named: r}
		}
		resolvers = append(resolvers, r)
	}
	return tzlookup.NewChain(resolvers...)
}
