package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	natsadapter "github.com/samirrijal/tzmonths/internal/adapters/nats"
	"github.com/samirrijal/tzmonths/internal/bootstrap"
	"github.com/samirrijal/tzmonths/internal/core/domain"
	"github.com/samirrijal/tzmonths/internal/core/usecases"
	"github.com/samirrijal/tzmonths/internal/pkg/config"
	"github.com/samirrijal/tzmonths/internal/pkg/logging"
)

const (
	flagLon      = "lon"
	flagLat      = "lat"
	flagFrom     = "from"
	flagTo       = "to"
	flagBackend  = "backend"
	flagNATS     = "nats-url"
	flagTimeout  = "timeout"
	flagLogLevel = "log-level"
)

var (
	globalFlags = []cli.Flag{
		&cli.StringFlag{
			Name:    flagBackend,
			Usage:   "Time zone backend: tzf, latlong or postgis. Overrides timezone.backend.",
			EnvVars: []string{"TZMONTHS_TIMEZONE_BACKEND"},
		},
		&cli.StringFlag{
			Name:  flagLogLevel,
			Value: "warn",
			Usage: "Log level written to stderr.",
		},
	}

	coordFlags = []cli.Flag{
		&cli.StringFlag{Name: flagLon, Usage: "Longitude in decimal degrees", Required: true},
		&cli.StringFlag{Name: flagLat, Usage: "Latitude in decimal degrees", Required: true},
	}

	rangeFlags = []cli.Flag{
		&cli.StringFlag{Name: flagFrom, Usage: "First date of the range, e.g. 2024-01-15", Required: true},
		&cli.StringFlag{Name: flagTo, Usage: "Last date of the range, e.g. 2024-03-20", Required: true},
		&cli.StringFlag{
			Name:  flagNATS,
			Usage: "Send the request to a running responder at this NATS URL instead of computing locally.",
		},
		&cli.DurationFlag{Name: flagTimeout, Value: 5 * time.Second, Usage: "Request timeout."},
	}
)

func mergeFlags(flags ...[]cli.Flag) []cli.Flag {
	var out []cli.Flag
	for _, f := range flags {
		out = append(out, f...)
	}
	return out
}

func newApp(out io.Writer) *cli.App {
	return &cli.App{
		Name:      "tzmonths",
		Usage:     "Month-start instants in the local time zone of a coordinate",
		Writer:    out,
		ErrWriter: os.Stderr,
		Flags:     globalFlags,
		Before: func(c *cli.Context) error {
			logging.SetupWriter(c.App.ErrWriter, c.String(flagLogLevel), "text")
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "months",
				Usage:  "Print the UTC instant of local midnight on the 1st of every month in a range",
				Flags:  mergeFlags(coordFlags, rangeFlags),
				Action: monthsAction,
			},
			{
				Name:   "zone",
				Usage:  "Print the IANA time zone of a coordinate",
				Flags:  coordFlags,
				Action: zoneAction,
			},
		},
	}
}

func monthsAction(c *cli.Context) error {
	q := domain.NewMonthsQuery(c.String(flagLon), c.String(flagLat), c.String(flagFrom), c.String(flagTo))

	if url := c.String(flagNATS); url != "" {
		return requestRemote(c, url, q)
	}

	svc, err := buildServices(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(c.Context, c.Duration(flagTimeout))
	defer cancel()

	res, err := svc.Months.Handle(ctx, q)
	if err != nil {
		_, msg := domain.ErrorStatus(err)
		return fmt.Errorf("%s: %w", msg, err)
	}
	return writeJSON(c.App.Writer, res)
}

func zoneAction(c *cli.Context) error {
	pt, err := usecases.ParseCoordinate(c.String(flagLat), c.String(flagLon))
	if err != nil {
		return err
	}

	svc, err := buildServices(c)
	if err != nil {
		return err
	}
	defer svc.Close()

	zone, err := svc.Zones.Resolve(c.Context, pt.Lat, pt.Lon)
	if err != nil {
		return fmt.Errorf("Unable to get time zone: %w", err)
	}
	return writeJSON(c.App.Writer, map[string]string{"timeZone": zone})
}

// requestRemote sends the query to a responder and prints its reply as is.
func requestRemote(c *cli.Context, url string, q domain.MonthsQuery) error {
	cfg, err := config.Load("tzmonths-cli")
	if err != nil {
		return err
	}
	nc, err := natsadapter.Connect(url, "tzmonths-cli")
	if err != nil {
		return err
	}
	defer nc.Close()

	body, err := json.Marshal(q)
	if err != nil {
		return err
	}
	msg, err := nc.Request(cfg.NATS.Subject, body, c.Duration(flagTimeout))
	if err != nil {
		return fmt.Errorf("nats request: %w", err)
	}
	_, err = fmt.Fprintln(c.App.Writer, string(msg.Data))
	return err
}

func buildServices(c *cli.Context) (*bootstrap.Services, error) {
	cfg, err := config.Load("tzmonths-cli")
	if err != nil {
		return nil, err
	}
	if b := c.String(flagBackend); b != "" {
		cfg.TimeZone.Backend = b
		cfg.TimeZone.Fallbacks = nil
	}
	// One-shot process; the shared valkey tier is only worth it for servers.
	cfg.Valkey.Enabled = false
	return bootstrap.Build(c.Context, cfg)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
