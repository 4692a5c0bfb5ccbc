package usecases

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/tzmonths/internal/core/domain"
	"github.com/samirrijal/tzmonths/internal/core/ports"
	"github.com/samirrijal/tzmonths/internal/pkg/civiltime"
	"github.com/samirrijal/tzmonths/internal/pkg/logging"
	"github.com/samirrijal/tzmonths/internal/pkg/metrics"
	"github.com/samirrijal/tzmonths/internal/pkg/telemetry"
)

// MonthService enumerates local month-start instants for a coordinate.
type MonthService struct {
	zones     ports.TimeZoneResolver
	converter ports.InstantConverter
	parser    *RequestParser
	maxRange  int
}

// NewMonthService creates a MonthService. maxRange caps the number of months
// a single request may produce; zero or less means no cap.
func NewMonthService(zones ports.TimeZoneResolver, converter ports.InstantConverter, parser *RequestParser, maxRange int) *MonthService {
	if parser == nil {
		parser = NewRequestParser(nil)
	}
	return &MonthService{zones: zones, converter: converter, parser: parser, maxRange: maxRange}
}

// Handle parses a raw query and enumerates its month starts.
func (s *MonthService) Handle(ctx context.Context, q domain.MonthsQuery) (domain.MonthStarts, error) {
	req, err := s.parser.Parse(q)
	if err != nil {
		metrics.MonthsRequests.WithLabelValues("invalid").Inc()
		return domain.MonthStarts{}, err
	}
	return s.Enumerate(ctx, req)
}

// Enumerate returns, for every calendar month from req.From to req.To
// inclusive, the UTC instant of local midnight on the 1st in the zone of
// req.Location. A To earlier than From yields an empty list. A month whose
// instant cannot be built is a nil entry; the remaining months still run.
func (s *MonthService) Enumerate(ctx context.Context, req domain.MonthsRequest) (domain.MonthStarts, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "MonthService.Enumerate")
	defer span.End()
	span.SetAttributes(
		telemetry.AttrLat.Float64(req.Location.Lat),
		telemetry.AttrLon.Float64(req.Location.Lon),
	)

	diff := req.MonthDiff()
	if s.maxRange > 0 && diff+1 > s.maxRange {
		metrics.MonthsRequests.WithLabelValues("range").Inc()
		return domain.MonthStarts{}, fmt.Errorf("%w: %d months requested, limit is %d", domain.ErrRangeTooLarge, diff+1, s.maxRange)
	}

	zone, err := s.zones.Resolve(ctx, req.Location.Lat, req.Location.Lon)
	if err != nil {
		if !errors.Is(err, domain.ErrTimeZoneResolution) {
			err = fmt.Errorf("%w: %w", domain.ErrTimeZoneResolution, err)
		}
		logging.FromContext(ctx).ErrorContext(ctx, "error getting time zone",
			"lat", req.Location.Lat, "lon", req.Location.Lon, "error", err)
		metrics.MonthsRequests.WithLabelValues("timezone").Inc()
		span.SetStatus(codes.Error, "time zone resolution failed")
		span.RecordError(err)
		return domain.MonthStarts{}, err
	}
	span.SetAttributes(telemetry.AttrTimeZone.String(zone))

	starts := make([]*string, 0, max(0, diff+1))
	year, month := req.From.Year(), int(req.From.Month())
	for i := 0; i <= diff; i++ {
		at, err := s.converter.ToUTC(domain.MonthStart(year, month+i), zone)
		if err != nil {
			logging.FromContext(ctx).WarnContext(ctx, "month start unavailable",
				"zone", zone, "year", year, "month", month+i, "error", err)
			starts = append(starts, nil)
			continue
		}
		iso := civiltime.Format(at)
		starts = append(starts, &iso)
	}

	result := domain.MonthStarts{TimeZone: zone, Starts: starts}
	failed := result.Failed()
	metrics.MonthsRequests.WithLabelValues("ok").Inc()
	metrics.MonthsPerRequest.Observe(float64(len(starts)))
	metrics.NullSlots.Add(float64(failed))
	span.SetAttributes(telemetry.AttrMonths.Int(len(starts)), telemetry.AttrNullSlots.Int(failed))

	return result, nil
}
