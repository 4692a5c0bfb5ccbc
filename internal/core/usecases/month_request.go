package usecases

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/samirrijal/tzmonths/internal/core/domain"
	"github.com/samirrijal/tzmonths/internal/pkg/dateparse"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// RequestParser turns a raw MonthsQuery into a typed MonthsRequest.
type RequestParser struct {
	dates *dateparse.Parser
}

// NewRequestParser creates a parser. A nil date parser reads dates in UTC.
func NewRequestParser(dates *dateparse.Parser) *RequestParser {
	if dates == nil {
		dates = dateparse.New(time.UTC)
	}
	return &RequestParser{dates: dates}
}

// Parse validates presence of all four parameters, then parses each one.
// Every failure is reported as domain.ErrInvalidParameters.
func (p *RequestParser) Parse(q domain.MonthsQuery) (domain.MonthsRequest, error) {
	if err := validate.Struct(q); err != nil {
		return domain.MonthsRequest{}, fmt.Errorf("%w: %v", domain.ErrInvalidParameters, err)
	}

	pt, err := ParseCoordinate(*q.Lat, *q.Lon)
	if err != nil {
		return domain.MonthsRequest{}, err
	}
	from, err := p.dates.Parse(*q.From)
	if err != nil {
		return domain.MonthsRequest{}, fmt.Errorf("%w: from: %v", domain.ErrInvalidParameters, err)
	}
	to, err := p.dates.Parse(*q.To)
	if err != nil {
		return domain.MonthsRequest{}, fmt.Errorf("%w: to: %v", domain.ErrInvalidParameters, err)
	}

	return domain.MonthsRequest{
		Location: pt,
		From:     from,
		To:       to,
	}, nil
}

// ParseCoordinate parses lat and lon as finite numbers. Range is not checked;
// that is left to the time zone resolver.
func ParseCoordinate(lat, lon string) (domain.GeoPoint, error) {
	la, err := parseFinite(lat)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: lat: %v", domain.ErrInvalidParameters, err)
	}
	lo, err := parseFinite(lon)
	if err != nil {
		return domain.GeoPoint{}, fmt.Errorf("%w: lon: %v", domain.ErrInvalidParameters, err)
	}
	return domain.GeoPoint{Lat: la, Lon: lo}, nil
}

func parseFinite(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return f, nil
}
