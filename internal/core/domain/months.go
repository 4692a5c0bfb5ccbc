package domain

import (
	"errors"
	"time"
)

var (
	// ErrInvalidParameters is returned when lon, lat, from or to cannot be parsed.
	ErrInvalidParameters = errors.New("invalid parameters")
	// ErrTimeZoneResolution is returned when no IANA zone can be found for a coordinate.
	ErrTimeZoneResolution = errors.New("unable to get time zone")
	// ErrRangeTooLarge is returned when the requested range exceeds the configured month limit.
	ErrRangeTooLarge = errors.New("range too large")
)

// MonthsQuery is the raw, untyped request as it arrives from a transport.
// A nil field means the parameter was absent.
type MonthsQuery struct {
	Lon  *string `json:"lon" validate:"required"`
	Lat  *string `json:"lat" validate:"required"`
	From *string `json:"from" validate:"required"`
	To   *string `json:"to" validate:"required"`
}

// NewMonthsQuery builds a query from present values; empty strings count as absent.
func NewMonthsQuery(lon, lat, from, to string) MonthsQuery {
	return MonthsQuery{
		Lon:  optional(lon),
		Lat:  optional(lat),
		From: optional(from),
		To:   optional(to),
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// MonthsRequest is a validated month-start request.
type MonthsRequest struct {
	Location GeoPoint
	From     time.Time
	To       time.Time
}

// MonthDiff is the number of calendar-month steps from From to To, ignoring
// day-of-month and time. Negative when To is in an earlier month than From.
func (r MonthsRequest) MonthDiff() int {
	return (r.To.Year()-r.From.Year())*12 + int(r.To.Month()) - int(r.From.Month())
}

// CivilDateTime is a wall-clock date-time without an offset. Month may exceed
// 12 (or be below 1); converters normalise it into the following (or previous) years.
type CivilDateTime struct {
	Year       int
	Month      int
	Day        int
	Hour       int
	Minute     int
	Second     int
	Nanosecond int
}

// MonthStart returns local midnight on the first day of year/month.
func MonthStart(year, month int) CivilDateTime {
	return CivilDateTime{Year: year, Month: month, Day: 1}
}

// MonthStarts is the result of an enumeration. A nil entry marks a month whose
// instant could not be constructed.
type MonthStarts struct {
	TimeZone string    `json:"-"`
	Starts   []*string `json:"monthStarts"`
}

// Failed counts the null slots.
func (m MonthStarts) Failed() int {
	n := 0
	for _, s := range m.Starts {
		if s == nil {
			n++
		}
	}
	return n
}

// ErrorStatus maps an enumeration error to an HTTP-style status code and the
// public error message. Unknown errors are 500.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidParameters):
		return 400, "Invalid parameters"
	case errors.Is(err, ErrRangeTooLarge):
		return 400, "Range too large"
	case errors.Is(err, ErrTimeZoneResolution):
		return 500, "Unable to get time zone"
	default:
		return 500, "Internal server error"
	}
}
