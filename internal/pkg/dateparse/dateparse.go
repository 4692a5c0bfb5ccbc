// Package dateparse reads the free-form date strings accepted by the months API.
package dateparse

import (
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// Layouts is the accepted input grammar, tried in order. Values without an
// explicit offset are read in the parser's location.
var Layouts = []string{
	"2006-1-2",
	"2006-1",
	"2006",
	"2006/1/2",
	"1/2/2006",
	"2006-1-2 15:4:5",
	"2006-1-2 15:4",
	"2006-1-2T15:4:5",
	"2006-1-2T15:4",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	time.RFC1123,
	time.RFC1123Z,
	"Jan 2, 2006",
	"January 2, 2006",
	"Jan 2 2006",
	"January 2 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// Parser parses date strings in a fixed location.
type Parser struct {
	cfg *now.Config
}

// New creates a Parser. A nil location means UTC.
func New(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.UTC
	}
	return &Parser{cfg: &now.Config{
		WeekStartDay: time.Monday,
		TimeLocation: loc,
		TimeFormats:  Layouts,
	}}
}

// Location reports where offset-less values are read.
func (p *Parser) Location() *time.Location {
	return p.cfg.TimeLocation
}

// Parse reads s using the first matching layout.
func (p *Parser) Parse(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	t, err := p.cfg.Parse(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return t, nil
}
