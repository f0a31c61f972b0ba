// Package calendar maps local activity dates onto calendar years and winter
// seasons. A winter season runs from September 1 through August 31 of the
// following year and is labeled "2023-24".
package calendar

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// SeasonStartMonth is the first month of a winter season
const SeasonStartMonth = time.September

// ErrMalformedDate is returned when a start date cannot be parsed. Callers
// must not substitute a default date: a wrong year or season silently
// corrupts every aggregate it lands in.
var ErrMalformedDate = errors.New("malformed date")

// localLayouts are the formats start_date_local is recorded in, most common first
var localLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// ParseLocal parses a local start timestamp. The wall clock of the recorded
// offset is kept as-is; the value is never shifted into the process zone.
// An empty string is an absent date and returns ok=false with no error.
func ParseLocal(raw string) (time.Time, bool, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false, nil
	}
	for _, layout := range localLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("%w: %q", ErrMalformedDate, raw)
}

// Midnight returns the local calendar date of t at 00:00 in UTC so that day
// arithmetic is unaffected by offsets and DST.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// DateKey returns the YYYY-MM-DD calendar date of t.
func DateKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// DateLabel returns the short chart label for t, e.g. "Jan 15".
func DateLabel(t time.Time) string {
	return t.Format("Jan 2")
}

// DayOfYear returns the ordinal day of t within its calendar year (1-366).
func DayOfYear(t time.Time) int {
	return t.YearDay()
}

// Season identifies a winter season by the year it starts in
type Season struct {
	StartYear int
}

// SeasonFor returns the season containing t. September 1 opens a new season;
// August 31 still belongs to the previous one.
func SeasonFor(t time.Time) Season {
	if t.Month() >= SeasonStartMonth {
		return Season{StartYear: t.Year()}
	}
	return Season{StartYear: t.Year() - 1}
}

// CurrentSeason returns the season containing now.
func CurrentSeason(now time.Time) Season {
	return SeasonFor(now)
}

// SeasonLabel returns the season label for a raw local start date. An absent
// date yields ok=false.
func SeasonLabel(raw string) (string, bool, error) {
	t, ok, err := ParseLocal(raw)
	if err != nil || !ok {
		return "", false, err
	}
	return SeasonFor(t).Label(), true, nil
}

// ParseSeason parses a label such as "2023-24".
func ParseSeason(label string) (Season, error) {
	var start, end int
	if _, err := fmt.Sscanf(label, "%4d-%2d", &start, &end); err != nil {
		return Season{}, fmt.Errorf("parsing season %q: %w", label, err)
	}
	if len(label) != 7 || (start+1)%100 != end {
		return Season{}, fmt.Errorf("parsing season %q: end year does not follow start year", label)
	}
	return Season{StartYear: start}, nil
}

// Label returns the zero-padded season label, e.g. "2023-24" or "1999-00".
func (s Season) Label() string {
	return fmt.Sprintf("%d-%02d", s.StartYear, (s.StartYear+1)%100)
}

// String implements fmt.Stringer
func (s Season) String() string {
	return s.Label()
}

// Start returns midnight on September 1 of the start year.
func (s Season) Start() time.Time {
	return time.Date(s.StartYear, SeasonStartMonth, 1, 0, 0, 0, 0, time.UTC)
}

// Contains reports whether t falls inside the season.
func (s Season) Contains(t time.Time) bool {
	return SeasonFor(t) == s
}

// DayOfSeason returns the whole days elapsed between midnight on September 1
// of startYear and the local date of t. September 1 itself is day 0.
func DayOfSeason(t time.Time, startYear int) int {
	start := Season{StartYear: startYear}.Start()
	return int(Midnight(t).Sub(start).Hours() / 24)
}
