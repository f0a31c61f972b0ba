package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/geo"
)

// Source is the slice of the store the orchestrator reads from. Match
// lookups take the whole id set in one call.
type Source interface {
	ListAllActivities(ctx context.Context) ([]db.Activity, error)
	GetResortMatchesFor(ctx context.Context, ids []int64) (map[int64]db.ResortMatchRow, error)
	GetPeakMatchesFor(ctx context.Context, ids []int64) (map[int64]db.PeakMatchRow, error)
}

// Context carries everything an aggregation needs. It is built once by
// Prefetch and passed by value; nothing is cached between calls.
type Context struct {
	Activities []Activity
	Matches    Matches
	Now        time.Time
}

func (c Context) now() time.Time {
	if c.Now.IsZero() {
		return time.Now()
	}
	return c.Now
}

// Prefetch loads every activity and their resort and peak matches using one
// list query and one batch lookup per location kind.
func Prefetch(ctx context.Context, src Source, now time.Time) (Context, error) {
	rows, err := src.ListAllActivities(ctx)
	if err != nil {
		return Context{}, fmt.Errorf("listing activities: %w", err)
	}

	activities := make([]Activity, 0, len(rows))
	ids := make([]int64, 0, len(rows))
	for _, row := range rows {
		activities = append(activities, ActivityFromRow(row))
		ids = append(ids, row.ID)
	}

	resortRows, err := src.GetResortMatchesFor(ctx, ids)
	if err != nil {
		return Context{}, fmt.Errorf("loading resort matches: %w", err)
	}
	peakRows, err := src.GetPeakMatchesFor(ctx, ids)
	if err != nil {
		return Context{}, fmt.Errorf("loading peak matches: %w", err)
	}

	m := Matches{
		Resorts: make(map[int64]geo.Resort, len(resortRows)),
		Peaks:   make(map[int64]geo.Peak, len(peakRows)),
	}
	for id, r := range resortRows {
		m.Resorts[id] = r.Resort.ToGeo()
	}
	for id, p := range peakRows {
		m.Peaks[id] = p.Peak.ToGeo()
	}

	return Context{Activities: activities, Matches: m, Now: now}, nil
}

// Bundle is the complete report
type Bundle struct {
	GeneratedAt         time.Time                   `json:"generated_at"`
	Summary             Bucket                      `json:"summary"`
	BySport             []SportStats                `json:"by_sport"`
	ByYear              []YearStats                 `json:"by_year"`
	BySportAndYear      []SportYears                `json:"by_sport_and_year"`
	ByWinterSeason      []SeasonStats               `json:"by_winter_season"`
	ResortsBySeason     []SeasonLocations           `json:"resorts_by_season"`
	BackcountryBySeason []SeasonLocations           `json:"backcountry_by_season"`
	PeaksBySeason       []SeasonLocations           `json:"peaks_by_season"`
	YearComparisons     map[string]YearComparison   `json:"year_comparisons"`
	SeasonComparisons   map[string]SeasonComparison `json:"season_comparisons"`
}

// ComputeAll produces every rollup from c.
func ComputeAll(c Context) (Bundle, error) {
	var (
		b   = Bundle{GeneratedAt: c.now()}
		err error
	)

	if b.Summary, err = NewBucket(c.Activities, false); err != nil {
		return Bundle{}, fmt.Errorf("summary: %w", err)
	}
	if b.BySport, err = GroupBySport(c.Activities); err != nil {
		return Bundle{}, fmt.Errorf("by sport: %w", err)
	}
	if b.ByYear, err = GroupByYear(c.Activities); err != nil {
		return Bundle{}, fmt.Errorf("by year: %w", err)
	}
	if b.BySportAndYear, err = GroupBySportAndYear(c.Activities); err != nil {
		return Bundle{}, fmt.Errorf("by sport and year: %w", err)
	}
	if b.ByWinterSeason, err = GroupByWinterSeason(c.Activities); err != nil {
		return Bundle{}, fmt.Errorf("by winter season: %w", err)
	}
	if b.ResortsBySeason, err = LocationsBySeason(c.Activities, c.Matches, LocationResort); err != nil {
		return Bundle{}, fmt.Errorf("resorts by season: %w", err)
	}
	if b.BackcountryBySeason, err = LocationsBySeason(c.Activities, c.Matches, LocationBackcountry); err != nil {
		return Bundle{}, fmt.Errorf("backcountry by season: %w", err)
	}
	if b.PeaksBySeason, err = LocationsBySeason(c.Activities, c.Matches, LocationPeak); err != nil {
		return Bundle{}, fmt.Errorf("peaks by season: %w", err)
	}
	if b.YearComparisons, err = YearComparisons(c, b.BySportAndYear); err != nil {
		return Bundle{}, fmt.Errorf("year comparisons: %w", err)
	}
	if b.SeasonComparisons, err = SeasonComparisons(c, b.ByWinterSeason); err != nil {
		return Bundle{}, fmt.Errorf("season comparisons: %w", err)
	}

	return b, nil
}

// Build prefetches from src and computes the full bundle as of now
func Build(ctx context.Context, src Source, now time.Time) (Bundle, error) {
	c, err := Prefetch(ctx, src, now)
	if err != nil {
		return Bundle{}, err
	}
	return ComputeAll(c)
}

// Section names accepted by Bundle.Section
const (
	SectionSummary             = "summary"
	SectionBySport             = "by_sport"
	SectionByYear              = "by_year"
	SectionBySportAndYear      = "by_sport_and_year"
	SectionByWinterSeason      = "by_winter_season"
	SectionResortsBySeason     = "resorts_by_season"
	SectionBackcountryBySeason = "backcountry_by_season"
	SectionPeaksBySeason       = "peaks_by_season"
	SectionYearComparisons     = "year_comparisons"
	SectionSeasonComparisons   = "season_comparisons"
)

// Sections lists the section names in bundle order
func Sections() []string {
	return []string{
		SectionSummary,
		SectionBySport,
		SectionByYear,
		SectionBySportAndYear,
		SectionByWinterSeason,
		SectionResortsBySeason,
		SectionBackcountryBySeason,
		SectionPeaksBySeason,
		SectionYearComparisons,
		SectionSeasonComparisons,
	}
}

// Section returns one part of the bundle by its JSON name.
func (b Bundle) Section(name string) (any, bool) {
	switch name {
	case SectionSummary:
		return b.Summary, true
	case SectionBySport:
		return b.BySport, true
	case SectionByYear:
		return b.ByYear, true
	case SectionBySportAndYear:
		return b.BySportAndYear, true
	case SectionByWinterSeason:
		return b.ByWinterSeason, true
	case SectionResortsBySeason:
		return b.ResortsBySeason, true
	case SectionBackcountryBySeason:
		return b.BackcountryBySeason, true
	case SectionPeaksBySeason:
		return b.PeaksBySeason, true
	case SectionYearComparisons:
		return b.YearComparisons, true
	case SectionSeasonComparisons:
		return b.SeasonComparisons, true
	}
	return nil, false
}
