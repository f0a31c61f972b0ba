// Package server exposes the season statistics over the Model Context
// Protocol so assistants can query them with tools, resources and prompts.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/calendar"
	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/geo"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/joshdurbin/strava-season-stats/internal/stats"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	serverName    = "strava-season-stats"
	serverVersion = "1.0.0"
)

// ptr returns a pointer to the given value - useful for optional fields in structs
func ptr[T any](v T) *T {
	return &v
}

// Querier is the read side of the store the server needs
type Querier interface {
	stats.Source
	ListResorts(ctx context.Context) ([]db.Resort, error)
	ListPeaks(ctx context.Context) ([]db.Peak, error)
}

// Server wraps the MCP server and database queries
type Server struct {
	mcp     *mcp.Server
	queries Querier
	now     func() time.Time
}

// MCPServer returns the underlying MCP server (for use with other transports)
func (s *Server) MCPServer() *mcp.Server {
	return s.mcp
}

// New creates an MCP server with the season statistics tools registered
func New(queries Querier) *Server {
	logging.Info("MCP server initializing", "name", serverName, "version", serverVersion)

	s := &Server{
		mcp: mcp.NewServer(&mcp.Implementation{
			Name:    serverName,
			Version: serverVersion,
		}, nil),
		queries: queries,
		now:     time.Now,
	}

	s.registerTools()
	s.registerResources()
	s.registerPrompts()

	logging.Info("MCP server initialized", "tools_registered", 3, "resources_registered", 3, "prompts_registered", 2)
	return s
}

// WithClock fixes the time statistics are computed as of (for testing)
func (s *Server) WithClock(now func() time.Time) *Server {
	s.now = now
	return s
}

// Run starts the MCP server over stdio transport
func (s *Server) Run(ctx context.Context) error {
	logging.Info("MCP server starting")
	defer logging.Info("MCP server stopped")
	return s.mcp.Run(ctx, &mcp.StdioTransport{})
}

func (s *Server) registerTools() {
	logging.Debug("Registering tool", "name", "get_season_stats")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "get_season_stats",
		Description: `Get winter sports statistics computed from all synced Strava activities.

Use when:
- User asks "How many days did I ski this season?" or "Totals by year"
- User wants resort, backcountry or peak visits per winter season
- User needs the raw cumulative series behind a comparison chart

Parameters:
- section (string): One of summary, by_sport, by_year, by_sport_and_year, by_winter_season, resorts_by_season, backcountry_by_season, peaks_by_season, year_comparisons, season_comparisons. Omit for every section.

Returns: The requested section (or the full report). Distances are miles, elevation is feet, time is hours. Winter seasons run September 1 to August 31 and are labelled like "2023-24".

Example: {"section": "by_winter_season"}`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Get Season Stats",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.getSeasonStats)

	logging.Debug("Registering tool", "name", "compare_progress")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "compare_progress",
		Description: `Compare running totals for one sport at the same point in every year or winter season.

Use when:
- User asks "Am I ahead of last season?" or "How does this year compare by mid-January?"
- User wants to line up seasons at an equal day offset

Parameters:
- kind (string): "seasons" (day 0 is September 1) or "years" (day 1 is January 1). Default: seasons.
- sport (string): Strava sport type, e.g. AlpineSki, BackcountrySki, Snowboard, NordicSki.
- day (integer): Day index to sample at. Default: today's index in the current period.

Returns: One sample per period with its cumulative activities, hours, miles, elevation and calories as of the day, plus trend insights for the current period.

Example: {"sport": "BackcountrySki"} or {"kind": "years", "sport": "AlpineSki", "day": 45}`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "Compare Progress",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.compareProgress)

	logging.Debug("Registering tool", "name", "list_locations")
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "list_locations",
		Description: `List the resorts and peaks activities are matched against.

Parameters:
- kind (string): "resorts", "peaks", or omit for both.

Returns: Each location with its coordinates and search radius in kilometers. A radius of 0 means the default (5km for resorts, 2km for peaks).`,
		Annotations: &mcp.ToolAnnotations{
			Title:           "List Locations",
			ReadOnlyHint:    true,
			IdempotentHint:  true,
			OpenWorldHint:   ptr(false),
			DestructiveHint: ptr(false),
		},
	}, s.listLocations)

	logging.Debug("MCP tools registered", "count", 3)
}

// SeasonStatsInput selects a report section
type SeasonStatsInput struct {
	Section string `json:"section,omitempty" jsonschema:"Report section to return. Omit for the full report."`
}

// SeasonStatsOutput carries one section or the full report
type SeasonStatsOutput struct {
	GeneratedAt      string            `json:"generated_at"`
	Section          string            `json:"section,omitempty"`
	Sections         []string          `json:"sections"`
	Data             any               `json:"data"`
	SuggestedActions []SuggestedAction `json:"suggested_actions,omitempty"`
}

func (s *Server) getSeasonStats(ctx context.Context, req *mcp.CallToolRequest, input SeasonStatsInput) (*mcp.CallToolResult, SeasonStatsOutput, error) {
	logging.Info("MCP tool call", "tool", "get_season_stats", "section", input.Section)
	if logging.IsVerbose() {
		logging.Debug("MCP request params", "tool", "get_season_stats", "input", logging.ToJSON(input))
	}

	b, err := s.bundle(ctx)
	if err != nil {
		return nil, SeasonStatsOutput{}, err
	}

	output := SeasonStatsOutput{
		GeneratedAt:      b.GeneratedAt.Format(time.RFC3339),
		Section:          input.Section,
		Sections:         stats.Sections(),
		SuggestedActions: SuggestNextActions("season_stats"),
	}

	if input.Section == "" {
		output.Data = b
		return nil, output, nil
	}

	data, ok := b.Section(input.Section)
	if !ok {
		return nil, SeasonStatsOutput{}, NewInvalidInputErrorWithDetails("unknown section", input.Section)
	}
	output.Data = data
	return nil, output, nil
}

// CompareProgressInput picks the series to line up
type CompareProgressInput struct {
	Kind  string `json:"kind,omitempty" jsonschema:"Comparison kind: seasons or years. Default: seasons."`
	Sport string `json:"sport" jsonschema:"Strava sport type, e.g. AlpineSki or BackcountrySki."`
	Day   *int   `json:"day,omitempty" jsonschema:"Day index to sample at. Default: today's index."`
}

// CompareProgressOutput is one sample per available period
type CompareProgressOutput struct {
	Kind             string                 `json:"kind"`
	Sport            string                 `json:"sport"`
	Day              int                    `json:"day"`
	Samples          []stats.ProgressSample `json:"samples"`
	Insights         []Insight              `json:"insights,omitempty"`
	SuggestedActions []SuggestedAction      `json:"suggested_actions,omitempty"`
}

func (s *Server) compareProgress(ctx context.Context, req *mcp.CallToolRequest, input CompareProgressInput) (*mcp.CallToolResult, CompareProgressOutput, error) {
	logging.Info("MCP tool call", "tool", "compare_progress", "kind", input.Kind, "sport", input.Sport)
	if logging.IsVerbose() {
		logging.Debug("MCP request params", "tool", "compare_progress", "input", logging.ToJSON(input))
	}

	kind := input.Kind
	if kind == "" {
		kind = stats.CompareSeasons
	}
	if input.Sport == "" {
		return nil, CompareProgressOutput{}, NewInvalidInputError("sport is required")
	}

	now := s.now()
	day := todayIndex(kind, now)
	if input.Day != nil {
		if *input.Day < 0 {
			return nil, CompareProgressOutput{}, NewInvalidInputErrorWithDetails("day must be non-negative", fmt.Sprint(*input.Day))
		}
		day = *input.Day
	}

	b, err := s.bundle(ctx)
	if err != nil {
		return nil, CompareProgressOutput{}, err
	}

	samples, err := b.CompareProgress(kind, input.Sport, day)
	switch {
	case errors.Is(err, stats.ErrUnknownComparison):
		return nil, CompareProgressOutput{}, NewInvalidInputErrorWithDetails("unknown comparison kind", kind)
	case errors.Is(err, stats.ErrUnknownSport):
		return nil, CompareProgressOutput{}, NewNotFoundError("comparison data", input.Sport)
	case err != nil:
		return nil, CompareProgressOutput{}, NewInternalErrorWithCause("comparing progress", err)
	}

	return nil, CompareProgressOutput{
		Kind:             kind,
		Sport:            input.Sport,
		Day:              day,
		Samples:          samples,
		Insights:         ProgressInsights(samples),
		SuggestedActions: SuggestNextActions("compare_progress"),
	}, nil
}

// todayIndex returns now's day index within the current period of kind
func todayIndex(kind string, now time.Time) int {
	if kind == stats.CompareYears {
		return calendar.DayOfYear(now)
	}
	return calendar.DayOfSeason(now, calendar.CurrentSeason(now).StartYear)
}

// ListLocationsInput filters the catalogue by kind
type ListLocationsInput struct {
	Kind string `json:"kind,omitempty" jsonschema:"Location kind: resorts or peaks. Omit for both."`
}

// ListLocationsOutput is the location catalogue
type ListLocationsOutput struct {
	Resorts []geo.Resort `json:"resorts,omitempty"`
	Peaks   []geo.Peak   `json:"peaks,omitempty"`
}

func (s *Server) listLocations(ctx context.Context, req *mcp.CallToolRequest, input ListLocationsInput) (*mcp.CallToolResult, ListLocationsOutput, error) {
	logging.Info("MCP tool call", "tool", "list_locations", "kind", input.Kind)

	var withResorts, withPeaks bool
	switch input.Kind {
	case "":
		withResorts, withPeaks = true, true
	case "resorts":
		withResorts = true
	case "peaks":
		withPeaks = true
	default:
		return nil, ListLocationsOutput{}, NewInvalidInputErrorWithDetails("unknown location kind", input.Kind)
	}

	output, err := s.locations(ctx, withResorts, withPeaks)
	if err != nil {
		return nil, ListLocationsOutput{}, err
	}
	return nil, output, nil
}

func (s *Server) locations(ctx context.Context, withResorts, withPeaks bool) (ListLocationsOutput, error) {
	var output ListLocationsOutput

	if withResorts {
		rows, err := s.queries.ListResorts(ctx)
		if err != nil {
			logging.Error("listing resorts failed", "error", err)
			return ListLocationsOutput{}, NewDatabaseError("list resorts", err)
		}
		output.Resorts = make([]geo.Resort, 0, len(rows))
		for _, r := range rows {
			output.Resorts = append(output.Resorts, r.ToGeo())
		}
	}

	if withPeaks {
		rows, err := s.queries.ListPeaks(ctx)
		if err != nil {
			logging.Error("listing peaks failed", "error", err)
			return ListLocationsOutput{}, NewDatabaseError("list peaks", err)
		}
		output.Peaks = make([]geo.Peak, 0, len(rows))
		for _, p := range rows {
			output.Peaks = append(output.Peaks, p.ToGeo())
		}
	}

	return output, nil
}

func (s *Server) bundle(ctx context.Context) (stats.Bundle, error) {
	b, err := stats.Build(ctx, s.queries, s.now())
	if err != nil {
		logging.Error("building statistics failed", "error", err)
		return stats.Bundle{}, NewDatabaseError("statistics query", err)
	}
	return b, nil
}
