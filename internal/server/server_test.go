package server

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/stats"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// MockQuerier implements the Querier interface for testing
type MockQuerier struct {
	activities []db.Activity
	resortHits map[int64]db.ResortMatchRow
	resorts    []db.Resort
	peaks      []db.Peak
	err        error
}

func (m *MockQuerier) ListAllActivities(ctx context.Context) ([]db.Activity, error) {
	return m.activities, m.err
}

func (m *MockQuerier) GetResortMatchesFor(ctx context.Context, ids []int64) (map[int64]db.ResortMatchRow, error) {
	if m.resortHits == nil {
		return map[int64]db.ResortMatchRow{}, nil
	}
	return m.resortHits, nil
}

func (m *MockQuerier) GetPeakMatchesFor(ctx context.Context, ids []int64) (map[int64]db.PeakMatchRow, error) {
	return map[int64]db.PeakMatchRow{}, nil
}

func (m *MockQuerier) ListResorts(ctx context.Context) ([]db.Resort, error) {
	return m.resorts, m.err
}

func (m *MockQuerier) ListPeaks(ctx context.Context) ([]db.Peak, error) {
	return m.peaks, m.err
}

func activity(id int64, sportType, local string) db.Activity {
	return db.Activity{
		ID:                 id,
		Name:               "activity",
		SportType:          sql.NullString{String: sportType, Valid: true},
		StartDateLocal:     sql.NullString{String: local, Valid: true},
		Distance:           sql.NullFloat64{Float64: 8000, Valid: true},
		MovingTime:         sql.NullInt64{Int64: 7200, Valid: true},
		TotalElevationGain: sql.NullFloat64{Float64: 900, Valid: true},
	}
}

func newTestServer(q *MockQuerier) *Server {
	now := time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)
	return New(q).WithClock(func() time.Time { return now })
}

func fixtureQuerier() *MockQuerier {
	return &MockQuerier{
		activities: []db.Activity{
			activity(1, "Snowboard", "2022-12-10T09:00:00Z"),
			activity(2, "Snowboard", "2023-01-05T09:00:00Z"),
			activity(3, "Snowboard", "2023-12-20T09:00:00Z"),
		},
		resortHits: map[int64]db.ResortMatchRow{
			3: {ActivityID: 3, DistanceKm: 0.8, Resort: db.Resort{ID: 1, Name: "Vail", ResortType: "resort"}},
		},
		resorts: []db.Resort{
			{ID: 1, Name: "Vail", Latitude: 39.6403, Longitude: -106.3742, ResortType: "resort"},
		},
		peaks: []db.Peak{
			{ID: 1, Name: "Quandary Peak", Latitude: 39.3972, Longitude: -106.1064},
			{ID: 2, Name: "Mount Sherman", Latitude: 39.2250, Longitude: -106.1697},
		},
	}
}

func toolErrorCode(t *testing.T, err error) ErrorCode {
	t.Helper()
	var te *ToolError
	if !errors.As(err, &te) {
		t.Fatalf("expected *ToolError, got %T: %v", err, err)
	}
	return te.Code
}

func TestServerNew(t *testing.T) {
	t.Parallel()

	srv := New(&MockQuerier{})
	if srv == nil {
		t.Fatal("expected non-nil server")
	}
	if srv.MCPServer() == nil {
		t.Error("expected non-nil MCP server")
	}
	if srv.MCPServer() != srv.mcp {
		t.Error("expected MCPServer() to return the internal mcp server")
	}
}

func TestGetSeasonStats(t *testing.T) {
	t.Parallel()

	srv := newTestServer(fixtureQuerier())
	ctx := context.Background()

	t.Run("full report", func(t *testing.T) {
		_, out, err := srv.getSeasonStats(ctx, nil, SeasonStatsInput{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, ok := out.Data.(stats.Bundle)
		if !ok {
			t.Fatalf("expected stats.Bundle, got %T", out.Data)
		}
		if b.Summary.TotalActivities != 3 {
			t.Errorf("total activities = %d, want 3", b.Summary.TotalActivities)
		}
		if len(out.Sections) != len(stats.Sections()) {
			t.Errorf("sections = %v", out.Sections)
		}
		if out.GeneratedAt != "2024-01-10T12:00:00Z" {
			t.Errorf("generated_at = %q", out.GeneratedAt)
		}
	})

	t.Run("single section", func(t *testing.T) {
		_, out, err := srv.getSeasonStats(ctx, nil, SeasonStatsInput{Section: stats.SectionByWinterSeason})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		seasons, ok := out.Data.([]stats.SeasonStats)
		if !ok {
			t.Fatalf("expected []stats.SeasonStats, got %T", out.Data)
		}
		if len(seasons) != 2 {
			t.Errorf("expected 2 seasons, got %d", len(seasons))
		}
	})

	t.Run("unknown section", func(t *testing.T) {
		_, _, err := srv.getSeasonStats(ctx, nil, SeasonStatsInput{Section: "nope"})
		if code := toolErrorCode(t, err); code != ErrInvalidInput {
			t.Errorf("code = %s, want %s", code, ErrInvalidInput)
		}
	})
}

func TestGetSeasonStatsSourceError(t *testing.T) {
	t.Parallel()

	srv := newTestServer(&MockQuerier{err: errors.New("database is locked")})
	_, _, err := srv.getSeasonStats(context.Background(), nil, SeasonStatsInput{})
	if code := toolErrorCode(t, err); code != ErrDatabaseError {
		t.Errorf("code = %s, want %s", code, ErrDatabaseError)
	}
}

func TestCompareProgress(t *testing.T) {
	t.Parallel()

	srv := newTestServer(fixtureQuerier())
	ctx := context.Background()

	t.Run("explicit day", func(t *testing.T) {
		_, out, err := srv.compareProgress(ctx, nil, CompareProgressInput{Sport: "Snowboard", Day: ptr(120)})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if out.Kind != stats.CompareSeasons {
			t.Errorf("kind = %q, want default seasons", out.Kind)
		}
		if len(out.Samples) != 2 {
			t.Fatalf("expected 2 samples, got %d", len(out.Samples))
		}
		if out.Samples[0].Period != "2022-23" || out.Samples[0].Point.Activities != 1 {
			t.Errorf("unexpected first sample %+v", out.Samples[0])
		}
		if !out.Samples[1].Current || out.Samples[1].Period != "2023-24" {
			t.Errorf("unexpected current sample %+v", out.Samples[1])
		}
		if len(out.Insights) == 0 {
			t.Error("expected insights")
		}
	})

	t.Run("defaults to today", func(t *testing.T) {
		_, out, err := srv.compareProgress(ctx, nil, CompareProgressInput{Sport: "Snowboard"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		// Sept 1 to Jan 10
		if out.Day != 131 {
			t.Errorf("day = %d, want 131", out.Day)
		}
	})

	tests := []struct {
		name  string
		input CompareProgressInput
		want  ErrorCode
	}{
		{"missing sport", CompareProgressInput{}, ErrInvalidInput},
		{"negative day", CompareProgressInput{Sport: "Snowboard", Day: ptr(-1)}, ErrInvalidInput},
		{"unknown kind", CompareProgressInput{Kind: "decades", Sport: "Snowboard"}, ErrInvalidInput},
		{"unknown sport", CompareProgressInput{Sport: "Kitesurf"}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := srv.compareProgress(ctx, nil, tt.input)
			if code := toolErrorCode(t, err); code != tt.want {
				t.Errorf("code = %s, want %s", code, tt.want)
			}
		})
	}
}

func TestTodayIndex(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)
	if got := todayIndex(stats.CompareYears, now); got != 32 {
		t.Errorf("years index = %d, want 32", got)
	}
	if got := todayIndex(stats.CompareSeasons, now); got != 153 {
		t.Errorf("seasons index = %d, want 153", got)
	}
}

func TestListLocations(t *testing.T) {
	t.Parallel()

	srv := newTestServer(fixtureQuerier())
	ctx := context.Background()

	_, out, err := srv.listLocations(ctx, nil, ListLocationsInput{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(out.Resorts) != 1 || len(out.Peaks) != 2 {
		t.Errorf("got %d resorts and %d peaks", len(out.Resorts), len(out.Peaks))
	}
	if out.Resorts[0].Point.Lat != 39.6403 {
		t.Errorf("resort lat = %v", out.Resorts[0].Point.Lat)
	}

	_, out, err = srv.listLocations(ctx, nil, ListLocationsInput{Kind: "peaks"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Resorts != nil || len(out.Peaks) != 2 {
		t.Errorf("peaks only: got %+v", out)
	}

	_, _, err = srv.listLocations(ctx, nil, ListLocationsInput{Kind: "huts"})
	if code := toolErrorCode(t, err); code != ErrInvalidInput {
		t.Errorf("code = %s, want %s", code, ErrInvalidInput)
	}
}

func TestReadSection(t *testing.T) {
	t.Parallel()

	srv := newTestServer(fixtureQuerier())
	ctx := context.Background()
	read := func(uri string) (*mcp.ReadResourceResult, error) {
		return srv.readSection(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	}

	res, err := read("strava://stats/resorts_by_season")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(res.Contents) != 1 || !strings.Contains(res.Contents[0].Text, "Vail") {
		t.Errorf("unexpected contents %+v", res.Contents)
	}

	if _, err := read("strava://stats/nope"); toolErrorCode(t, err) != ErrNotFound {
		t.Errorf("expected not found, got %v", err)
	}
	if _, err := read("strava://stats/"); toolErrorCode(t, err) != ErrInvalidInput {
		t.Errorf("expected invalid input, got %v", err)
	}
}

func TestReadSummaryAndLocations(t *testing.T) {
	t.Parallel()

	srv := newTestServer(fixtureQuerier())
	ctx := context.Background()

	res, err := srv.readSummary(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: summaryURI}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, `"by_winter_season"`) {
		t.Errorf("summary missing seasons: %s", res.Contents[0].Text)
	}

	res, err = srv.readLocations(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: locationsURI}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Contents[0].Text, "Quandary Peak") {
		t.Errorf("locations missing peak: %s", res.Contents[0].Text)
	}
}

func TestPrompts(t *testing.T) {
	t.Parallel()

	srv := newTestServer(fixtureQuerier())
	ctx := context.Background()

	res, err := srv.seasonReviewPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{Name: "season_review"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := res.Messages[0].Content.(*mcp.TextContent).Text
	if !strings.Contains(text, "2023-24") {
		t.Errorf("expected current season in prompt: %s", text)
	}

	_, err = srv.seasonReviewPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "season_review",
		Arguments: map[string]string{"season": "2023-25"},
	}})
	if code := toolErrorCode(t, err); code != ErrInvalidInput {
		t.Errorf("code = %s, want %s", code, ErrInvalidInput)
	}

	res, err = srv.locationReportPrompt(ctx, &mcp.GetPromptRequest{Params: &mcp.GetPromptParams{
		Name:      "location_report",
		Arguments: map[string]string{"kind": "peaks"},
	}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if text := res.Messages[0].Content.(*mcp.TextContent).Text; !strings.Contains(text, "peaks_by_season") {
		t.Errorf("expected peaks section in prompt: %s", text)
	}
}

func TestProgressInsights(t *testing.T) {
	t.Parallel()

	point := func(activities int, elevation int64, hours float64) stats.CumulativePoint {
		return stats.CumulativePoint{DayIndex: 60, Activities: activities, Elevation: elevation, Hours: hours}
	}

	tests := []struct {
		name    string
		samples []stats.ProgressSample
		types   []string
	}{
		{"no samples", nil, []string{}},
		{
			"current not started",
			[]stats.ProgressSample{{Period: "2023-24", Current: true}},
			[]string{"trend"},
		},
		{
			"first period",
			[]stats.ProgressSample{{Period: "2023-24", Current: true, Started: true, Point: point(1, 100, 1)}},
			[]string{"milestone"},
		},
		{
			"against previous",
			[]stats.ProgressSample{
				{Period: "2021-22", Started: true, Point: point(9, 9000, 9)},
				{Period: "2022-23", Started: true, Point: point(2, 1000, 4)},
				{Period: "2023-24", Current: true, Started: true, Point: point(3, 1000, 2)},
			},
			[]string{"achievement", "trend", "warning"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := ProgressInsights(tt.samples)
			if len(got) != len(tt.types) {
				t.Fatalf("got %d insights %+v, want %d", len(got), got, len(tt.types))
			}
			for i, typ := range tt.types {
				if got[i].Type != typ {
					t.Errorf("insight %d type = %q, want %q (%s)", i, got[i].Type, typ, got[i].Message)
				}
			}
		})
	}
}

func TestProgressInsightsNamesPrevious(t *testing.T) {
	t.Parallel()

	got := ProgressInsights([]stats.ProgressSample{
		{Period: "2022-23", Started: true, Point: stats.CumulativePoint{Activities: 2, Elevation: 1000, Hours: 4}},
		{Period: "2023-24", Current: true, Started: true, Point: stats.CumulativePoint{Activities: 3, Elevation: 1000, Hours: 2}},
	})
	if !strings.Contains(got[0].Message, "well ahead of 2022-23") {
		t.Errorf("unexpected message %q", got[0].Message)
	}
}

func TestSuggestNextActions(t *testing.T) {
	t.Parallel()

	if got := SuggestNextActions("season_stats"); len(got) != 2 || got[0].Tool != "compare_progress" {
		t.Errorf("unexpected suggestions %+v", got)
	}
	if got := SuggestNextActions("unknown"); len(got) != 0 {
		t.Errorf("expected no suggestions, got %+v", got)
	}
}
