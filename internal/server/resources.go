package server

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	summaryURI     = "strava://stats/summary"
	locationsURI   = "strava://locations"
	sectionURIBase = "strava://stats/"
)

// registerResources registers all MCP resources for the server
func (s *Server) registerResources() {
	logging.Debug("Registering MCP resources")

	s.mcp.AddResource(&mcp.Resource{
		URI:         summaryURI,
		Name:        "season_summary",
		Description: "All-time totals plus the per-season breakdown",
		MIMEType:    "application/json",
	}, s.readSummary)

	s.mcp.AddResource(&mcp.Resource{
		URI:         locationsURI,
		Name:        "locations",
		Description: "Resorts and peaks activities are matched against",
		MIMEType:    "application/json",
	}, s.readLocations)

	s.mcp.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: sectionURIBase + "{section}",
		Name:        "stats_section",
		Description: "One section of the statistics report, e.g. strava://stats/peaks_by_season",
		MIMEType:    "application/json",
	}, s.readSection)

	logging.Debug("MCP resources registered", "count", 3)
}

// summaryView is the season_summary resource body
type summaryView struct {
	GeneratedAt    string `json:"generated_at"`
	Summary        any    `json:"summary"`
	ByWinterSeason any    `json:"by_winter_season"`
}

func (s *Server) readSummary(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	logging.Info("MCP resource read", "resource", "season_summary")

	b, err := s.bundle(ctx)
	if err != nil {
		return nil, err
	}
	return jsonResource(summaryURI, summaryView{
		GeneratedAt:    b.GeneratedAt.Format(time.RFC3339),
		Summary:        b.Summary,
		ByWinterSeason: b.ByWinterSeason,
	})
}

func (s *Server) readLocations(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	logging.Info("MCP resource read", "resource", "locations")

	out, err := s.locations(ctx, true, true)
	if err != nil {
		return nil, err
	}
	return jsonResource(locationsURI, out)
}

// readSection returns one report section. URI format: strava://stats/{section}
func (s *Server) readSection(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := req.Params.URI
	name, ok := strings.CutPrefix(uri, sectionURIBase)
	if !ok || name == "" || strings.Contains(name, "/") {
		return nil, NewInvalidInputErrorWithDetails("invalid section URI", uri)
	}

	logging.Info("MCP resource read", "resource", "stats_section", "section", name)

	b, err := s.bundle(ctx)
	if err != nil {
		return nil, err
	}
	data, ok := b.Section(name)
	if !ok {
		return nil, NewNotFoundError("section", name)
	}
	return jsonResource(uri, data)
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, NewInternalErrorWithCause("failed to marshal resource", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{
			{
				URI:      uri,
				MIMEType: "application/json",
				Text:     string(jsonData),
			},
		},
	}, nil
}
