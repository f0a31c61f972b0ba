package server

import (
	"context"
	"fmt"

	"github.com/joshdurbin/strava-season-stats/internal/calendar"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerPrompts registers all MCP prompts for the server
func (s *Server) registerPrompts() {
	logging.Debug("Registering MCP prompts")

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "season_review",
		Description: "Review a winter season's days, vertical and locations against previous seasons",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "season",
				Description: "Season label such as '2023-24'. Defaults to the current season.",
				Required:    false,
			},
		},
	}, s.seasonReviewPrompt)

	s.mcp.AddPrompt(&mcp.Prompt{
		Name:        "location_report",
		Description: "Summarize where activities happened: resorts, backcountry zones or peaks",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "kind",
				Description: "Which locations to report on: 'resorts', 'backcountry' or 'peaks'",
				Required:    false,
			},
		},
	}, s.locationReportPrompt)

	logging.Debug("MCP prompts registered", "count", 2)
}

func promptArg(req *mcp.GetPromptRequest, name, fallback string) string {
	if req.Params != nil && req.Params.Arguments != nil {
		if v, ok := req.Params.Arguments[name]; ok && v != "" {
			return v
		}
	}
	return fallback
}

func (s *Server) seasonReviewPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	season := promptArg(req, "season", calendar.CurrentSeason(s.now()).Label())
	if _, err := calendar.ParseSeason(season); err != nil {
		return nil, NewInvalidInputErrorWithDetails("invalid season label", season)
	}

	logging.Info("MCP prompt requested", "prompt", "season_review", "season", season)

	promptText := fmt.Sprintf(`Please review my %s winter season.

Use the following tools to gather data:
1. **get_season_stats** with section="by_winter_season" for days, vertical and hours per sport
2. **get_season_stats** with section="resorts_by_season" and "backcountry_by_season" to see where I went
3. **compare_progress** with kind="seasons" for each sport I did, to compare against earlier seasons

Then provide:
- **Summary**: Days out, total vertical in feet, hours and miles for %s
- **Where**: Most visited resorts and backcountry zones
- **Compared**: How this season stacks up against previous ones at the same point
- **Highlights**: The biggest days by vertical

Please be specific with numbers and use the actual data from the tools.`, season, season)

	return &mcp.GetPromptResult{
		Description: "Winter season review prompt",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText},
			},
		},
	}, nil
}

func (s *Server) locationReportPrompt(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	kind := promptArg(req, "kind", "resorts")

	var section string
	switch kind {
	case "resorts":
		section = "resorts_by_season"
	case "backcountry":
		section = "backcountry_by_season"
	case "peaks":
		section = "peaks_by_season"
	default:
		return nil, NewInvalidInputErrorWithDetails("unknown location kind", kind)
	}

	logging.Info("MCP prompt requested", "prompt", "location_report", "kind", kind)

	promptText := fmt.Sprintf(`Please report on the %s I have visited.

Use the following tools to gather data:
1. **get_season_stats** with section="%s" for visits per season
2. **list_locations** to see every catalogued location and its coordinates

Then provide:
- **Favorites**: The most visited locations across all seasons
- **By season**: How my mix of locations changed from season to season
- **Unvisited**: Catalogued locations with no matched activities

Please be specific with numbers and use the actual data from the tools.`, kind, section)

	return &mcp.GetPromptResult{
		Description: "Location report prompt",
		Messages: []*mcp.PromptMessage{
			{
				Role:    "user",
				Content: &mcp.TextContent{Text: promptText},
			},
		},
	}, nil
}
