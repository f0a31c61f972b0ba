package server

import (
	"fmt"
	"math"

	"github.com/joshdurbin/strava-season-stats/internal/stats"
)

// Insight represents a single AI-friendly observation about the data
type Insight struct {
	Type    string `json:"type"`    // e.g., "trend", "achievement", "warning", "milestone"
	Message string `json:"message"` // Human-readable insight
}

// SuggestedAction represents a suggested next tool call
type SuggestedAction struct {
	Tool        string `json:"tool"`        // Tool name to call
	Description string `json:"description"` // Why this action is suggested
	Priority    string `json:"priority"`    // "high", "medium", "low"
}

// ProgressInsights compares the current period's sample with the latest
// earlier period that had started by the same day.
func ProgressInsights(samples []stats.ProgressSample) []Insight {
	var current, previous *stats.ProgressSample
	for i := range samples {
		switch {
		case samples[i].Current:
			current = &samples[i]
		case samples[i].Started && current == nil:
			previous = &samples[i]
		}
	}

	insights := []Insight{}
	if current == nil {
		return insights
	}
	if !current.Started {
		insights = append(insights, Insight{
			Type:    "trend",
			Message: fmt.Sprintf("No activities yet in %s as of day %d", current.Period, current.Point.DayIndex),
		})
		return insights
	}
	if previous == nil {
		insights = append(insights, Insight{
			Type:    "milestone",
			Message: fmt.Sprintf("%s is the first period on record", current.Period),
		})
		return insights
	}

	insights = append(insights, changeInsight("activity count", float64(current.Point.Activities), float64(previous.Point.Activities), previous.Period))
	insights = append(insights, changeInsight("vertical", float64(current.Point.Elevation), float64(previous.Point.Elevation), previous.Period))
	insights = append(insights, changeInsight("time on snow", current.Point.Hours, previous.Point.Hours, previous.Period))
	return insights
}

func changeInsight(metric string, currentValue, previousValue float64, against string) Insight {
	if previousValue == 0 {
		return Insight{
			Type:    "achievement",
			Message: fmt.Sprintf("Your %s is up from nothing at this point in %s", metric, against),
		}
	}

	changePercent := ((currentValue - previousValue) / previousValue) * 100
	absChange := math.Abs(changePercent)

	switch {
	case absChange < 5:
		return Insight{
			Type:    "trend",
			Message: fmt.Sprintf("Your %s is level with %s (%.1f%% change)", metric, against, changePercent),
		}
	case changePercent > 0:
		intensity := "ahead of"
		if absChange > 20 {
			intensity = "well ahead of"
		}
		return Insight{
			Type:    "achievement",
			Message: fmt.Sprintf("Your %s is %s %s (%.1f%% more)", metric, intensity, against, absChange),
		}
	default:
		intensity := "behind"
		if absChange > 20 {
			intensity = "well behind"
		}
		return Insight{
			Type:    "warning",
			Message: fmt.Sprintf("Your %s is %s %s (%.1f%% less)", metric, intensity, against, absChange),
		}
	}
}

// SuggestNextActions returns follow-up tool calls for a tool's output
func SuggestNextActions(context string) []SuggestedAction {
	switch context {
	case "season_stats":
		return []SuggestedAction{
			{
				Tool:        "compare_progress",
				Description: "Line this season up against previous ones",
				Priority:    "high",
			},
			{
				Tool:        "list_locations",
				Description: "See which resorts and peaks visits are matched against",
				Priority:    "low",
			},
		}
	case "compare_progress":
		return []SuggestedAction{
			{
				Tool:        "get_season_stats",
				Description: "Get the full per-season breakdown",
				Priority:    "medium",
			},
		}
	}
	return []SuggestedAction{}
}
