package workers

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/joshdurbin/strava-season-stats/internal/matcher"
	"github.com/joshdurbin/strava-season-stats/internal/strava"
	syncsvc "github.com/joshdurbin/strava-season-stats/internal/sync"
)

// Client is the Strava API surface a sync pass uses
type Client interface {
	syncsvc.Fetcher
	WaitForRateLimit(ctx context.Context) error
	GetRateLimit() strava.RateLimitInfo
}

// ClientFactory builds a Client for an access token
type ClientFactory func(accessToken string) Client

// Outcome summarizes one sync pass
type Outcome struct {
	Delta   bool
	Since   time.Time
	Saved   int
	Match   *matcher.Result // nil when nothing new was saved
	Elapsed time.Duration
}

// Pipeline fetches new activities, stores them and rematches locations
type Pipeline struct {
	sqlDB     *sql.DB
	queries   *db.Queries
	newClient ClientFactory
}

// NewPipeline creates a pipeline backed by the Strava API
func NewPipeline(sqlDB *sql.DB, retryConfig strava.RetryConfig) *Pipeline {
	return &Pipeline{
		sqlDB:   sqlDB,
		queries: db.New(sqlDB),
		newClient: func(accessToken string) Client {
			return strava.NewClientWithRetryConfig(accessToken, retryConfig)
		},
	}
}

// WithClientFactory overrides how API clients are built
func (p *Pipeline) WithClientFactory(fn ClientFactory) *Pipeline {
	p.newClient = fn
	return p
}

// latestStart returns the newest stored start_date, zero when none is stored
func (p *Pipeline) latestStart(ctx context.Context) (time.Time, error) {
	latest, err := p.queries.GetLatestActivityDate(ctx)
	if err != nil {
		return time.Time{}, err
	}
	if !latest.Valid {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339, latest.String)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing latest start date %q: %w", latest.String, err)
	}
	return t, nil
}

// Run performs one pass: a delta fetch when activities are already stored,
// a full fetch otherwise, then a rematch when anything new arrived.
func (p *Pipeline) Run(ctx context.Context, accessToken string) (Outcome, error) {
	log := logging.Logger
	started := time.Now()

	client := p.newClient(accessToken)
	if err := client.WaitForRateLimit(ctx); err != nil {
		return Outcome{}, fmt.Errorf("waiting for rate limit: %w", err)
	}

	since, err := p.latestStart(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to get latest activity date, doing full sync")
	}

	progress := func(result strava.FetchResult) {
		rl := result.RateLimit
		ev := log.Debug()
		if rl.IsRateLimited {
			ev = log.Info()
		}
		ev.Int("page", result.Page).
			Int("activities_on_page", len(result.Activities)).
			Int("total_fetched", result.TotalFetched).
			Str("15min_usage", fmt.Sprintf("%d/%d", rl.Usage15Min, rl.Limit15Min)).
			Str("daily_usage", fmt.Sprintf("%d/%d", rl.UsageDaily, rl.LimitDaily)).
			Msg("activity sync progress")
	}

	svc := syncsvc.NewService(p.queries, client)
	out := Outcome{Delta: !since.IsZero(), Since: since}
	if out.Delta {
		log.Info().Str("since", since.Format(time.RFC3339)).Msg("performing delta sync")
		out.Saved, err = svc.SyncDelta(ctx, since, progress, nil)
	} else {
		log.Info().Msg("performing full sync")
		out.Saved, err = svc.Sync(ctx, progress, nil)
	}
	if err != nil {
		return out, err
	}

	if out.Saved > 0 {
		res, err := matcher.RunInTx(ctx, p.sqlDB)
		if err != nil {
			return out, fmt.Errorf("rematching locations: %w", err)
		}
		out.Match = &res
	}
	out.Elapsed = time.Since(started)

	rl := client.GetRateLimit()
	log.Info().
		Int("saved", out.Saved).
		Bool("delta", out.Delta).
		Str("15min_usage", fmt.Sprintf("%d/%d", rl.Usage15Min, rl.Limit15Min)).
		Str("daily_usage", fmt.Sprintf("%d/%d", rl.UsageDaily, rl.LimitDaily)).
		Dur("elapsed", out.Elapsed).
		Msg("activity sync completed")
	return out, nil
}

// SyncOnce performs a single pass (used for the initial sync on startup)
func SyncOnce(ctx context.Context, p *Pipeline, accessToken string) error {
	logging.Logger.Info().Msg("performing initial sync")
	_, err := p.Run(ctx, accessToken)
	return err
}
