package cmd

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/auth"
	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/joshdurbin/strava-season-stats/internal/report"
	"github.com/joshdurbin/strava-season-stats/internal/server"
	"github.com/joshdurbin/strava-season-stats/internal/strava"
	"github.com/joshdurbin/strava-season-stats/internal/workers"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/sync/errgroup"
)

// RuntimeConfig holds all runtime configuration from CLI flags
type RuntimeConfig struct {
	DBPath               string
	MCPPort              int
	ReportPort           int
	SyncInterval         time.Duration
	TokenRefreshInterval time.Duration
	NoSync               bool
	ForceReauth          bool
}

// Run is the main entry point for the unified run mode. It returns once ctx
// is cancelled and every worker has stopped.
func Run(ctx context.Context, cfg *RuntimeConfig) error {
	log := logging.Logger

	log.Info().
		Str("db_path", cfg.DBPath).
		Int("mcp_port", cfg.MCPPort).
		Int("report_port", cfg.ReportPort).
		Bool("no_sync", cfg.NoSync).
		Dur("sync_interval", cfg.SyncInterval).
		Dur("token_refresh_interval", cfg.TokenRefreshInterval).
		Msg("starting strava-season-stats")

	sqlDB, err := openDatabase(ctx, cfg.DBPath)
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	queries := db.New(sqlDB)
	workers.LogDatabaseStats(ctx, queries)

	g, gCtx := errgroup.WithContext(ctx)

	if !cfg.NoSync {
		storage := auth.NewStorage(queries)

		accessToken, err := ensureAuthenticated(ctx, storage, cfg.ForceReauth)
		if err != nil {
			return fmt.Errorf("authentication: %w", err)
		}

		// rate limiting is handled by waiting for window resets
		pipeline := workers.NewPipeline(sqlDB, strava.DefaultRetryConfig())

		if err := workers.SyncOnce(ctx, pipeline, accessToken); err != nil {
			log.Warn().Err(err).Msg("initial sync failed")
			// the background syncer retries
		}
		workers.LogDatabaseStats(ctx, queries)

		log.Info().Msg("starting background workers")

		tokenRefresher := workers.NewTokenRefresher(storage, cfg.TokenRefreshInterval)
		g.Go(func() error {
			tokenRefresher.Run(gCtx)
			return nil
		})

		activitySyncer := workers.NewActivitySyncer(pipeline, storage, cfg.SyncInterval)
		g.Go(func() error {
			activitySyncer.Run(gCtx)
			return nil
		})
	} else {
		log.Info().Msg("running in offline mode (--no-sync), skipping Strava API sync")
	}

	if cfg.ReportPort > 0 {
		handler := report.NewHandler(queries)
		g.Go(func() error {
			return report.Serve(gCtx, cfg.ReportPort, handler)
		})
	}

	srv := server.New(queries)
	g.Go(func() error {
		if cfg.MCPPort > 0 {
			return runHTTPServer(gCtx, srv.MCPServer(), cfg.MCPPort)
		}
		log.Info().Msg("MCP server running via stdio")
		return srv.Run(gCtx)
	})

	log.Info().Msg("waiting for workers to shut down")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("all workers shut down gracefully")
	return nil
}

// openDatabase opens and migrates the database, refusing to continue when
// another instance holds it
func openDatabase(ctx context.Context, path string) (*sql.DB, error) {
	logging.Logger.Info().Str("path", path).Msg("opening database")

	sqlDB, err := db.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := checkDatabaseLock(ctx, sqlDB); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return sqlDB, nil
}

// runHTTPServer runs the MCP server over HTTP/SSE
func runHTTPServer(ctx context.Context, mcpServer *mcp.Server, port int) error {
	log := logging.Logger

	handler := mcp.NewSSEHandler(func(r *http.Request) *mcp.Server {
		return mcpServer
	}, nil)

	addr := fmt.Sprintf(":%d", port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", addr).
			Str("endpoint", fmt.Sprintf("http://localhost%s", addr)).
			Msg("MCP server running via HTTP/SSE")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down MCP HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("MCP HTTP server: %w", err)
	}
}

// checkDatabaseLock verifies no other process has the database locked
func checkDatabaseLock(ctx context.Context, sqlDB *sql.DB) error {
	if _, err := sqlDB.ExecContext(ctx, "PRAGMA locking_mode=EXCLUSIVE"); err != nil {
		return fmt.Errorf("another instance may be running (database locked): %w", err)
	}

	// the pragma only takes effect once a lock is actually acquired
	if _, err := sqlDB.ExecContext(ctx, "BEGIN EXCLUSIVE"); err != nil {
		if strings.Contains(err.Error(), "locked") || strings.Contains(err.Error(), "busy") {
			return errors.New("another instance is already running (database is locked)")
		}
		return fmt.Errorf("checking database lock: %w", err)
	}
	if _, err := sqlDB.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("releasing lock check: %w", err)
	}

	logging.Logger.Debug().Msg("database lock check passed")
	return nil
}
