package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/spf13/cobra"
)

var (
	verbosity            int
	logFormat            string
	dbPath               string
	mcpPort              int
	reportPort           int
	syncInterval         time.Duration
	tokenRefreshInterval time.Duration
	noSync               bool
	forceReauth          bool
)

var rootCmd = &cobra.Command{
	Use:   "strava-season-stats",
	Short: "Winter season statistics from your Strava activities",
	Long: `strava-season-stats syncs your Strava activities to a local SQLite database,
matches ski and snowboard days against known resorts and backcountry peaks, and
serves per-season statistics over the Model Context Protocol (MCP) and an
optional JSON report API.

The server runs with:
- Automatic authentication via OAuth (prompts on first run)
- Background token refresh to keep authentication valid
- Periodic activity sync from Strava, followed by location matching
- MCP server for AI tool access
- Report API for dashboards (--report-port)

On first run, you will be prompted for your Strava API credentials.
Get these from https://www.strava.com/settings/api

Use --force-reauth to re-enter credentials and re-authenticate.
`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		format, err := logging.ParseFormat(logFormat)
		if err != nil {
			return err
		}
		logging.Setup(logging.Level(verbosity), format)
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		rtCfg := &RuntimeConfig{
			DBPath:               dbPath,
			MCPPort:              mcpPort,
			ReportPort:           reportPort,
			SyncInterval:         syncInterval,
			TokenRefreshInterval: tokenRefreshInterval,
			NoSync:               noSync,
			ForceReauth:          forceReauth,
		}

		return Run(cmd.Context(), rtCfg)
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase verbosity (-v for debug, -vv for trace with HTTP headers)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "log output format: console or json")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "strava_activities.db", "path to SQLite database file")

	rootCmd.Flags().IntVarP(&mcpPort, "port", "p", 8080, "MCP server port (0 for stdio mode)")
	rootCmd.Flags().IntVar(&reportPort, "report-port", 0, "report API port (0 to disable)")
	rootCmd.Flags().DurationVar(&syncInterval, "sync-interval", 15*time.Minute, "interval between activity syncs")
	rootCmd.Flags().DurationVar(&tokenRefreshInterval, "token-refresh-interval", 30*time.Minute, "interval between token refresh checks")
	rootCmd.Flags().BoolVar(&noSync, "no-sync", false, "serve existing data only without Strava API sync (offline mode)")
	rootCmd.Flags().BoolVar(&forceReauth, "force-reauth", false, "force OAuth re-authentication, clearing existing tokens")

	rootCmd.AddCommand(authCmd, matchCmd, statsCmd, locationsCmd)
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
