package cmd

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/stats"
	"github.com/spf13/cobra"
)

var statsSection string

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print the statistics report as JSON",
	Long: `Print the statistics report computed from the local database as indented JSON.

Use --section to print a single part of the report. Sections: ` + strings.Join(stats.Sections(), ", "),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sqlDB, err := openDatabase(ctx, dbPath)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		b, err := stats.Build(ctx, db.New(sqlDB), time.Now())
		if err != nil {
			return fmt.Errorf("building statistics: %w", err)
		}

		var out any = b
		if statsSection != "" {
			section, ok := b.Section(statsSection)
			if !ok {
				return fmt.Errorf("unknown section %q (want one of %s)", statsSection, strings.Join(stats.Sections(), ", "))
			}
			out = section
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsSection, "section", "", "print only this section of the report")
}
