package cmd

import (
	"encoding/json"

	"github.com/joshdurbin/strava-season-stats/internal/matcher"
	"github.com/spf13/cobra"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Rematch every activity against the resort and peak catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sqlDB, err := openDatabase(ctx, dbPath)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		res, err := matcher.RunInTx(ctx, sqlDB)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	},
}
