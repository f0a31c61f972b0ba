package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/joshdurbin/strava-season-stats/internal/db"
	"github.com/joshdurbin/strava-season-stats/internal/geo"
	"github.com/joshdurbin/strava-season-stats/internal/logging"
	"github.com/joshdurbin/strava-season-stats/internal/matcher"
	"github.com/spf13/cobra"
)

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Manage the resort and peak catalogue",
}

var locationsImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Upsert resorts and peaks from a JSON file, then rematch activities",
	Long: `Upsert resorts and peaks by name from a JSON file of the form

  {
    "resorts": [{"name": "Vail", "lat": 39.6403, "lng": -106.3742, "radius_km": 5, "resort_type": "resort"}],
    "peaks":   [{"name": "Quandary Peak", "lat": 39.3972, "lng": -106.1064, "elevation_m": 4348}]
  }

Locations already in the database but missing from the file are kept. Every
activity is rematched once the import commits.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("opening catalogue: %w", err)
		}
		defer f.Close()

		cat, err := parseCatalogue(f)
		if err != nil {
			return err
		}

		sqlDB, err := openDatabase(ctx, dbPath)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		if err := importCatalogue(ctx, sqlDB, cat); err != nil {
			return err
		}
		res, err := matcher.RunInTx(ctx, sqlDB)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Imported %d resorts and %d peaks; %d resort and %d peak matches across %d activities.\n",
			len(cat.Resorts), len(cat.Peaks), res.ResortMatches, res.PeakMatches, res.Activities)
		return nil
	},
}

var locationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the resort and peak catalogue",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		sqlDB, err := openDatabase(ctx, dbPath)
		if err != nil {
			return err
		}
		defer sqlDB.Close()

		return listLocations(ctx, db.New(sqlDB), cmd.OutOrStdout())
	},
}

func init() {
	locationsCmd.AddCommand(locationsImportCmd, locationsListCmd)
}

// CatalogueResort is one resort entry in an import file
type CatalogueResort struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	RadiusKm   float64 `json:"radius_km,omitempty"`
	ResortType string  `json:"resort_type,omitempty"`
	State      string  `json:"state,omitempty"`
	Country    string  `json:"country,omitempty"`
}

// CataloguePeak is one peak entry in an import file
type CataloguePeak struct {
	Name       string  `json:"name"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	RadiusKm   float64 `json:"radius_km,omitempty"`
	ElevationM float64 `json:"elevation_m,omitempty"`
	State      string  `json:"state,omitempty"`
	Country    string  `json:"country,omitempty"`
}

// Catalogue is the locations import file
type Catalogue struct {
	Resorts []CatalogueResort `json:"resorts"`
	Peaks   []CataloguePeak   `json:"peaks"`
}

// parseCatalogue decodes and validates an import file. A missing resort type
// defaults to resort.
func parseCatalogue(r io.Reader) (Catalogue, error) {
	var cat Catalogue
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cat); err != nil {
		return Catalogue{}, fmt.Errorf("decoding catalogue: %w", err)
	}

	var errs []error
	for i := range cat.Resorts {
		res := &cat.Resorts[i]
		if res.ResortType == "" {
			res.ResortType = string(geo.ResortTypeResort)
		}
		if err := validateLocation(res.Name, res.Lat, res.Lng, res.RadiusKm); err != nil {
			errs = append(errs, fmt.Errorf("resort %d: %w", i, err))
		}
		switch geo.ResortType(res.ResortType) {
		case geo.ResortTypeResort, geo.ResortTypeBackcountry:
		default:
			errs = append(errs, fmt.Errorf("resort %d: unknown resort_type %q", i, res.ResortType))
		}
	}
	for i, p := range cat.Peaks {
		if err := validateLocation(p.Name, p.Lat, p.Lng, p.RadiusKm); err != nil {
			errs = append(errs, fmt.Errorf("peak %d: %w", i, err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return Catalogue{}, fmt.Errorf("invalid catalogue: %w", err)
	}
	return cat, nil
}

func validateLocation(name string, lat, lng, radiusKm float64) error {
	switch {
	case name == "":
		return errors.New("name is required")
	case lat < -90 || lat > 90:
		return fmt.Errorf("%s: latitude %v out of range", name, lat)
	case lng < -180 || lng > 180:
		return fmt.Errorf("%s: longitude %v out of range", name, lng)
	case radiusKm < 0:
		return fmt.Errorf("%s: negative radius_km", name)
	}
	return nil
}

// importCatalogue upserts every location in one transaction
func importCatalogue(ctx context.Context, sqlDB *sql.DB, cat Catalogue) error {
	tx, err := sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	q := db.New(sqlDB).WithTx(tx)

	for _, r := range cat.Resorts {
		id, err := q.UpsertResort(ctx, db.UpsertResortParams{
			Name:       r.Name,
			Latitude:   r.Lat,
			Longitude:  r.Lng,
			RadiusKm:   optionalFloat(r.RadiusKm),
			ResortType: r.ResortType,
			State:      optionalString(r.State),
			Country:    optionalString(r.Country),
		})
		if err != nil {
			return fmt.Errorf("upserting resort %q: %w", r.Name, err)
		}
		logging.Debug("resort upserted", "id", id, "name", r.Name)
	}

	for _, p := range cat.Peaks {
		id, err := q.UpsertPeak(ctx, db.UpsertPeakParams{
			Name:       p.Name,
			Latitude:   p.Lat,
			Longitude:  p.Lng,
			RadiusKm:   optionalFloat(p.RadiusKm),
			ElevationM: optionalFloat(p.ElevationM),
			State:      optionalString(p.State),
			Country:    optionalString(p.Country),
		})
		if err != nil {
			return fmt.Errorf("upserting peak %q: %w", p.Name, err)
		}
		logging.Debug("peak upserted", "id", id, "name", p.Name)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing catalogue: %w", err)
	}
	logging.Info("location catalogue imported", "resorts", len(cat.Resorts), "peaks", len(cat.Peaks))
	return nil
}

// zero means unset, matching how radii are stored
func optionalFloat(v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: v != 0}
}

func optionalString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

type locationLister interface {
	ListResorts(ctx context.Context) ([]db.Resort, error)
	ListPeaks(ctx context.Context) ([]db.Peak, error)
}

func listLocations(ctx context.Context, q locationLister, w io.Writer) error {
	resorts, err := q.ListResorts(ctx)
	if err != nil {
		return fmt.Errorf("listing resorts: %w", err)
	}
	peaks, err := q.ListPeaks(ctx)
	if err != nil {
		return fmt.Errorf("listing peaks: %w", err)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tNAME\tLAT\tLNG\tRADIUS_KM")
	for _, r := range resorts {
		loc := r.ToGeo()
		fmt.Fprintf(tw, "%s\t%s\t%.4f\t%.4f\t%.1f\n", loc.Type, loc.Name, loc.Point.Lat, loc.Point.Lng, geo.EffectiveRadius(loc))
	}
	for _, p := range peaks {
		loc := p.ToGeo()
		fmt.Fprintf(tw, "peak\t%s\t%.4f\t%.4f\t%.1f\n", loc.Name, loc.Point.Lat, loc.Point.Lng, geo.EffectiveRadius(loc))
	}
	return tw.Flush()
}
