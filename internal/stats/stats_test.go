package stats

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/joshdurbin/strava-season-stats/internal/calendar"
	"github.com/joshdurbin/strava-season-stats/internal/geo"
)

func act(id int64, sportType, date string) Activity {
	return Activity{ID: id, Name: fmt.Sprintf("activity %d", id), SportType: sportType, StartDateLocal: date}
}

func TestScenarioTwoSports(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		{ID: 1, SportType: "Run", StartDateLocal: "2024-03-15T08:00:00Z", Distance: 8000, ElevationGain: 150, MovingTime: 2400, Calories: 500},
		{ID: 2, SportType: "Ride", StartDateLocal: "2024-05-10T08:00:00Z", Distance: 30000, ElevationGain: 500, MovingTime: 5400, Calories: 800},
	}

	groups, err := GroupBySport(activities)
	if err != nil {
		t.Fatalf("GroupBySport: %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	for _, g := range groups {
		if g.Stats.TotalActivities != 1 || g.Stats.TotalDays != 1 {
			t.Errorf("%s: activities=%d days=%d, want 1/1", g.Sport, g.Stats.TotalActivities, g.Stats.TotalDays)
		}
	}
	// equal counts keep first-appearance order
	if groups[0].Sport != "Run" || groups[1].Sport != "Ride" {
		t.Errorf("unexpected order %s, %s", groups[0].Sport, groups[1].Sport)
	}

	run := groups[0].Stats
	if run.TotalDistanceMiles != 5.0 || run.TotalElevationFeet != 492 || run.TotalTimeHours != 0.7 || run.TotalCalories != 500 {
		t.Errorf("unexpected run bucket %+v", run)
	}

	summary, err := NewBucket(activities, false)
	if err != nil {
		t.Fatalf("NewBucket: %v", err)
	}
	want := Bucket{
		TotalActivities:    2,
		TotalDays:          2,
		TotalDistanceMiles: 23.6,
		TotalElevationFeet: 2133,
		TotalTimeHours:     2.2,
		TotalCalories:      1300,
	}
	if summary.TotalActivities != want.TotalActivities ||
		summary.TotalDays != want.TotalDays ||
		summary.TotalDistanceMiles != want.TotalDistanceMiles ||
		summary.TotalElevationFeet != want.TotalElevationFeet ||
		summary.TotalTimeHours != want.TotalTimeHours ||
		summary.TotalCalories != want.TotalCalories {
		t.Errorf("summary = %+v, want %+v", summary, want)
	}
	if summary.Activities != nil {
		t.Error("expected no summaries when not requested")
	}
}

func TestNewBucketSummaries(t *testing.T) {
	t.Parallel()

	b, err := NewBucket([]Activity{
		{ID: 9, Name: "Pow day", SportType: "Snowboard", StartDateLocal: "2024-02-10T09:15:00Z", Distance: 10000, ElevationGain: 1000, MovingTime: 12345, Calories: 1234.6},
	}, true)
	if err != nil {
		t.Fatalf("NewBucket: %v", err)
	}
	if len(b.Activities) != 1 {
		t.Fatalf("expected 1 summary, got %d", len(b.Activities))
	}
	s := b.Activities[0]
	if s.ID != 9 || s.Name != "Pow day" || s.Date != "2024-02-10" {
		t.Errorf("unexpected summary identity %+v", s)
	}
	if s.Miles != 6.2 || s.ElevationFeet != 3281 || s.Hours != 3.43 || s.Calories != 1235 {
		t.Errorf("unexpected summary values %+v", s)
	}
}

func TestUniqueDaysUsesLocalDate(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Run", "2024-03-15T06:00:00-06:00"),
		act(2, "Ride", "2024-03-15T23:30:00-06:00"),
		act(3, "Run", "2024-03-16T07:00:00-06:00"),
		act(4, "Run", ""),
	}
	days, err := UniqueDays(activities)
	if err != nil {
		t.Fatalf("UniqueDays: %v", err)
	}
	if days != 2 {
		t.Errorf("UniqueDays = %d, want 2", days)
	}
}

func TestDatelessActivityCountedNotDated(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		{ID: 1, SportType: "Run", StartDateLocal: "2024-01-01T10:00:00Z", Distance: 1000},
		{ID: 2, SportType: "Run", Distance: 1000},
	}

	b, err := NewBucket(activities, true)
	if err != nil {
		t.Fatalf("NewBucket: %v", err)
	}
	if b.TotalActivities != 2 || b.TotalDays != 1 {
		t.Errorf("activities=%d days=%d, want 2/1", b.TotalActivities, b.TotalDays)
	}
	if b.Activities[1].Date != "" {
		t.Errorf("expected empty date for dateless activity, got %q", b.Activities[1].Date)
	}

	years, err := GroupByYear(activities)
	if err != nil {
		t.Fatalf("GroupByYear: %v", err)
	}
	if len(years) != 1 || years[0].Stats.TotalActivities != 1 {
		t.Errorf("expected the dateless activity to be skipped, got %+v", years)
	}
}

func TestMalformedDatePropagates(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Snowboard", "2024-01-15T09:00:00Z"),
		act(77, "Snowboard", "15/01/2024"),
	}

	if _, err := NewBucket(activities, false); !errors.Is(err, calendar.ErrMalformedDate) {
		t.Errorf("NewBucket err = %v, want ErrMalformedDate", err)
	}
	if _, err := GroupByWinterSeason(activities); !errors.Is(err, calendar.ErrMalformedDate) {
		t.Errorf("GroupByWinterSeason err = %v, want ErrMalformedDate", err)
	}
	_, err := ComputeAll(Context{Activities: activities, Now: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)})
	if !errors.Is(err, calendar.ErrMalformedDate) {
		t.Fatalf("ComputeAll err = %v, want ErrMalformedDate", err)
	}
	if want := "activity 77"; !strings.Contains(err.Error(), want) {
		t.Errorf("error %q does not name %q", err, want)
	}
}

func TestGroupBySportCounts(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Run", "2024-01-01"),
		act(2, "AlpineSki", "2024-01-02"),
		act(3, "Hike", "2024-01-03"),
		act(4, "AlpineSki", "2024-01-04"),
		act(5, "Run", "2024-01-05"),
		act(6, "Snowboard", "2024-01-06"),
		act(7, "Snowboard", "2024-01-07"),
		act(8, "Snowboard", "2024-01-08"),
	}

	groups, err := GroupBySport(activities)
	if err != nil {
		t.Fatalf("GroupBySport: %v", err)
	}

	wantOrder := []string{"Snowboard", "Run", "AlpineSki", "Hike"}
	if len(groups) != len(wantOrder) {
		t.Fatalf("expected %d groups, got %d", len(wantOrder), len(groups))
	}
	total := 0
	for i, g := range groups {
		if g.Sport != wantOrder[i] {
			t.Errorf("group %d = %s, want %s", i, g.Sport, wantOrder[i])
		}
		total += g.Stats.TotalActivities
	}
	if total != len(activities) {
		t.Errorf("sum of group counts = %d, want %d", total, len(activities))
	}
}

func TestGroupBySportSumsToCount(t *testing.T) {
	t.Parallel()

	sports := []string{"Run", "Ride", "Snowboard", "AlpineSki", "Hike", "Swim"}
	for n := 1; n <= 60; n += 7 {
		var activities []Activity
		for i := 0; i < n; i++ {
			date := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, i*11).Format("2006-01-02")
			activities = append(activities, act(int64(i), sports[(i*i+3*i)%len(sports)], date))
		}

		groups, err := GroupBySport(activities)
		if err != nil {
			t.Fatalf("GroupBySport: %v", err)
		}
		total := 0
		for _, g := range groups {
			total += g.Stats.TotalActivities
		}
		if total != n {
			t.Errorf("n=%d: sum of group counts = %d", n, total)
		}
	}
}

func TestGroupByYearAscending(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Run", "2024-06-01T07:00:00Z"),
		act(2, "Run", "2022-06-01T07:00:00Z"),
		act(3, "Ride", "2023-06-01T07:00:00Z"),
		act(4, "Run", "2022-12-31T23:00:00-07:00"),
	}

	years, err := GroupByYear(activities)
	if err != nil {
		t.Fatalf("GroupByYear: %v", err)
	}
	want := []int{2022, 2023, 2024}
	if len(years) != len(want) {
		t.Fatalf("expected %d years, got %d", len(want), len(years))
	}
	for i, y := range years {
		if y.Year != want[i] {
			t.Errorf("year %d = %d, want %d", i, y.Year, want[i])
		}
	}
	if years[0].Stats.TotalActivities != 2 {
		t.Errorf("2022 activities = %d, want 2", years[0].Stats.TotalActivities)
	}
}

func TestGroupBySportAndYearOrdering(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Run", "2024-06-01"),
		act(2, "Run", "2021-06-01"),
		act(3, "AlpineSki", "2023-01-10"),
		act(4, "Ride", "2024-07-01"),
		act(5, "AlpineSki", "2022-01-10"),
		act(6, "Run", "2023-06-01"),
	}

	groups, err := GroupBySportAndYear(activities)
	if err != nil {
		t.Fatalf("GroupBySportAndYear: %v", err)
	}

	wantSports := []string{"AlpineSki", "Ride", "Run"}
	if len(groups) != len(wantSports) {
		t.Fatalf("expected %d sports, got %d", len(wantSports), len(groups))
	}
	for i, g := range groups {
		if g.Sport != wantSports[i] {
			t.Errorf("sport %d = %s, want %s", i, g.Sport, wantSports[i])
		}
		for j := 1; j < len(g.Years); j++ {
			if g.Years[j-1].Year >= g.Years[j].Year {
				t.Errorf("%s years not strictly ascending: %d then %d", g.Sport, g.Years[j-1].Year, g.Years[j].Year)
			}
		}
	}
	if len(groups[2].Years) != 3 {
		t.Errorf("Run years = %d, want 3", len(groups[2].Years))
	}
}

func TestScenarioWinterSeasons(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Snowboard", "2024-01-15T09:00:00Z"),
		act(2, "Snowboard", "2023-12-15T09:00:00Z"),
		act(3, "Snowboard", "2024-09-15T09:00:00Z"),
		act(4, "Run", "2024-01-16T09:00:00Z"),
		act(5, "AlpineSki", "2023-12-20T09:00:00Z"),
	}

	seasons, err := GroupByWinterSeason(activities)
	if err != nil {
		t.Fatalf("GroupByWinterSeason: %v", err)
	}
	if len(seasons) != 2 {
		t.Fatalf("expected 2 seasons, got %d: %+v", len(seasons), seasons)
	}
	if seasons[0].Season != "2023-24" || seasons[1].Season != "2024-25" {
		t.Errorf("seasons = %s, %s", seasons[0].Season, seasons[1].Season)
	}

	first := seasons[0]
	if first.Stats.TotalActivities != 3 {
		t.Errorf("2023-24 activities = %d, want 3 (run excluded)", first.Stats.TotalActivities)
	}
	if len(first.BySport) != 2 || first.BySport[0].Sport != "Snowboard" || first.BySport[0].Stats.TotalActivities != 2 {
		t.Errorf("unexpected by-sport breakdown %+v", first.BySport)
	}
}

func testMatches() Matches {
	vail := geo.Resort{ID: 10, Name: "Vail", Type: geo.ResortTypeResort}
	berthoud := geo.Resort{ID: 20, Name: "Berthoud Pass", Type: geo.ResortTypeBackcountry}
	return Matches{
		Resorts: map[int64]geo.Resort{1: vail, 2: berthoud, 3: vail},
		Peaks:   map[int64]geo.Peak{2: {ID: 5, Name: "Quandary"}},
	}
}

func locationActivities() []Activity {
	activities := []Activity{
		act(1, "Snowboard", "2024-01-10"),
		act(2, "BackcountrySki", "2024-01-11"),
		act(3, "BackcountrySki", "2024-01-12"),
		act(4, "Snowshoe", "2024-01-13"),
		act(5, "BackcountrySki", "2024-01-14"),
		act(6, "BackcountrySki", "2024-01-15"),
		act(7, "AlpineSki", "2024-01-16"),
	}
	activities[3].LocationState = "Colorado"
	activities[4].LocationCountry = "Canada"
	return activities
}

func TestGroupByLocationResorts(t *testing.T) {
	t.Parallel()

	got, err := GroupByLocation(locationActivities(), testMatches(), LocationResort)
	if err != nil {
		t.Fatalf("GroupByLocation: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only Vail, got %+v", got)
	}
	if got[0].Name != "Vail" || got[0].Stats.TotalActivities != 2 {
		t.Errorf("unexpected resort group %+v", got[0])
	}
	if len(got[0].Stats.Activities) != 2 {
		t.Errorf("expected drill-down rows, got %d", len(got[0].Stats.Activities))
	}
}

func TestGroupByLocationBackcountryFallback(t *testing.T) {
	t.Parallel()

	got, err := GroupByLocation(locationActivities(), testMatches(), LocationBackcountry)
	if err != nil {
		t.Fatalf("GroupByLocation: %v", err)
	}

	want := []string{"Berthoud Pass", "Canada", "Colorado", UnknownRegion, "Vail area"}
	if len(got) != len(want) {
		t.Fatalf("expected %d regions, got %d: %+v", len(want), len(got), got)
	}
	for i, g := range got {
		if g.Name != want[i] {
			t.Errorf("region %d = %q, want %q", i, g.Name, want[i])
		}
	}
}

func TestGroupByLocationPeaks(t *testing.T) {
	t.Parallel()

	got, err := GroupByLocation(locationActivities(), testMatches(), LocationPeak)
	if err != nil {
		t.Fatalf("GroupByLocation: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Quandary" || got[0].Stats.TotalActivities != 1 {
		t.Errorf("unexpected peak groups %+v", got)
	}
}

func TestGroupByLocationOrdersByCountThenName(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Snowboard", "2024-01-01"),
		act(2, "Snowboard", "2024-01-02"),
		act(3, "Snowboard", "2024-01-03"),
		act(4, "Snowboard", "2024-01-04"),
	}
	m := Matches{Resorts: map[int64]geo.Resort{
		1: {Name: "Keystone"},
		2: {Name: "Breck"},
		3: {Name: "Keystone"},
		4: {Name: "Abasin"},
	}}

	got, err := GroupByLocation(activities, m, LocationResort)
	if err != nil {
		t.Fatalf("GroupByLocation: %v", err)
	}
	want := []string{"Keystone", "Abasin", "Breck"}
	for i, g := range got {
		if g.Name != want[i] {
			t.Errorf("location %d = %s, want %s", i, g.Name, want[i])
		}
	}
}

func TestLocationsBySeason(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Snowboard", "2023-01-10"),
		act(2, "Snowboard", "2024-01-10"),
		act(3, "Snowboard", "2024-02-10"),
	}
	m := Matches{Resorts: map[int64]geo.Resort{1: {Name: "Vail"}, 3: {Name: "Vail"}}}

	got, err := LocationsBySeason(activities, m, LocationResort)
	if err != nil {
		t.Fatalf("LocationsBySeason: %v", err)
	}
	if len(got) != 2 || got[0].Season != "2022-23" || got[1].Season != "2023-24" {
		t.Fatalf("unexpected seasons %+v", got)
	}
	if got[1].Locations[0].Stats.TotalActivities != 1 {
		t.Errorf("2023-24 Vail activities = %d, want 1", got[1].Locations[0].Stats.TotalActivities)
	}

	none, err := LocationsBySeason(activities, Matches{}, LocationPeak)
	if err != nil {
		t.Fatalf("LocationsBySeason: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("expected empty non-nil result, got %v", none)
	}
}

func TestCumulativeSeries(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		{ID: 3, SportType: "Run", StartDateLocal: "2024-01-02T17:00:00Z", Distance: 1609.34, MovingTime: 1800},
		{ID: 1, SportType: "Run", StartDateLocal: "2024-01-01T08:00:00Z", Distance: 1609.34, MovingTime: 1800},
		{ID: 2, SportType: "Run", StartDateLocal: "2024-01-02T07:00:00Z", Distance: 1609.34, MovingTime: 1800},
	}

	series, err := CumulativeSeries(activities, calendar.DayOfYear)
	if err != nil {
		t.Fatalf("CumulativeSeries: %v", err)
	}
	if len(series) != 3 {
		t.Fatalf("expected one point per activity, got %d", len(series))
	}

	wantDays := []int{1, 2, 2}
	for i, p := range series {
		if p.DayIndex != wantDays[i] {
			t.Errorf("point %d day = %d, want %d", i, p.DayIndex, wantDays[i])
		}
		if p.Activities != i+1 {
			t.Errorf("point %d activities = %d, want %d", i, p.Activities, i+1)
		}
		if i > 0 && p.Miles < series[i-1].Miles {
			t.Errorf("miles decreased at point %d", i)
		}
	}
	if series[0].DateLabel != "Jan 1" || series[2].DateLabel != "Jan 2" {
		t.Errorf("labels = %q, %q", series[0].DateLabel, series[2].DateLabel)
	}
	if series[2].Miles != 3.0 || series[2].Hours != 1.5 {
		t.Errorf("final totals miles=%v hours=%v", series[2].Miles, series[2].Hours)
	}
}

func TestSampleAt(t *testing.T) {
	t.Parallel()

	series := []CumulativePoint{
		{DayIndex: 5, Activities: 1},
		{DayIndex: 9, Activities: 2},
		{DayIndex: 9, Activities: 3},
		{DayIndex: 20, Activities: 4},
	}

	tests := []struct {
		day     int
		want    int
		started bool
	}{
		{0, 0, false},
		{4, 0, false},
		{5, 1, true},
		{8, 1, true},
		{9, 3, true},
		{19, 3, true},
		{365, 4, true},
	}
	for _, tt := range tests {
		got, ok := SampleAt(series, tt.day)
		if ok != tt.started || got.Activities != tt.want {
			t.Errorf("SampleAt(%d) = (%d, %v), want (%d, %v)", tt.day, got.Activities, ok, tt.want, tt.started)
		}
	}

	if _, ok := SampleAt(nil, 10); ok {
		t.Error("expected empty series to be unstarted")
	}
}

func TestScenarioCurrentYearAlwaysAvailable(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Run", "2022-04-01T07:00:00Z"),
		act(2, "Run", "2023-04-01T07:00:00Z"),
		act(3, "Run", "2023-05-01T07:00:00Z"),
	}
	c := Context{Activities: activities, Now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}

	bySportYear, err := GroupBySportAndYear(activities)
	if err != nil {
		t.Fatalf("GroupBySportAndYear: %v", err)
	}
	cmps, err := YearComparisons(c, bySportYear)
	if err != nil {
		t.Fatalf("YearComparisons: %v", err)
	}

	run, ok := cmps["Run"]
	if !ok {
		t.Fatal("expected Run comparison")
	}
	want := []int{2022, 2023, 2024}
	if len(run.AvailableYears) != len(want) {
		t.Fatalf("available years = %v, want %v", run.AvailableYears, want)
	}
	for i := range want {
		if run.AvailableYears[i] != want[i] {
			t.Errorf("available years = %v, want %v", run.AvailableYears, want)
		}
	}
	if run.CurrentYear != 2024 {
		t.Errorf("current year = %d", run.CurrentYear)
	}
	if b := run.Stats[2024]; b.TotalActivities != 0 || b.TotalDistanceMiles != 0 {
		t.Errorf("expected zero bucket for 2024, got %+v", b)
	}
	if s := run.Series[2024]; s == nil || len(s) != 0 {
		t.Errorf("expected empty non-nil 2024 series, got %v", s)
	}
	if len(run.Series[2023]) != 2 {
		t.Errorf("2023 series points = %d, want 2", len(run.Series[2023]))
	}
}

func TestSeasonComparisonsAndProgress(t *testing.T) {
	t.Parallel()

	activities := []Activity{
		act(1, "Snowboard", "2022-12-10T09:00:00Z"),
		act(2, "Snowboard", "2023-01-05T09:00:00Z"),
		act(3, "Snowboard", "2023-12-20T09:00:00Z"),
		act(4, "Run", "2023-12-21T09:00:00Z"),
	}
	c := Context{Activities: activities, Now: time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC)}

	b, err := ComputeAll(c)
	if err != nil {
		t.Fatalf("ComputeAll: %v", err)
	}

	sb, ok := b.SeasonComparisons["Snowboard"]
	if !ok {
		t.Fatal("expected Snowboard season comparison")
	}
	if _, ok := b.SeasonComparisons["Run"]; ok {
		t.Error("runs are not winter sports")
	}
	wantSeasons := []string{"2022-23", "2023-24", "2024-25"}
	if fmt.Sprint(sb.AvailableSeasons) != fmt.Sprint(wantSeasons) {
		t.Errorf("available seasons = %v, want %v", sb.AvailableSeasons, wantSeasons)
	}

	first := sb.Series["2022-23"]
	if len(first) != 2 || first[0].DayIndex != 100 || first[1].DayIndex != 126 {
		t.Errorf("unexpected 2022-23 series %+v", first)
	}

	samples, err := b.CompareProgress(CompareSeasons, "Snowboard", 110)
	if err != nil {
		t.Fatalf("CompareProgress: %v", err)
	}
	if len(samples) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(samples))
	}
	if !samples[0].Started || samples[0].Point.Activities != 1 {
		t.Errorf("2022-23 sample %+v", samples[0])
	}
	if !samples[1].Started || samples[1].Point.Activities != 1 {
		t.Errorf("2023-24 sample %+v", samples[1])
	}
	if samples[2].Started || !samples[2].Current {
		t.Errorf("2024-25 sample %+v", samples[2])
	}

	if _, err := b.CompareProgress(CompareYears, "Kitesurf", 10); !errors.Is(err, ErrUnknownSport) {
		t.Errorf("unknown sport err = %v", err)
	}
	if _, err := b.CompareProgress("decades", "Run", 10); !errors.Is(err, ErrUnknownComparison) {
		t.Errorf("unknown kind err = %v", err)
	}
}

func TestComputeAllEmpty(t *testing.T) {
	t.Parallel()

	b, err := ComputeAll(Context{Now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)})
	if err != nil {
		t.Fatalf("ComputeAll: %v", err)
	}
	if b.Summary.TotalActivities != 0 {
		t.Errorf("summary = %+v", b.Summary)
	}
	if b.BySport == nil || b.ByYear == nil || b.BySportAndYear == nil || b.ByWinterSeason == nil {
		t.Error("expected non-nil groupings")
	}
	if b.ResortsBySeason == nil || b.BackcountryBySeason == nil || b.PeaksBySeason == nil {
		t.Error("expected non-nil location views")
	}
	if b.YearComparisons == nil || b.SeasonComparisons == nil {
		t.Error("expected non-nil comparison maps")
	}
	if !b.GeneratedAt.Equal(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("GeneratedAt = %v", b.GeneratedAt)
	}
}

func TestBundleSection(t *testing.T) {
	t.Parallel()

	b, err := ComputeAll(Context{Activities: []Activity{act(1, "Run", "2024-01-01")}, Now: time.Now()})
	if err != nil {
		t.Fatalf("ComputeAll: %v", err)
	}
	for _, name := range Sections() {
		if _, ok := b.Section(name); !ok {
			t.Errorf("section %q not served", name)
		}
	}
	if _, ok := b.Section("nope"); ok {
		t.Error("expected unknown section to be rejected")
	}
	got, _ := b.Section(SectionSummary)
	if got.(Bucket).TotalActivities != 1 {
		t.Errorf("summary section = %+v", got)
	}
}
