package units

import (
	"math"
	"testing"
)

func TestMiles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		meters float64
		want   float64
	}{
		{0, 0},
		{10000, 6.2},
		{8000, 5.0},
		{30000, 18.6},
		{1609.344, 1.0},
	}

	for _, tc := range tests {
		if got := Miles(tc.meters); got != tc.want {
			t.Errorf("Miles(%v) = %v, want %v", tc.meters, got, tc.want)
		}
	}
}

func TestMilesRoundTrip(t *testing.T) {
	t.Parallel()

	raw := 10000 * MetersToMiles
	if math.Abs(raw-6.21371) > 1e-9 {
		t.Errorf("10000m raw = %v, want 6.21371", raw)
	}
	back := raw / MetersToMiles
	if math.Abs(back-10000) > 1e-6 {
		t.Errorf("round trip = %v, want 10000", back)
	}
}

func TestFeet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		meters float64
		want   int64
	}{
		{0, 0},
		{150, 492},
		{500, 1640},
		{1000, 3281},
	}

	for _, tc := range tests {
		if got := Feet(tc.meters); got != tc.want {
			t.Errorf("Feet(%v) = %d, want %d", tc.meters, got, tc.want)
		}
	}
}

func TestHours(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		seconds  int64
		summary  float64
		activity float64
	}{
		{"zero", 0, 0, 0},
		{"forty minutes", 2400, 0.7, 0.67},
		{"ninety minutes", 5400, 1.5, 1.5},
		{"one hour", 3600, 1.0, 1.0},
		{"odd seconds", 4000, 1.1, 1.11},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Hours(tt.seconds); got != tt.summary {
				t.Errorf("Hours(%d) = %v, want %v", tt.seconds, got, tt.summary)
			}
			if got := ActivityHours(tt.seconds); got != tt.activity {
				t.Errorf("ActivityHours(%d) = %v, want %v", tt.seconds, got, tt.activity)
			}
		})
	}
}

func TestCalories(t *testing.T) {
	t.Parallel()

	if got := Calories(499.5); got != 500 {
		t.Errorf("Calories(499.5) = %d, want 500", got)
	}
	if got := Calories(0); got != 0 {
		t.Errorf("Calories(0) = %d, want 0", got)
	}
}

func TestSumThenConvert(t *testing.T) {
	t.Parallel()

	// Three 0.06 mile segments: converting each first rounds to 0.1+0.1+0.1.
	segment := 0.06 / MetersToMiles
	perActivity := Miles(segment) + Miles(segment) + Miles(segment)
	aggregate := Miles(segment * 3)

	if aggregate != 0.2 {
		t.Errorf("aggregate = %v, want 0.2", aggregate)
	}
	if perActivity == aggregate {
		t.Errorf("expected per-activity rounding to differ from aggregate, both %v", aggregate)
	}
}
