// Package sport classifies Strava sport_type tags.
package sport

// Strava sport_type tags used for classification. Matching is exact and
// case-sensitive.
const (
	Snowboard      = "Snowboard"
	AlpineSki      = "AlpineSki"
	BackcountrySki = "BackcountrySki"
	NordicSki      = "NordicSki"
	Snowshoe       = "Snowshoe"
)

var winter = map[string]struct{}{
	Snowboard:      {},
	AlpineSki:      {},
	BackcountrySki: {},
	NordicSki:      {},
	Snowshoe:       {},
}

var backcountry = map[string]struct{}{
	BackcountrySki: {},
	Snowshoe:       {},
}

// IsWinter reports whether tag is a winter sport (resort matching, season rollups)
func IsWinter(tag string) bool {
	_, ok := winter[tag]
	return ok
}

// IsBackcountry reports whether tag is a backcountry sport (peak matching, region rollups)
func IsBackcountry(tag string) bool {
	_, ok := backcountry[tag]
	return ok
}

// Winter returns the winter sport tags in a stable order
func Winter() []string {
	return []string{Snowboard, AlpineSki, BackcountrySki, NordicSki, Snowshoe}
}

// Backcountry returns the backcountry sport tags in a stable order
func Backcountry() []string {
	return []string{BackcountrySki, Snowshoe}
}
