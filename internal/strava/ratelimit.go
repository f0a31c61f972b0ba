package strava

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// rateLimitBuffer is the number of requests kept in reserve below each limit
const rateLimitBuffer = 5

// RateLimitInfo is the most restrictive view of Strava's rate-limit headers
type RateLimitInfo struct {
	Limit15Min    int
	Usage15Min    int
	LimitDaily    int
	UsageDaily    int
	IsRateLimited bool

	TimeUntil15MinReset time.Duration
	TimeUntilDailyReset time.Duration
	RecommendedWait     time.Duration
}

// timeUntilNext15MinWindow returns the wait until the next quarter hour
// (Strava resets the short window at :00, :15, :30 and :45 UTC) plus a
// two second margin.
func timeUntilNext15MinWindow(now time.Time) time.Duration {
	next := now.Truncate(15 * time.Minute).Add(15 * time.Minute)
	return next.Sub(now) + 2*time.Second
}

// timeUntilMidnightUTC returns the wait until the daily window resets plus a
// two second margin.
func timeUntilMidnightUTC(now time.Time) time.Duration {
	utc := now.UTC()
	midnight := time.Date(utc.Year(), utc.Month(), utc.Day()+1, 0, 0, 0, 0, time.UTC)
	return midnight.Sub(utc) + 2*time.Second
}

// ShouldWaitForRateLimit returns the recommended pause before the next request
func (info *RateLimitInfo) ShouldWaitForRateLimit() time.Duration {
	return info.RecommendedWait
}

// IsApproaching15MinLimit reports whether usage is within the buffer of the 15 minute limit
func (info *RateLimitInfo) IsApproaching15MinLimit() bool {
	return info.Limit15Min > 0 && info.Usage15Min >= info.Limit15Min-rateLimitBuffer
}

// IsApproachingDailyLimit reports whether usage is within the buffer of the daily limit
func (info *RateLimitInfo) IsApproachingDailyLimit() bool {
	return info.LimitDaily > 0 && info.UsageDaily >= info.LimitDaily-rateLimitBuffer
}

// recalculate refreshes the reset timers and the recommended wait for now
func (info *RateLimitInfo) recalculate(now time.Time) {
	info.TimeUntil15MinReset = timeUntilNext15MinWindow(now)
	info.TimeUntilDailyReset = timeUntilMidnightUTC(now)
	info.RecommendedWait = 0

	switch {
	case info.Limit15Min > 0 && info.Usage15Min >= info.Limit15Min:
		info.IsRateLimited = true
		info.RecommendedWait = info.TimeUntil15MinReset
	case info.LimitDaily > 0 && info.UsageDaily >= info.LimitDaily:
		info.IsRateLimited = true
		info.RecommendedWait = info.TimeUntilDailyReset
	case info.IsApproaching15MinLimit():
		info.RecommendedWait = info.TimeUntil15MinReset
	case info.IsApproachingDailyLimit():
		info.RecommendedWait = info.TimeUntilDailyReset
	}
}

// parsePair reads a "15min,daily" header value
func parsePair(v string) (short, daily int) {
	if v == "" {
		return 0, 0
	}
	parts := strings.Split(v, ",")
	short, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	if len(parts) > 1 {
		daily, _ = strconv.Atoi(strings.TrimSpace(parts[1]))
	}
	return short, daily
}

// minPositive returns the smaller of a and b, ignoring unset (<= 0) values
func minPositive(a, b int) int {
	switch {
	case a <= 0:
		return b
	case b <= 0:
		return a
	}
	return min(a, b)
}

// parseRateLimitHeaders merges the general X-RateLimit-* and the stricter
// X-ReadRateLimit-* headers: the lower limit and the higher usage win.
func parseRateLimitHeaders(headers http.Header, now time.Time) RateLimitInfo {
	limit15, limitDay := parsePair(headers.Get("X-RateLimit-Limit"))
	usage15, usageDay := parsePair(headers.Get("X-RateLimit-Usage"))
	readLimit15, readLimitDay := parsePair(headers.Get("X-ReadRateLimit-Limit"))
	readUsage15, readUsageDay := parsePair(headers.Get("X-ReadRateLimit-Usage"))

	info := RateLimitInfo{
		Limit15Min: minPositive(limit15, readLimit15),
		LimitDaily: minPositive(limitDay, readLimitDay),
		Usage15Min: max(usage15, readUsage15),
		UsageDaily: max(usageDay, readUsageDay),
	}
	info.recalculate(now)
	return info
}
