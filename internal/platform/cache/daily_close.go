package cache

import "time"

// TimeUntilNextDailyClose returns the time left until the next 00:00 UTC,
// when exchanges roll the daily candle over.
func TimeUntilNextDailyClose(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)
	return next.Sub(now)
}
