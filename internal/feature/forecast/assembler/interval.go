package assembler

import (
	"fmt"
	"strconv"
	"time"
)

// NextIntervalTime returns t advanced by one kline interval such as "15m",
// "4h", "1d", "1w" or "1M".
func NextIntervalTime(t time.Time, interval string) (time.Time, error) {
	if len(interval) < 2 {
		return time.Time{}, fmt.Errorf("invalid interval %q", interval)
	}
	n, err := strconv.Atoi(interval[:len(interval)-1])
	if err != nil || n <= 0 {
		return time.Time{}, fmt.Errorf("invalid interval %q", interval)
	}
	switch interval[len(interval)-1] {
	case 's':
		return t.Add(time.Duration(n) * time.Second), nil
	case 'm':
		return t.Add(time.Duration(n) * time.Minute), nil
	case 'h':
		return t.Add(time.Duration(n) * time.Hour), nil
	case 'd':
		return t.AddDate(0, 0, n), nil
	case 'w':
		return t.AddDate(0, 0, 7*n), nil
	case 'M':
		return t.AddDate(0, n, 0), nil
	}
	return time.Time{}, fmt.Errorf("invalid interval %q", interval)
}
