package types

import (
	"fmt"
	"time"
)

// TimeframeDuration converts an exchange-style timeframe string ("1m",
// "5m", "30m", "1h", "4h", "1d") into a duration.
func TimeframeDuration(tf string) (time.Duration, error) {
	if len(tf) < 2 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	unit := tf[len(tf)-1]
	var n int
	if _, err := fmt.Sscanf(tf[:len(tf)-1], "%d", &n); err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid timeframe %q", tf)
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("invalid timeframe %q: unknown unit %q", tf, string(unit))
	}
}

// BucketStart truncates a unix-millisecond timestamp down to the start of
// its timeframe interval.
func BucketStart(tsMillis int64, tf time.Duration) int64 {
	step := tf.Milliseconds()
	return tsMillis - tsMillis%step
}
