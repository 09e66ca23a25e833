package market

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var timeframes = map[string]time.Duration{
	"M1":  time.Minute,
	"M5":  5 * time.Minute,
	"M15": 15 * time.Minute,
	"M30": 30 * time.Minute,
	"H1":  time.Hour,
	"H4":  4 * time.Hour,
	"D1":  24 * time.Hour,
	"W1":  7 * 24 * time.Hour,
	"MN1": 30 * 24 * time.Hour,
}

// ParseTimeframe reads a timeframe code ("M5", "H1", "D1", ...) or a plain
// number of minutes, the form of the "tf" column.
func ParseTimeframe(s string) (time.Duration, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if d, ok := timeframes[s]; ok {
		return d, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("unsupported timeframe: %q", s)
	}
	return time.Duration(n) * time.Minute, nil
}

// FormatTimeframe is the inverse of ParseTimeframe for whole minutes, hours
// and days.
func FormatTimeframe(d time.Duration) (string, error) {
	sec := int64(d / time.Second)
	if sec <= 0 || d%time.Minute != 0 {
		return "", fmt.Errorf("invalid timeframe: %s", d)
	}

	switch {
	case sec < 3600:
		return fmt.Sprintf("M%d", sec/60), nil
	case sec < 86400 && sec%3600 == 0:
		return fmt.Sprintf("H%d", sec/3600), nil
	case sec%86400 == 0:
		days := sec / 86400
		if days == 7 {
			return "W1", nil
		}
		if days == 30 {
			return "MN1", nil
		}
		return fmt.Sprintf("D%d", days), nil
	}
	return "", fmt.Errorf("cannot map timeframe: %s", d)
}
