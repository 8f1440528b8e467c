package models

import (
	"regexp"
	"strconv"
)

var durationPattern = regexp.MustCompile(`^(\d+)([smh]?)$`)

// ParseDuration converts a wire duration like "15s", "1m", "2h", or "30"
// (bare seconds) into seconds. Unparseable values fall back to 15 seconds.
func ParseDuration(raw string) float64 {
	m := durationPattern.FindStringSubmatch(raw)
	if m == nil {
		return 15
	}

	value, err := strconv.Atoi(m[1])
	if err != nil {
		return 15
	}

	switch m[2] {
	case "m":
		return float64(value * 60)
	case "h":
		return float64(value * 3600)
	default:
		return float64(value)
	}
}
