package utils

import (
	"time"
)

// ParseDuration safely parses duration string like "5m", falling back to def.
func ParseDuration(d string, def time.Duration) time.Duration {
	if d == "" {
		return def
	}
	duration, err := time.ParseDuration(d)
	if err != nil || duration <= 0 {
		return def
	}
	return duration
}
