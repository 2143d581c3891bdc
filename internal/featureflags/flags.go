package featureflags

import (
	"os"
	"strings"
)

// Known flags
const (
	// LegacyIntervalFallback treats unknown schedule intervals as due on their base date.
	LegacyIntervalFallback = "legacy_interval_fallback"
	// DueSweeper runs the reminder sweep inside the API server process.
	DueSweeper = "due_sweeper"
)

// Enabled returns true if a flag is enabled via environment variable.
// Flags are read from env as FLAG_<NAME>=true/1/yes (case-insensitive)
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
