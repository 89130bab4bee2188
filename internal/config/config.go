package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the serve-mode runtime configuration, loaded from
// environment variables.
type Config struct {
	// Server
	Port int

	// Score library and render history
	ScoreDir string
	DBPath   string

	// Recital behavior
	Profile       string        // starting programme profile
	Preset        string        // render quality preset
	SegueDuration time.Duration // blend length between renditions
	BufferAhead   int           // renditions to pre-render
	DwellMin      int           // min seconds per profile
	DwellMax      int           // max seconds per profile
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port: envInt("VIRTUOSO_PORT", 8080),

		ScoreDir: envStr("VIRTUOSO_SCORE_DIR", "scores"),
		DBPath:   envStr("VIRTUOSO_DB_PATH", "virtuoso.db"),

		Profile:       envStr("VIRTUOSO_PROFILE", "poised"),
		Preset:        envStr("VIRTUOSO_PRESET", "standard"),
		SegueDuration: time.Duration(envInt("VIRTUOSO_SEGUE_DURATION", 8)) * time.Second,
		BufferAhead:   envInt("VIRTUOSO_BUFFER_AHEAD", 2),
		DwellMin:      envInt("VIRTUOSO_DWELL_MIN", 300),
		DwellMax:      envInt("VIRTUOSO_DWELL_MAX", 900),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
