// Package ibpconfig loads runtime configuration from flags and the process
// environment. Secrets are read only from the environment, never from a
// flag or a config file, and are never echoed into artifacts or logs.
package ibpconfig

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// AIProfile tunes the oracle's request budget (§6.3).
type AIProfile string

const (
	ProfileMax      AIProfile = "max"
	ProfileBalanced AIProfile = "balanced"
)

// Config holds process-wide settings assembled from flags + environment.
type Config struct {
	// OracleAPIKey is read from OPENAI_API_KEY; required only when the
	// oracle is enabled (i.e. not --dry-run).
	OracleAPIKey string
	// OracleModel is read from OPENAI_MODEL, defaulting to
	// "gemini-2.5-flash" under either profile.
	OracleModel string
	AIProfile   AIProfile

	RegistryDSN string // IBP_REGISTRY_DSN; empty means use the file-backed registry
	RunsRoot    string // root directory for runs/<run_id>/
	DataRoot    string // root directory for registry/, chunks_by_book/, topics/, _ARCHIVE/, _ANCHOR_MISS/, _REVIEW/

	DryRun bool // disables the oracle entirely (§6.2 --dry-run)

	OracleQPS   float64
	OracleBurst int
}

// Load reads .env (if present) into the process environment, then builds a
// Config. It never reads secrets from a file it parses itself; godotenv
// only populates os.Environ(), which this function then reads exactly the
// way any other environment variable would be read.
func Load() Config {
	_ = godotenv.Load()

	profile := AIProfile(strings.ToLower(strings.TrimSpace(os.Getenv("IBP_AI_PROFILE"))))
	if profile != ProfileMax {
		profile = ProfileBalanced
	}

	model := strings.TrimSpace(os.Getenv("OPENAI_MODEL"))
	if model == "" {
		model = "gemini-2.5-flash"
	}

	cfg := Config{
		OracleAPIKey: os.Getenv("OPENAI_API_KEY"),
		OracleModel:  model,
		AIProfile:    profile,
		RegistryDSN:  strings.TrimSpace(os.Getenv("IBP_REGISTRY_DSN")),
		RunsRoot:     firstNonEmpty(strings.TrimSpace(os.Getenv("IBP_RUNS_ROOT")), "runs"),
		DataRoot:     firstNonEmpty(strings.TrimSpace(os.Getenv("IBP_DATA_ROOT")), "."),
		DryRun:       parseBool(os.Getenv("IBP_DRY_RUN")),
		OracleQPS:    parseFloat(os.Getenv("IBP_ORACLE_QPS"), qpsForProfile(profile)),
		OracleBurst:  int(parseFloat(os.Getenv("IBP_ORACLE_BURST"), burstForProfile(profile))),
	}
	return cfg
}

func qpsForProfile(p AIProfile) float64 {
	if p == ProfileMax {
		return 4
	}
	return 1
}

func burstForProfile(p AIProfile) float64 {
	if p == ProfileMax {
		return 8
	}
	return 2
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseBool(s string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(s))
	return b
}

func parseFloat(s string, def float64) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return f
}
