package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

const (
	envSecret             = "ROOST_AUTH_SECRET"
	envDSN                = "ROOST_PG_DSN"
	envListenAddr         = "ROOST_LISTEN_ADDR"
	envPublicListingWrite = "ROOST_PUBLIC_LISTING_WRITES"
	envSessionFile        = "ROOST_SESSION_FILE"

	// InsecureDefaultSecret is the documented fallback signing secret.
	// Running with it is a deployment misconfiguration; the server logs a
	// warning and every outstanding token dies when the real secret is set.
	InsecureDefaultSecret = "roost-insecure-dev-secret"

	defaultListenAddr = ":8080"
)

// Config holds runtime settings for the Roost API and tooling.
type Config struct {
	AuthSecret          string
	PostgresDSN         string
	ListenAddr          string
	PublicListingWrites bool
	SessionFile         string

	// InsecureSecret is true when AuthSecret fell back to the default.
	InsecureSecret bool
}

// Load reads configuration from the environment, overlaying a .env file when
// one is present in the working directory. Environment variables win over
// .env values.
func Load() Config {
	// Ignore a missing .env; it is a development convenience only.
	_ = godotenv.Load()

	cfg := Config{
		AuthSecret:          strings.TrimSpace(os.Getenv(envSecret)),
		PostgresDSN:         strings.TrimSpace(os.Getenv(envDSN)),
		ListenAddr:          strings.TrimSpace(os.Getenv(envListenAddr)),
		PublicListingWrites: boolEnv(envPublicListingWrite),
		SessionFile:         strings.TrimSpace(os.Getenv(envSessionFile)),
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = InsecureDefaultSecret
		cfg.InsecureSecret = true
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = defaultListenAddr
	}
	return cfg
}

func boolEnv(key string) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false
	}
	return v
}
