package relay

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Poster modes selectable through config or the RELAY_MODE env var.
const (
	ModeLive = "live"
	ModeDry  = "dry"
)

// Config drives the relay process. Values come from a YAML file with
// environment variables taking precedence, so deployments can keep the token
// out of the file.
type Config struct {
	// Token authenticates against the listing API. Required in live mode.
	Token string `yaml:"token"`

	// Addr is the listen address of the HTTP server.
	Addr string `yaml:"addr"`

	// WebhookSecret must match the Authorization value configured on the
	// bot's webhooks page.
	WebhookSecret string `yaml:"webhook_secret"`

	// IntervalSeconds is the autoposting cadence. The listing service
	// ignores posts more frequent than every 900 seconds.
	IntervalSeconds int `yaml:"interval_seconds"`

	// Mode selects the posting backend: live publishes to the API, dry only
	// logs the snapshots.
	Mode string `yaml:"mode"`

	// VoteLog is the NDJSON file votes are appended to.
	VoteLog string `yaml:"vote_log"`
}

func defaultConfig() *Config {
	return &Config{
		Addr:            ":8080",
		IntervalSeconds: 1800,
		Mode:            ModeLive,
		VoteLog:         "data/votes.ndjson",
	}
}

// Load reads the config file when present, then layers environment
// overrides on top. A missing file is fine; env-only deployments are
// supported.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// fall through to env
	default:
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TOPGG_TOKEN"); v != "" {
		cfg.Token = v
	}
	if v := os.Getenv("RELAY_ADDR"); v != "" {
		cfg.Addr = v
	}
	if v := os.Getenv("RELAY_WEBHOOK_SECRET"); v != "" {
		cfg.WebhookSecret = v
	}
	if v := os.Getenv("RELAY_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil {
			cfg.IntervalSeconds = secs
		}
	}
	if v := os.Getenv("RELAY_MODE"); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv("RELAY_VOTE_LOG"); v != "" {
		cfg.VoteLog = v
	}
}

// Interval returns the posting cadence as a duration.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}

// Validate checks configuration correctness without mutating it.
func Validate(cfg *Config) error {
	if cfg.Mode != ModeLive && cfg.Mode != ModeDry {
		return fmt.Errorf("mode must be %q or %q, got %q", ModeLive, ModeDry, cfg.Mode)
	}
	if cfg.Mode == ModeLive && cfg.Token == "" {
		return fmt.Errorf("token is required in live mode")
	}
	if cfg.Addr == "" {
		return fmt.Errorf("addr must not be empty")
	}
	if cfg.WebhookSecret == "" {
		return fmt.Errorf("webhook_secret must not be empty")
	}
	if cfg.IntervalSeconds < 900 {
		return fmt.Errorf("interval_seconds must be at least 900, got %d", cfg.IntervalSeconds)
	}
	if cfg.VoteLog == "" {
		return fmt.Errorf("vote_log must not be empty")
	}
	return nil
}
