package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// FlushConfig holds flush engine policy settings.
type FlushConfig struct {
	Cooldown    string `json:"cooldown,omitempty"`     // duration string, default "30s"
	MaxAttempts *int   `json:"max_attempts,omitempty"` // nil = default 5
	OnStart     *bool  `json:"on_start,omitempty"`     // nil = default true
}

// WatchConfig holds settings for the long-running watch loop.
type WatchConfig struct {
	Interval       string `json:"interval,omitempty"`        // duration string, default "1m"
	CredentialPoll string `json:"credential_poll,omitempty"` // duration string, default "5s"
	LogLevel       string `json:"log_level,omitempty"`       // debug|info|warn|error
	LogFormat      string `json:"log_format,omitempty"`      // text|json
}

// Config is the global boq config stored at ~/.config/boq/config.json.
type Config struct {
	ServerURL string      `json:"server_url"`
	Flush     FlushConfig `json:"flush"`
	Watch     WatchConfig `json:"watch"`
}

const defaultServerURL = "http://localhost:8080"

// Dir returns the boq config directory, creating it if necessary.
// Priority: BOQ_CONFIG_DIR env > ~/.config/boq.
func Dir() (string, error) {
	if v := os.Getenv("BOQ_CONFIG_DIR"); v != "" {
		if err := os.MkdirAll(v, 0755); err != nil {
			return "", fmt.Errorf("create config dir: %w", err)
		}
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	dir := filepath.Join(home, ".config", "boq")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create config dir: %w", err)
	}
	return dir, nil
}

// Load reads the global config from config.json.
func Load() (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(dir, "config.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes the global config to config.json.
func Save(cfg *Config) error {
	dir, err := Dir()
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, "config.json"), data, 0644)
}

// GetServerURL returns the approval server URL.
// Priority: BOQ_SERVER_URL env > config.json > default.
func GetServerURL() string {
	if v := os.Getenv("BOQ_SERVER_URL"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil && cfg.ServerURL != "" {
		return cfg.ServerURL
	}
	return defaultServerURL
}

// GetFlushCooldown returns the minimum interval between flush passes.
// Priority: BOQ_FLUSH_COOLDOWN env > config.json flush.cooldown > 30s
func GetFlushCooldown() time.Duration {
	if v := os.Getenv("BOQ_FLUSH_COOLDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	cfg, err := Load()
	if err == nil && cfg.Flush.Cooldown != "" {
		if d, err := time.ParseDuration(cfg.Flush.Cooldown); err == nil {
			return d
		}
	}
	return 30 * time.Second
}

// GetFlushMaxAttempts returns the per-process flush attempt ceiling.
// Priority: BOQ_FLUSH_MAX_ATTEMPTS env > config.json flush.max_attempts > 5
func GetFlushMaxAttempts() int {
	if v := os.Getenv("BOQ_FLUSH_MAX_ATTEMPTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	cfg, err := Load()
	if err == nil && cfg.Flush.MaxAttempts != nil && *cfg.Flush.MaxAttempts > 0 {
		return *cfg.Flush.MaxAttempts
	}
	return 5
}

// GetFlushOnStart returns whether commands attempt an opportunistic flush on startup.
// Priority: BOQ_FLUSH_ON_START env > config.json flush.on_start > true
func GetFlushOnStart() bool {
	if v := parseBoolEnv("BOQ_FLUSH_ON_START"); v != nil {
		return *v
	}
	cfg, err := Load()
	if err == nil && cfg.Flush.OnStart != nil {
		return *cfg.Flush.OnStart
	}
	return true
}

// GetWatchInterval returns the periodic flush interval for the watch loop.
// Priority: BOQ_WATCH_INTERVAL env > config.json watch.interval > 1m
func GetWatchInterval() time.Duration {
	if v := os.Getenv("BOQ_WATCH_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	cfg, err := Load()
	if err == nil && cfg.Watch.Interval != "" {
		if d, err := time.ParseDuration(cfg.Watch.Interval); err == nil {
			return d
		}
	}
	return time.Minute
}

// GetCredentialPollInterval returns how often the watch loop re-checks
// credential availability.
// Priority: BOQ_CREDENTIAL_POLL env > config.json watch.credential_poll > 5s
func GetCredentialPollInterval() time.Duration {
	if v := os.Getenv("BOQ_CREDENTIAL_POLL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	cfg, err := Load()
	if err == nil && cfg.Watch.CredentialPoll != "" {
		if d, err := time.ParseDuration(cfg.Watch.CredentialPoll); err == nil {
			return d
		}
	}
	return 5 * time.Second
}

// GetWatchLogLevel returns the log level for the watch loop.
// Priority: BOQ_LOG_LEVEL env > config.json watch.log_level > "info"
func GetWatchLogLevel() string {
	if v := os.Getenv("BOQ_LOG_LEVEL"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil && cfg.Watch.LogLevel != "" {
		return cfg.Watch.LogLevel
	}
	return "info"
}

// GetWatchLogFormat returns the log format for the watch loop.
// Priority: BOQ_LOG_FORMAT env > config.json watch.log_format > "text"
func GetWatchLogFormat() string {
	if v := os.Getenv("BOQ_LOG_FORMAT"); v != "" {
		return v
	}
	cfg, err := Load()
	if err == nil && cfg.Watch.LogFormat != "" {
		return cfg.Watch.LogFormat
	}
	return "text"
}

// parseBoolEnv returns nil if env not set, pointer to bool if set.
func parseBoolEnv(envKey string) *bool {
	v := os.Getenv(envKey)
	if v == "" {
		return nil
	}
	v = strings.ToLower(v)
	if v == "1" || v == "true" {
		b := true
		return &b
	}
	if v == "0" || v == "false" {
		b := false
		return &b
	}
	return nil
}
