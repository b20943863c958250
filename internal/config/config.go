package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// Env variable overrides for credentials, so tokens can stay out of
// config.json on shared machines.
const (
	EnvAPIToken   = "LISTER_API_TOKEN"
	EnvAPIBaseURL = "LISTER_API_URL"
)

// Config holds application configuration.
type Config struct {
	// Feeds is the set of list names to attach and poll.
	Feeds []string `json:"feeds,omitempty"`

	// TriggerPattern is a case-insensitive regex; an accepted post alerts
	// when this finds a match in its (share-expanded) text.
	TriggerPattern string `json:"trigger_pattern,omitempty"`

	// IgnorePattern is a case-insensitive regex; a match suppresses the
	// alert. Empty means nothing is ignored.
	IgnorePattern string `json:"ignore_pattern,omitempty"`

	// RefreshSeconds is the per-feed cooldown applied when a poll comes
	// back quiet. The scheduler tick is a quarter of this.
	RefreshSeconds int `json:"refresh_seconds,omitempty"`

	// PageSize is the number of items requested per timeline page.
	PageSize int `json:"page_size,omitempty"`

	// BootstrapDays is how far back the first attachment backfills.
	BootstrapDays int `json:"bootstrap_days,omitempty"`

	// APIBaseURL is the feed service endpoint.
	APIBaseURL string `json:"api_base_url,omitempty"`

	// APIToken is the bearer credential for the feed service.
	// LISTER_API_TOKEN takes precedence when set.
	APIToken string `json:"api_token,omitempty"`

	// WebBind and WebPort configure the operator web UI (serve command).
	WebBind string `json:"web_bind,omitempty"`
	WebPort int    `json:"web_port,omitempty"`

	// DBMaxOpenConns limits the maximum number of open database connections.
	// 0 means use sql.DB default. Only set if you experience contention.
	DBMaxOpenConns int `json:"db_max_open_conns,omitempty"`

	// DBMaxIdleConns limits the maximum number of idle database connections.
	DBMaxIdleConns int `json:"db_max_idle_conns,omitempty"`
}

// DefaultConfig returns the default configuration: trigger everything,
// ignore nothing, poll every 15 seconds.
func DefaultConfig() *Config {
	return &Config{
		TriggerPattern: ".*",
		IgnorePattern:  "",
		RefreshSeconds: 15,
		PageSize:       512,
		BootstrapDays:  3,
		WebBind:        "127.0.0.1",
		WebPort:        8374,
	}
}

// Load loads configuration from baseDir/config.json, applies defaults,
// then environment overrides. Returns default config if the file doesn't
// exist. The baseDir parameter allows tests to use t.TempDir().
func Load(baseDir string) (*Config, error) {
	cfg, err := loadFileRaw(filepath.Join(baseDir, "config.json"))
	if err != nil {
		return nil, err
	}
	merged := Merge(DefaultConfig(), cfg)
	applyEnv(merged)
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return merged, nil
}

// loadFileRaw loads configuration from a specific file path.
// Returns zero-valued config if the file doesn't exist (not defaults).
func loadFileRaw(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Config{}, nil
		}
		return nil, err
	}

	cfg := &Config{}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnv overlays credential environment variables onto cfg.
func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvAPIToken); v != "" {
		cfg.APIToken = v
	}
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		cfg.APIBaseURL = v
	}
}

// Validate checks that the filter patterns compile. Both are evaluated
// case-insensitively at runtime, so they are compiled the same way here.
func (c *Config) Validate() error {
	if _, err := regexp.Compile("(?i)" + c.TriggerPattern); err != nil {
		return fmt.Errorf("invalid trigger_pattern: %w", err)
	}
	if c.IgnorePattern != "" {
		if _, err := regexp.Compile("(?i)" + c.IgnorePattern); err != nil {
			return fmt.Errorf("invalid ignore_pattern: %w", err)
		}
	}
	return nil
}

// Merge combines base and overlay configs.
// Overlay values take precedence for scalars; feed lists are merged and
// deduplicated.
func Merge(base, overlay *Config) *Config {
	result := &Config{}

	result.TriggerPattern = overlay.TriggerPattern
	if result.TriggerPattern == "" {
		result.TriggerPattern = base.TriggerPattern
	}

	result.IgnorePattern = overlay.IgnorePattern
	if result.IgnorePattern == "" {
		result.IgnorePattern = base.IgnorePattern
	}

	result.RefreshSeconds = overlay.RefreshSeconds
	if result.RefreshSeconds == 0 {
		result.RefreshSeconds = base.RefreshSeconds
	}

	result.PageSize = overlay.PageSize
	if result.PageSize == 0 {
		result.PageSize = base.PageSize
	}

	result.BootstrapDays = overlay.BootstrapDays
	if result.BootstrapDays == 0 {
		result.BootstrapDays = base.BootstrapDays
	}

	result.APIBaseURL = overlay.APIBaseURL
	if result.APIBaseURL == "" {
		result.APIBaseURL = base.APIBaseURL
	}

	result.APIToken = overlay.APIToken
	if result.APIToken == "" {
		result.APIToken = base.APIToken
	}

	result.WebBind = overlay.WebBind
	if result.WebBind == "" {
		result.WebBind = base.WebBind
	}

	result.WebPort = overlay.WebPort
	if result.WebPort == 0 {
		result.WebPort = base.WebPort
	}

	result.DBMaxOpenConns = overlay.DBMaxOpenConns
	if result.DBMaxOpenConns == 0 {
		result.DBMaxOpenConns = base.DBMaxOpenConns
	}

	result.DBMaxIdleConns = overlay.DBMaxIdleConns
	if result.DBMaxIdleConns == 0 {
		result.DBMaxIdleConns = base.DBMaxIdleConns
	}

	result.Feeds = mergeStringSlice(base.Feeds, overlay.Feeds)

	return result
}

// mergeStringSlice combines two slices, trims whitespace, and removes duplicates.
func mergeStringSlice(a, b []string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0, len(a)+len(b))

	for _, s := range a {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}
	for _, s := range b {
		s = strings.TrimSpace(s)
		if s != "" && !seen[s] {
			seen[s] = true
			result = append(result, s)
		}
	}

	if len(result) == 0 {
		return nil
	}
	return result
}
