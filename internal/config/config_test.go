package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := DefaultConfig()
	require.Equal(t, ".*", cfg.TriggerPattern)
	require.Equal(t, "", cfg.IgnorePattern)
	require.Equal(t, 15, cfg.RefreshSeconds)
	require.Equal(t, 512, cfg.PageSize)
	require.Equal(t, 3, cfg.BootstrapDays)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)
	require.Equal(t, DefaultConfig().TriggerPattern, cfg.TriggerPattern)
	require.Equal(t, DefaultConfig().RefreshSeconds, cfg.RefreshSeconds)
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"feeds": ["infra", "markets"],
		"trigger_pattern": "outage|breach",
		"ignore_pattern": "test",
		"refresh_seconds": 30
	}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600))

	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, []string{"infra", "markets"}, cfg.Feeds)
	require.Equal(t, "outage|breach", cfg.TriggerPattern)
	require.Equal(t, "test", cfg.IgnorePattern)
	require.Equal(t, 30, cfg.RefreshSeconds)
	// Untouched fields keep defaults
	require.Equal(t, 512, cfg.PageSize)
}

func TestLoadEnvTokenWins(t *testing.T) {
	dir := t.TempDir()
	content := `{"api_token": "from-file"}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600))

	t.Setenv(EnvAPIToken, "from-env")
	cfg, err := Load(dir)
	require.NoError(t, err)
	require.Equal(t, "from-env", cfg.APIToken)
}

func TestLoadRejectsBadPattern(t *testing.T) {
	dir := t.TempDir()
	content := `{"trigger_pattern": "("}`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0600))

	_, err := Load(dir)
	require.Error(t, err)
	require.Contains(t, err.Error(), "trigger_pattern")
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.Feeds = []string{"infra"}

	overlay := &Config{
		Feeds:          []string{"markets", "infra"},
		RefreshSeconds: 60,
	}

	merged := Merge(base, overlay)
	require.Equal(t, 60, merged.RefreshSeconds)
	require.Equal(t, ".*", merged.TriggerPattern)
	// Feed lists merge and deduplicate, base entries first
	require.Equal(t, []string{"infra", "markets"}, merged.Feeds)
}
