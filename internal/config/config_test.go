package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petrescueapp/data-collector/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "kochi", cfg.Site.Name)
	assert.Equal(t, "https://example-kochi-prefecture.jp", cfg.Site.BaseURL)
	assert.Equal(t, []string{"/animals"}, cfg.Site.ListingPaths)
	assert.Equal(t, 30, cfg.Site.TimeoutSeconds)
	assert.Equal(t, ".collector.lock", cfg.Collector.LockPath)
	assert.Equal(t, 3, cfg.Collector.MaxAttempts)
	assert.Equal(t, 2*time.Second, cfg.BackoffBase())
	assert.Equal(t, 4, cfg.Collector.Concurrency)
	assert.Equal(t, 2019, cfg.Normalize.EraBaseYear)
	assert.Equal(t, "output", cfg.Output.Dir)
	assert.Equal(t, "snapshots", cfg.Snapshot.Dir)
	assert.Empty(t, cfg.Notify.SlackWebhookURL)
	assert.Empty(t, cfg.Metrics.TextfilePath)
	assert.False(t, cfg.Logging.Development)
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collector.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
site:
  name: kochi
  base_url: https://www.pref.kochi.example.jp
  listing_paths:
    - /dogs/index.html
    - /cats/index.html
collector:
  max_attempts: 5
  concurrency: 2
notify:
  pubsub_project_id: shelter-prod
  pubsub_topic: animal-updates
metrics:
  textfile_path: /var/lib/node_exporter/collector.prom
`), 0o644))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://www.pref.kochi.example.jp", cfg.Site.BaseURL)
	assert.Equal(t, []string{"/dogs/index.html", "/cats/index.html"}, cfg.Site.ListingPaths)
	assert.Equal(t, 5, cfg.Collector.MaxAttempts)
	assert.Equal(t, 2, cfg.Collector.Concurrency)
	assert.Equal(t, "shelter-prod", cfg.Notify.PubSubProjectID)
	assert.Equal(t, "animal-updates", cfg.Notify.PubSubTopic)
	assert.Equal(t, "/var/lib/node_exporter/collector.prom", cfg.Metrics.TextfilePath)

	// Unspecified keys keep their defaults.
	assert.Equal(t, 2019, cfg.Normalize.EraBaseYear)
	assert.Equal(t, "output", cfg.Output.Dir)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("COLLECTOR_SITE_BASE_URL", "https://env.example.jp")
	t.Setenv("SLACK_WEBHOOK_URL", "https://hooks.slack.example.com/services/T0/B0/x")
	t.Setenv("COLLECTOR_NOTIFY_PUBSUB_PROJECT_ID", "shelter-prod")
	t.Setenv("COLLECTOR_NOTIFY_PUBSUB_TOPIC", "animal-updates")
	t.Setenv("COLLECTOR_METRICS_TEXTFILE_PATH", "/run/collector.prom")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "https://env.example.jp", cfg.Site.BaseURL)
	assert.Equal(t, "https://hooks.slack.example.com/services/T0/B0/x", cfg.Notify.SlackWebhookURL)
	assert.Equal(t, "shelter-prod", cfg.Notify.PubSubProjectID)
	assert.Equal(t, "animal-updates", cfg.Notify.PubSubTopic)
	assert.Equal(t, "/run/collector.prom", cfg.Metrics.TextfilePath)
}

func TestValidate(t *testing.T) {
	base, err := config.Load("")
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(c *config.Config)
		wantErr string
	}{
		{
			name:    "missing base url",
			mutate:  func(c *config.Config) { c.Site.BaseURL = "" },
			wantErr: "site.base_url",
		},
		{
			name:    "no listing paths",
			mutate:  func(c *config.Config) { c.Site.ListingPaths = nil },
			wantErr: "site.listing_paths",
		},
		{
			name:    "zero timeout",
			mutate:  func(c *config.Config) { c.Site.TimeoutSeconds = 0 },
			wantErr: "site.timeout_seconds",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *config.Config) { c.Collector.MaxAttempts = 0 },
			wantErr: "collector.max_attempts",
		},
		{
			name:    "negative concurrency",
			mutate:  func(c *config.Config) { c.Collector.Concurrency = -1 },
			wantErr: "collector.concurrency",
		},
		{
			name:    "era base year unset",
			mutate:  func(c *config.Config) { c.Normalize.EraBaseYear = 0 },
			wantErr: "normalize.era_base_year",
		},
		{
			name:    "pubsub project without topic",
			mutate:  func(c *config.Config) { c.Notify.PubSubProjectID = "shelter-prod" },
			wantErr: "set together",
		},
		{
			name:    "pubsub topic without project",
			mutate:  func(c *config.Config) { c.Notify.PubSubTopic = "animal-updates" },
			wantErr: "set together",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
