// Package config loads and validates collector configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config captures every knob the collector reads, populated once at startup
// and passed down explicitly.
type Config struct {
	Site      SiteConfig      `mapstructure:"site"`
	Collector CollectorConfig `mapstructure:"collector"`
	Normalize NormalizeConfig `mapstructure:"normalize"`
	Output    OutputConfig    `mapstructure:"output"`
	Snapshot  SnapshotConfig  `mapstructure:"snapshot"`
	Notify    NotifyConfig    `mapstructure:"notify"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// SiteConfig selects and parameterizes the active extraction source.
type SiteConfig struct {
	Name              string   `mapstructure:"name"`
	BaseURL           string   `mapstructure:"base_url"`
	ListingPaths      []string `mapstructure:"listing_paths"`
	DetailPathPattern string   `mapstructure:"detail_path_pattern"`
	UserAgent         string   `mapstructure:"user_agent"`
	TimeoutSeconds    int      `mapstructure:"timeout_seconds"`
}

// CollectorConfig governs locking, retries, and detail-page concurrency.
type CollectorConfig struct {
	LockPath           string `mapstructure:"lock_path"`
	MaxAttempts        int    `mapstructure:"max_attempts"`
	BackoffBaseSeconds int    `mapstructure:"backoff_base_seconds"`
	Concurrency        int    `mapstructure:"concurrency"`
}

// NormalizeConfig holds the era mapping constant.
type NormalizeConfig struct {
	EraBaseYear int `mapstructure:"era_base_year"`
}

// OutputConfig sets where the run artifact lands.
type OutputConfig struct {
	Dir string `mapstructure:"dir"`
}

// SnapshotConfig sets where the snapshot lives.
type SnapshotConfig struct {
	Dir string `mapstructure:"dir"`
}

// NotifyConfig lists the notification destinations. All are optional; with
// none set, notifications degrade to local log lines.
type NotifyConfig struct {
	SlackWebhookURL string `mapstructure:"slack_webhook_url"`
	PubSubProjectID string `mapstructure:"pubsub_project_id"`
	PubSubTopic     string `mapstructure:"pubsub_topic"`
}

// MetricsConfig controls the textfile dump; empty path disables it.
type MetricsConfig struct {
	TextfilePath string `mapstructure:"textfile_path"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool `mapstructure:"development"`
}

// Load builds a Config from a config file and the environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("COLLECTOR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// The webhook URL is conventionally injected as a bare env var.
	if err := v.BindEnv("notify.slack_webhook_url", "COLLECTOR_NOTIFY_SLACK_WEBHOOK_URL", "SLACK_WEBHOOK_URL"); err != nil {
		return Config{}, fmt.Errorf("bind env: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.name", "kochi")
	v.SetDefault("site.base_url", "https://example-kochi-prefecture.jp")
	v.SetDefault("site.listing_paths", []string{"/animals"})
	v.SetDefault("site.detail_path_pattern", "")
	v.SetDefault("site.user_agent", "")
	v.SetDefault("site.timeout_seconds", 30)
	v.SetDefault("collector.lock_path", ".collector.lock")
	v.SetDefault("collector.max_attempts", 3)
	v.SetDefault("collector.backoff_base_seconds", 2)
	v.SetDefault("collector.concurrency", 4)
	v.SetDefault("normalize.era_base_year", 2019)
	v.SetDefault("output.dir", "output")
	v.SetDefault("snapshot.dir", "snapshots")
	// Optional keys still need registering: AutomaticEnv only surfaces env
	// values for keys viper already knows about.
	v.SetDefault("notify.slack_webhook_url", "")
	v.SetDefault("notify.pubsub_project_id", "")
	v.SetDefault("notify.pubsub_topic", "")
	v.SetDefault("metrics.textfile_path", "")
	v.SetDefault("logging.development", false)
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Site.Name == "" {
		return fmt.Errorf("site.name must be set")
	}
	if c.Site.BaseURL == "" {
		return fmt.Errorf("site.base_url must be set")
	}
	if len(c.Site.ListingPaths) == 0 {
		return fmt.Errorf("site.listing_paths must not be empty")
	}
	if c.Site.TimeoutSeconds <= 0 {
		return fmt.Errorf("site.timeout_seconds must be > 0")
	}
	if c.Collector.MaxAttempts <= 0 {
		return fmt.Errorf("collector.max_attempts must be > 0")
	}
	if c.Collector.BackoffBaseSeconds <= 0 {
		return fmt.Errorf("collector.backoff_base_seconds must be > 0")
	}
	if c.Collector.Concurrency <= 0 {
		return fmt.Errorf("collector.concurrency must be > 0")
	}
	if c.Normalize.EraBaseYear <= 0 {
		return fmt.Errorf("normalize.era_base_year must be > 0")
	}
	if (c.Notify.PubSubProjectID == "") != (c.Notify.PubSubTopic == "") {
		return fmt.Errorf("notify.pubsub_project_id and notify.pubsub_topic must be set together")
	}
	return nil
}

// BackoffBase converts the configured base delay into a duration.
func (c Config) BackoffBase() time.Duration {
	return time.Duration(c.Collector.BackoffBaseSeconds) * time.Second
}
