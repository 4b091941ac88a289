package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/petrescueapp/data-collector/internal/clock"
	"github.com/petrescueapp/data-collector/internal/collector"
	"github.com/petrescueapp/data-collector/internal/config"
	"github.com/petrescueapp/data-collector/internal/logging"
	"github.com/petrescueapp/data-collector/internal/metrics"
	"github.com/petrescueapp/data-collector/internal/notify"
	"github.com/petrescueapp/data-collector/internal/output"
	"github.com/petrescueapp/data-collector/internal/scrape"
	"github.com/petrescueapp/data-collector/internal/snapshot"

	// Registers the reference site adapter.
	_ "github.com/petrescueapp/data-collector/internal/scrape/kochi"
)

func newCollectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "collect",
		Short: "Runs one collection pass",
		Long: `Fetches the configured site's listing and detail pages, normalizes the
records, diffs them against the previous snapshot, and persists the output
artifact and the new snapshot.`,
		RunE: runCollectCommand,
	}
}

func runCollectCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	source, err := scrape.New(cfg.Site.Name, scrape.SiteConfig{
		BaseURL:           cfg.Site.BaseURL,
		ListingPaths:      cfg.Site.ListingPaths,
		DetailPathPattern: cfg.Site.DetailPathPattern,
		UserAgent:         cfg.Site.UserAgent,
		TimeoutSeconds:    cfg.Site.TimeoutSeconds,
		EraBaseYear:       cfg.Normalize.EraBaseYear,
	})
	if err != nil {
		return fmt.Errorf("init source: %w", err)
	}

	store, err := snapshot.NewStore(cfg.Snapshot.Dir)
	if err != nil {
		return fmt.Errorf("init snapshot store: %w", err)
	}
	writer, err := output.NewWriter(cfg.Output.Dir, clock.System{})
	if err != nil {
		return fmt.Errorf("init output writer: %w", err)
	}

	recorder := metrics.NewRecorder()
	service := collector.New(
		source,
		store,
		writer,
		buildNotifier(cmd.Context(), cfg, logger),
		recorder,
		clock.System{},
		collector.Config{
			LockPath:    cfg.Collector.LockPath,
			MaxAttempts: cfg.Collector.MaxAttempts,
			BackoffBase: cfg.BackoffBase(),
			Concurrency: cfg.Collector.Concurrency,
		},
		logger,
	)

	summary := service.Run(cmd.Context())
	if err := recorder.WriteTextfile(cfg.Metrics.TextfilePath); err != nil {
		logger.Warn("failed to write metrics textfile", zap.Error(err))
	}
	if !summary.Success {
		return fmt.Errorf("collection failed: %s", strings.Join(summary.Errors, "; "))
	}
	return nil
}

// buildNotifier assembles the configured sinks; with no destination set,
// notifications degrade to local log lines.
func buildNotifier(ctx context.Context, cfg config.Config, logger *zap.Logger) notify.Notifier {
	var sinks notify.Multi
	if cfg.Notify.SlackWebhookURL != "" {
		sinks = append(sinks, notify.NewSlack(cfg.Notify.SlackWebhookURL, logger))
	}
	if cfg.Notify.PubSubProjectID != "" {
		publisher, err := notify.NewTopicPublisher(ctx, cfg.Notify.PubSubProjectID, cfg.Notify.PubSubTopic)
		if err != nil {
			logger.Warn("pubsub notifier unavailable", zap.Error(err))
		} else {
			sinks = append(sinks, notify.NewPubSub(publisher, logger))
		}
	}
	if len(sinks) == 0 {
		return notify.NewLog(logger)
	}
	return sinks
}
