// Package notify delivers operator alerts and new-record digests. Delivery
// is fire-and-forget: a sink that fails logs the failure and swallows it, so
// notification problems can never fail a run.
package notify

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/petrescueapp/data-collector/internal/model"
)

// Level is the alert severity.
type Level string

// Alert levels.
const (
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
	LevelCritical Level = "critical"
)

// Maximum records spelled out in a new-record digest; the rest collapse into
// an overflow count.
const digestLimit = 5

// Notifier is the side-channel the collector talks to.
type Notifier interface {
	Alert(ctx context.Context, level Level, message string, details map[string]string)
	NotifyNew(ctx context.Context, records []model.Record)
}

// Log is the fallback notifier used when no destination is configured: it
// degrades notifications to local log lines.
type Log struct {
	logger *zap.Logger
}

// NewLog builds the log-only notifier.
func NewLog(logger *zap.Logger) *Log {
	return &Log{logger: logger}
}

// Alert writes the alert to the local log.
func (n *Log) Alert(_ context.Context, level Level, message string, details map[string]string) {
	n.logger.Warn("no notification channel configured",
		zap.String("level", string(level)),
		zap.String("message", message),
		zap.Any("details", details),
	)
}

// NotifyNew logs the new-record count.
func (n *Log) NotifyNew(_ context.Context, records []model.Record) {
	if len(records) == 0 {
		return
	}
	n.logger.Info("no notification channel configured for new records",
		zap.Int("new_count", len(records)),
	)
}

// Multi fans one notification out to several sinks.
type Multi []Notifier

// Alert forwards to every sink.
func (m Multi) Alert(ctx context.Context, level Level, message string, details map[string]string) {
	for _, n := range m {
		n.Alert(ctx, level, message, details)
	}
}

// NotifyNew forwards to every sink.
func (m Multi) NotifyNew(ctx context.Context, records []model.Record) {
	for _, n := range m {
		n.NotifyNew(ctx, records)
	}
}

// formatAlert renders the shared alert text: severity tag, message, then the
// detail map as sorted bullet lines.
func formatAlert(level Level, message string, details map[string]string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s\n", strings.ToUpper(string(level)), message)
	keys := make([]string, 0, len(details))
	for key := range details {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, "- %s: %s\n", key, details[key])
	}
	return b.String()
}

// formatNewRecords renders the digest: species, sex, location and source for
// the first few records, plus an overflow line.
func formatNewRecords(records []model.Record) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🐾 新規収容動物: %d件\n", len(records))
	for i, record := range records {
		if i == digestLimit {
			break
		}
		fmt.Fprintf(&b, "- %s (%s)", record.Species, record.Sex)
		if record.Location != nil {
			fmt.Fprintf(&b, " - %s", *record.Location)
		}
		fmt.Fprintf(&b, " - %s\n", record.SourceURL)
	}
	if len(records) > digestLimit {
		fmt.Fprintf(&b, "... 他 %d件\n", len(records)-digestLimit)
	}
	return b.String()
}
