package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/petrescueapp/data-collector/internal/model"
)

// Slack posts notifications to an incoming-webhook URL.
type Slack struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewSlack builds a webhook notifier.
func NewSlack(webhookURL string, logger *zap.Logger) *Slack {
	return &Slack{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

// Alert posts the formatted alert. Failures are logged and swallowed.
func (n *Slack) Alert(ctx context.Context, level Level, message string, details map[string]string) {
	if err := n.post(ctx, formatAlert(level, message, details)); err != nil {
		n.logger.Error("failed to send alert",
			zap.String("level", string(level)),
			zap.String("message", message),
			zap.Error(err),
		)
		return
	}
	n.logger.Info("alert sent",
		zap.String("level", string(level)),
		zap.String("message", message),
	)
}

// NotifyNew posts the new-record digest. Failures are logged and swallowed.
func (n *Slack) NotifyNew(ctx context.Context, records []model.Record) {
	if len(records) == 0 {
		return
	}
	if err := n.post(ctx, formatNewRecords(records)); err != nil {
		n.logger.Error("failed to send new-record notification",
			zap.Int("new_count", len(records)),
			zap.Error(err),
		)
		return
	}
	n.logger.Info("new-record notification sent", zap.Int("new_count", len(records)))
}

func (n *Slack) post(ctx context.Context, text string) error {
	payload, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}
