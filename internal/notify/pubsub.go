package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"cloud.google.com/go/pubsub"
	"go.uber.org/zap"

	"github.com/petrescueapp/data-collector/internal/model"
)

// Publisher abstracts the message bus behind the Pub/Sub notifier.
type Publisher interface {
	Publish(ctx context.Context, payload any) (string, error)
}

// PubSub forwards notifications onto a message bus for downstream consumers
// that prefer events over chat messages.
type PubSub struct {
	publisher Publisher
	logger    *zap.Logger
}

// NewPubSub builds the bus-backed notifier.
func NewPubSub(publisher Publisher, logger *zap.Logger) *PubSub {
	return &PubSub{publisher: publisher, logger: logger}
}

// Alert publishes an alert event. Failures are logged and swallowed.
func (n *PubSub) Alert(ctx context.Context, level Level, message string, details map[string]string) {
	payload := map[string]any{
		"kind":    "alert",
		"level":   string(level),
		"message": message,
		"details": details,
	}
	id, err := n.publisher.Publish(ctx, payload)
	if err != nil {
		n.logger.Error("failed to publish alert", zap.String("message", message), zap.Error(err))
		return
	}
	n.logger.Info("alert published", zap.String("message_id", id))
}

// NotifyNew publishes a new-record event carrying the digest fields for the
// first few records. Failures are logged and swallowed.
func (n *PubSub) NotifyNew(ctx context.Context, records []model.Record) {
	if len(records) == 0 {
		return
	}
	digest := make([]map[string]any, 0, digestLimit)
	for i, record := range records {
		if i == digestLimit {
			break
		}
		entry := map[string]any{
			"species":    string(record.Species),
			"sex":        string(record.Sex),
			"source_url": record.SourceURL,
		}
		if record.Location != nil {
			entry["location"] = *record.Location
		}
		digest = append(digest, entry)
	}
	payload := map[string]any{
		"kind":     "new_records",
		"count":    len(records),
		"records":  digest,
		"overflow": max(0, len(records)-digestLimit),
	}
	id, err := n.publisher.Publish(ctx, payload)
	if err != nil {
		n.logger.Error("failed to publish new-record event", zap.Int("new_count", len(records)), zap.Error(err))
		return
	}
	n.logger.Info("new-record event published", zap.String("message_id", id))
}

// TopicPublisher implements Publisher over a Google Cloud Pub/Sub topic.
type TopicPublisher struct {
	topic *pubsub.Topic
}

// NewTopicPublisher connects to the project and returns a publisher for the
// named topic.
func NewTopicPublisher(ctx context.Context, projectID, topicName string) (*TopicPublisher, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("create pubsub client: %w", err)
	}
	return &TopicPublisher{topic: client.Topic(topicName)}, nil
}

// Publish marshals the payload to JSON and publishes it.
func (p *TopicPublisher) Publish(ctx context.Context, payload any) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	result := p.topic.Publish(ctx, &pubsub.Message{Data: data})
	id, err := result.Get(ctx)
	if err != nil {
		return "", fmt.Errorf("publish message: %w", err)
	}
	return id, nil
}
