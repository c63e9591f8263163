// Package events publishes migration run events to Redis so dashboards
// and the import tooling can follow long-running migrations live.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/fightpulse/migrate-cli/pkg/logging"
)

// Redis channels for migration events.
const (
	ChannelStageCompleted = "events.migration.stage_completed"
	ChannelRunCompleted   = "events.migration.run_completed"
)

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
	Source    string    `json:"source"`
	Version   string    `json:"version"`
}

// NewBaseEvent creates a BaseEvent with sensible defaults.
func NewBaseEvent(eventType string) BaseEvent {
	return BaseEvent{
		EventType: eventType,
		Timestamp: time.Now().UTC(),
		Source:    "fpmigrate",
		Version:   "1.0",
	}
}

// StageCompletedEvent is published when a migration stage finishes.
type StageCompletedEvent struct {
	BaseEvent

	Stage        string `json:"stage"`
	DryRun       bool   `json:"dry_run"`
	Total        int    `json:"total"`
	Created      int    `json:"created"`
	Existed      int    `json:"already_existed"`
	Skipped      int    `json:"skipped"`
	Errors       int    `json:"errors"`
	FuzzyMatches int    `json:"fuzzy_matches"`
	Collisions   int    `json:"collisions"`

	StartedAt   time.Time `json:"started_at"`
	CompletedAt time.Time `json:"completed_at"`
}

// RunCompletedEvent is published when a full migration run finishes.
type RunCompletedEvent struct {
	BaseEvent

	DryRun      bool   `json:"dry_run"`
	Success     bool   `json:"success"`
	FailedStage string `json:"failed_stage,omitempty"`
	Stages      int    `json:"stages"`

	StartedAt       time.Time `json:"started_at"`
	CompletedAt     time.Time `json:"completed_at"`
	DurationSeconds float64   `json:"duration_seconds"`
}

// Publisher publishes migration events to Redis. A nil Publisher is
// valid and publishes nothing.
type Publisher struct {
	client *redis.Client
	logger logging.Logger
}

// PublisherConfig holds Redis connection configuration.
type PublisherConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewPublisher creates a new event publisher.
func NewPublisher(client *redis.Client, logger logging.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger.With(logging.F("component", "event_publisher")),
	}
}

// NewPublisherFromConfig creates a publisher with a new Redis
// connection, verifying connectivity before returning.
func NewPublisherFromConfig(cfg PublisherConfig, logger logging.Logger) (*Publisher, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewPublisher(client, logger), nil
}

// PublishStageCompleted publishes a completion event for one stage.
func (p *Publisher) PublishStageCompleted(ctx context.Context, evt StageCompletedEvent) error {
	if p == nil {
		return nil
	}
	evt.BaseEvent = NewBaseEvent("migration.stage_completed")
	return p.publish(ctx, ChannelStageCompleted, evt)
}

// PublishRunCompleted publishes a completion event for the whole run.
func (p *Publisher) PublishRunCompleted(ctx context.Context, evt RunCompletedEvent) error {
	if p == nil {
		return nil
	}
	evt.BaseEvent = NewBaseEvent("migration.run_completed")
	evt.DurationSeconds = evt.CompletedAt.Sub(evt.StartedAt).Seconds()
	return p.publish(ctx, ChannelRunCompleted, evt)
}

// Close releases the underlying Redis connection.
func (p *Publisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}

// publish serializes and publishes an event to Redis.
func (p *Publisher) publish(ctx context.Context, channel string, event interface{}) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if err := p.client.Publish(ctx, channel, data).Err(); err != nil {
		p.logger.Error("Failed to publish event",
			logging.Err(err),
			logging.F("channel", channel))
		return fmt.Errorf("failed to publish to %s: %w", channel, err)
	}

	return nil
}
