// Package events publishes scheduling domain events to Kafka. Delivery is
// fire-and-forget: publish failures are logged and never surfaced to the
// engine, so event infrastructure outages cannot block schedule calculation.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
)

const (
	// TypeCriticalPathChanged is emitted when a CPM run flips any task's
	// critical-path flag.
	TypeCriticalPathChanged = "schedule.critical_path.changed"
	// TypeTaskProgressUpdated is emitted when the progress resolver persists
	// a new percent complete.
	TypeTaskProgressUpdated = "schedule.task_progress.updated"
)

// Event is the envelope written to the topic, keyed by project so consumers
// see per-project ordering.
type Event struct {
	Type      string          `json:"type"`
	ProjectID uuid.UUID       `json:"projectId"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	TS        time.Time       `json:"ts"`
}

// Notifier accepts domain events with no acknowledgment contract.
type Notifier interface {
	Publish(ctx context.Context, ev Event)
}

// NopNotifier drops every event. Used when no brokers are configured and in
// tests that do not care about events.
type NopNotifier struct{}

func (NopNotifier) Publish(ctx context.Context, ev Event) {}

// KafkaNotifierConfig contains configurable parameters for the Kafka notifier.
type KafkaNotifierConfig struct {
	// Brokers is the list of Kafka broker addresses (host:port).
	Brokers []string

	// Topic is the topic to write to.
	Topic string

	// WriteTimeout is the per-publish timeout. Defaults to 10s if zero.
	WriteTimeout time.Duration
}

// KafkaNotifier is a lightweight wrapper over segmentio/kafka-go Writer. It
// keys messages by project ID so the Hash balancer preserves per-project
// ordering within a partition.
type KafkaNotifier struct {
	writer  *kafka.Writer
	timeout time.Duration
}

func NewKafkaNotifier(cfg KafkaNotifierConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 10 * time.Second
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
		Async:        false,
	})

	return &KafkaNotifier{writer: w, timeout: cfg.WriteTimeout}, nil
}

func (n *KafkaNotifier) Publish(ctx context.Context, ev Event) {
	if ev.TS.IsZero() {
		ev.TS = time.Now().UTC()
	}
	value, err := json.Marshal(ev)
	if err != nil {
		log.Printf("events: marshal %s: %v", ev.Type, err)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	err = n.writer.WriteMessages(pubCtx, kafka.Message{
		Key:   []byte(ev.ProjectID.String()),
		Value: value,
		Time:  ev.TS,
	})
	if err != nil {
		log.Printf("events: publish %s for project %s: %v", ev.Type, ev.ProjectID, err)
	}
}

// Close flushes and closes the underlying writer.
func (n *KafkaNotifier) Close() error {
	return n.writer.Close()
}
