// Package publisher forwards audit events to Kafka.
package publisher

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"dispenser-identity/internal/audit/domain"
)

// messageWriter is the part of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON document written to the audit topic.
type Event struct {
	ID        string    `json:"id"`
	UserID    int64     `json:"user_id"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource"`
	IP        string    `json:"ip"`
	Metadata  string    `json:"metadata,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// KafkaPublisher implements audit.Publisher using segmentio/kafka-go.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher that writes audit events to topic. Returns nil when
// brokers or topic are empty so callers can pass the result straight to audit.NewLogger.
// Call Close when shutting down.
func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	if len(brokers) == 0 || topic == "" {
		return nil
	}
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 50 * time.Millisecond,
	}
	return &KafkaPublisher{writer: writer, topic: topic}
}

// Publish serializes the entry as JSON and writes it keyed by user id, so one user's
// events stay ordered within a partition.
func (p *KafkaPublisher) Publish(ctx context.Context, entry *domain.AuditLog) error {
	if p == nil || p.writer == nil || entry == nil {
		return nil
	}
	payload, err := json.Marshal(Event{
		ID:        entry.ID,
		UserID:    entry.UserID,
		Action:    entry.Action,
		Resource:  entry.Resource,
		IP:        entry.IP,
		Metadata:  entry.Metadata,
		CreatedAt: entry.CreatedAt,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(entry.UserID, 10)),
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe to call on a nil publisher.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
