package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/gtmscore/gtmscore/pkg/models"
)

// Publisher pushes stored submissions onto a Kafka topic for downstream
// consumers (CRM sync, analytics). Publishing is best-effort; failures are
// logged by the caller and never fail the scoring response.
type Publisher interface {
	PublishSubmission(ctx context.Context, sub models.Submission) error
	Ping(ctx context.Context) error
	Close() error
}

// KafkaConfig represents Kafka publisher configuration. Empty Brokers
// disables publishing.
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers" json:"brokers"`
	Topic        string        `yaml:"topic" json:"topic"`
	ClientID     string        `yaml:"client_id" json:"client_id"`
	BatchTimeout time.Duration `yaml:"batch_timeout" json:"batch_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout" json:"write_timeout"`
}

// DefaultKafkaConfig returns default Kafka publisher configuration.
func DefaultKafkaConfig() KafkaConfig {
	return KafkaConfig{
		Topic:        "gtm-assessments",
		ClientID:     "gtmscore",
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 10 * time.Second,
	}
}

// KafkaPublisher implements Publisher using a kafka-go writer.
type KafkaPublisher struct {
	config KafkaConfig
	writer *kafka.Writer
}

// NewKafkaPublisher creates a Kafka-backed submission publisher.
func NewKafkaPublisher(config KafkaConfig) (*KafkaPublisher, error) {
	if len(config.Brokers) == 0 {
		return nil, fmt.Errorf("kafka publisher requires at least one broker")
	}
	if config.Topic == "" {
		config.Topic = DefaultKafkaConfig().Topic
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(config.Brokers...),
		Topic:        config.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: config.BatchTimeout,
		WriteTimeout: config.WriteTimeout,
	}

	return &KafkaPublisher{config: config, writer: writer}, nil
}

// PublishSubmission publishes one submission event keyed by submission id.
func (p *KafkaPublisher) PublishSubmission(ctx context.Context, sub models.Submission) error {
	event := models.SubmissionEvent{
		EventID:    uuid.New().String(),
		Type:       "assessment.submitted",
		Timestamp:  time.Now().UTC(),
		Submission: sub,
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal submission event: %w", err)
	}

	message := kafka.Message{
		Key:   []byte(sub.ID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "cohort", Value: []byte(sub.Cohort)},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
		Time: time.Now(),
	}

	if err := p.writer.WriteMessages(ctx, message); err != nil {
		return fmt.Errorf("failed to publish submission %s: %w", sub.ID, err)
	}
	return nil
}

// Ping checks broker reachability.
func (p *KafkaPublisher) Ping(ctx context.Context) error {
	conn, err := kafka.DialContext(ctx, "tcp", p.config.Brokers[0])
	if err != nil {
		return fmt.Errorf("failed to dial kafka broker: %w", err)
	}
	return conn.Close()
}

// Close flushes and closes the underlying writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
