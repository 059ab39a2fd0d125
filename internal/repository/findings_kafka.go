package repository

import (
	"context"
	"fmt"
	"time"

	"BlueprintScan/internal/domain/models"
	drepo "BlueprintScan/internal/domain/repository"
	"BlueprintScan/pkg/kafka"
	"BlueprintScan/pkg/logger"
)

// KafkaFindingsPublisher forwards scan findings to a Kafka topic for
// downstream consumers. Messages are keyed by symbol so per-instrument
// ordering survives partitioning.
type KafkaFindingsPublisher struct {
	producer *kafka.Producer
	topic    string
	log      *logger.Logger
}

// findingEnvelope is the published message shape: one finding plus the
// scan timestamp it was produced in.
type findingEnvelope struct {
	models.Finding
	ScannedAt time.Time `json:"scannedAt"`
}

// NewKafkaFindingsPublisher creates a publisher on an existing producer.
func NewKafkaFindingsPublisher(producer *kafka.Producer, topic string, log *logger.Logger) drepo.FindingsPublisher {
	return &KafkaFindingsPublisher{
		producer: producer,
		topic:    topic,
		log:      log,
	}
}

// Publish sends every finding in the result as its own message. An
// empty result publishes nothing.
func (p *KafkaFindingsPublisher) Publish(ctx context.Context, res models.ScanResult) error {
	for _, f := range res.Findings {
		env := findingEnvelope{Finding: f, ScannedAt: res.Timestamp}
		if err := p.producer.Publish(ctx, p.topic, []byte(f.Symbol), env); err != nil {
			return fmt.Errorf("publish finding %s/%s: %w", f.Symbol, f.Blueprint, err)
		}
	}
	if len(res.Findings) > 0 {
		p.log.Debug("findings published",
			logger.Int("count", len(res.Findings)), logger.String("topic", p.topic))
	}
	return nil
}

// Close closes the underlying producer.
func (p *KafkaFindingsPublisher) Close() error {
	return p.producer.Close()
}
