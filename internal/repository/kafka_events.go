package repository

import (
	"context"

	"github.com/BurhanCantCode/BaqiAI/internal/domain/models"
	drepo "github.com/BurhanCantCode/BaqiAI/internal/domain/repository"
	pkgkafka "github.com/BurhanCantCode/BaqiAI/pkg/kafka"
)

// KafkaEventPublisher implements EventPublisher over a Kafka producer.
// Progress and prediction events go to separate topics, keyed by symbol
// so per-symbol ordering survives partitioning.
type KafkaEventPublisher struct {
	producer        *pkgkafka.Producer
	progressTopic   string
	predictionTopic string
}

// NewKafkaEventPublisher creates a Kafka-backed batch event publisher.
func NewKafkaEventPublisher(producer *pkgkafka.Producer, progressTopic, predictionTopic string) drepo.EventPublisher {
	return &KafkaEventPublisher{
		producer:        producer,
		progressTopic:   progressTopic,
		predictionTopic: predictionTopic,
	}
}

// PublishProgress emits one batch progress event.
func (p *KafkaEventPublisher) PublishProgress(ctx context.Context, ev models.ProgressEvent) error {
	return p.producer.Publish(ctx, p.progressTopic, []byte(ev.Symbol), ev)
}

// PublishPrediction emits a completed per-symbol forecast.
func (p *KafkaEventPublisher) PublishPrediction(ctx context.Context, rec models.PredictionRecord) error {
	return p.producer.Publish(ctx, p.predictionTopic, []byte(rec.Symbol), rec)
}

// Close closes the underlying producer.
func (p *KafkaEventPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
