package repository

import (
	"context"
	"time"

	"BDRScan/internal/domain/models"
	pkgkafka "BDRScan/pkg/kafka"
	applogger "BDRScan/pkg/logger"
)

// snapshotEnvelope is the Kafka wire format for one scored snapshot.
type snapshotEnvelope struct {
	ScanAt   time.Time                  `json:"scan_at"`
	Snapshot models.FundamentalSnapshot `json:"snapshot"`
}

// KafkaSnapshotPublisher routes scan snapshots to a Kafka topic, one
// message per symbol keyed by home code so per-symbol ordering holds.
type KafkaSnapshotPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	log      *applogger.Logger
}

// NewKafkaSnapshotPublisher wraps a producer for snapshot delivery.
func NewKafkaSnapshotPublisher(producer *pkgkafka.Producer, topic string, log *applogger.Logger) *KafkaSnapshotPublisher {
	return &KafkaSnapshotPublisher{producer: producer, topic: topic, log: log}
}

// Write publishes the snapshots of one completed scan as a batch.
func (p *KafkaSnapshotPublisher) Write(ctx context.Context, scanAt time.Time, snaps []models.FundamentalSnapshot) error {
	if len(snaps) == 0 {
		return nil
	}

	msgs := make([]pkgkafka.Message, 0, len(snaps))
	for _, s := range snaps {
		msgs = append(msgs, pkgkafka.Message{
			Key:   []byte(s.Symbol),
			Value: snapshotEnvelope{ScanAt: scanAt, Snapshot: s},
		})
	}

	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return err
	}
	p.log.Debug("snapshots published",
		applogger.String("topic", p.topic), applogger.Int("count", len(msgs)))
	return nil
}

// Close closes the underlying producer.
func (p *KafkaSnapshotPublisher) Close() error {
	return p.producer.Close()
}

// LogPublisher adapts the Kafka producer to the logger's aggregated
// log collector.
type LogPublisher struct {
	producer *pkgkafka.Producer
}

// NewLogPublisher wraps a producer for log delivery.
func NewLogPublisher(producer *pkgkafka.Producer) *LogPublisher {
	return &LogPublisher{producer: producer}
}

// PublishMessage implements logger.Publisher.
func (p *LogPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}
