package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the exporter uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaExporter forwards auth events to a Kafka topic, keyed by subject so one
// account's events stay ordered within a partition.
type KafkaExporter struct {
	writer MessageWriter
	logger *zap.Logger
}

// NewKafkaWriter builds an async writer for topic. Delivery failures are logged
// by the completion callback since async writes never return them.
func NewKafkaWriter(brokers []string, topic string, writeTimeout time.Duration, logger *zap.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		WriteTimeout: writeTimeout,
		Async:        true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Warn("kafka delivery failed", zap.String("topic", topic), zap.Int("messages", len(messages)), zap.Error(err))
			}
		},
	}
}

// NewKafkaExporter wraps writer.
func NewKafkaExporter(writer MessageWriter, logger *zap.Logger) *KafkaExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaExporter{writer: writer, logger: logger}
}

// Register subscribes the exporter to every login event.
func (e *KafkaExporter) Register(d Dispatcher) {
	SubscribeAll(d, e.Handle, LoginEventTypes...)
}

// Handle writes one event as JSON.
func (e *KafkaExporter) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.ID, err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Subject),
		Value: payload,
		Time:  event.Timestamp,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := e.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("export event %s: %w", event.ID, err)
	}
	return nil
}

// Close flushes pending messages.
func (e *KafkaExporter) Close() error {
	if err := e.writer.Close(); err != nil {
		e.logger.Warn("close kafka writer", zap.Error(err))
		return err
	}
	return nil
}
