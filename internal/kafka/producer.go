package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IBM/sarama"
	"github.com/taskfish-server/internal/config"
	"github.com/taskfish-server/internal/domain"
)

// EventProducer publishes game events to Kafka
type EventProducer struct {
	topic    string
	producer sarama.AsyncProducer
	logger   *slog.Logger
	wg       sync.WaitGroup
}

// NewEventProducer creates a new async event producer
func NewEventProducer(cfg *config.KafkaConfig, logger *slog.Logger) (*EventProducer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Compression = sarama.CompressionSnappy
	saramaConfig.Producer.Flush.Frequency = cfg.FlushFrequency
	saramaConfig.Producer.Return.Errors = true

	producer, err := sarama.NewAsyncProducer(cfg.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("creating kafka producer: %w", err)
	}

	return newEventProducer(cfg.EventTopic, producer, logger), nil
}

func newEventProducer(topic string, producer sarama.AsyncProducer, logger *slog.Logger) *EventProducer {
	p := &EventProducer{
		topic:    topic,
		producer: producer,
		logger:   logger,
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		for err := range producer.Errors() {
			p.logger.Error("failed to deliver game event", "error", err)
		}
	}()

	return p
}

// Publish queues an event for delivery
func (p *EventProducer) Publish(ctx context.Context, event domain.GameEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshaling event: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(event.Type),
		Value: sarama.ByteEncoder(data),
	}

	select {
	case p.producer.Input() <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close flushes pending events and shuts the producer down
func (p *EventProducer) Close() error {
	err := p.producer.Close()
	p.wg.Wait()
	return err
}
