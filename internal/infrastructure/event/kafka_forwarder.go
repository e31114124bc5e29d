package event

import (
	"context"
	"fmt"
	"time"

	"github.com/erp/consignment/internal/domain/consignment"
	"github.com/erp/consignment/internal/domain/shared"
	"github.com/erp/consignment/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
)

// MessageWriter is the part of *kafka.Writer the forwarder needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder publishes consignment events to a Kafka topic as JSON.
// Messages are keyed by aggregate ID so one consignment's events stay ordered.
type KafkaForwarder struct {
	writer     MessageWriter
	serializer *EventSerializer
	source     string
	logger     *zap.Logger
}

// NewKafkaWriter builds a synchronous writer for the configured topic
func NewKafkaWriter(cfg config.KafkaConfig) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           cfg.BatchTimeout,
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		Async:                  false,
	}
}

// NewKafkaForwarder creates a forwarder over the given writer
func NewKafkaForwarder(writer MessageWriter, serializer *EventSerializer, source string, logger *zap.Logger) *KafkaForwarder {
	if serializer == nil {
		serializer = NewConsignmentEventSerializer()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaForwarder{
		writer:     writer,
		serializer: serializer,
		source:     source,
		logger:     logger.Named("kafka_forwarder"),
	}
}

// EventTypes returns the consignment events this forwarder publishes
func (f *KafkaForwarder) EventTypes() []string {
	return consignment.AllEventTypes()
}

// Handle writes one event to the topic
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	data, err := f.serializer.Serialize(event)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(event.AggregateID().String()),
		Value: data,
		Headers: []kafka.Header{
			{Key: "ce-specversion", Value: []byte("1.0")},
			{Key: "ce-type", Value: []byte(event.EventType())},
			{Key: "ce-source", Value: []byte(f.source)},
			{Key: "ce-id", Value: []byte(event.EventID().String())},
			{Key: "ce-time", Value: []byte(event.OccurredAt().Format(time.RFC3339))},
			{Key: "content-type", Value: []byte("application/json")},
		},
		Time: event.OccurredAt(),
	}
	carrier := headerCarrier{msg: &msg}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s event: %w", event.EventType(), err)
	}
	f.logger.Debug("event forwarded",
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_id", event.AggregateID().String()),
	)
	return nil
}

// Close flushes and closes the writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

// headerCarrier adapts kafka headers to the otel propagation carrier
type headerCarrier struct {
	msg *kafka.Message
}

func (c headerCarrier) Get(key string) string {
	for _, h := range c.msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}

func (c headerCarrier) Set(key, value string) {
	for i := range c.msg.Headers {
		if c.msg.Headers[i].Key == key {
			c.msg.Headers[i].Value = []byte(value)
			return
		}
	}
	c.msg.Headers = append(c.msg.Headers, kafka.Header{Key: key, Value: []byte(value)})
}

func (c headerCarrier) Keys() []string {
	keys := make([]string, len(c.msg.Headers))
	for i, h := range c.msg.Headers {
		keys[i] = h.Key
	}
	return keys
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
