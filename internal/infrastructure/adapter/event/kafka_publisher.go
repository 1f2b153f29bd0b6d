package event

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/amirhossein-jamali/coin-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/coin-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/coin-ledger/internal/domain/port/gateway"
)

// Config holds the kafka writer settings
type Config struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	BatchTimeout time.Duration
	WriteTimeout time.Duration
}

// messageWriter is the subset of *kafka.Writer the publisher needs
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// NewKafkaWriter builds a writer that keys messages by account so one
// account's events stay ordered on a single partition
func NewKafkaWriter(cfg Config, logger coreport.Logger) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		MaxAttempts:  3,
		BatchSize:    cfg.BatchSize,
		BatchTimeout: cfg.BatchTimeout,
		WriteTimeout: cfg.WriteTimeout,
		Compression:  kafka.Snappy,
		ErrorLogger: kafka.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Warn(fmt.Sprintf(msg, args...), map[string]any{"component": "kafka"})
		}),
	}
}

// KafkaPublisher publishes committed ledger postings
type KafkaPublisher struct {
	writer messageWriter
	logger coreport.Logger
}

// NewKafkaPublisher creates a publisher over writer
func NewKafkaPublisher(writer messageWriter, logger coreport.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		logger: logger,
	}
}

// Publish writes events in one batch. Delivery is at least once.
func (p *KafkaPublisher) Publish(ctx context.Context, events []entity.LedgerEvent) error {
	if len(events) == 0 {
		return nil
	}

	msgs := make([]kafka.Message, 0, len(events))
	for _, ev := range events {
		data, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("marshal ledger event %s: %w", ev.TransactionID, err)
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(strconv.FormatUint(ev.AccountID, 10)),
			Value: data,
			Time:  ev.OccurredAt,
			Headers: []kafka.Header{
				{Key: "event-type", Value: []byte(ev.EventType)},
				{Key: "correlation-id", Value: []byte(ev.CorrelationID)},
			},
		})
	}

	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d ledger events: %w", len(msgs), err)
	}

	p.logger.Debug("Ledger events published", map[string]any{
		"count":          len(msgs),
		"correlation_id": events[0].CorrelationID,
	})
	return nil
}

// Close flushes pending messages and closes the writer
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

var _ gateway.EventPublisher = (*KafkaPublisher)(nil)
