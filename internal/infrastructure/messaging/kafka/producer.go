package kafka

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/DisruptMetrics/internal/config"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// ErrProducerClosed is returned after Close.
var ErrProducerClosed = appErrors.New(appErrors.ErrCodeConflict, "producer closed")

// WriterInterface abstracts kafka.Writer for testing.
type WriterInterface interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer publishes task and result messages.
type Producer struct {
	writer WriterInterface
	logger logging.Logger
	closed atomic.Bool

	sent   atomic.Int64
	failed atomic.Int64
}

// NewProducer builds a producer from KafkaConfig. Messages are hashed by key
// so one company always lands on one partition.
func NewProducer(cfg config.KafkaConfig, logger logging.Logger) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "brokers required")
	}

	maxAttempts := cfg.ProducerRetries + 1
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	writeTimeout := 10 * time.Second
	if cfg.TimeoutMS > 0 {
		writeTimeout = time.Duration(cfg.TimeoutMS) * time.Millisecond
	}

	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Balancer:     &kafka.Hash{},
		MaxAttempts:  maxAttempts,
		BatchSize:    batchSize,
		BatchTimeout: time.Second,
		WriteTimeout: writeTimeout,
		RequiredAcks: kafka.RequireAll,
	}

	return newProducerWithWriter(writer, logger), nil
}

func newProducerWithWriter(writer WriterInterface, logger logging.Logger) *Producer {
	return &Producer{writer: writer, logger: logger}
}

// PublishTask enqueues one company task.
func (p *Producer) PublishTask(ctx context.Context, task TaskEnvelope) error {
	return p.publish(ctx, TopicCompanyTasks, task.Company, task)
}

// PublishResult reports a company's outcome.
func (p *Producer) PublishResult(ctx context.Context, runID string, result metrics.CompanyResult) error {
	env := ResultEnvelope{
		RunID:      runID,
		Result:     result,
		ReportedAt: time.Now().UTC(),
	}
	return p.publish(ctx, TopicCompanyResults, result.Company, env)
}

// PublishDeadLetter parks a task that exhausted its retries.
func (p *Producer) PublishDeadLetter(ctx context.Context, task TaskEnvelope) error {
	return p.publish(ctx, TopicDeadLetter, task.Company, task)
}

func (p *Producer) publish(ctx context.Context, topic, key string, payload interface{}) error {
	if p.closed.Load() {
		return ErrProducerClosed
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to encode message")
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: value,
		Time:  time.Now(),
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.failed.Add(1)
		return appErrors.Wrap(err, appErrors.ErrCodeExternalService, "failed to publish to "+topic)
	}

	p.sent.Add(1)
	p.logger.Debug("message published",
		logging.String("topic", topic),
		logging.String("key", key),
	)
	return nil
}

// Sent returns the number of successfully published messages.
func (p *Producer) Sent() int64 { return p.sent.Load() }

// Failed returns the number of failed publishes.
func (p *Producer) Failed() int64 { return p.failed.Load() }

// Close flushes and closes the writer. Safe to call more than once.
func (p *Producer) Close() error {
	if !p.closed.CompareAndSwap(false, true) {
		return nil
	}
	err := p.writer.Close()
	p.logger.Info("kafka producer closed", logging.Int64("sent", p.sent.Load()))
	return err
}
