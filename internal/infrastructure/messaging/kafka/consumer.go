package kafka

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/turtacn/DisruptMetrics/internal/config"
	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
)

// ErrAlreadyRunning is returned by Run when the consumer loop is active.
var ErrAlreadyRunning = appErrors.New(appErrors.ErrCodeConflict, "consumer already running")

// TaskHandler processes one company task. A nil return commits the message;
// an error triggers retries and eventually the dead-letter topic.
type TaskHandler func(ctx context.Context, task TaskEnvelope) error

// ReaderInterface abstracts kafka.Reader for testing.
type ReaderInterface interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Consumer pulls company tasks from the task topic and hands them to a
// TaskHandler. Failed tasks are retried with exponential backoff and parked
// on the dead-letter topic when retries are exhausted; a poisoned message
// never blocks the partition.
type Consumer struct {
	reader  ReaderInterface
	dlq     *Producer
	handler TaskHandler
	logger  logging.Logger

	maxRetries int
	backoff    time.Duration

	running      atomic.Bool
	processed    atomic.Int64
	failed       atomic.Int64
	deadLettered atomic.Int64
}

// NewConsumer builds a consumer group member reading the task topic.
func NewConsumer(cfg config.KafkaConfig, worker config.WorkerConfig, dlq *Producer, handler TaskHandler, logger logging.Logger) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "brokers required")
	}
	if handler == nil {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "handler required")
	}

	startOffset := kafka.FirstOffset
	if cfg.AutoOffsetReset == "latest" {
		startOffset = kafka.LastOffset
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       TopicCompanyTasks,
		MinBytes:    1,
		MaxBytes:    10 * 1024 * 1024,
		StartOffset: startOffset,
	})

	return newConsumerWithReader(reader, worker, dlq, handler, logger), nil
}

func newConsumerWithReader(reader ReaderInterface, worker config.WorkerConfig, dlq *Producer, handler TaskHandler, logger logging.Logger) *Consumer {
	backoff := worker.RetryBackoffMS
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	return &Consumer{
		reader:     reader,
		dlq:        dlq,
		handler:    handler,
		logger:     logger,
		maxRetries: worker.MaxRetries,
		backoff:    backoff,
	}
}

// Run consumes until ctx is cancelled or the reader is closed.
func (c *Consumer) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	defer c.running.Store(false)

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, io.EOF) {
				return nil
			}
			c.logger.Error("fetch failed", logging.Err(err))
			continue
		}

		c.process(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.Error("commit failed",
				logging.Err(err),
				logging.Int64("offset", msg.Offset),
			)
		}
	}
}

func (c *Consumer) process(ctx context.Context, msg kafka.Message) {
	task, err := DecodeTask(msg.Value)
	if err != nil {
		// Undecodable payloads are logged and skipped; retrying cannot help.
		c.failed.Add(1)
		c.logger.Error("dropping undecodable task",
			logging.Err(err),
			logging.Int64("offset", msg.Offset),
		)
		return
	}

	for attempt := 0; ; attempt++ {
		err := c.handler(ctx, task)
		if err == nil {
			c.processed.Add(1)
			return
		}

		if attempt >= c.maxRetries {
			c.failed.Add(1)
			c.deadLetter(ctx, task, attempt+1)
			return
		}

		c.logger.Warn("task failed, retrying",
			logging.String("company", task.Company),
			logging.Int("attempt", attempt+1),
			logging.Err(err),
		)
		select {
		case <-ctx.Done():
			c.failed.Add(1)
			return
		case <-time.After(c.backoff << attempt):
		}
	}
}

func (c *Consumer) deadLetter(ctx context.Context, task TaskEnvelope, attempts int) {
	task.Attempt = attempts
	if c.dlq == nil {
		c.logger.Error("task exhausted retries, no dead-letter producer",
			logging.String("company", task.Company),
		)
		return
	}
	if err := c.dlq.PublishDeadLetter(ctx, task); err != nil {
		c.logger.Error("failed to dead-letter task",
			logging.String("company", task.Company),
			logging.Err(err),
		)
		return
	}
	c.deadLettered.Add(1)
	c.logger.Warn("task dead-lettered",
		logging.String("company", task.Company),
		logging.Int("attempts", attempts),
	)
}

// Processed returns the number of successfully handled tasks.
func (c *Consumer) Processed() int64 { return c.processed.Load() }

// DeadLettered returns the number of tasks parked on the dead-letter topic.
func (c *Consumer) DeadLettered() int64 { return c.deadLettered.Load() }

// Close stops the reader, which unblocks Run.
func (c *Consumer) Close() error {
	return c.reader.Close()
}
