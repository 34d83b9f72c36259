// Package kafka carries company processing tasks between the batch
// coordinator and the distributed workers.
package kafka

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/turtacn/DisruptMetrics/internal/infrastructure/monitoring/logging"
	appErrors "github.com/turtacn/DisruptMetrics/pkg/errors"
	"github.com/turtacn/DisruptMetrics/pkg/types/metrics"
)

// Topic constants.
const (
	// TopicCompanyTasks carries one message per company to process.
	TopicCompanyTasks = "disrupt.company.tasks"
	// TopicCompanyResults carries per-company outcome reports.
	TopicCompanyResults = "disrupt.company.results"
	// TopicDeadLetter receives tasks that exhausted their retries.
	TopicDeadLetter = "disrupt.company.deadletter"
)

// TaskEnvelope is the unit of work dispatched to workers. Messages are keyed
// by company so re-deliveries of the same company land on the same partition.
type TaskEnvelope struct {
	TaskID     string    `json:"task_id"`
	RunID      string    `json:"run_id"`
	Company    string    `json:"company"`
	Attempt    int       `json:"attempt"`
	EnqueuedAt time.Time `json:"enqueued_at"`
}

// NewTaskEnvelope builds a first-attempt task for one company.
func NewTaskEnvelope(runID, company string) TaskEnvelope {
	return TaskEnvelope{
		TaskID:     uuid.NewString(),
		RunID:      runID,
		Company:    company,
		Attempt:    1,
		EnqueuedAt: time.Now().UTC(),
	}
}

// ResultEnvelope reports one company's processing outcome back to the
// coordinator.
type ResultEnvelope struct {
	RunID      string                `json:"run_id"`
	Result     metrics.CompanyResult `json:"result"`
	ReportedAt time.Time             `json:"reported_at"`
}

// DecodeTask unmarshals a task message payload.
func DecodeTask(value []byte) (TaskEnvelope, error) {
	var task TaskEnvelope
	if len(value) == 0 {
		return task, appErrors.New(appErrors.ErrCodeValidation, "empty task payload")
	}
	if err := json.Unmarshal(value, &task); err != nil {
		return task, appErrors.Wrap(err, appErrors.ErrCodeSerialization, "failed to decode task")
	}
	if task.Company == "" {
		return task, appErrors.New(appErrors.ErrCodeValidation, "task has no company")
	}
	return task, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Topic management
// ─────────────────────────────────────────────────────────────────────────────

// TopicConfig describes one topic to provision.
type TopicConfig struct {
	Name              string
	NumPartitions     int
	ReplicationFactor int
	RetentionMs       int64
}

// ConnInterface abstracts kafka.Conn for testing.
type ConnInterface interface {
	CreateTopics(topics ...kafka.TopicConfig) error
	ReadPartitions(topics ...string) ([]kafka.Partition, error)
	Close() error
}

// TopicManager provisions the pipeline's topics on startup.
type TopicManager struct {
	conn   ConnInterface
	logger logging.Logger
}

// NewTopicManager dials the first broker.
func NewTopicManager(brokers []string, logger logging.Logger) (*TopicManager, error) {
	if len(brokers) == 0 {
		return nil, appErrors.New(appErrors.ErrCodeValidation, "brokers required")
	}
	conn, err := kafka.Dial("tcp", brokers[0])
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrCodeExternalService, "failed to dial kafka")
	}
	return &TopicManager{conn: conn, logger: logger}, nil
}

func newTopicManagerWithConn(conn ConnInterface, logger logging.Logger) *TopicManager {
	return &TopicManager{conn: conn, logger: logger}
}

// EnsureTopics creates every topic that does not exist yet.
func (m *TopicManager) EnsureTopics(topics []TopicConfig) error {
	for _, t := range topics {
		if t.Name == "" || t.NumPartitions <= 0 || t.ReplicationFactor <= 0 {
			return appErrors.Newf(appErrors.ErrCodeValidation, "invalid topic config %+v", t)
		}

		cfg := kafka.TopicConfig{
			Topic:             t.Name,
			NumPartitions:     t.NumPartitions,
			ReplicationFactor: t.ReplicationFactor,
		}
		if t.RetentionMs > 0 {
			cfg.ConfigEntries = append(cfg.ConfigEntries, kafka.ConfigEntry{
				ConfigName:  "retention.ms",
				ConfigValue: strconv.FormatInt(t.RetentionMs, 10),
			})
		}

		if err := m.conn.CreateTopics(cfg); err != nil {
			// A topic that already exists is not a failure.
			if exists, _ := m.topicExists(t.Name); exists {
				continue
			}
			return appErrors.Wrap(err, appErrors.ErrCodeExternalService, "failed to create topic "+t.Name)
		}
		m.logger.Info("topic created", logging.String("topic", t.Name))
	}
	return nil
}

// EnsureDefaultTopics provisions the three pipeline topics.
func (m *TopicManager) EnsureDefaultTopics() error {
	return m.EnsureTopics(DefaultTopics())
}

func (m *TopicManager) topicExists(name string) (bool, error) {
	partitions, err := m.conn.ReadPartitions(name)
	if err != nil {
		return false, err
	}
	return len(partitions) > 0, nil
}

// Close releases the admin connection.
func (m *TopicManager) Close() error {
	return m.conn.Close()
}

// DefaultTopics lists the pipeline topics with their retention settings.
// Replication factor 1 suits the single-broker deployments the batch runs on;
// operators scale it through explicit EnsureTopics calls.
func DefaultTopics() []TopicConfig {
	const day = int64(24 * 3600 * 1000)
	return []TopicConfig{
		{Name: TopicCompanyTasks, NumPartitions: 6, ReplicationFactor: 1, RetentionMs: 7 * day},
		{Name: TopicCompanyResults, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 30 * day},
		{Name: TopicDeadLetter, NumPartitions: 3, ReplicationFactor: 1, RetentionMs: 30 * day},
	}
}
