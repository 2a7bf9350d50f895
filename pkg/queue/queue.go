// Package queue hands durable work items to asynchronous workers. It backs
// the tenant onboarding and offboarding flows: provisioning a silo and
// cleaning up a soft-deleted tenant both happen outside the request path,
// and the hand-off must survive a crash, so it is a stored task rather than
// a fire-and-forget call.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// DefaultQueueName is used when no queue is specified.
const DefaultQueueName = "default"

// TaskStatus represents the lifecycle of a stored task.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusCompleted  TaskStatus = "completed"
	TaskStatusFailed     TaskStatus = "failed"
)

// Task is a durable unit of asynchronous work.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	Queue       string     `json:"queue"`
	TaskName    string     `json:"task_name"`
	Payload     []byte     `json:"payload,omitempty"`
	Status      TaskStatus `json:"status"`
	RetryCount  int8       `json:"retry_count"`
	MaxRetries  int8       `json:"max_retries"`
	ScheduledAt time.Time  `json:"scheduled_at"`
	CreatedAt   time.Time  `json:"created_at"`
}

var (
	ErrStorageNil  = errors.New("queue: storage cannot be nil")
	ErrPayloadNil  = errors.New("queue: payload cannot be nil")
	ErrTaskNil     = errors.New("queue: task cannot be nil")
	ErrMarshalTask = errors.New("queue: failed to marshal task payload")
)

// Storage persists tasks. Implementations must make CreateTask durable
// before returning; the caller treats a nil error as a committed hand-off.
type Storage interface {
	CreateTask(ctx context.Context, task *Task) error
}

// Enqueuer creates durable tasks.
type Enqueuer struct {
	storage      Storage
	defaultQueue string
	maxRetries   int8
}

// NewEnqueuer creates an Enqueuer writing to the given storage.
func NewEnqueuer(storage Storage) (*Enqueuer, error) {
	if storage == nil {
		return nil, ErrStorageNil
	}
	return &Enqueuer{
		storage:      storage,
		defaultQueue: DefaultQueueName,
		maxRetries:   3,
	}, nil
}

// Enqueue stores a task with a JSON-encoded payload for later processing.
func (e *Enqueuer) Enqueue(ctx context.Context, taskName string, payload any) error {
	if payload == nil {
		return ErrPayloadNil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Join(ErrMarshalTask, err)
	}

	now := time.Now().UTC()
	return e.storage.CreateTask(ctx, &Task{
		ID:          uuid.New(),
		Queue:       e.defaultQueue,
		TaskName:    taskName,
		Payload:     body,
		Status:      TaskStatusPending,
		MaxRetries:  e.maxRetries,
		ScheduledAt: now,
		CreatedAt:   now,
	})
}
