package queue

import (
	"context"
	"slices"
	"sync"
)

// MemoryStorage implements Storage in memory, for tests and local
// development.
type MemoryStorage struct {
	mu    sync.RWMutex
	tasks []*Task
}

// NewMemoryStorage creates an empty in-memory storage.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

func (ms *MemoryStorage) CreateTask(ctx context.Context, task *Task) error {
	if task == nil {
		return ErrTaskNil
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()

	clone := *task
	ms.tasks = append(ms.tasks, &clone)
	return nil
}

// Tasks returns a snapshot of all stored tasks in creation order.
func (ms *MemoryStorage) Tasks() []*Task {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	return slices.Clone(ms.tasks)
}
