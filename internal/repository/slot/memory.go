package slot

import (
	"context"
	"sync"
)

type memoryRepo struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemory returns a process-local slot. Contents do not survive a restart.
func NewMemory() Repository {
	return &memoryRepo{values: make(map[string]string)}
}

func (r *memoryRepo) Get(_ context.Context, key string) (string, bool, error) {
	r.mu.RLock()
	v, ok := r.values[key]
	r.mu.RUnlock()
	return v, ok, nil
}

func (r *memoryRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	r.values[key] = value
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	delete(r.values, key)
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Ping(context.Context) error {
	return nil
}
