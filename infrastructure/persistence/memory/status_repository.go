package memory

import (
	"context"
	"fmt"
	"sync"

	"aura-backend/domain/core/entities"
)

// InMemoryStatusCheckRepository stores status checks in insertion order
type InMemoryStatusCheckRepository struct {
	mu     sync.RWMutex
	checks []entities.StatusCheck
}

// NewInMemoryStatusCheckRepository creates a new in-memory status check repository
func NewInMemoryStatusCheckRepository() *InMemoryStatusCheckRepository {
	return &InMemoryStatusCheckRepository{}
}

// InsertOne stores a status check
func (r *InMemoryStatusCheckRepository) InsertOne(ctx context.Context, check *entities.StatusCheck) (string, error) {
	if check == nil {
		return "", fmt.Errorf("invalid status check")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.checks = append(r.checks, *check)
	return check.ID, nil
}

// List returns up to limit status checks, oldest first
func (r *InMemoryStatusCheckRepository) List(ctx context.Context, limit int) ([]*entities.StatusCheck, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := len(r.checks)
	if limit > 0 && n > limit {
		n = limit
	}

	out := make([]*entities.StatusCheck, 0, n)
	for i := 0; i < n; i++ {
		check := r.checks[i]
		out = append(out, &check)
	}
	return out, nil
}
