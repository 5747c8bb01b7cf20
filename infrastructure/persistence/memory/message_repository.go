package memory

import (
	"context"
	"fmt"
	"sync"

	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"
)

// InMemoryMessageRepository keeps messages per circle in insertion order
type InMemoryMessageRepository struct {
	mu       sync.RWMutex
	byCircle map[string][]*entities.Message
	ids      map[string]struct{}
}

// NewInMemoryMessageRepository creates a new in-memory message repository
func NewInMemoryMessageRepository() *InMemoryMessageRepository {
	return &InMemoryMessageRepository{
		byCircle: make(map[string][]*entities.Message),
		ids:      make(map[string]struct{}),
	}
}

// InsertOne appends a message to its circle's log
func (r *InMemoryMessageRepository) InsertOne(ctx context.Context, message *entities.Message) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if message == nil {
		return "", fmt.Errorf("invalid message")
	}

	id := message.ID().String()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[id]; exists {
		return "", pkgerrors.NewConflictError(fmt.Sprintf("message %s already exists", id))
	}
	r.ids[id] = struct{}{}
	r.byCircle[message.CircleID()] = append(r.byCircle[message.CircleID()], message)
	return id, nil
}

// FindByCircle returns up to limit messages of a circle in insertion order
func (r *InMemoryMessageRepository) FindByCircle(ctx context.Context, circleID string, limit int) ([]*entities.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	stored := r.byCircle[circleID]
	if limit > 0 && len(stored) > limit {
		stored = stored[:limit]
	}

	out := make([]*entities.Message, len(stored))
	copy(out, stored)
	return out, nil
}
