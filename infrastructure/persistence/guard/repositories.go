package guard

import (
	"context"

	"aura-backend/application/ports"
	"aura-backend/domain/core/entities"
)

// CircleRepository decorates a circle repository with the guard
type CircleRepository struct {
	next  ports.CircleRepository
	guard *Guard
}

// NewCircleRepository wraps next
func NewCircleRepository(next ports.CircleRepository, guard *Guard) *CircleRepository {
	return &CircleRepository{next: next, guard: guard}
}

func (r *CircleRepository) FindOne(ctx context.Context, filter ports.CircleFilter) (*entities.Circle, error) {
	return do(ctx, r.guard, "find circle", func(ctx context.Context) (*entities.Circle, error) {
		return r.next.FindOne(ctx, filter)
	})
}

func (r *CircleRepository) ConditionalUpdate(ctx context.Context, filter ports.CircleFilter, update ports.CircleUpdate) (bool, error) {
	return do(ctx, r.guard, "update circle", func(ctx context.Context) (bool, error) {
		return r.next.ConditionalUpdate(ctx, filter, update)
	})
}

func (r *CircleRepository) InsertOne(ctx context.Context, circle *entities.Circle) (string, error) {
	return do(ctx, r.guard, "insert circle", func(ctx context.Context) (string, error) {
		return r.next.InsertOne(ctx, circle)
	})
}

// MessageRepository decorates a message repository with the guard
type MessageRepository struct {
	next  ports.MessageRepository
	guard *Guard
}

// NewMessageRepository wraps next
func NewMessageRepository(next ports.MessageRepository, guard *Guard) *MessageRepository {
	return &MessageRepository{next: next, guard: guard}
}

func (r *MessageRepository) InsertOne(ctx context.Context, message *entities.Message) (string, error) {
	return do(ctx, r.guard, "insert message", func(ctx context.Context) (string, error) {
		return r.next.InsertOne(ctx, message)
	})
}

func (r *MessageRepository) FindByCircle(ctx context.Context, circleID string, limit int) ([]*entities.Message, error) {
	return do(ctx, r.guard, "list messages", func(ctx context.Context) ([]*entities.Message, error) {
		return r.next.FindByCircle(ctx, circleID, limit)
	})
}

// StatusCheckRepository decorates a status check repository with the guard
type StatusCheckRepository struct {
	next  ports.StatusCheckRepository
	guard *Guard
}

// NewStatusCheckRepository wraps next
func NewStatusCheckRepository(next ports.StatusCheckRepository, guard *Guard) *StatusCheckRepository {
	return &StatusCheckRepository{next: next, guard: guard}
}

func (r *StatusCheckRepository) InsertOne(ctx context.Context, check *entities.StatusCheck) (string, error) {
	return do(ctx, r.guard, "insert status check", func(ctx context.Context) (string, error) {
		return r.next.InsertOne(ctx, check)
	})
}

func (r *StatusCheckRepository) List(ctx context.Context, limit int) ([]*entities.StatusCheck, error) {
	return do(ctx, r.guard, "list status checks", func(ctx context.Context) ([]*entities.StatusCheck, error) {
		return r.next.List(ctx, limit)
	})
}
