package ports

import (
	"context"

	"aura-backend/domain/core/entities"
	"aura-backend/domain/events"
)

// CircleRepository is the document-store port for circles.
// Implementations guarantee per-document atomicity only; nothing here spans
// more than one circle document in a single transaction.
//
// Every participant is also claimed in a per-user membership record, so a
// user can be written into at most one circle. Lookups by Participant read
// that record with strong consistency.
type CircleRepository interface {
	// FindOne returns the matching circle with the earliest creation time
	// (ties broken by circle ID). It returns a NotFound error when none match.
	FindOne(ctx context.Context, filter CircleFilter) (*entities.Circle, error)

	// ConditionalUpdate applies update to the circle named by filter.CircleID
	// only if the whole filter holds at apply time and the appended user is
	// not claimed by another circle. It reports false, with a nil error, when
	// either check fails.
	ConditionalUpdate(ctx context.Context, filter CircleFilter, update CircleUpdate) (bool, error)

	// InsertOne persists a new circle and returns its ID. It returns a
	// Conflict error when a participant already belongs to a circle.
	InsertOne(ctx context.Context, circle *entities.Circle) (string, error)
}

// MessageRepository is the document-store port for voice messages
type MessageRepository interface {
	// InsertOne persists a new message and returns its ID
	InsertOne(ctx context.Context, message *entities.Message) (string, error)

	// FindByCircle returns up to limit messages of a circle in insertion order
	FindByCircle(ctx context.Context, circleID string, limit int) ([]*entities.Message, error)
}

// StatusCheckRepository stores client status pings
type StatusCheckRepository interface {
	InsertOne(ctx context.Context, check *entities.StatusCheck) (string, error)
	List(ctx context.Context, limit int) ([]*entities.StatusCheck, error)
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Metrics records business outcomes
type Metrics interface {
	// RecordJoin counts a finished join by outcome and the attempts it took
	RecordJoin(outcome string, attempts int)

	// RecordJoinConflict counts a conditioned append rejected by storage
	RecordJoinConflict()

	// RecordMessage counts a stored voice message
	RecordMessage()
}
