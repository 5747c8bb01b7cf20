package fixtures

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"aura-backend/domain/config"
	"aura-backend/domain/core/entities"
)

// CircleBuilder helps create test circles with default values
type CircleBuilder struct {
	id              string
	day             int
	status          entities.CircleStatus
	participants    []string
	maxParticipants int
	createdAt       time.Time
}

func NewCircleBuilder() *CircleBuilder {
	return &CircleBuilder{
		id:              uuid.NewString(),
		day:             1,
		status:          entities.CircleStatusActive,
		participants:    []string{"test-user-1"},
		maxParticipants: config.CircleCapacity,
		createdAt:       time.Now().UTC(),
	}
}

func (b *CircleBuilder) WithID(id string) *CircleBuilder {
	b.id = id
	return b
}

func (b *CircleBuilder) WithStatus(status entities.CircleStatus) *CircleBuilder {
	b.status = status
	return b
}

func (b *CircleBuilder) WithParticipants(participants ...string) *CircleBuilder {
	b.participants = participants
	return b
}

// WithParticipantCount fills the circle with n generated participants
func (b *CircleBuilder) WithParticipantCount(n int) *CircleBuilder {
	b.participants = make([]string, 0, n)
	for i := 1; i <= n; i++ {
		b.participants = append(b.participants, fmt.Sprintf("test-user-%d", i))
	}
	return b
}

func (b *CircleBuilder) WithCreatedAt(createdAt time.Time) *CircleBuilder {
	b.createdAt = createdAt
	return b
}

func (b *CircleBuilder) Build() (*entities.Circle, error) {
	return entities.ReconstructCircle(b.id, b.day, b.status, b.participants, b.maxParticipants, b.createdAt)
}

func (b *CircleBuilder) MustBuild() *entities.Circle {
	circle, err := b.Build()
	if err != nil {
		panic(err)
	}
	return circle
}

// MessageBuilder helps create test messages with default values
type MessageBuilder struct {
	circleID     string
	authorID     string
	segmentIndex int
	audioURL     string
	durationMs   int64
}

func NewMessageBuilder() *MessageBuilder {
	return &MessageBuilder{
		circleID:   uuid.NewString(),
		authorID:   "test-user-1",
		audioURL:   "https://cdn.example.com/audio/test.m4a",
		durationMs: 1500,
	}
}

func (b *MessageBuilder) WithCircleID(circleID string) *MessageBuilder {
	b.circleID = circleID
	return b
}

func (b *MessageBuilder) WithAuthorID(authorID string) *MessageBuilder {
	b.authorID = authorID
	return b
}

func (b *MessageBuilder) WithSegmentIndex(segmentIndex int) *MessageBuilder {
	b.segmentIndex = segmentIndex
	return b
}

func (b *MessageBuilder) MustBuild() *entities.Message {
	msg, err := entities.NewMessage(b.circleID, b.authorID, b.segmentIndex, b.audioURL, b.durationMs)
	if err != nil {
		panic(err)
	}
	return msg
}
