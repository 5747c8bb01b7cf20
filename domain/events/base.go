package events

import (
	"time"

	"aura-backend/domain/core/valueobjects"
)

// SourceBackend identifies events emitted by this service
const SourceBackend = "aura.backend"

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Event type names
const (
	TypeCircleCreated     = "circle.created"
	TypeParticipantJoined = "circle.participant_joined"
	TypeMessageRecorded   = "message.recorded"
)

// Circle Events

// CircleCreated is raised when the allocator opens a new circle
type CircleCreated struct {
	BaseEvent
	CircleID        valueobjects.CircleID `json:"circle_id"`
	FounderID       string                `json:"founder_id"`
	MaxParticipants int                   `json:"max_participants"`
}

// NewCircleCreated creates a CircleCreated event
func NewCircleCreated(circleID valueobjects.CircleID, founderID string, maxParticipants int, timestamp time.Time) CircleCreated {
	return CircleCreated{
		BaseEvent: BaseEvent{
			AggregateID: circleID.String(),
			EventType:   TypeCircleCreated,
			Timestamp:   timestamp,
			Version:     1,
		},
		CircleID:        circleID,
		FounderID:       founderID,
		MaxParticipants: maxParticipants,
	}
}

// ParticipantJoined is raised when a user is appended to an existing circle
type ParticipantJoined struct {
	BaseEvent
	CircleID         valueobjects.CircleID `json:"circle_id"`
	UserID           string                `json:"user_id"`
	ParticipantCount int                   `json:"participant_count"`
}

// NewParticipantJoined creates a ParticipantJoined event
func NewParticipantJoined(circleID valueobjects.CircleID, userID string, count int, timestamp time.Time) ParticipantJoined {
	return ParticipantJoined{
		BaseEvent: BaseEvent{
			AggregateID: circleID.String(),
			EventType:   TypeParticipantJoined,
			Timestamp:   timestamp,
			Version:     1,
		},
		CircleID:         circleID,
		UserID:           userID,
		ParticipantCount: count,
	}
}

// Message Events

// MessageRecorded is raised when a voice message is stored
type MessageRecorded struct {
	BaseEvent
	MessageID    valueobjects.MessageID `json:"message_id"`
	CircleID     string                 `json:"circle_id"`
	AuthorID     string                 `json:"author_id"`
	SegmentIndex int                    `json:"segment_index"`
}

// NewMessageRecorded creates a MessageRecorded event
func NewMessageRecorded(messageID valueobjects.MessageID, circleID, authorID string, segmentIndex int, timestamp time.Time) MessageRecorded {
	return MessageRecorded{
		BaseEvent: BaseEvent{
			AggregateID: circleID,
			EventType:   TypeMessageRecorded,
			Timestamp:   timestamp,
			Version:     1,
		},
		MessageID:    messageID,
		CircleID:     circleID,
		AuthorID:     authorID,
		SegmentIndex: segmentIndex,
	}
}
