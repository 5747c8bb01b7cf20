package entities

import (
	"time"

	"aura-backend/domain/core/valueobjects"
	"aura-backend/domain/events"
	pkgerrors "aura-backend/pkg/errors"
)

// Message is an immutable voice-message record within a circle.
// The circle reference is weak: circles do not enumerate their messages.
type Message struct {
	id            valueobjects.MessageID
	circleID      string
	authorID      string
	segmentIndex  int
	audioURL      string
	durationMs    int64
	createdAt     time.Time
	transcript    *string
	emotionalTags map[string]interface{}

	events []events.DomainEvent
}

// NewMessage creates a message after checking that its inputs are well-formed.
// Membership and segment uniqueness are not checked here.
func NewMessage(circleID, authorID string, segmentIndex int, audioURL string, durationMs int64) (*Message, error) {
	if circleID == "" {
		return nil, pkgerrors.NewValidationError("circleID cannot be empty")
	}
	if authorID == "" {
		return nil, pkgerrors.NewValidationError("authorID cannot be empty")
	}
	if durationMs < 0 {
		return nil, pkgerrors.NewValidationError("durationMs cannot be negative")
	}

	now := time.Now().UTC()
	msg := &Message{
		id:           valueobjects.NewMessageID(),
		circleID:     circleID,
		authorID:     authorID,
		segmentIndex: segmentIndex,
		audioURL:     audioURL,
		durationMs:   durationMs,
		createdAt:    now,
		events:       []events.DomainEvent{},
	}

	msg.events = append(msg.events, events.NewMessageRecorded(msg.id, circleID, authorID, segmentIndex, now))
	return msg, nil
}

// ReconstructMessage rebuilds a message from stored state
func ReconstructMessage(
	id, circleID, authorID string,
	segmentIndex int,
	audioURL string,
	durationMs int64,
	createdAt time.Time,
	transcript *string,
	emotionalTags map[string]interface{},
) (*Message, error) {
	messageID, err := valueobjects.NewMessageIDFromString(id)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}

	return &Message{
		id:            messageID,
		circleID:      circleID,
		authorID:      authorID,
		segmentIndex:  segmentIndex,
		audioURL:      audioURL,
		durationMs:    durationMs,
		createdAt:     createdAt,
		transcript:    transcript,
		emotionalTags: emotionalTags,
		events:        []events.DomainEvent{},
	}, nil
}

func (m *Message) ID() valueobjects.MessageID { return m.id }
func (m *Message) CircleID() string           { return m.circleID }
func (m *Message) AuthorID() string           { return m.authorID }
func (m *Message) SegmentIndex() int          { return m.segmentIndex }
func (m *Message) AudioURL() string           { return m.audioURL }
func (m *Message) DurationMs() int64          { return m.durationMs }
func (m *Message) CreatedAt() time.Time       { return m.createdAt }

// Transcript returns the transcript if one has been attached
func (m *Message) Transcript() *string {
	return m.transcript
}

// EmotionalTags returns a shallow copy of the opaque emotion attributes,
// nil when absent
func (m *Message) EmotionalTags() map[string]interface{} {
	if m.emotionalTags == nil {
		return nil
	}
	out := make(map[string]interface{}, len(m.emotionalTags))
	for k, v := range m.emotionalTags {
		out[k] = v
	}
	return out
}

// GetUncommittedEvents returns events raised since the last commit
func (m *Message) GetUncommittedEvents() []events.DomainEvent {
	return m.events
}

// MarkEventsAsCommitted clears the pending events
func (m *Message) MarkEventsAsCommitted() {
	m.events = []events.DomainEvent{}
}
