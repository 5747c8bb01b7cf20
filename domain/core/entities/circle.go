package entities

import (
	"time"

	"aura-backend/domain/config"
	"aura-backend/domain/core/valueobjects"
	"aura-backend/domain/events"
	pkgerrors "aura-backend/pkg/errors"
)

// CircleStatus represents the lifecycle state of a circle
type CircleStatus string

const (
	CircleStatusActive   CircleStatus = "active"
	CircleStatusInactive CircleStatus = "inactive"
)

// IsValid reports whether the status is a known value
func (s CircleStatus) IsValid() bool {
	return s == CircleStatusActive || s == CircleStatusInactive
}

// Circle is a bounded group of anonymous users conversing in turn.
// Participants only ever grow while the circle is active.
type Circle struct {
	id              valueobjects.CircleID
	day             int
	status          CircleStatus
	participants    []string
	maxParticipants int
	createdAt       time.Time

	events []events.DomainEvent
}

// NewCircle creates an active circle whose only participant is the founder
func NewCircle(founderID string, day, maxParticipants int) (*Circle, error) {
	if founderID == "" {
		return nil, pkgerrors.NewValidationError("userID cannot be empty")
	}
	if day < 1 {
		return nil, pkgerrors.NewValidationError("day must be positive")
	}
	if maxParticipants < 1 {
		return nil, pkgerrors.NewValidationError("maxParticipants must be positive")
	}

	now := time.Now().UTC()
	circle := &Circle{
		id:              valueobjects.NewCircleID(),
		day:             day,
		status:          CircleStatusActive,
		participants:    []string{founderID},
		maxParticipants: maxParticipants,
		createdAt:       now,
		events:          []events.DomainEvent{},
	}

	circle.addEvent(events.NewCircleCreated(circle.id, founderID, maxParticipants, now))
	return circle, nil
}

// ReconstructCircle rebuilds a circle from stored state without raising events
func ReconstructCircle(
	id string,
	day int,
	status CircleStatus,
	participants []string,
	maxParticipants int,
	createdAt time.Time,
) (*Circle, error) {
	circleID, err := valueobjects.NewCircleIDFromString(id)
	if err != nil {
		return nil, pkgerrors.NewValidationError(err.Error())
	}
	if !status.IsValid() {
		return nil, pkgerrors.NewValidationError("unknown circle status: " + string(status))
	}
	if maxParticipants < 1 {
		maxParticipants = config.CircleCapacity
	}
	if day < 1 {
		day = 1
	}

	copied := make([]string, len(participants))
	copy(copied, participants)

	return &Circle{
		id:              circleID,
		day:             day,
		status:          status,
		participants:    copied,
		maxParticipants: maxParticipants,
		createdAt:       createdAt,
		events:          []events.DomainEvent{},
	}, nil
}

// ID returns the circle's unique identifier
func (c *Circle) ID() valueobjects.CircleID {
	return c.id
}

// Day returns the circle's epoch counter
func (c *Circle) Day() int {
	return c.day
}

// Status returns the circle's lifecycle state
func (c *Circle) Status() CircleStatus {
	return c.status
}

// IsActive reports whether the circle is eligible for allocation
func (c *Circle) IsActive() bool {
	return c.status == CircleStatusActive
}

// Participants returns a copy of the ordered participant list
func (c *Circle) Participants() []string {
	out := make([]string, len(c.participants))
	copy(out, c.participants)
	return out
}

// ParticipantCount returns the number of participants
func (c *Circle) ParticipantCount() int {
	return len(c.participants)
}

// MaxParticipants returns the circle's capacity
func (c *Circle) MaxParticipants() int {
	return c.maxParticipants
}

// CreatedAt returns the creation timestamp
func (c *Circle) CreatedAt() time.Time {
	return c.createdAt
}

// HasParticipant reports whether userID is a member of the circle
func (c *Circle) HasParticipant(userID string) bool {
	for _, p := range c.participants {
		if p == userID {
			return true
		}
	}
	return false
}

// HasRoom reports whether another participant fits
func (c *Circle) HasRoom() bool {
	return len(c.participants) < c.maxParticipants
}

// AddParticipant appends userID, enforcing activity, capacity and uniqueness.
// Storage evaluates the same predicate atomically; this mirrors an applied
// conditioned update onto the in-memory copy.
func (c *Circle) AddParticipant(userID string) error {
	if userID == "" {
		return pkgerrors.NewValidationError("userID cannot be empty")
	}
	if !c.IsActive() {
		return pkgerrors.NewConflictError("circle is not active")
	}
	if c.HasParticipant(userID) {
		return pkgerrors.NewConflictError("user already in circle")
	}
	if !c.HasRoom() {
		return pkgerrors.NewConflictError("circle is full")
	}

	c.participants = append(c.participants, userID)
	c.addEvent(events.NewParticipantJoined(c.id, userID, len(c.participants), time.Now().UTC()))
	return nil
}

// GetUncommittedEvents returns events raised since the last commit
func (c *Circle) GetUncommittedEvents() []events.DomainEvent {
	return c.events
}

// MarkEventsAsCommitted clears the pending events
func (c *Circle) MarkEventsAsCommitted() {
	c.events = []events.DomainEvent{}
}

func (c *Circle) addEvent(event events.DomainEvent) {
	c.events = append(c.events, event)
}
