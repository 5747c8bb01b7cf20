package queries

import (
	"time"

	"aura-backend/domain/core/entities"
)

// CircleView is the wire representation of a circle
type CircleView struct {
	CircleID        string    `json:"circleId"`
	Day             int       `json:"day"`
	Status          string    `json:"status"`
	Participants    []string  `json:"participants"`
	CreatedAt       time.Time `json:"createdAt"`
	MaxParticipants int       `json:"maxParticipants"`
}

// MembersView lists a circle's participants
type MembersView struct {
	Count        int      `json:"count"`
	Participants []string `json:"participants"`
}

// MessageView is the wire representation of a voice message
type MessageView struct {
	MessageID     string                 `json:"messageId"`
	CircleID      string                 `json:"circleId"`
	AuthorID      string                 `json:"authorId"`
	SegmentIndex  int                    `json:"segmentIndex"`
	AudioURL      string                 `json:"audioUrl"`
	DurationMs    int64                  `json:"durationMs"`
	CreatedAt     time.Time              `json:"createdAt"`
	Transcript    *string                `json:"transcript"`
	EmotionalTags map[string]interface{} `json:"emotionalTags"`
}

// StatusCheckView is the wire representation of a status check
type StatusCheckView struct {
	ID         string    `json:"id"`
	ClientName string    `json:"client_name"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewCircleView converts a circle entity
func NewCircleView(c *entities.Circle) CircleView {
	participants := c.Participants()
	if participants == nil {
		participants = []string{}
	}
	return CircleView{
		CircleID:        c.ID().String(),
		Day:             c.Day(),
		Status:          string(c.Status()),
		Participants:    participants,
		CreatedAt:       c.CreatedAt().UTC(),
		MaxParticipants: c.MaxParticipants(),
	}
}

// NewMembersView converts a circle entity into its member list
func NewMembersView(c *entities.Circle) MembersView {
	participants := c.Participants()
	if participants == nil {
		participants = []string{}
	}
	return MembersView{
		Count:        len(participants),
		Participants: participants,
	}
}

// NewMessageView converts a message entity
func NewMessageView(m *entities.Message) MessageView {
	return MessageView{
		MessageID:     m.ID().String(),
		CircleID:      m.CircleID(),
		AuthorID:      m.AuthorID(),
		SegmentIndex:  m.SegmentIndex(),
		AudioURL:      m.AudioURL(),
		DurationMs:    m.DurationMs(),
		CreatedAt:     m.CreatedAt().UTC(),
		Transcript:    m.Transcript(),
		EmotionalTags: m.EmotionalTags(),
	}
}

// NewMessageViews converts a slice of messages, never returning nil
func NewMessageViews(messages []*entities.Message) []MessageView {
	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, NewMessageView(m))
	}
	return views
}

// NewStatusCheckView converts a status check entity
func NewStatusCheckView(s *entities.StatusCheck) StatusCheckView {
	return StatusCheckView{
		ID:         s.ID,
		ClientName: s.ClientName,
		Timestamp:  s.Timestamp.UTC(),
	}
}

// NewStatusCheckViews converts a slice of status checks, never returning nil
func NewStatusCheckViews(checks []*entities.StatusCheck) []StatusCheckView {
	views := make([]StatusCheckView, 0, len(checks))
	for _, s := range checks {
		views = append(views, NewStatusCheckView(s))
	}
	return views
}
