package commands

import (
	"aura-backend/application/services"
	"aura-backend/pkg/utils"
)

// RecordMessageCommand stores the metadata of one recorded voice segment
type RecordMessageCommand struct {
	CircleID     string `json:"circleId" validate:"required"`
	AuthorID     string `json:"authorId" validate:"required"`
	SegmentIndex int    `json:"segmentIndex"`
	AudioURL     string `json:"audioUrl"`
	DurationMs   int64  `json:"durationMs" validate:"gte=0"`
}

// Validate validates the RecordMessageCommand
func (c RecordMessageCommand) Validate() error {
	return utils.ValidateStruct(c)
}

// ToInput converts the command into recorder input
func (c RecordMessageCommand) ToInput() services.RecordInput {
	return services.RecordInput{
		CircleID:     c.CircleID,
		AuthorID:     c.AuthorID,
		SegmentIndex: c.SegmentIndex,
		AudioURL:     c.AudioURL,
		DurationMs:   c.DurationMs,
	}
}
