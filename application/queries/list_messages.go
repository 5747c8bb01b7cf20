package queries

import (
	"errors"
	"strings"
)

// ListMessagesQuery lists the messages of a circle in the order they were stored
type ListMessagesQuery struct {
	CircleID string
}

// Validate validates the ListMessagesQuery
func (q ListMessagesQuery) Validate() error {
	if strings.TrimSpace(q.CircleID) == "" {
		return errors.New("circle ID is required")
	}
	return nil
}

// ListStatusChecksQuery lists recorded client pings
type ListStatusChecksQuery struct{}

// Validate validates the ListStatusChecksQuery
func (q ListStatusChecksQuery) Validate() error {
	return nil
}
