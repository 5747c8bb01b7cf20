package queries

import (
	"errors"
	"strings"
)

// GetCircleQuery represents a query to get a single circle
type GetCircleQuery struct {
	CircleID string
}

// Validate validates the GetCircleQuery
func (q GetCircleQuery) Validate() error {
	if strings.TrimSpace(q.CircleID) == "" {
		return errors.New("circle ID is required")
	}
	return nil
}

// GetCircleMembersQuery asks for a circle's participants and their count
type GetCircleMembersQuery struct {
	CircleID string
}

// Validate validates the GetCircleMembersQuery
func (q GetCircleMembersQuery) Validate() error {
	if strings.TrimSpace(q.CircleID) == "" {
		return errors.New("circle ID is required")
	}
	return nil
}
