package commands

import (
	"strings"

	"aura-backend/pkg/utils"
)

// JoinCircleCommand asks for the user's active circle, creating or joining
// one when the user has none
type JoinCircleCommand struct {
	UserID string `json:"userId" validate:"required,max=128"`
}

// Validate validates the JoinCircleCommand
func (c JoinCircleCommand) Validate() error {
	c.UserID = strings.TrimSpace(c.UserID)
	return utils.ValidateStruct(c)
}
