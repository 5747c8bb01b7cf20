package commands

import "aura-backend/pkg/utils"

// CreateStatusCheckCommand records a client ping
type CreateStatusCheckCommand struct {
	ClientName string `json:"client_name" validate:"required,max=200"`
}

// Validate validates the CreateStatusCheckCommand
func (c CreateStatusCheckCommand) Validate() error {
	return utils.ValidateStruct(c)
}
