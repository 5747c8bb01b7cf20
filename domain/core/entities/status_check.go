package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "aura-backend/pkg/errors"
)

// StatusCheck records that a client pinged the service
type StatusCheck struct {
	ID         string
	ClientName string
	Timestamp  time.Time
}

// NewStatusCheck creates a status check for the named client
func NewStatusCheck(clientName string) (*StatusCheck, error) {
	clientName = strings.TrimSpace(clientName)
	if clientName == "" {
		return nil, pkgerrors.NewValidationError("client_name cannot be empty")
	}
	return &StatusCheck{
		ID:         uuid.New().String(),
		ClientName: clientName,
		Timestamp:  time.Now().UTC(),
	}, nil
}
