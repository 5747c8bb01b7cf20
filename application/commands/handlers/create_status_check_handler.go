package handlers

import (
	"context"

	"aura-backend/application/commands"
	"aura-backend/application/ports"
	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"

	"go.uber.org/zap"
)

// CreateStatusCheckHandler handles the CreateStatusCheckCommand
type CreateStatusCheckHandler struct {
	checks ports.StatusCheckRepository
	logger *zap.Logger
}

// NewCreateStatusCheckHandler creates a new status check handler
func NewCreateStatusCheckHandler(checks ports.StatusCheckRepository, logger *zap.Logger) *CreateStatusCheckHandler {
	return &CreateStatusCheckHandler{
		checks: checks,
		logger: logger,
	}
}

// Handle executes the create status check command
func (h *CreateStatusCheckHandler) Handle(ctx context.Context, cmd commands.CreateStatusCheckCommand) (*entities.StatusCheck, error) {
	check, err := entities.NewStatusCheck(cmd.ClientName)
	if err != nil {
		return nil, err
	}

	if _, err := h.checks.InsertOne(ctx, check); err != nil {
		h.logger.Error("Failed to store status check",
			zap.String("clientName", check.ClientName),
			zap.Error(err),
		)
		if pkgerrors.IsAppError(err) {
			return nil, err
		}
		return nil, pkgerrors.NewDatabaseError("insert status check", err)
	}
	return check, nil
}
