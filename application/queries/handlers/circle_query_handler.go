package handlers

import (
	"context"

	"aura-backend/application/ports"
	"aura-backend/application/queries"
	"aura-backend/domain/core/entities"
	pkgerrors "aura-backend/pkg/errors"

	"go.uber.org/zap"
)

// CircleQueryHandler answers read-only questions about circles
type CircleQueryHandler struct {
	circles ports.CircleRepository
	logger  *zap.Logger
}

// NewCircleQueryHandler creates a new circle query handler
func NewCircleQueryHandler(circles ports.CircleRepository, logger *zap.Logger) *CircleQueryHandler {
	return &CircleQueryHandler{
		circles: circles,
		logger:  logger,
	}
}

// GetCircle returns a circle by ID
func (h *CircleQueryHandler) GetCircle(ctx context.Context, q queries.GetCircleQuery) (*queries.CircleView, error) {
	circle, err := h.load(ctx, q.CircleID)
	if err != nil {
		return nil, err
	}
	view := queries.NewCircleView(circle)
	return &view, nil
}

// GetMembers returns a circle's participants and their count
func (h *CircleQueryHandler) GetMembers(ctx context.Context, q queries.GetCircleMembersQuery) (*queries.MembersView, error) {
	circle, err := h.load(ctx, q.CircleID)
	if err != nil {
		return nil, err
	}
	view := queries.NewMembersView(circle)
	return &view, nil
}

func (h *CircleQueryHandler) load(ctx context.Context, circleID string) (*entities.Circle, error) {
	circle, err := h.circles.FindOne(ctx, ports.CircleFilter{CircleID: circleID})
	if err != nil {
		if pkgerrors.IsNotFound(err) {
			return nil, pkgerrors.NewNotFoundError("circle")
		}
		h.logger.Error("Failed to load circle",
			zap.String("circleID", circleID),
			zap.Error(err),
		)
		return nil, storageError("find circle", err)
	}
	return circle, nil
}

// storageError keeps AppErrors raised below and wraps anything else as a
// database failure
func storageError(operation string, err error) error {
	if pkgerrors.IsAppError(err) {
		return err
	}
	return pkgerrors.NewDatabaseError(operation, err)
}
