package handlers

import (
	"context"

	"aura-backend/application/commands"
	"aura-backend/domain/core/entities"

	"go.uber.org/zap"
)

// CircleJoiner resolves a user to an active circle
type CircleJoiner interface {
	Join(ctx context.Context, userID string) (*entities.Circle, error)
}

// JoinCircleHandler handles the JoinCircleCommand
type JoinCircleHandler struct {
	allocator CircleJoiner
	logger    *zap.Logger
}

// NewJoinCircleHandler creates a new join handler
func NewJoinCircleHandler(allocator CircleJoiner, logger *zap.Logger) *JoinCircleHandler {
	return &JoinCircleHandler{
		allocator: allocator,
		logger:    logger,
	}
}

// Handle executes the join circle command
func (h *JoinCircleHandler) Handle(ctx context.Context, cmd commands.JoinCircleCommand) (*entities.Circle, error) {
	circle, err := h.allocator.Join(ctx, cmd.UserID)
	if err != nil {
		return nil, err
	}

	h.logger.Info("User joined circle",
		zap.String("userID", cmd.UserID),
		zap.String("circleID", circle.ID().String()),
		zap.Int("participants", circle.ParticipantCount()),
	)
	return circle, nil
}
