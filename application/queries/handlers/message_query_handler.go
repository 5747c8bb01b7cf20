package handlers

import (
	"context"

	"aura-backend/application/ports"
	"aura-backend/application/queries"
	"aura-backend/domain/config"

	"go.uber.org/zap"
)

// MessageQueryHandler lists stored voice messages and status checks
type MessageQueryHandler struct {
	messages ports.MessageRepository
	checks   ports.StatusCheckRepository
	cfg      *config.DomainConfig
	logger   *zap.Logger
}

// NewMessageQueryHandler creates a new message query handler
func NewMessageQueryHandler(
	messages ports.MessageRepository,
	checks ports.StatusCheckRepository,
	cfg *config.DomainConfig,
	logger *zap.Logger,
) *MessageQueryHandler {
	if cfg == nil {
		cfg = config.DefaultDomainConfig()
	}
	return &MessageQueryHandler{
		messages: messages,
		checks:   checks,
		cfg:      cfg,
		logger:   logger,
	}
}

// ListMessages returns a circle's messages in insertion order. An unknown
// circle has no messages.
func (h *MessageQueryHandler) ListMessages(ctx context.Context, q queries.ListMessagesQuery) ([]queries.MessageView, error) {
	messages, err := h.messages.FindByCircle(ctx, q.CircleID, h.cfg.MaxMessagesPerQuery)
	if err != nil {
		h.logger.Error("Failed to list messages",
			zap.String("circleID", q.CircleID),
			zap.Error(err),
		)
		return nil, storageError("find messages", err)
	}
	return queries.NewMessageViews(messages), nil
}

// ListStatusChecks returns recorded status checks, oldest first
func (h *MessageQueryHandler) ListStatusChecks(ctx context.Context, _ queries.ListStatusChecksQuery) ([]queries.StatusCheckView, error) {
	checks, err := h.checks.List(ctx, h.cfg.MaxStatusChecksPerQuery)
	if err != nil {
		h.logger.Error("Failed to list status checks", zap.Error(err))
		return nil, storageError("list status checks", err)
	}
	return queries.NewStatusCheckViews(checks), nil
}
