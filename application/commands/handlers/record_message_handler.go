package handlers

import (
	"context"

	"aura-backend/application/commands"
	"aura-backend/application/services"
	"aura-backend/domain/core/entities"
)

// MessageWriter persists voice messages
type MessageWriter interface {
	Record(ctx context.Context, in services.RecordInput) (*entities.Message, error)
}

// RecordMessageHandler handles the RecordMessageCommand
type RecordMessageHandler struct {
	recorder MessageWriter
}

// NewRecordMessageHandler creates a new record message handler
func NewRecordMessageHandler(recorder MessageWriter) *RecordMessageHandler {
	return &RecordMessageHandler{recorder: recorder}
}

// Handle executes the record message command
func (h *RecordMessageHandler) Handle(ctx context.Context, cmd commands.RecordMessageCommand) (*entities.Message, error) {
	return h.recorder.Record(ctx, cmd.ToInput())
}
