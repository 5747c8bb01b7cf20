package handlers

import (
	"net/http"

	"aura-backend/application/commands"
	"aura-backend/application/commands/bus"
	"aura-backend/application/queries"
	querybus "aura-backend/application/queries/bus"
	"aura-backend/domain/core/entities"
	"aura-backend/pkg/common"
	pkgerrors "aura-backend/pkg/errors"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MessageHandler handles voice-message HTTP requests
type MessageHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewMessageHandler creates a new message handler
func NewMessageHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *MessageHandler {
	return &MessageHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// CreateMessage handles POST /api/messages
func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var cmd commands.RecordMessageCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	msg, ok := result.(*entities.Message)
	if !ok {
		h.errorHandler.Handle(w, r, pkgerrors.NewInternalError("unexpected record result"))
		return
	}
	respond(w, h.logger, http.StatusOK, queries.NewMessageView(msg))
}

// ListMessages handles GET /api/messages/{circleID}
func (h *MessageHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListMessagesQuery{
		CircleID: chi.URLParam(r, "circleID"),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respond(w, h.logger, http.StatusOK, result)
}
