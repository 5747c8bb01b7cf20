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

// CircleHandler handles circle-related HTTP requests
type CircleHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewCircleHandler creates a new circle handler
func NewCircleHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *CircleHandler {
	return &CircleHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// JoinCircle handles POST /api/circles/join
func (h *CircleHandler) JoinCircle(w http.ResponseWriter, r *http.Request) {
	var cmd commands.JoinCircleCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	circle, ok := result.(*entities.Circle)
	if !ok {
		h.errorHandler.Handle(w, r, pkgerrors.NewInternalError("unexpected join result"))
		return
	}
	respond(w, h.logger, http.StatusOK, queries.NewCircleView(circle))
}

// GetCircle handles GET /api/circles/{circleID}
func (h *CircleHandler) GetCircle(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetCircleQuery{
		CircleID: chi.URLParam(r, "circleID"),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respond(w, h.logger, http.StatusOK, result)
}

// GetCircleMembers handles GET /api/circles/{circleID}/members
func (h *CircleHandler) GetCircleMembers(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.GetCircleMembersQuery{
		CircleID: chi.URLParam(r, "circleID"),
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respond(w, h.logger, http.StatusOK, result)
}

func respond(w http.ResponseWriter, logger *zap.Logger, status int, data interface{}) {
	if err := common.RespondJSON(w, status, data); err != nil {
		logger.Warn("Failed to write response", zap.Error(err))
	}
}
