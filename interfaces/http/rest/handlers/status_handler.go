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

	"go.uber.org/zap"
)

// BannerMessage is returned by the API root
const BannerMessage = "Aura API - Anonymous Voice Circles"

// StatusHandler serves the API banner and client status checks
type StatusHandler struct {
	commandBus   *bus.CommandBus
	queryBus     *querybus.QueryBus
	errorHandler *pkgerrors.ErrorHandler
	logger       *zap.Logger
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(
	commandBus *bus.CommandBus,
	queryBus *querybus.QueryBus,
	errorHandler *pkgerrors.ErrorHandler,
	logger *zap.Logger,
) *StatusHandler {
	return &StatusHandler{
		commandBus:   commandBus,
		queryBus:     queryBus,
		errorHandler: errorHandler,
		logger:       logger,
	}
}

// Root handles GET /api/
func (h *StatusHandler) Root(w http.ResponseWriter, r *http.Request) {
	respond(w, h.logger, http.StatusOK, map[string]string{"message": BannerMessage})
}

// CreateStatusCheck handles POST /api/status
func (h *StatusHandler) CreateStatusCheck(w http.ResponseWriter, r *http.Request) {
	var cmd commands.CreateStatusCheckCommand
	if err := common.ParseJSONBody(w, r, &cmd, common.DefaultMaxBodyBytes); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	result, err := h.commandBus.Send(r.Context(), cmd)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	check, ok := result.(*entities.StatusCheck)
	if !ok {
		h.errorHandler.Handle(w, r, pkgerrors.NewInternalError("unexpected status check result"))
		return
	}
	respond(w, h.logger, http.StatusOK, queries.NewStatusCheckView(check))
}

// ListStatusChecks handles GET /api/status
func (h *StatusHandler) ListStatusChecks(w http.ResponseWriter, r *http.Request) {
	result, err := h.queryBus.Ask(r.Context(), queries.ListStatusChecksQuery{})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}
	respond(w, h.logger, http.StatusOK, result)
}
