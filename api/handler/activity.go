package handler

import (
	"net/http"
	"strconv"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/goalboard/backend/internal/services"
	"github.com/goalboard/backend/pkg/httpcontext"
)

type ActivityHandler struct {
	baseHandler
	log *services.ActivityLog
}

func NewActivityHandler(log *services.ActivityLog, adapter *httpcontext.Adapter, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		baseHandler: newBaseHandler(adapter, logger),
		log:         log,
	}
}

// @Summary Recent goal activity for the caller
// @Tags activity
// @Router /api/v1/activity [get]
func (h *ActivityHandler) Feed(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	limit := parseInt(string(ctx.QueryArgs().Peek("limit")), 50)

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	entries, err := h.log.Feed(stdCtx, userID, limit)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, entries)
}

func parseInt(value string, fallback int) int {
	if v, err := strconv.Atoi(value); err == nil {
		return v
	}
	return fallback
}
