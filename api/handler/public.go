package handler

import (
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/goalboard/backend/pkg/httpcontext"
	goalUC "github.com/goalboard/backend/usecase/goal"
)

// PublicHandler serves the unauthenticated read-only goal endpoints.
type PublicHandler struct {
	baseHandler
	uc *goalUC.UseCase
}

func NewPublicHandler(uc *goalUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *PublicHandler {
	return &PublicHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List public goals
// @Tags public
// @Router /api/v1/public/goals [get]
func (h *PublicHandler) ListPublicGoals(ctx *fasthttp.RequestCtx) {
	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goals, err := h.uc.ListPublic(stdCtx)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, goals)
}

// @Summary Get a goal by its public identifier
// @Tags public
// @Router /api/v1/public/goals/{publicId} [get]
func (h *PublicHandler) GetPublicGoal(ctx *fasthttp.RequestCtx) {
	publicID, _ := ctx.UserValue("publicId").(string)
	if publicID == "" {
		h.respondInvalid(ctx, "missing public id")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goal, err := h.uc.GetByPublicID(stdCtx, publicID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, goal)
}
