package handler

import (
	"encoding/json"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/goalboard/backend/api/transport"
	"github.com/goalboard/backend/pkg/httpcontext"
	goalUC "github.com/goalboard/backend/usecase/goal"
)

type GoalHandler struct {
	baseHandler
	uc *goalUC.UseCase
}

func NewGoalHandler(uc *goalUC.UseCase, adapter *httpcontext.Adapter, logger *zap.Logger) *GoalHandler {
	return &GoalHandler{
		baseHandler: newBaseHandler(adapter, logger),
		uc:          uc,
	}
}

// @Summary List own goals
// @Tags goals
// @Router /api/v1/goals [get]
func (h *GoalHandler) ListGoals(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goals, err := h.uc.List(stdCtx, userID)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, goals)
}

// @Summary Create goal
// @Tags goals
// @Router /api/v1/goals [post]
func (h *GoalHandler) CreateGoal(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}

	var req transport.CreateGoalRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}
	if req.Title == "" || req.Deadline == "" {
		h.respondInvalid(ctx, "title and deadline are required")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	created, err := h.uc.Create(stdCtx, userID, goalUC.CreateInput{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		IsPublic:    req.IsPublic,
		ParentID:    req.ParentID,
		Order:       req.Order,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusCreated, created)
}

// @Summary Get one goal
// @Tags goals
// @Router /api/v1/goals/{id} [get]
func (h *GoalHandler) GetGoal(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	id, ok := h.goalID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	goal, err := h.uc.Get(stdCtx, userID, id)
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, goal)
}

// @Summary Update goal
// @Tags goals
// @Router /api/v1/goals/{id} [put]
func (h *GoalHandler) UpdateGoal(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	id, ok := h.goalID(ctx)
	if !ok {
		return
	}

	var req transport.UpdateGoalRequest
	if err := json.Unmarshal(ctx.PostBody(), &req); err != nil {
		h.respondInvalid(ctx, "invalid payload")
		return
	}
	parentID, parentSet, err := req.ParentPatch()
	if err != nil {
		h.respondInvalid(ctx, "parent_id must be a string or null")
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	updated, err := h.uc.Update(stdCtx, userID, id, goalUC.Patch{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Order:       req.Order,
		IsPublic:    req.IsPublic,
		ParentID:    parentID,
		ParentSet:   parentSet,
	})
	if err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusOK, updated)
}

// @Summary Delete goal
// @Tags goals
// @Router /api/v1/goals/{id} [delete]
func (h *GoalHandler) DeleteGoal(ctx *fasthttp.RequestCtx) {
	userID := h.userID(ctx)
	if userID == "" {
		return
	}
	id, ok := h.goalID(ctx)
	if !ok {
		return
	}

	stdCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.uc.Remove(stdCtx, userID, id); err != nil {
		h.respondError(ctx, err)
		return
	}
	h.respondSuccess(ctx, http.StatusNoContent, nil)
}

func (h *GoalHandler) goalID(ctx *fasthttp.RequestCtx) (string, bool) {
	id, _ := ctx.UserValue("id").(string)
	if id == "" {
		h.respondInvalid(ctx, "missing goal id")
		return "", false
	}
	return id, true
}
