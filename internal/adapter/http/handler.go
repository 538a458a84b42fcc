package httpadapter

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gamesage/internal/app/diagnose"
	"gamesage/internal/app/ports"
	"gamesage/internal/app/recommend"
	"gamesage/internal/app/rules"
	"gamesage/internal/domain/inference"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/adaptor"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

type Handler struct {
	InferenceUC recommend.UseCase
	DiagnoseUC  diagnose.UseCase
	RulesUC     rules.UseCase
	KPI         kpiSnapshotProvider
	// Metrics serves /metrics when set.
	Metrics http.Handler
	// Limiter throttles the inference and diagnose routes when set.
	Limiter *rate.Limiter
}

func (h Handler) RegisterRoutes(s *server.Hertz) {
	s.Use(corsMiddleware(), requestIDMiddleware())

	api := s.Group("/api")
	limit := rateLimitMiddleware(h.Limiter)
	api.POST("/inference", limit, h.infer)
	api.POST("/diagnose", limit, h.diagnose)

	api.GET("/rules", h.listRules)
	api.POST("/rules", h.createRule)
	api.POST("/rules/bulk-delete", h.bulkDeleteRules)
	api.GET("/rules/:id", h.getRule)
	api.PUT("/rules/:id", h.updateRule)
	api.DELETE("/rules/:id", h.deleteRule)
	api.POST("/rules/:id/toggle", h.toggleRule)

	s.GET("/ops/kpi", h.kpi)
	if h.Metrics != nil {
		s.GET("/metrics", adaptor.HertzHandler(h.Metrics))
	}
}

func (h Handler) infer(c context.Context, ctx *app.RequestContext) {
	var body recommend.Request
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.InferenceUC.Execute(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) diagnose(c context.Context, ctx *app.RequestContext) {
	var body diagnose.Request
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.DiagnoseUC.Execute(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) listRules(c context.Context, ctx *app.RequestContext) {
	req := rules.ListRequest{Category: ctx.Query("category")}
	if raw := strings.TrimSpace(ctx.Query("active")); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "active must be a boolean")
			return
		}
		req.Active = &active
	}
	req.Page, _ = strconv.Atoi(ctx.Query("page"))
	req.PageSize, _ = strconv.Atoi(ctx.Query("page_size"))

	resp, err := h.RulesUC.List(c, req)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) getRule(c context.Context, ctx *app.RequestContext) {
	id, ok := ruleID(ctx)
	if !ok {
		return
	}
	resp, err := h.RulesUC.Get(c, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) createRule(c context.Context, ctx *app.RequestContext) {
	var body rules.RuleInput
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.RulesUC.Create(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusCreated, resp)
}

func (h Handler) updateRule(c context.Context, ctx *app.RequestContext) {
	id, ok := ruleID(ctx)
	if !ok {
		return
	}
	var body rules.RuleInput
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.RulesUC.Update(c, id, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) deleteRule(c context.Context, ctx *app.RequestContext) {
	id, ok := ruleID(ctx)
	if !ok {
		return
	}
	if err := h.RulesUC.Delete(c, id); err != nil {
		writeError(ctx, err)
		return
	}
	ctx.Status(consts.StatusNoContent)
}

func (h Handler) toggleRule(c context.Context, ctx *app.RequestContext) {
	id, ok := ruleID(ctx)
	if !ok {
		return
	}
	resp, err := h.RulesUC.Toggle(c, id)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

func (h Handler) bulkDeleteRules(c context.Context, ctx *app.RequestContext) {
	var body rules.BulkDeleteRequest
	if err := decodeJSON(ctx, &body); err != nil {
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_json", "invalid json")
		return
	}
	resp, err := h.RulesUC.BulkDelete(c, body)
	if err != nil {
		writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, resp)
}

type kpiSnapshotProvider interface {
	SnapshotAny() any
}

func (h Handler) kpi(_ context.Context, ctx *app.RequestContext) {
	if h.KPI == nil {
		writeErrorBody(ctx, consts.StatusNotFound, "not_configured", "kpi provider not configured")
		return
	}
	ctx.JSON(consts.StatusOK, h.KPI.SnapshotAny())
}

func ruleID(ctx *app.RequestContext) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", "rule id must be a positive integer")
		return 0, false
	}
	return id, true
}

func decodeJSON(ctx *app.RequestContext, out any) error {
	body := ctx.Request.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func writeError(ctx *app.RequestContext, err error) {
	switch {
	case errors.Is(err, inference.ErrInvalidRule):
		writeErrorBody(ctx, consts.StatusBadRequest, "invalid_rule", err.Error())
	case errors.Is(err, recommend.ErrInvalidRequest),
		errors.Is(err, diagnose.ErrInvalidRequest),
		errors.Is(err, rules.ErrInvalidRequest),
		errors.Is(err, inference.ErrUnknownStrategy):
		writeErrorBody(ctx, consts.StatusBadRequest, "bad_request", err.Error())
	case errors.Is(err, ports.ErrNotFound):
		writeErrorBody(ctx, consts.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ports.ErrUnavailable):
		writeErrorBody(ctx, consts.StatusServiceUnavailable, "system_unavailable", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeErrorBody(ctx, consts.StatusGatewayTimeout, "inference_timeout", err.Error())
	case errors.Is(err, context.Canceled):
		writeErrorBody(ctx, consts.StatusRequestTimeout, "request_cancelled", err.Error())
	default:
		writeErrorBody(ctx, consts.StatusInternalServerError, "internal_error", "internal error")
	}
}

func writeErrorBody(ctx *app.RequestContext, status int, code, message string) {
	ctx.JSON(status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
