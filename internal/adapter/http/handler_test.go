package httpadapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"gamesage/internal/adapter/metrics/inmemory"
	"gamesage/internal/adapter/repo/memory"
	staticseed "gamesage/internal/adapter/seed/static"
	"gamesage/internal/app/diagnose"
	"gamesage/internal/app/ports"
	"gamesage/internal/app/recommend"
	"gamesage/internal/app/rules"
	"gamesage/internal/app/seed"
	"gamesage/internal/domain/inference"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/ut"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

func newTestHandler(t *testing.T) Handler {
	t.Helper()
	store := memory.NewStore()
	ruleRepo := memory.NewRuleRepo(store)
	catalog := memory.NewCatalogRepo(store)
	tx := memory.NewTxManager(store)
	if _, err := (seed.UseCase{Provider: staticseed.Provider{}, Rules: ruleRepo, Catalog: catalog, TxManager: tx}).Execute(context.Background(), seed.Request{}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	kpi := inmemory.NewRecorder()
	return Handler{
		InferenceUC: recommend.UseCase{
			Loader:   recommend.NewSnapshotLoader(ruleRepo, catalog, recommend.BreakerSettings{}),
			Rules:    ruleRepo,
			Engine:   inference.NewEngine(inference.Options{}),
			Metrics:  kpi,
			Settings: recommend.Settings{MaxIterations: 50, DefaultStrategy: inference.StrategyCombined, ResultLimit: 5, MaxResultLimit: 20, Timeout: time.Second},
		},
		DiagnoseUC: diagnose.UseCase{Catalog: catalog, Settings: diagnose.Settings{DefaultPageSize: 5, MaxPageSize: 10}},
		RulesUC:    rules.UseCase{Repo: ruleRepo, TxManager: tx},
		KPI:        kpi,
	}
}

func decodeBody(t *testing.T, b []byte) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(b, &body); err != nil {
		t.Fatalf("unmarshal response %q: %v", b, err)
	}
	return body
}

func errorCode(t *testing.T, b []byte) string {
	t.Helper()
	errObj, _ := decodeBody(t, b)["error"].(map[string]any)
	code, _ := errObj["code"].(string)
	return code
}

func TestInfer_RecommendsFromSeededPack(t *testing.T) {
	h := newTestHandler(t)
	ctx := &app.RequestContext{}
	ctx.Request.SetBody([]byte(`{"initial_facts":[{"entity":"user","attribute":"prefers_genre","value":"RPG"},{"entity":"user","attribute":"age","value":15}],"conflict_strategy":"priority"}`))

	h.infer(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("status mismatch: got=%d want=%d body=%s", got, want, ctx.Response.Body())
	}
	body := decodeBody(t, ctx.Response.Body())
	recs, _ := body["recommendations"].([]any)
	if len(recs) == 0 {
		t.Fatalf("expected recommendations, got %v", body)
	}
	for _, raw := range recs {
		rec := raw.(map[string]any)
		if rec["game_title"] == "The Witcher 3" {
			t.Fatalf("age filter must remove adult titles for a 15 year old")
		}
	}
	for _, key := range []string{"iterations", "execution_time", "rules_fired_count", "explanation", "run_id", "termination"} {
		if _, ok := body[key]; !ok {
			t.Fatalf("response missing %q", key)
		}
	}
}

func TestInfer_RejectsUnknownStrategy(t *testing.T) {
	h := newTestHandler(t)
	ctx := &app.RequestContext{}
	ctx.Request.SetBody([]byte(`{"conflict_strategy":"random"}`))
	h.infer(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusBadRequest; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	if got := errorCode(t, ctx.Response.Body()); got != "bad_request" {
		t.Fatalf("unexpected error code %q", got)
	}
}

func TestInfer_InvalidJSON(t *testing.T) {
	h := newTestHandler(t)
	ctx := &app.RequestContext{}
	ctx.Request.SetBody([]byte(`{"initial_facts":`))
	h.infer(context.Background(), ctx)

	if got := errorCode(t, ctx.Response.Body()); got != "invalid_json" {
		t.Fatalf("unexpected error code %q", got)
	}
}

func TestDiagnose_Paginates(t *testing.T) {
	h := newTestHandler(t)
	ctx := &app.RequestContext{}
	ctx.Request.SetBody([]byte(`{"platform":"Switch","age_max":12,"page":1,"page_size":2}`))
	h.diagnose(context.Background(), ctx)

	if got, want := ctx.Response.StatusCode(), consts.StatusOK; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
	body := decodeBody(t, ctx.Response.Body())
	items, _ := body["items"].([]any)
	if len(items) != 2 || body["page_size"].(float64) != 2 {
		t.Fatalf("unexpected page: %v", body)
	}
}

func TestWriteError_Mapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("wrap: %w", inference.ErrInvalidRule), consts.StatusBadRequest, "invalid_rule"},
		{recommend.ErrInvalidRequest, consts.StatusBadRequest, "bad_request"},
		{ports.ErrNotFound, consts.StatusNotFound, "not_found"},
		{fmt.Errorf("%w: circuit open", ports.ErrUnavailable), consts.StatusServiceUnavailable, "system_unavailable"},
		{fmt.Errorf("inference cancelled after 3 iterations: %w", context.DeadlineExceeded), consts.StatusGatewayTimeout, "inference_timeout"},
		{errors.New("boom"), consts.StatusInternalServerError, "internal_error"},
	}
	for _, tt := range tests {
		ctx := &app.RequestContext{}
		writeError(ctx, tt.err)
		if got := ctx.Response.StatusCode(); got != tt.status {
			t.Fatalf("%v: status mismatch: got=%d want=%d", tt.err, got, tt.status)
		}
		if got := errorCode(t, ctx.Response.Body()); got != tt.code {
			t.Fatalf("%v: code mismatch: got=%q want=%q", tt.err, got, tt.code)
		}
	}
}

func TestKPI_NotConfigured(t *testing.T) {
	ctx := &app.RequestContext{}
	Handler{}.kpi(context.Background(), ctx)
	if got, want := ctx.Response.StatusCode(), consts.StatusNotFound; got != want {
		t.Fatalf("status mismatch: got=%d want=%d", got, want)
	}
}

func TestRoutes_RuleLifecycle(t *testing.T) {
	h := newTestHandler(t)
	s := server.New()
	h.RegisterRoutes(s)

	create := []byte(`{"name":"Puzzle fans","priority":40,"category":"genre","conditions_json":[{"entity":"user","attribute":"prefers_genre","operator":"==","value":"Puzzle"}],"actions_json":"[{\"type\":\"recommend\"}]"}`)
	w := ut.PerformRequest(s.Engine, consts.MethodPost, "/api/rules", &ut.Body{Body: bytes.NewReader(create), Len: len(create)},
		ut.Header{Key: "Content-Type", Value: "application/json"})
	resp := w.Result()
	if resp.StatusCode() != consts.StatusCreated {
		t.Fatalf("create status=%d body=%s", resp.StatusCode(), resp.Body())
	}
	created := decodeBody(t, resp.Body())
	id := int64(created["id"].(float64))
	if created["specificity"].(float64) != 1 {
		t.Fatalf("expected derived specificity, got %v", created["specificity"])
	}

	w = ut.PerformRequest(s.Engine, consts.MethodPost, fmt.Sprintf("/api/rules/%d/toggle", id), nil)
	if resp := w.Result(); resp.StatusCode() != consts.StatusOK || decodeBody(t, resp.Body())["is_active"] != false {
		t.Fatalf("toggle failed: %d %s", resp.StatusCode(), resp.Body())
	}

	w = ut.PerformRequest(s.Engine, consts.MethodGet, "/api/rules?category=genre&active=false", nil)
	list := decodeBody(t, w.Result().Body())
	if list["total"].(float64) != 1 {
		t.Fatalf("expected one inactive genre rule, got %v", list)
	}

	bulk := []byte(fmt.Sprintf(`{"ids":[%d]}`, id))
	w = ut.PerformRequest(s.Engine, consts.MethodPost, "/api/rules/bulk-delete", &ut.Body{Body: bytes.NewReader(bulk), Len: len(bulk)})
	if got := decodeBody(t, w.Result().Body())["deleted"]; got != float64(1) {
		t.Fatalf("expected 1 deleted, got %v", got)
	}

	w = ut.PerformRequest(s.Engine, consts.MethodGet, fmt.Sprintf("/api/rules/%d", id), nil)
	if resp := w.Result(); resp.StatusCode() != consts.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", resp.StatusCode())
	}

	w = ut.PerformRequest(s.Engine, consts.MethodGet, "/api/rules/abc", nil)
	if resp := w.Result(); resp.StatusCode() != consts.StatusBadRequest {
		t.Fatalf("expected 400 for non-numeric id, got %d", resp.StatusCode())
	}
}

func TestRoutes_RateLimited(t *testing.T) {
	h := newTestHandler(t)
	h.Limiter = rate.NewLimiter(rate.Limit(0.001), 1)
	s := server.New()
	h.RegisterRoutes(s)

	first := ut.PerformRequest(s.Engine, consts.MethodPost, "/api/diagnose", nil).Result()
	if first.StatusCode() != consts.StatusOK {
		t.Fatalf("first request status=%d", first.StatusCode())
	}
	second := ut.PerformRequest(s.Engine, consts.MethodPost, "/api/diagnose", nil).Result()
	if second.StatusCode() != consts.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", second.StatusCode())
	}
	if len(second.Header.Peek(requestIDHeader)) == 0 {
		t.Fatalf("expected a request id header")
	}
}
