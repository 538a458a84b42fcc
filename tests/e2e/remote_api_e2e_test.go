//go:build e2e

package e2e

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

func TestRemoteAPI_MainEndpoints(t *testing.T) {
	baseURL := strings.TrimRight(envOr("E2E_BASE_URL", "http://localhost:8080"), "/")
	client := &http.Client{Timeout: 20 * time.Second}

	t.Run("inference rejects unknown strategy", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/inference", map[string]any{"conflict_strategy": "random"})
		if status != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d body=%s", status, string(body))
		}
	})

	t.Run("inference returns ranked recommendations", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/inference", map[string]any{
			"initial_facts": []map[string]any{
				{"entity": "user", "attribute": "prefers_genre", "value": "RPG"},
				{"entity": "user", "attribute": "age", "value": 15},
			},
			"conflict_strategy": "combined",
		})
		if status != http.StatusOK {
			t.Fatalf("inference status=%d body=%s", status, string(body))
		}
		var resp map[string]any
		if err := json.Unmarshal(body, &resp); err != nil {
			t.Fatalf("unmarshal inference: %v body=%s", err, string(body))
		}
		recs := asSlice(resp["recommendations"])
		if len(recs) == 0 {
			t.Fatalf("expected recommendations body=%s", string(body))
		}
		for i, raw := range recs {
			rec := asMap(raw)
			if rank, _ := rec["rank"].(float64); int(rank) != i+1 {
				t.Fatalf("rank mismatch at %d: %v", i, rec["rank"])
			}
			conf, _ := rec["confidence"].(float64)
			if conf < 0 || conf > 1 {
				t.Fatalf("confidence out of range: %v", conf)
			}
		}
		if len(asMap(resp["explanation"])) == 0 {
			t.Fatalf("expected explanation body=%s", string(body))
		}
	})

	t.Run("diagnose filters catalog", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/diagnose", map[string]any{
			"platform": "Switch",
			"age_max":  12,
		})
		if status != http.StatusOK {
			t.Fatalf("diagnose status=%d body=%s", status, string(body))
		}
	})

	t.Run("rule lifecycle", func(t *testing.T) {
		name := "e2e-" + time.Now().UTC().Format("20060102150405")
		status, body := mustJSON(t, client, http.MethodPost, baseURL+"/api/rules", map[string]any{
			"name":            name,
			"priority":        10,
			"category":        "e2e",
			"conditions_json": []map[string]any{{"entity": "user", "attribute": "e2e_marker", "operator": "==", "value": true}},
			"actions_json":    []map[string]any{{"type": "boost", "amount": 1}},
		})
		if status != http.StatusCreated {
			t.Fatalf("create status=%d body=%s", status, string(body))
		}
		var created map[string]any
		if err := json.Unmarshal(body, &created); err != nil {
			t.Fatalf("unmarshal rule: %v", err)
		}
		id, _ := created["id"].(float64)
		ruleURL := fmt.Sprintf("%s/api/rules/%d", baseURL, int64(id))

		status, body = mustJSON(t, client, http.MethodPost, ruleURL+"/toggle", nil)
		if status != http.StatusOK {
			t.Fatalf("toggle status=%d body=%s", status, string(body))
		}
		status, body = mustJSON(t, client, http.MethodDelete, ruleURL, nil)
		if status != http.StatusNoContent {
			t.Fatalf("delete status=%d body=%s", status, string(body))
		}
		status, body = mustJSON(t, client, http.MethodGet, ruleURL, nil)
		if status != http.StatusNotFound {
			t.Fatalf("expected 404 after delete, got %d body=%s", status, string(body))
		}
	})

	t.Run("ops endpoints", func(t *testing.T) {
		status, body := mustJSON(t, client, http.MethodGet, baseURL+"/ops/kpi", nil)
		if status != http.StatusOK {
			t.Fatalf("kpi status=%d body=%s", status, string(body))
		}
		status, body, err := doRequest(client, http.MethodGet, baseURL+"/metrics", nil)
		if err != nil {
			t.Fatalf("metrics request: %v", err)
		}
		if status != http.StatusOK || !bytes.Contains(body, []byte("gamesage_inference_runs_total")) {
			t.Fatalf("metrics status=%d missing inference counters", status)
		}
	})
}

func mustJSON(t *testing.T, client *http.Client, method, url string, body any) (int, []byte) {
	t.Helper()
	status, respBody, err := doRequest(client, method, url, body)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return status, respBody
}

func doRequest(client *http.Client, method, url string, body any) (int, []byte, error) {
	var payloadBytes []byte
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		payloadBytes = b
	}

	var lastStatus int
	var lastBody []byte
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		var payload io.Reader
		if len(payloadBytes) > 0 {
			payload = bytes.NewReader(payloadBytes)
		}
		req, err := http.NewRequest(method, url, payload)
		if err != nil {
			return 0, nil, err
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		resp, err := client.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		respBody, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = readErr
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		lastStatus, lastBody, lastErr = resp.StatusCode, respBody, nil
		if resp.StatusCode >= 500 {
			time.Sleep(time.Duration(attempt+1) * 200 * time.Millisecond)
			continue
		}
		return resp.StatusCode, respBody, nil
	}
	if lastErr != nil {
		return 0, nil, lastErr
	}
	return lastStatus, lastBody, nil
}

func envOr(k, def string) string {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	return v
}

func asMap(v any) map[string]any {
	if m, ok := v.(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

func asSlice(v any) []any {
	if s, ok := v.([]any); ok {
		return s
	}
	return nil
}
