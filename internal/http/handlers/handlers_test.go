package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"studio/internal/dispatch"
	"studio/internal/generation"
	"studio/internal/http/handlers"
	"studio/internal/http/httpapi"
	"studio/internal/infra"
	"studio/internal/queue"
)

type stubDispatcher struct {
	submitFail *dispatch.Outcome
	outcome    dispatch.Outcome
}

func (d *stubDispatcher) Submit(context.Context, string, map[string]any, string) (string, *dispatch.Outcome) {
	if d.submitFail != nil {
		return "", d.submitFail
	}
	return "pred-1", nil
}

func (d *stubDispatcher) Poll(context.Context, string, string, string) dispatch.Outcome {
	return d.outcome
}

func newTestServer(t *testing.T, d generation.Dispatcher, limit int) http.Handler {
	t.Helper()
	logger := infra.Logger(zerolog.New(io.Discard))
	q := queue.NewManager(queue.Options{DefaultLimit: limit})
	svc := generation.NewService(generation.Options{
		Queue:      q,
		Dispatcher: d,
		Logger:     &logger,
	})
	app := handlers.NewApp(svc, q, infra.Config{}, &logger)
	return httpapi.NewRouter(app, httpapi.Options{DefaultLocale: "en"})
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var decoded map[string]any
	if rec.Body.Len() > 0 && rec.Header().Get("Content-Type") == "application/json" {
		if err := json.Unmarshal(rec.Body.Bytes(), &decoded); err != nil {
			t.Fatalf("decode response: %v (%s)", err, rec.Body.String())
		}
	}
	return rec, decoded
}

func TestHealth(t *testing.T) {
	h := newTestServer(t, &stubDispatcher{}, 3)
	rec, body := doJSON(t, h, http.MethodGet, "/v1/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestModelsListFilterByType(t *testing.T) {
	h := newTestServer(t, &stubDispatcher{}, 3)
	rec, body := doJSON(t, h, http.MethodGet, "/v1/models?type=video", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	items, ok := body["items"].([]any)
	if !ok || len(items) == 0 {
		t.Fatalf("items = %v", body["items"])
	}
	for _, raw := range items {
		item := raw.(map[string]any)
		if item["type"] != "video" {
			t.Fatalf("non-video model in filtered list: %v", item["id"])
		}
	}
}

func TestModelGetUnknown(t *testing.T) {
	h := newTestServer(t, &stubDispatcher{}, 3)
	rec, _ := doJSON(t, h, http.MethodGet, "/v1/models/does-not-exist", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestModelEstimate(t *testing.T) {
	h := newTestServer(t, &stubDispatcher{}, 3)
	rec, body := doJSON(t, h, http.MethodPost, "/v1/models/flux-dev/estimate", map[string]any{
		"num_outputs": 2,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := body["credits"]; got != 0.4 {
		t.Fatalf("credits = %v, want 0.4", got)
	}
}

func TestGenerationLifecycle(t *testing.T) {
	d := &stubDispatcher{outcome: dispatch.Outcome{
		Status: dispatch.StatusSucceeded,
		Assets: []dispatch.Asset{{URL: "https://cdn.example/a.png", ContentType: "image/png"}},
	}}
	h := newTestServer(t, d, 3)

	rec, body := doJSON(t, h, http.MethodPost, "/v1/generations", map[string]any{
		"input": map[string]any{
			"model_id": "flux-dev",
			"prompt":   "a lighthouse at dusk",
		},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create status = %d (%s)", rec.Code, rec.Body.String())
	}
	id, _ := body["generation_id"].(string)
	if id == "" {
		t.Fatalf("missing generation_id in %v", body)
	}

	rec, body = doJSON(t, h, http.MethodGet, "/v1/generations/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status check = %d", rec.Code)
	}
	if body["status"] != "succeeded" {
		t.Fatalf("status = %v", body["status"])
	}
	outcome, _ := body["outcome"].(map[string]any)
	if outcome == nil {
		t.Fatalf("missing outcome in %v", body)
	}
}

func TestGenerationCreateUnknownModel(t *testing.T) {
	h := newTestServer(t, &stubDispatcher{}, 3)
	rec, body := doJSON(t, h, http.MethodPost, "/v1/generations", map[string]any{
		"input": map[string]any{"model_id": "nope"},
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj == nil || errObj["code"] != "unknown_model" {
		t.Fatalf("body = %v", body)
	}
}

func TestGenerationCreateAtCapacity(t *testing.T) {
	d := &stubDispatcher{outcome: dispatch.Outcome{Status: dispatch.StatusInProgress}}
	h := newTestServer(t, d, 1)

	input := map[string]any{
		"input": map[string]any{"model_id": "flux-dev", "prompt": "busy"},
	}
	if rec, _ := doJSON(t, h, http.MethodPost, "/v1/generations", input); rec.Code != http.StatusAccepted {
		t.Fatalf("first create = %d", rec.Code)
	}
	rec, body := doJSON(t, h, http.MethodPost, "/v1/generations", input)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second create = %d", rec.Code)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj == nil || errObj["code"] != "too_many_generations" {
		t.Fatalf("body = %v", body)
	}
}

func TestGenerationStatusNotFound(t *testing.T) {
	h := newTestServer(t, &stubDispatcher{}, 3)
	rec, _ := doJSON(t, h, http.MethodGet, "/v1/generations/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestGenerationZip(t *testing.T) {
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write([]byte("not-really-a-png"))
	}))
	defer origin.Close()

	d := &stubDispatcher{outcome: dispatch.Outcome{
		Status: dispatch.StatusSucceeded,
		Assets: []dispatch.Asset{{URL: origin.URL + "/a.png", ContentType: "image/png"}},
	}}
	h := newTestServer(t, d, 3)

	rec, body := doJSON(t, h, http.MethodPost, "/v1/generations", map[string]any{
		"input": map[string]any{"model_id": "flux-dev", "prompt": "zip me"},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create = %d", rec.Code)
	}
	id := body["generation_id"].(string)

	// Drive the task terminal, then download.
	if rec, _ := doJSON(t, h, http.MethodGet, "/v1/generations/"+id, nil); rec.Code != http.StatusOK {
		t.Fatalf("status check = %d", rec.Code)
	}
	req := httptest.NewRequest(http.MethodGet, "/v1/generations/"+id+"/zip", nil)
	zrec := httptest.NewRecorder()
	h.ServeHTTP(zrec, req)
	if zrec.Code != http.StatusOK {
		t.Fatalf("zip status = %d (%s)", zrec.Code, zrec.Body.String())
	}
	if ct := zrec.Header().Get("Content-Type"); ct != "application/zip" {
		t.Fatalf("content type = %q", ct)
	}
	if zrec.Body.Len() == 0 {
		t.Fatal("empty archive")
	}
}

func TestGenerationZipWithoutAssets(t *testing.T) {
	d := &stubDispatcher{outcome: dispatch.Outcome{Status: dispatch.StatusInProgress}}
	h := newTestServer(t, d, 3)
	rec, body := doJSON(t, h, http.MethodPost, "/v1/generations", map[string]any{
		"input": map[string]any{"model_id": "flux-dev", "prompt": "pending"},
	})
	if rec.Code != http.StatusAccepted {
		t.Fatalf("create = %d", rec.Code)
	}
	id := body["generation_id"].(string)
	rec, _ = doJSON(t, h, http.MethodGet, "/v1/generations/"+id+"/zip", nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("zip status = %d", rec.Code)
	}
}

func TestGenerationZipUnknownID(t *testing.T) {
	h := newTestServer(t, &stubDispatcher{}, 3)
	rec, body := doJSON(t, h, http.MethodGet, "/v1/generations/ghost/zip", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
	errObj, _ := body["error"].(map[string]any)
	if errObj == nil || errObj["code"] != "not_found" {
		t.Fatalf("expected not_found error, got %v", body)
	}
}

func TestPresetsUnavailableWithoutStore(t *testing.T) {
	h := newTestServer(t, &stubDispatcher{}, 3)
	rec, _ := doJSON(t, h, http.MethodGet, "/v1/presets/canvas", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
}
