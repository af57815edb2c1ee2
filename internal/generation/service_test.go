package generation

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"studio/internal/dispatch"
	"studio/internal/history"
	"studio/internal/queue"
)

type stubDispatcher struct {
	mu           sync.Mutex
	submitID     string
	submitFail   *dispatch.Outcome
	pollOutcomes []dispatch.Outcome
	polls        int
	lastEndpoint string
	lastPayload  map[string]any
	lastKey      string
}

func (d *stubDispatcher) Submit(_ context.Context, endpoint string, payload map[string]any, customAPIKey string) (string, *dispatch.Outcome) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.lastEndpoint = endpoint
	d.lastPayload = payload
	d.lastKey = customAPIKey
	if d.submitFail != nil {
		return "", d.submitFail
	}
	if d.submitID == "" {
		d.submitID = "pred-1"
	}
	return d.submitID, nil
}

func (d *stubDispatcher) Poll(_ context.Context, _, _, _ string) dispatch.Outcome {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.polls++
	if len(d.pollOutcomes) == 0 {
		return dispatch.Outcome{Status: dispatch.StatusInProgress}
	}
	outcome := d.pollOutcomes[0]
	if len(d.pollOutcomes) > 1 {
		d.pollOutcomes = d.pollOutcomes[1:]
	}
	return outcome
}

func (d *stubDispatcher) pollCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.polls
}

type stubRecorder struct {
	mu       sync.Mutex
	inserted []history.Record
	updates  []string
}

func (r *stubRecorder) Insert(_ context.Context, rec history.Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inserted = append(r.inserted, rec)
	return nil
}

func (r *stubRecorder) UpdateStatus(_ context.Context, _, status, _ string, _ []dispatch.Asset, _ string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updates = append(r.updates, status)
	return nil
}

type stubKeys struct {
	key string
}

func (k stubKeys) ProviderAPIKey(context.Context, string) (string, error) {
	return k.key, nil
}

func newTestService(t *testing.T, d Dispatcher, opts Options) *Service {
	t.Helper()
	if opts.Queue == nil {
		opts.Queue = queue.NewManager(queue.Options{DefaultLimit: 4})
	}
	opts.Dispatcher = d
	return NewService(opts)
}

func fluxRequest() Request {
	return Request{Input: map[string]any{
		"model_id": "flux-dev",
		"prompt":   "a cat",
		"width":    1024,
		"height":   768,
	}}
}

func TestBeginSubmitsMappedPayload(t *testing.T) {
	d := &stubDispatcher{}
	svc := newTestService(t, d, Options{})

	id, err := svc.Begin(context.Background(), fluxRequest())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if id == "" {
		t.Fatal("expected non-empty generation id")
	}
	if d.lastEndpoint != "fal-ai/flux/dev" {
		t.Fatalf("endpoint = %q", d.lastEndpoint)
	}
	if got := d.lastPayload["prompt"]; got != "a cat" {
		t.Fatalf("payload prompt = %v", got)
	}
	size, ok := d.lastPayload["image_size"].(map[string]any)
	if !ok || size["width"] != 1024 || size["height"] != 768 {
		t.Fatalf("payload image_size = %v", d.lastPayload["image_size"])
	}
	task, ok := svc.queue.Task(id)
	if !ok {
		t.Fatal("task not tracked")
	}
	if task.Status != queue.StatusInProgress || task.PredictionID != "pred-1" {
		t.Fatalf("task = %+v", task)
	}
}

func TestBeginUnknownModel(t *testing.T) {
	svc := newTestService(t, &stubDispatcher{}, Options{})
	_, err := svc.Begin(context.Background(), Request{Input: map[string]any{
		"model_id": "does-not-exist",
	}})
	if !errors.Is(err, ErrUnknownModel) {
		t.Fatalf("err = %v, want ErrUnknownModel", err)
	}
}

func TestBeginRejectsAtCapacity(t *testing.T) {
	d := &stubDispatcher{}
	svc := newTestService(t, d, Options{Queue: queue.NewManager(queue.Options{DefaultLimit: 1})})

	if _, err := svc.Begin(context.Background(), fluxRequest()); err != nil {
		t.Fatalf("first Begin: %v", err)
	}
	_, err := svc.Begin(context.Background(), fluxRequest())
	if !errors.Is(err, ErrTooManyGenerations) {
		t.Fatalf("err = %v, want ErrTooManyGenerations", err)
	}
}

func TestBeginSubmitFailureCompletesTask(t *testing.T) {
	d := &stubDispatcher{submitFail: &dispatch.Outcome{
		Status:    dispatch.StatusNetworkError,
		Message:   "connection refused",
		Retryable: true,
	}}
	rec := &stubRecorder{}
	svc := newTestService(t, d, Options{History: rec})

	id, err := svc.Begin(context.Background(), fluxRequest())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	task, _ := svc.queue.Task(id)
	if task.Status != queue.StatusNetworkError {
		t.Fatalf("status = %q, want network_error", task.Status)
	}
	if n := svc.queue.ActiveCount(); n != 0 {
		t.Fatalf("active = %d after terminal submit failure", n)
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if len(rec.inserted) != 1 || len(rec.updates) == 0 {
		t.Fatalf("history writes: inserted=%d updates=%v", len(rec.inserted), rec.updates)
	}
	if last := rec.updates[len(rec.updates)-1]; last != "network_error" {
		t.Fatalf("last history status = %q", last)
	}
}

func TestCheckSingleShotThenTerminal(t *testing.T) {
	d := &stubDispatcher{pollOutcomes: []dispatch.Outcome{
		{Status: dispatch.StatusInProgress},
		{Status: dispatch.StatusSucceeded, Assets: []dispatch.Asset{{URL: "https://cdn.example/out.png"}}},
	}}
	svc := newTestService(t, d, Options{})
	id, err := svc.Begin(context.Background(), fluxRequest())
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}

	snap, err := svc.Check(context.Background(), id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if snap.Status != queue.StatusInProgress {
		t.Fatalf("first check status = %q", snap.Status)
	}

	snap, err = svc.Check(context.Background(), id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if snap.Status != queue.StatusSucceeded {
		t.Fatalf("second check status = %q", snap.Status)
	}
	if snap.Outcome == nil || len(snap.Outcome.Assets) != 1 {
		t.Fatalf("outcome = %+v", snap.Outcome)
	}
	if n := svc.queue.ActiveCount(); n != 0 {
		t.Fatalf("active = %d after completion", n)
	}

	// Terminal tasks answer from the cache without another provider call.
	before := d.pollCount()
	snap, err = svc.Check(context.Background(), id)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if snap.Status != queue.StatusSucceeded || d.pollCount() != before {
		t.Fatalf("terminal re-check polled provider (polls %d -> %d)", before, d.pollCount())
	}
}

func TestCheckUnknownID(t *testing.T) {
	svc := newTestService(t, &stubDispatcher{}, Options{})
	if _, err := svc.Check(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCallbacksFireOnceOnCompletion(t *testing.T) {
	d := &stubDispatcher{pollOutcomes: []dispatch.Outcome{
		{Status: dispatch.StatusSucceeded, Assets: []dispatch.Asset{{URL: "https://cdn.example/a.png"}}},
	}}
	svc := newTestService(t, d, Options{})

	var mu sync.Mutex
	var statuses []string
	var results int
	req := fluxRequest()
	req.Callbacks = Callbacks{
		OnStatus: func(status string) {
			mu.Lock()
			statuses = append(statuses, status)
			mu.Unlock()
		},
		OnResult: func([]dispatch.Asset) {
			mu.Lock()
			results++
			mu.Unlock()
		},
	}
	id, err := svc.Begin(context.Background(), req)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if _, err := svc.Check(context.Background(), id); err != nil {
		t.Fatalf("Check: %v", err)
	}
	// A second check of the finished task must not replay callbacks.
	if _, err := svc.Check(context.Background(), id); err != nil {
		t.Fatalf("Check: %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := []string{"pending", "in_progress", "succeeded"}
	if len(statuses) != len(want) {
		t.Fatalf("statuses = %v", statuses)
	}
	for i, s := range want {
		if statuses[i] != s {
			t.Fatalf("statuses = %v, want %v", statuses, want)
		}
	}
	if results != 1 {
		t.Fatalf("OnResult fired %d times", results)
	}
}

func TestRunPollsToCompletion(t *testing.T) {
	d := &stubDispatcher{pollOutcomes: []dispatch.Outcome{
		{Status: dispatch.StatusInProgress},
		{Status: dispatch.StatusInProgress},
		{Status: dispatch.StatusSucceeded, Assets: []dispatch.Asset{{URL: "https://cdn.example/a.png"}}},
	}}
	svc := newTestService(t, d, Options{PollInterval: time.Millisecond})

	snap, err := svc.Run(context.Background(), fluxRequest())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if snap.Status != queue.StatusSucceeded {
		t.Fatalf("status = %q", snap.Status)
	}
	if d.pollCount() < 3 {
		t.Fatalf("polls = %d, want at least 3", d.pollCount())
	}
}

func TestRunCancellationFreesSlot(t *testing.T) {
	d := &stubDispatcher{} // polls report in_progress forever
	svc := newTestService(t, d, Options{PollInterval: time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Run(ctx, fluxRequest())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if n := svc.queue.ActiveCount(); n != 0 {
		t.Fatalf("active = %d after cancellation", n)
	}
}

func TestOutcomeCacheBoundedByQueueRetention(t *testing.T) {
	d := &stubDispatcher{pollOutcomes: []dispatch.Outcome{
		{Status: dispatch.StatusSucceeded, Assets: []dispatch.Asset{{URL: "https://cdn.example/a.png"}}},
	}}
	svc := newTestService(t, d, Options{})

	const runs = 200
	for i := 0; i < runs; i++ {
		id, err := svc.Begin(context.Background(), fluxRequest())
		if err != nil {
			t.Fatalf("Begin #%d: %v", i, err)
		}
		if _, err := svc.Check(context.Background(), id); err != nil {
			t.Fatalf("Check #%d: %v", i, err)
		}
	}

	svc.mu.Lock()
	defer svc.mu.Unlock()
	if len(svc.outcomes) > runs/2 {
		t.Fatalf("outcome cache not pruned: %d entries after %d completions", len(svc.outcomes), runs)
	}
	for id := range svc.outcomes {
		if _, tracked := svc.queue.Task(id); !tracked {
			t.Fatalf("cached outcome for evicted task %s", id)
		}
	}
	if len(svc.callbacks) != 0 {
		t.Fatalf("callback map retained %d entries", len(svc.callbacks))
	}
}

func TestBeginKeyPrecedence(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*Request)
		stored  string
		wantKey string
	}{
		{
			name:    "request field wins",
			mutate:  func(r *Request) { r.CustomAPIKey = "req-key" },
			stored:  "stored-key",
			wantKey: "req-key",
		},
		{
			name:    "input custom_api_key over stored",
			mutate:  func(r *Request) { r.Input["custom_api_key"] = "input-key" },
			stored:  "stored-key",
			wantKey: "input-key",
		},
		{
			name:    "stored provider key as fallback",
			mutate:  func(*Request) {},
			stored:  "stored-key",
			wantKey: "stored-key",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := &stubDispatcher{}
			svc := newTestService(t, d, Options{Keys: stubKeys{key: tc.stored}})
			req := fluxRequest()
			tc.mutate(&req)
			if _, err := svc.Begin(context.Background(), req); err != nil {
				t.Fatalf("Begin: %v", err)
			}
			if d.lastKey != tc.wantKey {
				t.Fatalf("key = %q, want %q", d.lastKey, tc.wantKey)
			}
		})
	}
}

func TestNormalizeInputDoesNotMutateCaller(t *testing.T) {
	d := &stubDispatcher{}
	svc := newTestService(t, d, Options{})
	input := map[string]any{
		"model_id":     "flux-dev",
		"prompt":       "a cat",
		"aspect_ratio": "21:9", // unsupported, clamps to the model's first
	}
	if _, err := svc.Begin(context.Background(), Request{Input: input}); err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if input["aspect_ratio"] != "21:9" {
		t.Fatalf("caller input mutated: %v", input["aspect_ratio"])
	}
}
