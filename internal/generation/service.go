// Package generation wires the registry, mapping engine, queue manager and
// dispatch client into the submit/poll lifecycle the UI consumes.
package generation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"studio/internal/dispatch"
	"studio/internal/history"
	"studio/internal/infra"
	"studio/internal/mapping"
	"studio/internal/queue"
	"studio/internal/registry"
)

var (
	// ErrUnknownModel tags a request naming a model id absent from the
	// catalog. The feature is unavailable; this is not a crash.
	ErrUnknownModel = errors.New("generation: unknown model")
	// ErrTooManyGenerations is the admission-rejected sentinel. The request
	// was never submitted; the caller surfaces a message and aborts.
	ErrTooManyGenerations = errors.New("generation: too many concurrent generations")
	// ErrNotFound tags a status check for an id the manager no longer tracks.
	ErrNotFound = errors.New("generation: not found")
)

// Dispatcher is the slice of the dispatch client the service needs.
type Dispatcher interface {
	Submit(ctx context.Context, endpoint string, payload map[string]any, customAPIKey string) (string, *dispatch.Outcome)
	Poll(ctx context.Context, endpoint, predictionID, customAPIKey string) dispatch.Outcome
}

// Recorder receives history writes. Only the service's completion path calls
// it.
type Recorder interface {
	Insert(ctx context.Context, rec history.Record) error
	UpdateStatus(ctx context.Context, id, status, predictionID string, assets []dispatch.Asset, errMsg string) error
}

// KeySource resolves a stored provider credential. Absence is valid.
type KeySource interface {
	ProviderAPIKey(ctx context.Context, provider string) (string, error)
}

// Callbacks are invoked zero or more times over one task's lifecycle.
// Either field may be nil.
type Callbacks struct {
	OnStatus func(status string)
	OnResult func(assets []dispatch.Asset)
}

// Request is one generation attempt as handed over by the UI layer. Input is
// the opaque form-state object; the service only reads the fields the active
// mapping rules (and model_id, prompt, aspect_ratio, custom_api_key) name.
type Request struct {
	Scope        string
	Input        map[string]any
	CustomAPIKey string
	Callbacks    Callbacks
}

// Snapshot is the caller-facing view of one task.
type Snapshot struct {
	GenerationID string            `json:"generation_id"`
	ModelID      string            `json:"model_id"`
	ModelType    string            `json:"model_type"`
	Status       queue.Status      `json:"status"`
	PredictionID string            `json:"prediction_id,omitempty"`
	Outcome      *dispatch.Outcome `json:"outcome,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// Options configures a Service.
type Options struct {
	Queue        *queue.Manager
	Dispatcher   Dispatcher
	History      Recorder
	Keys         KeySource
	Logger       *infra.Logger
	PollInterval time.Duration
}

// Service owns the lifecycle of generation tasks. Outcomes of finished tasks
// stay cached so repeated status checks of a terminal task answer the same.
type Service struct {
	queue        *queue.Manager
	dispatcher   Dispatcher
	history      Recorder
	keys         KeySource
	logger       *infra.Logger
	pollInterval time.Duration

	mu        sync.Mutex
	outcomes  map[string]dispatch.Outcome
	callbacks map[string]Callbacks
}

func NewService(opts Options) *Service {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	logger := opts.Logger
	if logger == nil {
		discard := infra.Logger(zerolog.New(io.Discard))
		logger = &discard
	}
	return &Service{
		queue:        opts.Queue,
		dispatcher:   opts.Dispatcher,
		history:      opts.History,
		keys:         opts.Keys,
		logger:       logger,
		pollInterval: interval,
		outcomes:     make(map[string]dispatch.Outcome),
		callbacks:    make(map[string]Callbacks),
	}
}

// Begin maps, admits and submits one request. On success the returned id
// identifies the task for later Check calls. An admitted task is guaranteed
// to reach a terminal state: every failure path after admission completes it.
func (s *Service) Begin(ctx context.Context, req Request) (string, error) {
	modelID, _ := req.Input["model_id"].(string)
	model, ok := registry.FindByID(modelID)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}
	input := normalizeInput(model, req.Input)
	payload, err := mapping.Apply(model.APIInput.Rules, input)
	if err != nil {
		// Catalog validation should have caught this before any request.
		return "", err
	}
	prompt, _ := input["prompt"].(string)
	apiKey := s.resolveKey(ctx, model.APIInput.Provider, req, input)

	id, admitted := s.queue.Start(queue.TaskRequest{
		Scope:        req.Scope,
		ModelID:      model.ID,
		Prompt:       prompt,
		CustomAPIKey: apiKey,
	})
	if !admitted {
		return "", ErrTooManyGenerations
	}
	s.mu.Lock()
	s.callbacks[id] = req.Callbacks
	s.mu.Unlock()
	s.record(ctx, func(r Recorder) error {
		return r.Insert(ctx, history.Record{
			ID:        id,
			ModelID:   model.ID,
			ModelType: string(model.Type),
			Prompt:    prompt,
			Status:    string(queue.StatusPending),
		})
	})
	s.notifyStatus(id, string(queue.StatusPending))

	defer s.guard(ctx, id)

	predictionID, fail := s.dispatcher.Submit(ctx, model.APIInput.Endpoint, payload, apiKey)
	if fail != nil {
		s.finish(ctx, id, *fail)
		return id, nil
	}
	s.queue.Update(id, predictionID)
	s.record(ctx, func(r Recorder) error {
		return r.UpdateStatus(ctx, id, string(queue.StatusInProgress), predictionID, nil, "")
	})
	s.notifyStatus(id, string(queue.StatusInProgress))
	s.logger.Info().
		Str("generation_id", id).
		Str("model", model.ID).
		Str("prediction_id", predictionID).
		Msg("generation: submitted")
	return id, nil
}

// Lookup returns the current view of a task without contacting the provider.
func (s *Service) Lookup(id string) (Snapshot, bool) {
	task, ok := s.queue.Task(id)
	if !ok {
		return Snapshot{}, false
	}
	return s.snapshot(task), true
}

// Check performs one status poll for an admitted task. It is single-shot:
// while the job runs the snapshot reports in_progress and the caller decides
// when to ask again. Terminal tasks answer from the cached outcome.
func (s *Service) Check(ctx context.Context, id string) (Snapshot, error) {
	task, ok := s.queue.Task(id)
	if !ok {
		return Snapshot{}, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if task.Status.Terminal() {
		return s.snapshot(task), nil
	}
	if task.PredictionID == "" {
		return s.snapshot(task), nil
	}

	defer s.guard(ctx, id)

	model, _ := registry.FindByID(task.ModelID)
	outcome := s.dispatcher.Poll(ctx, model.APIInput.Endpoint, task.PredictionID, task.CustomAPIKey)
	if outcome.Status == dispatch.StatusInProgress {
		refreshed, _ := s.queue.Task(id)
		return s.snapshot(refreshed), nil
	}
	s.finish(ctx, id, outcome)
	final, _ := s.queue.Task(id)
	return s.snapshot(final), nil
}

// Run drives one request to completion, polling on the service interval.
// Context cancellation approximates task cancellation: the slot is freed
// locally while the remote job may keep running server-side.
func (s *Service) Run(ctx context.Context, req Request) (Snapshot, error) {
	id, err := s.Begin(ctx, req)
	if err != nil {
		return Snapshot{}, err
	}
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()
	for {
		snap, err := s.Check(ctx, id)
		if err != nil {
			return Snapshot{}, err
		}
		if snap.Status.Terminal() {
			return snap, nil
		}
		select {
		case <-ctx.Done():
			s.finish(ctx, id, dispatch.Outcome{
				Status:  dispatch.StatusFailed,
				Message: "canceled by caller",
			})
			snap, _ := s.Check(context.WithoutCancel(ctx), id)
			return snap, ctx.Err()
		case <-ticker.C:
		}
	}
}

// Recent returns the manager's in-memory record of finished tasks.
func (s *Service) Recent(n int) []Snapshot {
	tasks := s.queue.Recent(n)
	out := make([]Snapshot, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, s.snapshot(task))
	}
	return out
}

// finish moves a task to its terminal state exactly once: queue slot release,
// history write and callbacks all hang off the first call for an id.
func (s *Service) finish(ctx context.Context, id string, outcome dispatch.Outcome) {
	s.mu.Lock()
	if _, done := s.outcomes[id]; done {
		s.mu.Unlock()
		return
	}
	s.outcomes[id] = outcome
	cb := s.callbacks[id]
	delete(s.callbacks, id)
	s.mu.Unlock()

	status := taskStatus(outcome.Status)
	s.queue.Complete(id, status)
	s.pruneOutcomes()
	s.record(ctx, func(r Recorder) error {
		return r.UpdateStatus(ctx, id, string(status), "", outcome.Assets, outcome.Message)
	})
	if cb.OnStatus != nil {
		cb.OnStatus(string(status))
	}
	if status == queue.StatusSucceeded && cb.OnResult != nil {
		cb.OnResult(outcome.Assets)
	}
	if status == queue.StatusSucceeded {
		s.logger.Info().Str("generation_id", id).Int("assets", len(outcome.Assets)).Msg("generation: succeeded")
	} else {
		s.logger.Warn().Str("generation_id", id).Str("status", string(status)).Str("reason", outcome.Message).Msg("generation: failed")
	}
}

// pruneOutcomes drops cached outcomes for tasks the queue has already
// evicted, keeping the cache bounded by the manager's retention window.
func (s *Service) pruneOutcomes() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.outcomes {
		if _, tracked := s.queue.Task(id); !tracked {
			delete(s.outcomes, id)
			delete(s.callbacks, id)
		}
	}
}

// guard is the outermost boundary for unexpected panics: the task is
// completed with a generic failure so no slot leaks and the host survives.
func (s *Service) guard(ctx context.Context, id string) {
	if r := recover(); r != nil {
		s.logger.Error().Str("generation_id", id).Interface("panic", r).Msg("generation: unexpected failure")
		s.finish(ctx, id, dispatch.Outcome{
			Status:  dispatch.StatusFailed,
			Code:    500,
			Message: "unexpected generation failure",
		})
	}
}

func (s *Service) snapshot(task queue.Task) Snapshot {
	snap := Snapshot{
		GenerationID: task.ID,
		ModelID:      task.ModelID,
		Status:       task.Status,
		PredictionID: task.PredictionID,
		CreatedAt:    task.CreatedAt,
	}
	if m, ok := registry.FindByID(task.ModelID); ok {
		snap.ModelType = string(m.Type)
	}
	s.mu.Lock()
	if outcome, ok := s.outcomes[task.ID]; ok {
		snap.Outcome = &outcome
	}
	s.mu.Unlock()
	return snap
}

func (s *Service) resolveKey(ctx context.Context, provider string, req Request, input map[string]any) string {
	if req.CustomAPIKey != "" {
		return req.CustomAPIKey
	}
	if key, ok := input["custom_api_key"].(string); ok && key != "" {
		return key
	}
	if s.keys == nil {
		return ""
	}
	key, err := s.keys.ProviderAPIKey(ctx, provider)
	if err != nil {
		s.logger.Warn().Err(err).Str("provider", provider).Msg("generation: provider key lookup failed")
		return ""
	}
	return key
}

func (s *Service) record(ctx context.Context, fn func(Recorder) error) {
	if s.history == nil {
		return
	}
	if err := fn(s.history); err != nil {
		s.logger.Warn().Err(err).Msg("generation: history write failed")
	}
}

func (s *Service) notifyStatus(id, status string) {
	s.mu.Lock()
	cb := s.callbacks[id]
	s.mu.Unlock()
	if cb.OnStatus != nil {
		cb.OnStatus(status)
	}
}

func taskStatus(status dispatch.Status) queue.Status {
	switch status {
	case dispatch.StatusSucceeded:
		return queue.StatusSucceeded
	case dispatch.StatusNetworkError:
		return queue.StatusNetworkError
	default:
		return queue.StatusFailed
	}
}

// normalizeInput copies the form state and clamps the aspect ratio to the
// model's supported set. The caller's object is never touched.
func normalizeInput(m registry.ModelSetting, input map[string]any) map[string]any {
	out := make(map[string]any, len(input))
	for k, v := range input {
		out[k] = v
	}
	if meta, ok := input["meta_data"].(map[string]any); ok {
		cloned := make(map[string]any, len(meta))
		for k, v := range meta {
			cloned[k] = v
		}
		out["meta_data"] = cloned
	}
	if len(m.SupportedAspectRatios) > 0 {
		ratio, _ := out["aspect_ratio"].(string)
		out["aspect_ratio"] = m.NormalizeAspectRatio(ratio)
	}
	return out
}
