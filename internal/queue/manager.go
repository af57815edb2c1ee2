// Package queue tracks concurrent generation attempts: admission against a
// concurrency ceiling, lifecycle transitions, and a small in-memory record of
// recent attempts.
package queue

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one generation task.
type Status string

const (
	StatusPending      Status = "pending"
	StatusInProgress   Status = "in_progress"
	StatusSucceeded    Status = "succeeded"
	StatusFailed       Status = "failed"
	StatusNetworkError Status = "network_error"
)

// Terminal reports whether the status is final. Terminal tasks never count
// toward the concurrency limit and are never reused.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusNetworkError:
		return true
	}
	return false
}

// Task is one admitted generation attempt. PredictionID is attached once the
// provider acknowledges the queued job.
type Task struct {
	ID           string
	PredictionID string
	Status       Status
	Scope        string
	ModelID      string
	Prompt       string
	CustomAPIKey string
	CreatedAt    time.Time
	CompletedAt  time.Time
}

// TaskRequest describes an admission attempt. ID is optional; when empty the
// manager issues one.
type TaskRequest struct {
	ID           string
	Scope        string
	ModelID      string
	Prompt       string
	CustomAPIKey string
}

// DefaultScope is the admission scope used when a request names none.
const DefaultScope = "default"

const defaultMaxConcurrent = 3

// retainedTerminal caps how many terminal tasks stay in the table for status
// reads before eviction.
const retainedTerminal = 50

// Options configures a Manager. Zero values fall back to a limit of
// defaultMaxConcurrent for every scope and the wall clock.
type Options struct {
	// Limits maps admission scopes to their maximum concurrent task count.
	Limits map[string]int
	// DefaultLimit applies to scopes absent from Limits.
	DefaultLimit int
	// Clock supplies task timestamps; injected for tests.
	Clock func() time.Time
}

// Manager owns the task table. All mutation happens under one mutex so that
// the admission check and the counter increment are a single atomic step.
type Manager struct {
	mu            sync.Mutex
	tasks         map[string]*Task
	limits        map[string]int
	fallbackLimit int
	clock         func() time.Time
	active        map[string]int
}

// NewManager constructs an isolated manager instance. Tests construct their
// own rather than sharing process state.
func NewManager(opts Options) *Manager {
	limit := opts.DefaultLimit
	if limit <= 0 {
		limit = defaultMaxConcurrent
	}
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	limits := make(map[string]int, len(opts.Limits))
	for scope, n := range opts.Limits {
		if n > 0 {
			limits[scope] = n
		}
	}
	return &Manager{
		tasks:         make(map[string]*Task),
		limits:        limits,
		fallbackLimit: limit,
		clock:         clock,
		active:        make(map[string]int),
	}
}

// Start attempts admission. It returns the generation id and true on success,
// or "" and false when the scope is at capacity. Each scope holds its own
// count, so a busy default pool never starves canvas admissions and vice
// versa. Rejection is a sentinel, not an error: the caller surfaces a "too
// many concurrent generations" message and the request is never queued.
func (m *Manager) Start(req TaskRequest) (string, bool) {
	scope := req.Scope
	if scope == "" {
		scope = DefaultScope
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.active[scope] >= m.limitFor(scope) {
		return "", false
	}
	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}
	if existing, ok := m.tasks[id]; ok && !existing.Status.Terminal() {
		// Caller-supplied id already live; refuse rather than double-count.
		return "", false
	}
	m.tasks[id] = &Task{
		ID:           id,
		Status:       StatusPending,
		Scope:        scope,
		ModelID:      req.ModelID,
		Prompt:       req.Prompt,
		CustomAPIKey: req.CustomAPIKey,
		CreatedAt:    m.clock(),
	}
	m.active[scope]++
	return id, true
}

// Update attaches the provider-side correlation id and moves the task to
// in_progress. Unknown ids are a no-op: completion handlers may race with
// eviction.
func (m *Manager) Update(id, predictionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.Status.Terminal() {
		return
	}
	task.PredictionID = predictionID
	task.Status = StatusInProgress
}

// Complete moves the task to a terminal state and releases its slot. A
// non-terminal status is coerced to failed so no path can park a task in a
// counted state. Idempotent: a second call for the same id changes nothing.
func (m *Manager) Complete(id string, status Status) {
	if !status.Terminal() {
		status = StatusFailed
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok || task.Status.Terminal() {
		return
	}
	task.Status = status
	task.CompletedAt = m.clock()
	if m.active[task.Scope] > 0 {
		m.active[task.Scope]--
	}
	m.evictLocked()
}

// ActiveCount returns the number of tasks currently holding a slot across
// all scopes.
func (m *Manager) ActiveCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.active {
		total += n
	}
	return total
}

// MaxConcurrent returns the admission ceiling for a scope.
func (m *Manager) MaxConcurrent(scope string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.limitFor(scope)
}

// Task returns a snapshot of one task.
func (m *Manager) Task(id string) (Task, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *task, true
}

// Recent returns up to n terminal tasks, most recently completed first.
func (m *Manager) Recent(n int) []Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Task
	for _, task := range m.tasks {
		if task.Status.Terminal() {
			out = append(out, *task)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CompletedAt.After(out[j].CompletedAt)
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

func (m *Manager) limitFor(scope string) int {
	if n, ok := m.limits[scope]; ok {
		return n
	}
	return m.fallbackLimit
}

// evictLocked prunes the oldest terminal tasks beyond the retention cap.
// Caller holds the mutex.
func (m *Manager) evictLocked() {
	terminal := 0
	for _, task := range m.tasks {
		if task.Status.Terminal() {
			terminal++
		}
	}
	for terminal > retainedTerminal {
		var oldest *Task
		for _, task := range m.tasks {
			if !task.Status.Terminal() {
				continue
			}
			if oldest == nil || task.CompletedAt.Before(oldest.CompletedAt) {
				oldest = task
			}
		}
		if oldest == nil {
			return
		}
		delete(m.tasks, oldest.ID)
		terminal--
	}
}
