// Package progress reports long-running pipeline activity to callers.
package progress

import (
	"sync"
	"time"
)

// Reporter receives progress events during batch operations. current
// and total describe completed units; message is a short human phrase.
type Reporter interface {
	OnProgress(current, total int, message string)
}

// Func adapts a plain function to the Reporter interface.
type Func func(current, total int, message string)

func (f Func) OnProgress(current, total int, message string) {
	if f != nil {
		f(current, total, message)
	}
}

// Discard is a Reporter that drops all events.
var Discard Reporter = Func(nil)

// Status is a mutex-guarded snapshot of a pipeline run, safe to poll
// from another goroutine while the run is in flight.
type Status struct {
	mu        sync.Mutex
	running   bool
	step      string
	detail    string
	current   int
	total     int
	lastError string
	startedAt time.Time
	updatedAt time.Time
}

// Snapshot is a copy of the status fields at one instant.
type Snapshot struct {
	Running   bool      `json:"running"`
	Step      string    `json:"step"`
	Detail    string    `json:"detail,omitempty"`
	Current   int       `json:"current"`
	Total     int       `json:"total"`
	LastError string    `json:"last_error,omitempty"`
	StartedAt time.Time `json:"started_at,omitempty"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// Start marks the run active and resets counters.
func (s *Status) Start(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = true
	s.step = step
	s.detail = ""
	s.current = 0
	s.total = 0
	s.lastError = ""
	s.startedAt = time.Now()
	s.updatedAt = s.startedAt
}

// Step advances to a named pipeline stage.
func (s *Status) Step(step string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.step = step
	s.detail = ""
	s.current = 0
	s.total = 0
	s.updatedAt = time.Now()
}

// OnProgress implements Reporter, updating the counters in place.
func (s *Status) OnProgress(current, total int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = current
	s.total = total
	s.detail = message
	s.updatedAt = time.Now()
}

// Finish marks the run done; a non-nil err is recorded.
func (s *Status) Finish(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	if err != nil {
		s.lastError = err.Error()
	}
	s.updatedAt = time.Now()
}

// Get returns a copy of the current state.
func (s *Status) Get() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Running:   s.running,
		Step:      s.step,
		Detail:    s.detail,
		Current:   s.current,
		Total:     s.total,
		LastError: s.lastError,
		StartedAt: s.startedAt,
		UpdatedAt: s.updatedAt,
	}
}
