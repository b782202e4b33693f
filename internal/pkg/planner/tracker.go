package planner

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/yigit/studygraph/internal/app/models"
)

// Status of a suggestion run
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// FailureMessage is shown when a run fails as a whole
const FailureMessage = "Unable to load study suggestions right now."

// Runner computes suggestions for courses from origin
type Runner func(ctx context.Context, courses []models.Course, origin string) ([]models.StudySuggestion, error)

// Key identifies a suggestion run. Two requests with equal keys share one run.
type Key struct {
	User        string
	Counterpart string
	Signature   string
	Origin      string
}

// Request asks the Tracker to plan suggestions for a counterpart's shared courses
type Request struct {
	User        string
	Counterpart string
	Courses     []models.SharedCourse
	Origin      string
}

// Key derives the run key of r
func (r Request) Key() Key {
	return Key{
		User:        r.User,
		Counterpart: r.Counterpart,
		Signature:   strings.Join(models.CourseIDs(r.Courses), "|"),
		Origin:      r.Origin,
	}
}

// Valid reports whether r names a user, a counterpart and at least one course
func (r Request) Valid() bool {
	return r.User != "" && r.Counterpart != "" && len(r.Courses) > 0
}

// State is a snapshot of a Tracker
type State struct {
	Status      Status                   `json:"status"`
	Counterpart string                   `json:"counterpart,omitempty"`
	Suggestions []models.StudySuggestion `json:"suggestions"`
	Error       string                   `json:"error,omitempty"`
	Generation  uint64                   `json:"generation"`
}

// Tracker runs at most one suggestion computation at a time for one session.
// Starting a run for a new key cancels the previous run, and results that
// arrive for an older generation are discarded.
type Tracker struct {
	run    Runner
	logger zerolog.Logger

	mu     sync.Mutex
	state  State
	key    Key
	last   Request
	cancel context.CancelFunc
	done   chan struct{}
}

// NewTracker creates an idle Tracker
func NewTracker(run Runner, logger zerolog.Logger) *Tracker {
	return &Tracker{
		run:    run,
		logger: logger,
		state:  State{Status: StatusIdle, Suggestions: []models.StudySuggestion{}},
	}
}

// Begin starts a run for req unless one with the same key is already
// loading or complete. An invalid request resets the Tracker to idle.
func (t *Tracker) Begin(req Request) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !req.Valid() {
		t.stopLocked()
		t.state.Generation++
		t.key = Key{}
		t.last = Request{}
		t.state = State{Status: StatusIdle, Suggestions: []models.StudySuggestion{}, Generation: t.state.Generation}
		return t.snapshotLocked()
	}
	return t.beginLocked(req)
}

// Restart runs the last accepted request again from origin. It does nothing
// while the Tracker is idle or when origin is unchanged.
func (t *Tracker) Restart(origin string) State {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state.Status == StatusIdle || !t.last.Valid() {
		return t.snapshotLocked()
	}
	req := t.last
	req.Origin = origin
	return t.beginLocked(req)
}

// Origin returns the origin of the last accepted request
func (t *Tracker) Origin() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.last.Origin
}

func (t *Tracker) beginLocked(req Request) State {
	key := req.Key()
	if t.state.Status != StatusIdle && key == t.key {
		return t.snapshotLocked()
	}

	t.stopLocked()
	t.state.Generation++
	t.key = key
	t.last = req
	t.state = State{
		Status:      StatusLoading,
		Counterpart: req.Counterpart,
		Suggestions: []models.StudySuggestion{},
		Generation:  t.state.Generation,
	}

	courses := make([]models.Course, len(req.Courses))
	for i, c := range req.Courses {
		courses[i] = c.Course
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.cancel = cancel
	t.done = done

	go t.execute(ctx, t.state.Generation, courses, req.Origin, done)

	return t.snapshotLocked()
}

func (t *Tracker) execute(ctx context.Context, generation uint64, courses []models.Course, origin string, done chan struct{}) {
	defer close(done)

	var (
		result []models.StudySuggestion
		err    error
	)
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("suggestion run panicked: %v", r)
			}
		}()
		result, err = t.run(ctx, courses, origin)
	}()

	t.Finish(generation, result, err)
}

// Finish records the outcome of the run with the given generation. It
// returns false when the generation is stale and the outcome was dropped.
func (t *Tracker) Finish(generation uint64, result []models.StudySuggestion, err error) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if generation != t.state.Generation || t.state.Status != StatusLoading {
		t.logger.Debug().Uint64("generation", generation).Msg("discarding stale suggestion result")
		return false
	}

	if err != nil {
		t.logger.Error().Err(err).Str("counterpart", t.state.Counterpart).Msg("study suggestion run failed")
		t.state.Status = StatusError
		t.state.Error = FailureMessage
		t.state.Suggestions = []models.StudySuggestion{}
		return true
	}

	if result == nil {
		result = []models.StudySuggestion{}
	}
	t.state.Status = StatusSuccess
	t.state.Suggestions = result
	t.state.Error = ""
	return true
}

// State returns the current state
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.snapshotLocked()
}

// Wait blocks until the current run, if any, has finished or ctx is done
func (t *Tracker) Wait(ctx context.Context) error {
	t.mu.Lock()
	done := t.done
	t.mu.Unlock()

	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close cancels any in-flight run
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopLocked()
}

func (t *Tracker) stopLocked() {
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
}

func (t *Tracker) snapshotLocked() State {
	s := t.state
	s.Suggestions = append([]models.StudySuggestion{}, t.state.Suggestions...)
	return s
}
