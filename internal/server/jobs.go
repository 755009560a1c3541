package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/magang-agent/internal/pipeline"
)

// ErrRunInProgress is returned by Trigger when a scrape is already running.
var ErrRunInProgress = errors.New("a scrape run is already in progress")

// RunFunc executes one scrape run. The production wiring points this at
// pipeline.Run; tests substitute a fake.
type RunFunc func(ctx context.Context) (*pipeline.RunStats, error)

// Run states reported by the status endpoint.
const (
	RunStateRunning   = "running"
	RunStateCompleted = "completed"
	RunStateFailed    = "failed"
)

// RunStatus is the observable state of a triggered run.
type RunStatus struct {
	ID         uuid.UUID          `json:"run_id"`
	State      string             `json:"status"`
	StartedAt  time.Time          `json:"started_at"`
	FinishedAt *time.Time         `json:"finished_at,omitempty"`
	Stats      *pipeline.RunStats `json:"stats,omitempty"`
	Error      string             `json:"error,omitempty"`
}

// maxRunHistory bounds how many run statuses are retained; once exceeded,
// the oldest finished runs are dropped so a long-lived server doesn't
// accumulate them without bound.
const maxRunHistory = 20

// Runner executes scrape runs in the background, one at a time. Triggering
// only enqueues; completion is observable through Status, never guaranteed
// inline.
type Runner struct {
	mu     sync.Mutex
	run    RunFunc
	active bool
	runs   map[uuid.UUID]*RunStatus
	order  []uuid.UUID
	log    *zap.SugaredLogger
}

// NewRunner creates a runner around the given run function.
func NewRunner(run RunFunc) *Runner {
	return &Runner{
		run:  run,
		runs: make(map[uuid.UUID]*RunStatus),
		log:  zap.S().Named("runner"),
	}
}

// Trigger starts a run in the background and returns its id. Only one run
// may be active; concurrent triggers get ErrRunInProgress.
func (r *Runner) Trigger() (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.active {
		return uuid.Nil, ErrRunInProgress
	}

	id := uuid.New()
	r.active = true
	r.runs[id] = &RunStatus{
		ID:        id,
		State:     RunStateRunning,
		StartedAt: time.Now(),
	}
	r.order = append(r.order, id)

	go r.execute(id)
	return id, nil
}

// prune drops the oldest finished runs once the history exceeds the cap.
// Callers must hold r.mu.
func (r *Runner) prune() {
	if len(r.runs) <= maxRunHistory {
		return
	}
	kept := r.order[:0]
	for _, id := range r.order {
		if len(r.runs) > maxRunHistory && r.runs[id].State != RunStateRunning {
			delete(r.runs, id)
			continue
		}
		kept = append(kept, id)
	}
	r.order = kept
}

func (r *Runner) execute(id uuid.UUID) {
	r.log.Infof("starting scrape run %s", id)
	stats, err := r.run(context.Background())
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	r.active = false
	defer r.prune()

	status := r.runs[id]
	status.FinishedAt = &now
	if err != nil {
		status.State = RunStateFailed
		status.Error = err.Error()
		r.log.Errorf("scrape run %s failed: %v", id, err)
		return
	}
	status.State = RunStateCompleted
	status.Stats = stats
	r.log.Infof("scrape run %s completed", id)
}

// Status returns a snapshot of a run's state.
func (r *Runner) Status(id uuid.UUID) (RunStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	status, ok := r.runs[id]
	if !ok {
		return RunStatus{}, false
	}
	return *status, true
}
