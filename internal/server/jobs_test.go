package server

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/magang-agent/internal/pipeline"
)

func TestRunner_TriggerAndComplete(t *testing.T) {
	release := make(chan struct{})
	runner := NewRunner(func(ctx context.Context) (*pipeline.RunStats, error) {
		<-release
		return &pipeline.RunStats{Upserted: 5}, nil
	})

	id, err := runner.Trigger()
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, id)

	status, ok := runner.Status(id)
	require.True(t, ok)
	assert.Equal(t, RunStateRunning, status.State)
	assert.Nil(t, status.FinishedAt)

	close(release)
	require.Eventually(t, func() bool {
		s, _ := runner.Status(id)
		return s.State == RunStateCompleted
	}, 2*time.Second, 10*time.Millisecond)

	status, _ = runner.Status(id)
	require.NotNil(t, status.Stats)
	assert.Equal(t, 5, status.Stats.Upserted)
	assert.NotNil(t, status.FinishedAt)
	assert.Empty(t, status.Error)
}

func TestRunner_SingleFlight(t *testing.T) {
	release := make(chan struct{})
	runner := NewRunner(func(ctx context.Context) (*pipeline.RunStats, error) {
		<-release
		return &pipeline.RunStats{}, nil
	})

	id, err := runner.Trigger()
	require.NoError(t, err)

	_, err = runner.Trigger()
	assert.ErrorIs(t, err, ErrRunInProgress)

	close(release)
	require.Eventually(t, func() bool {
		s, _ := runner.Status(id)
		return s.State == RunStateCompleted
	}, 2*time.Second, 10*time.Millisecond)

	// A finished run frees the slot for the next trigger.
	id2, err := runner.Trigger()
	require.NoError(t, err)
	assert.NotEqual(t, id, id2)
}

func TestRunner_FailedRun(t *testing.T) {
	runner := NewRunner(func(ctx context.Context) (*pipeline.RunStats, error) {
		return nil, errors.New("bootstrap failed")
	})

	id, err := runner.Trigger()
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		s, _ := runner.Status(id)
		return s.State == RunStateFailed
	}, 2*time.Second, 10*time.Millisecond)

	status, _ := runner.Status(id)
	assert.Equal(t, "bootstrap failed", status.Error)
	assert.Nil(t, status.Stats)
}

func TestRunner_PrunesOldFinishedRuns(t *testing.T) {
	runner := NewRunner(func(ctx context.Context) (*pipeline.RunStats, error) {
		return &pipeline.RunStats{}, nil
	})

	var ids []uuid.UUID
	for i := 0; i < maxRunHistory+5; i++ {
		var id uuid.UUID
		// The previous run may still be winding down; retry until the slot frees.
		require.Eventually(t, func() bool {
			var err error
			id, err = runner.Trigger()
			return err == nil
		}, 2*time.Second, time.Millisecond)
		ids = append(ids, id)
	}

	last := ids[len(ids)-1]
	require.Eventually(t, func() bool {
		s, ok := runner.Status(last)
		return ok && s.State == RunStateCompleted
	}, 2*time.Second, 10*time.Millisecond)

	runner.mu.Lock()
	retained := len(runner.runs)
	runner.mu.Unlock()
	assert.LessOrEqual(t, retained, maxRunHistory)

	_, ok := runner.Status(ids[0])
	assert.False(t, ok, "oldest finished run should have been pruned")
	_, ok = runner.Status(last)
	assert.True(t, ok, "most recent run must be retained")
}

func TestRunner_StatusUnknownID(t *testing.T) {
	runner := NewRunner(func(ctx context.Context) (*pipeline.RunStats, error) {
		return &pipeline.RunStats{}, nil
	})

	_, ok := runner.Status(uuid.New())
	assert.False(t, ok)
}
