package worker

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segevsig/careerOps/internal/coverletter"
)

type fakeStaleStore struct {
	messages []coverletter.Message
	err      error

	calls    int
	gotGrace time.Duration
	gotLimit int
}

func (s *fakeStaleStore) FindStalePending(_ context.Context, olderThan time.Duration, limit int) ([]coverletter.Message, error) {
	s.calls++
	s.gotGrace = olderThan
	s.gotLimit = limit
	return s.messages, s.err
}

func staleMessage(jobID string) coverletter.Message {
	return coverletter.Message{
		JobID:   jobID,
		OwnerID: 7,
		Input: coverletter.Input{
			JobDescription: "Platform engineer",
			CVText:         "CV body",
		},
		Tone:      coverletter.ToneConcise,
		CreatedAt: time.Now().Add(-time.Minute),
	}
}

func TestReconcilerSweepProcessesStaleJobs(t *testing.T) {
	jobStore := newFakeJobStore()
	gen := &fakeGenerator{text: "recovered letter"}
	processor := NewProcessor(jobStore, gen, slog.New(slog.NewTextHandler(io.Discard, nil)), 30*time.Second)

	staleStore := &fakeStaleStore{
		messages: []coverletter.Message{staleMessage("job-a"), staleMessage("job-b")},
	}
	r := NewReconciler(staleStore, processor, slog.New(slog.NewTextHandler(io.Discard, nil)),
		30*time.Second, 10*time.Second, 10)

	r.Sweep(context.Background())

	assert.Equal(t, 10*time.Second, staleStore.gotGrace)
	assert.Equal(t, 10, staleStore.gotLimit)
	assert.Equal(t, "recovered letter", jobStore.completed["job-a"])
	assert.Equal(t, "recovered letter", jobStore.completed["job-b"])
}

func TestReconcilerSweepIsolatesJobFailures(t *testing.T) {
	jobStore := newFakeJobStore()
	gen := &fakeGenerator{text: "letter"}
	processor := NewProcessor(jobStore, gen, slog.New(slog.NewTextHandler(io.Discard, nil)), 30*time.Second)

	// Every terminal write fails, yet each job in the batch must still be
	// attempted.
	jobStore.completedErr = errors.New("connection refused")
	staleStore := &fakeStaleStore{
		messages: []coverletter.Message{staleMessage("job-a"), staleMessage("job-b")},
	}

	r := NewReconciler(staleStore, processor, slog.New(slog.NewTextHandler(io.Discard, nil)),
		30*time.Second, 10*time.Second, 10)
	r.Sweep(context.Background())

	assert.Equal(t, []string{"job-a", "job-b"}, jobStore.processing,
		"one broken job must not stop the batch")
}

func TestReconcilerSweepToleratesScanError(t *testing.T) {
	jobStore := newFakeJobStore()
	processor := NewProcessor(jobStore, &fakeGenerator{}, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)
	staleStore := &fakeStaleStore{err: errors.New("connection refused")}

	r := NewReconciler(staleStore, processor, slog.New(slog.NewTextHandler(io.Discard, nil)),
		30*time.Second, 10*time.Second, 10)

	r.Sweep(context.Background())
	assert.Empty(t, jobStore.processing)
}

func TestReconcilerSweepIsNotReentrant(t *testing.T) {
	jobStore := newFakeJobStore()
	processor := NewProcessor(jobStore, &fakeGenerator{}, slog.New(slog.NewTextHandler(io.Discard, nil)), time.Second)
	staleStore := &fakeStaleStore{}

	r := NewReconciler(staleStore, processor, slog.New(slog.NewTextHandler(io.Discard, nil)),
		30*time.Second, 10*time.Second, 10)

	require.True(t, r.sweeping.CompareAndSwap(false, true))
	r.Sweep(context.Background())
	assert.Zero(t, staleStore.calls, "an in-flight sweep must not be restarted")

	r.sweeping.Store(false)
	r.Sweep(context.Background())
	assert.Equal(t, 1, staleStore.calls)
}
