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

type fakeJobStore struct {
	processingErr error
	completedErr  error
	failedErr     error

	processing []string
	completed  map[string]string
	failed     map[string]string
}

func newFakeJobStore() *fakeJobStore {
	return &fakeJobStore{
		completed: make(map[string]string),
		failed:    make(map[string]string),
	}
}

func (s *fakeJobStore) MarkProcessing(_ context.Context, jobID string) error {
	if s.processingErr != nil {
		return s.processingErr
	}
	s.processing = append(s.processing, jobID)
	return nil
}

func (s *fakeJobStore) MarkCompleted(_ context.Context, jobID, result string) error {
	if s.completedErr != nil {
		return s.completedErr
	}
	s.completed[jobID] = result
	return nil
}

func (s *fakeJobStore) MarkFailed(_ context.Context, jobID, errorDetail string) error {
	if s.failedErr != nil {
		return s.failedErr
	}
	s.failed[jobID] = errorDetail
	return nil
}

type fakeGenerator struct {
	text string
	err  error

	calls     int
	gotPrompt string
	gotCtx    context.Context
}

func (g *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	g.calls++
	g.gotPrompt = prompt
	g.gotCtx = ctx
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func testMessage() coverletter.Message {
	return coverletter.Message{
		JobID:   "11111111-2222-3333-4444-555555555555",
		OwnerID: 42,
		Input: coverletter.Input{
			JobDescription: "Backend engineer, Go and PostgreSQL",
			CVText:         "Five years of backend work",
		},
		Tone:      coverletter.ToneProfessional,
		CreatedAt: time.Now(),
	}
}

func TestProcessorCompletesJob(t *testing.T) {
	store := newFakeJobStore()
	gen := &fakeGenerator{text: "Dear hiring manager, ..."}
	p := NewProcessor(store, gen, slog.New(slog.NewTextHandler(io.Discard, nil)), 30*time.Second)

	msg := testMessage()
	err := p.Process(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, []string{msg.JobID}, store.processing)
	assert.Equal(t, "Dear hiring manager, ...", store.completed[msg.JobID])
	assert.Empty(t, store.failed)

	assert.Contains(t, gen.gotPrompt, msg.Input.JobDescription)
	assert.Contains(t, gen.gotPrompt, msg.Input.CVText)
}

func TestProcessorRecordsGenerationFailure(t *testing.T) {
	store := newFakeJobStore()
	gen := &fakeGenerator{err: errors.New("ai service unreachable")}
	p := NewProcessor(store, gen, slog.New(slog.NewTextHandler(io.Discard, nil)), 30*time.Second)

	msg := testMessage()

	// A failed generation settles the job, so the delivery must be acked.
	err := p.Process(context.Background(), msg)
	require.NoError(t, err)

	assert.Equal(t, "ai service unreachable", store.failed[msg.JobID])
	assert.Empty(t, store.completed)
}

func TestProcessorSkipsTerminalJob(t *testing.T) {
	store := newFakeJobStore()
	store.processingErr = coverletter.ErrJobTerminal
	gen := &fakeGenerator{text: "should not be used"}
	p := NewProcessor(store, gen, slog.New(slog.NewTextHandler(io.Discard, nil)), 30*time.Second)

	err := p.Process(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Zero(t, gen.calls, "duplicate delivery must not regenerate")
	assert.Empty(t, store.completed)
	assert.Empty(t, store.failed)
}

func TestProcessorDropsUnknownJob(t *testing.T) {
	store := newFakeJobStore()
	store.processingErr = coverletter.ErrJobNotFound
	gen := &fakeGenerator{}
	p := NewProcessor(store, gen, slog.New(slog.NewTextHandler(io.Discard, nil)), 30*time.Second)

	err := p.Process(context.Background(), testMessage())
	require.NoError(t, err, "a message without a row settles, it never requeues")
	assert.Zero(t, gen.calls)
}

func TestProcessorReturnsStorageErrors(t *testing.T) {
	tests := []struct {
		name  string
		setup func(*fakeJobStore)
	}{
		{
			name: "mark processing fails",
			setup: func(s *fakeJobStore) {
				s.processingErr = errors.New("connection refused")
			},
		},
		{
			name: "mark completed fails",
			setup: func(s *fakeJobStore) {
				s.completedErr = errors.New("connection refused")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newFakeJobStore()
			tt.setup(store)
			gen := &fakeGenerator{text: "letter"}
			p := NewProcessor(store, gen, slog.New(slog.NewTextHandler(io.Discard, nil)), 30*time.Second)

			err := p.Process(context.Background(), testMessage())
			assert.Error(t, err, "infrastructure failure must surface so the delivery is requeued")
		})
	}
}

func TestProcessorToleratesTerminalRaceOnCompletion(t *testing.T) {
	store := newFakeJobStore()
	store.completedErr = coverletter.ErrJobTerminal
	gen := &fakeGenerator{text: "letter"}
	p := NewProcessor(store, gen, slog.New(slog.NewTextHandler(io.Discard, nil)), 30*time.Second)

	err := p.Process(context.Background(), testMessage())
	assert.NoError(t, err, "losing the terminal race is not a processing failure")
}

func TestProcessorBoundsGenerationTime(t *testing.T) {
	store := newFakeJobStore()
	gen := &fakeGenerator{text: "letter"}
	p := NewProcessor(store, gen, slog.New(slog.NewTextHandler(io.Discard, nil)), 5*time.Second)

	err := p.Process(context.Background(), testMessage())
	require.NoError(t, err)

	deadline, ok := gen.gotCtx.Deadline()
	require.True(t, ok, "generator context must carry the job timeout")
	assert.WithinDuration(t, time.Now().Add(5*time.Second), deadline, time.Second)
}
