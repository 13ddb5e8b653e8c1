package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segevsig/careerOps/internal/api/dto"
	"github.com/segevsig/careerOps/internal/api/model"
	"github.com/segevsig/careerOps/internal/api/producer"
)

type fakeJobStore struct {
	created []*model.CoverLetterJob
	err     error
}

func (s *fakeJobStore) CreateCoverLetterJob(_ context.Context, job *model.CoverLetterJob) error {
	if s.err != nil {
		return s.err
	}
	s.created = append(s.created, job)
	return nil
}

type fakePublisher struct {
	published chan any
}

func (p *fakePublisher) PublishJSON(_ context.Context, _ string, v any) error {
	select {
	case p.published <- v:
	default:
	}
	return nil
}

func newSubmitTestHandler(store *fakeJobStore) *CoverLetterHandler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &fakePublisher{published: make(chan any, 1)}
	return NewCoverLetterHandler(&Dependencies{
		Logger:   log,
		Producer: producer.New(store, pub, log, "cover-letter.generate"),
	})
}

func postJSON(t *testing.T, body string) (*httptest.ResponseRecorder, *gin.Context) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/cover-letter", strings.NewReader(body))
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(userIDContextKey, int64(42))
	return w, c
}

func TestSubmitAcceptsJob(t *testing.T) {
	store := &fakeJobStore{}
	h := newSubmitTestHandler(store)

	w, c := postJSON(t, `{"jobDescription":"Backend engineer","cvText":"My CV","tone":"friendly"}`)
	h.Submit(c)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp dto.SubmitCoverLetterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.JobID)
	assert.Equal(t, "pending", resp.Status)

	require.Len(t, store.created, 1)
	assert.Equal(t, int64(42), store.created[0].UserID)
	assert.Equal(t, "pending", store.created[0].Status)
}

func TestSubmitRejectsMissingInput(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing cv text", body: `{"jobDescription":"Backend engineer"}`},
		{name: "missing job description", body: `{"cvText":"My CV"}`},
		{name: "invalid tone", body: `{"jobDescription":"x","cvText":"y","tone":"sarcastic"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &fakeJobStore{}
			h := newSubmitTestHandler(store)

			w, c := postJSON(t, tt.body)
			h.Submit(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Empty(t, store.created, "rejected submissions must leave no job behind")
		})
	}
}

func TestSubmitRequiresAuthenticatedUser(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := newSubmitTestHandler(&fakeJobStore{})

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/cover-letter",
		strings.NewReader(`{"jobDescription":"x","cvText":"y"}`))
	c.Request.Header.Set("Content-Type", "application/json")

	h.Submit(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSubmitDoesNotWaitForPublish(t *testing.T) {
	store := &fakeJobStore{}
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	pub := &fakePublisher{published: make(chan any, 1)}
	h := NewCoverLetterHandler(&Dependencies{
		Logger:   log,
		Producer: producer.New(store, pub, log, "cover-letter.generate"),
	})

	w, c := postJSON(t, `{"jobDescription":"Backend engineer","cvText":"My CV"}`)

	start := time.Now()
	h.Submit(c)
	elapsed := time.Since(start)

	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Less(t, elapsed, time.Second, "submission must not block on the broker")

	select {
	case <-pub.published:
	case <-time.After(2 * time.Second):
		t.Fatal("expected the message to be published in the background")
	}
}
