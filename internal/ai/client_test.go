package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/segevsig/careerOps/internal/coverletter"
)

func TestGenerateText(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		want      string
		errString string
	}{
		{
			name: "successful generation",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "/ask", r.URL.Path)

				var req map[string]string
				require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.NotEmpty(t, req["prompt"])

				json.NewEncoder(w).Encode(map[string]string{"answer": "Dear Hiring Manager,"})
			},
			want: "Dear Hiring Manager,",
		},
		{
			name: "server error surfaces status and body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, "model overloaded", http.StatusInternalServerError)
			},
			errString: "ai service error (500)",
		},
		{
			name: "empty answer is an error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				json.NewEncoder(w).Encode(map[string]string{"answer": ""})
			},
			errString: "empty answer",
		},
		{
			name: "non-json body is an error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte("not json"))
			},
			errString: "error decoding ai response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			client := NewClient(srv.URL, 5*time.Second)
			got, err := client.GenerateText(context.Background(), "write me a cover letter")

			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateTextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		json.NewEncoder(w).Encode(map[string]string{"answer": "too late"})
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 20*time.Millisecond)
	_, err := client.GenerateText(context.Background(), "prompt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ai service unreachable")
}

func TestCoverLetterPrompt(t *testing.T) {
	input := coverletter.Input{
		JobDescription: "Senior Go developer",
		CVText:         "Ten years of backend work",
	}

	prompt := CoverLetterPrompt(input, coverletter.ToneFriendly)

	assert.Contains(t, prompt, "friendly tone")
	assert.Contains(t, prompt, "Senior Go developer")
	assert.Contains(t, prompt, "Ten years of backend work")
}

func TestParseScoringResult(t *testing.T) {
	valid := `{
		"score": 72,
		"strengths": [
			{"title": "Go experience", "description": "solid"},
			{"title": "Postgres", "description": "used daily"},
			{"title": "Messaging", "description": "RabbitMQ in prod"}
		],
		"gaps": [
			{"title": "Kubernetes", "description": "not mentioned"},
			{"title": "Leadership", "description": "not mentioned"},
			{"title": "Frontend", "description": "not mentioned"}
		],
		"suggestions": ["Mention concrete metrics"]
	}`

	tests := []struct {
		name      string
		raw       string
		errString string
		check     func(t *testing.T, res *ScoringResult)
	}{
		{
			name: "valid payload",
			raw:  valid,
			check: func(t *testing.T, res *ScoringResult) {
				assert.Equal(t, 72, res.Score)
				assert.Len(t, res.Strengths, 3)
				assert.Len(t, res.Gaps, 3)
				assert.Equal(t, []string{"Mention concrete metrics"}, res.Suggestions)
			},
		},
		{
			name: "markdown fences stripped",
			raw:  "```json\n" + valid + "\n```",
			check: func(t *testing.T, res *ScoringResult) {
				assert.Equal(t, 72, res.Score)
			},
		},
		{
			name: "score above 100 clamped",
			raw:  `{"score": 250, "strengths": [], "gaps": [], "suggestions": []}`,
			check: func(t *testing.T, res *ScoringResult) {
				assert.Equal(t, 100, res.Score)
			},
		},
		{
			name:      "missing score",
			raw:       `{"strengths": [], "gaps": [], "suggestions": []}`,
			errString: "missing a numeric score",
		},
		{
			name:      "missing gaps",
			raw:       `{"score": 10, "strengths": [], "suggestions": []}`,
			errString: "missing gaps array",
		},
		{
			name:      "not json",
			raw:       "I think the score is about 70",
			errString: "failed to parse ai response as JSON",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := ParseScoringResult(tt.raw)
			if tt.errString != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				return
			}
			require.NoError(t, err)
			tt.check(t, res)
		})
	}
}
