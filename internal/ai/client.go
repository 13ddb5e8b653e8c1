package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultBaseURL = "http://localhost:8000"

// Client talks to the ai-service over HTTP. The service wraps the actual
// model backend; this side only needs a bounded-time call returning either
// generated text or a descriptive error.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates an ai-service client. The timeout bounds every request,
// including the model call on the far side.
func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

type askRequest struct {
	Prompt string `json:"prompt"`
}

type askResponse struct {
	Answer string `json:"answer"`
}

// GenerateText sends the prompt to the ai-service and returns the generated
// text.
func (c *Client) GenerateText(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(askRequest{Prompt: prompt})
	if err != nil {
		return "", fmt.Errorf("error marshaling request: %w", err)
	}

	url := c.baseURL + "/ask"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ai service unreachable at %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ai service error (%d): %s", resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var out askResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("error decoding ai response: %w", err)
	}

	if out.Answer == "" {
		return "", fmt.Errorf("ai service returned an empty answer")
	}

	return out.Answer, nil
}
