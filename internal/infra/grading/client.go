package grading

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mathstory-attempt-service/internal/domain"
)

// Client talks to the remote grading collaborator. Grading, scoring, and
// result persistence are entirely the remote side's job; the response body is
// passed through untouched. No retries happen at this layer.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// Grade submits the full answer set and returns the grader's response with
// the raw bytes preserved.
func (c *Client) Grade(ctx context.Context, submission domain.Submission) (domain.GradedResult, error) {
	body, err := json.Marshal(submission)
	if err != nil {
		return domain.GradedResult{}, fmt.Errorf("marshal submission: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/quiz/submit", bytes.NewReader(body))
	if err != nil {
		return domain.GradedResult{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.GradedResult{}, fmt.Errorf("grade submission: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.GradedResult{}, fmt.Errorf("read grader response: %w", err)
	}
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return domain.GradedResult{}, fmt.Errorf("grade submission: unexpected status %d", resp.StatusCode)
	}

	var result domain.GradedResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return domain.GradedResult{}, fmt.Errorf("unmarshal grader response: %w", err)
	}
	result.Raw = raw
	return result, nil
}
