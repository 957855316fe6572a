// Package matcher calls the external semantic answer-matching service.
package matcher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/lrz80/chatbot-backend-sub001/internal/conversation"
	"github.com/lrz80/chatbot-backend-sub001/platform/config"
)

// requestTimeout bounds one matcher call; the turn falls back to the
// generator when the matcher is slow.
const requestTimeout = 10 * time.Second

// Client is the HTTP client for the matcher service.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates the matcher client.
func NewClient(cfg config.MatcherConfig) *Client {
	return &Client{
		baseURL: cfg.GetMatcherURL(),
		apiKey:  cfg.GetMatcherAPIKey(),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

type matchRequest struct {
	TenantID string `json:"tenant_id"`
	Text     string `json:"text"`
}

type matchResponse struct {
	Intent string  `json:"intent"`
	Answer string  `json:"answer"`
	Score  float64 `json:"score"`
}

// Match asks the service for the best configured answer. A nil result means
// no candidate cleared the service's own floor.
func (c *Client) Match(ctx context.Context, tenantID uuid.UUID, text string) (*conversation.MatchResult, error) {
	body, err := json.Marshal(matchRequest{TenantID: tenantID.String(), Text: text})
	if err != nil {
		return nil, fmt.Errorf("encode match request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/match", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build match request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("call matcher: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("matcher returned status %d", resp.StatusCode)
	}

	var parsed matchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode match response: %w", err)
	}

	if parsed.Answer == "" {
		return nil, nil
	}
	return &conversation.MatchResult{
		Intent: parsed.Intent,
		Answer: parsed.Answer,
		Score:  parsed.Score,
	}, nil
}
