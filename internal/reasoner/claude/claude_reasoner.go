package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"finguard/internal/config"
	"finguard/internal/port"
	"finguard/internal/reasoner"
)

const (
	apiURL     = "https://api.anthropic.com/v1/messages"
	apiVersion = "2023-06-01"
	maxTokens  = 1024
)

// Reasoner implements port.Reasoner using the Anthropic Messages API.
type Reasoner struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// NewReasoner creates a Claude-based reasoner from a provider config.
func NewReasoner(cfg *config.ReasonerProviderConfig) *Reasoner {
	return newReasoner(cfg, apiURL)
}

// NewReasonerWithEndpoint creates a reasoner pointing at a custom API endpoint (for testing).
func NewReasonerWithEndpoint(cfg *config.ReasonerProviderConfig, endpoint string) *Reasoner {
	return newReasoner(cfg, endpoint)
}

func newReasoner(cfg *config.ReasonerProviderConfig, endpoint string) *Reasoner {
	model := cfg.DefaultModel
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout == 0 {
		timeout = 60 * time.Second
	}
	return &Reasoner{
		apiKey:   cfg.APIKey,
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: timeout},
	}
}

func (r *Reasoner) Reason(ctx context.Context, input port.ReasonInput) (*port.Judgment, error) {
	reqBody := map[string]interface{}{
		"model":       r.model,
		"max_tokens":  maxTokens,
		"temperature": 0,
		"system":      reasoner.SystemPrompt,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": reasoner.BuildPrompt(input),
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", r.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := reasoner.ReadResponse("claude", resp)
	if err != nil {
		return nil, err
	}
	return parseResponse(respBody, r.model)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte, model string) (*port.Judgment, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}
	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}
	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens)")
	}
	return reasoner.ParseJudgment(resp.Content[0].Text, model)
}
