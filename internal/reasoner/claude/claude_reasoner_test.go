package claude_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finguard/internal/config"
	"finguard/internal/domain"
	"finguard/internal/port"
	"finguard/internal/reasoner"
	"finguard/internal/reasoner/claude"
)

func newTestReasoner(serverURL string) *claude.Reasoner {
	return claude.NewReasonerWithEndpoint(&config.ReasonerProviderConfig{
		Provider:     "claude",
		APIKey:       "test-api-key",
		DefaultModel: "claude-sonnet-4-20250514",
		TimeoutSecs:  5,
	}, serverURL)
}

var input = port.ReasonInput{InvoiceSummary: "Invoice INV-1", Question: "Is GST applied correctly?"}

func TestClaudeReasoner_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-api-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-sonnet-4-20250514", body["model"])
		assert.Equal(t, reasoner.SystemPrompt, body["system"])
		messages := body["messages"].([]interface{})
		require.Len(t, messages, 1)
		assert.Contains(t, messages[0].(map[string]interface{})["content"], "Invoice INV-1")

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": `{"status":"PASS","confidence":0.91,"reasoning":"Intrastate supply taxed as CGST+SGST."}`}},
			"stop_reason": "end_turn",
		})
	}))
	defer server.Close()

	j, err := newTestReasoner(server.URL).Reason(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, domain.CheckPass, j.Status)
	assert.InDelta(t, 0.91, j.Confidence, 1e-9)
	assert.Equal(t, "claude-sonnet-4-20250514", j.ModelUsed)
}

func TestClaudeReasoner_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate_limit"}`))
	}))
	defer server.Close()

	_, err := newTestReasoner(server.URL).Reason(context.Background(), input)
	var rlErr *reasoner.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, 7*time.Second, rlErr.RetryAfter)
}

func TestClaudeReasoner_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"bad request"}`))
	}))
	defer server.Close()

	_, err := newTestReasoner(server.URL).Reason(context.Background(), input)
	var se *reasoner.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.False(t, reasoner.Retryable(err))
}

func TestClaudeReasoner_MalformedOutput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content": []map[string]interface{}{{"type": "text", "text": "Looks compliant."}},
		})
	}))
	defer server.Close()

	_, err := newTestReasoner(server.URL).Reason(context.Background(), input)
	assert.True(t, errors.Is(err, reasoner.ErrMalformedJudgment))
}

func TestClaudeReasoner_Truncated(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"content":     []map[string]interface{}{{"type": "text", "text": `{"status":"PA`}},
			"stop_reason": "max_tokens",
		})
	}))
	defer server.Close()

	_, err := newTestReasoner(server.URL).Reason(context.Background(), input)
	assert.ErrorContains(t, err, "truncated")
}
