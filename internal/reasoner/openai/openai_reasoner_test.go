package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"finguard/internal/config"
	"finguard/internal/domain"
	"finguard/internal/port"
	"finguard/internal/reasoner/openai"
)

func newTestReasoner(serverURL string) *openai.Reasoner {
	return openai.NewReasonerWithEndpoint(&config.ReasonerProviderConfig{
		Provider: "openai", APIKey: "sk-test", TimeoutSecs: 5,
	}, serverURL)
}

func TestOpenAIReasoner_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]interface{}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "gpt-4o", body["model"])
		assert.Equal(t, "json_object", body["response_format"].(map[string]interface{})["type"])
		assert.Len(t, body["messages"], 2)

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"choices": []map[string]interface{}{{
				"message":       map[string]interface{}{"content": `{"status":"FAIL","confidence":0.8,"reasoning":"IGST charged on intrastate supply."}`},
				"finish_reason": "stop",
			}},
		})
	}))
	defer server.Close()

	j, err := newTestReasoner(server.URL).Reason(context.Background(), port.ReasonInput{InvoiceSummary: "x", Question: "y"})
	require.NoError(t, err)
	assert.Equal(t, domain.CheckFail, j.Status)
	assert.Equal(t, "gpt-4o", j.ModelUsed)
}

func TestOpenAIReasoner_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestReasoner(server.URL).Reason(context.Background(), port.ReasonInput{})
	assert.ErrorContains(t, err, "no choices")
}
