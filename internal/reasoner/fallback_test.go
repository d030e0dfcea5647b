package reasoner_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"finguard/internal/domain"
	"finguard/internal/port"
	"finguard/internal/reasoner"
	"finguard/mocks"
)

var input = port.ReasonInput{InvoiceSummary: "Invoice INV-1", Question: "Compliant?"}

func judgment(model string) *port.Judgment {
	return &port.Judgment{Status: domain.CheckPass, Confidence: 0.9, Reasoning: "ok", ModelUsed: model}
}

func TestFallbackReasoner_FirstSucceeds(t *testing.T) {
	r1 := new(mocks.MockReasoner)
	r2 := new(mocks.MockReasoner)
	r1.On("Reason", mock.Anything, input).Return(judgment("claude"), nil)

	fr := reasoner.NewFallbackReasoner([]port.Reasoner{r1, r2}, []string{"claude", "openai"}, nil)
	j, err := fr.Reason(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "claude", j.ModelUsed)
	r2.AssertNotCalled(t, "Reason", mock.Anything, mock.Anything)
}

func TestFallbackReasoner_FirstFails_SecondSucceeds(t *testing.T) {
	r1 := new(mocks.MockReasoner)
	r2 := new(mocks.MockReasoner)
	r1.On("Reason", mock.Anything, input).Return(nil, errors.New("boom"))
	r2.On("Reason", mock.Anything, input).Return(judgment("openai"), nil)

	fr := reasoner.NewFallbackReasoner([]port.Reasoner{r1, r2}, []string{"claude", "openai"}, nil)
	j, err := fr.Reason(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "openai", j.ModelUsed)
}

func TestFallbackReasoner_SkipsOpenCircuit(t *testing.T) {
	r1 := new(mocks.MockReasoner)
	r2 := new(mocks.MockReasoner)
	r1.On("Reason", mock.Anything, input).Return(nil, reasoner.NewRateLimitError("claude", errors.New("429"), 60)).Once()
	r2.On("Reason", mock.Anything, input).Return(judgment("gemini"), nil)

	fr := reasoner.NewFallbackReasoner([]port.Reasoner{r1, r2}, []string{"claude", "gemini"}, nil)

	_, err := fr.Reason(context.Background(), input)
	require.NoError(t, err)
	j, err := fr.Reason(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, "gemini", j.ModelUsed)

	r1.AssertNumberOfCalls(t, "Reason", 1)
	r2.AssertNumberOfCalls(t, "Reason", 2)
}

func TestFallbackReasoner_AllRateLimited(t *testing.T) {
	r1 := new(mocks.MockReasoner)
	r2 := new(mocks.MockReasoner)
	r1.On("Reason", mock.Anything, input).Return(nil, reasoner.NewRateLimitError("claude", errors.New("429"), 60))
	r2.On("Reason", mock.Anything, input).Return(nil, reasoner.NewRateLimitError("gemini", errors.New("429"), 30))

	fr := reasoner.NewFallbackReasoner([]port.Reasoner{r1, r2}, []string{"claude", "gemini"}, nil)
	j, err := fr.Reason(context.Background(), input)

	assert.Nil(t, j)
	var rlErr *reasoner.RateLimitError
	require.True(t, errors.As(err, &rlErr))
	assert.Equal(t, "all", rlErr.Provider)
}

func TestFallbackReasoner_AllFail(t *testing.T) {
	r1 := new(mocks.MockReasoner)
	r2 := new(mocks.MockReasoner)
	r1.On("Reason", mock.Anything, input).Return(nil, errors.New("error 1"))
	r2.On("Reason", mock.Anything, input).Return(nil, errors.New("error 2"))

	fr := reasoner.NewFallbackReasoner([]port.Reasoner{r1, r2}, []string{"claude", "gemini"}, nil)
	_, err := fr.Reason(context.Background(), input)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "all reasoners failed")
	assert.Contains(t, err.Error(), "error 2")
}
