package reasoner

import (
	"fmt"
	"io"
	"net/http"
)

// ReadResponse reads a provider response body and maps non-200 statuses to
// RateLimitError or StatusError.
func ReadResponse(provider string, resp *http.Response) ([]byte, error) {
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode == http.StatusOK {
		return body, nil
	}
	statusErr := &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: truncate(string(body), 500)}
	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, NewRateLimitError(provider, statusErr, ParseRetryAfterHeader(resp.Header.Get("Retry-After")))
	}
	return nil, statusErr
}
