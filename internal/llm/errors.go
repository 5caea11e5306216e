package llm

import "errors"

var (
	// ErrProviderUnavailable indicates the provider could not be reached or
	// answered with a server error.
	ErrProviderUnavailable = errors.New("llm provider unavailable")

	// ErrProviderRateLimited indicates the provider rejected the call with 429.
	ErrProviderRateLimited = errors.New("llm provider rate limited")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("llm request timed out")

	// ErrInvalidOutput indicates the response could not be parsed
	// into the expected structured format.
	ErrInvalidOutput = errors.New("invalid llm output format")

	// ErrRetryExhausted indicates all retry attempts have been exhausted.
	ErrRetryExhausted = errors.New("llm retry attempts exhausted")

	// ErrNotConfigured indicates no API key is available.
	ErrNotConfigured = errors.New("llm provider not configured")
)
