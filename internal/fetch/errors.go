package fetch

import "fmt"

// HTTPStatusError reports a non-retryable HTTP status (4xx other than 429).
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("http %d for GET %s", e.StatusCode, e.URL)
}

// RetryExhaustedError reports that every retry attempt for one page request
// failed. The pipeline stops pagination when it sees this.
type RetryExhaustedError struct {
	URL      string
	Attempts int
	Err      error
}

func (e *RetryExhaustedError) Error() string {
	return fmt.Sprintf("max retries (%d) exceeded for GET %s: %v", e.Attempts, e.URL, e.Err)
}

func (e *RetryExhaustedError) Unwrap() error { return e.Err }
