package youtube

import "fmt"

// Kind classifies platform API failures so call sites know what to do with
// them: retry, back off, or give up.
type Kind int

const (
	// KindTransient covers network errors, timeouts and 5xx responses.
	// Retried with bounded backoff at the call site that produced it.
	KindTransient Kind = iota
	// KindRateLimited covers quota exhaustion (403 quotaExceeded, 429).
	// Surfaced so the caller can present "try again later"; never retried
	// immediately.
	KindRateLimited
	// KindTerminal covers everything the API rejected outright (other 4xx).
	KindTerminal
)

// APIError is a classified failure from the platform data API.
type APIError struct {
	Kind   Kind
	Status int
	Reason string
	Err    error
}

func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("youtube: api error (status=%d reason=%s): %v", e.Status, e.Reason, e.Err)
	}
	return fmt.Sprintf("youtube: api error (status=%d reason=%s)", e.Status, e.Reason)
}

func (e *APIError) Unwrap() error { return e.Err }

// Retryable reports whether the call site may retry.
func (e *APIError) Retryable() bool { return e.Kind == KindTransient }
