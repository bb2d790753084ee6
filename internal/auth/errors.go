package auth

import (
	"errors"
	"fmt"
)

// ErrAuthExpired means the credential is dead or the authorization server
// rejected the refresh token. Recovery requires the user to re-run the
// authorization flow; callers must never retry past this error.
var ErrAuthExpired = errors.New("auth: authorization expired, re-authentication required")

// ExchangeKind classifies authorization-code exchange failures.
type ExchangeKind int

const (
	// ExchangeCodeInvalid covers expired, already-used or malformed codes.
	// Recoverable by restarting the authorization flow.
	ExchangeCodeInvalid ExchangeKind = iota
	// ExchangeConfig covers client misconfiguration (bad client secret,
	// mismatched redirect URI). Fatal; an operator must intervene.
	ExchangeConfig
)

// ExchangeError is a typed failure from the code exchange step.
type ExchangeError struct {
	Kind ExchangeKind
	Err  error
}

func (e *ExchangeError) Error() string {
	switch e.Kind {
	case ExchangeCodeInvalid:
		return fmt.Sprintf("auth: authorization code rejected: %v", e.Err)
	default:
		return fmt.Sprintf("auth: client configuration error: %v", e.Err)
	}
}

func (e *ExchangeError) Unwrap() error { return e.Err }
