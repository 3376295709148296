package kis

import (
	"errors"
	"fmt"
)

// ErrNoAccessToken means the token endpoint answered without an access_token
var ErrNoAccessToken = errors.New("no access_token in token response")

// ErrTokenRejected means the token endpoint refused the credentials
var ErrTokenRejected = errors.New("token request rejected")

// maxErrorBody caps how much of an upstream body is kept for diagnostics
const maxErrorBody = 512

// TransportError is a network or HTTP-level failure talking to KIS.
// StatusCode is 0 when no response was received.
type TransportError struct {
	Op         string // token, balance
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	switch {
	case e.Err != nil && e.StatusCode == 0:
		return fmt.Sprintf("kis %s: %v", e.Op, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("kis %s: status %d: %v", e.Op, e.StatusCode, e.Err)
	default:
		return fmt.Sprintf("kis %s: status %d: %s", e.Op, e.StatusCode, e.Body)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// AuthError means no usable access token could be obtained
type AuthError struct {
	Code        string
	Description string
	Err         error
}

func (e *AuthError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("kis auth: %v (%s %s)", e.Err, e.Code, e.Description)
	}
	return fmt.Sprintf("kis auth: %v", e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func truncate(s string) string {
	if len(s) <= maxErrorBody {
		return s
	}
	return s[:maxErrorBody] + "..."
}
