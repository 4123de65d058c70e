package services

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration is returned by every gateway call when no credential
	// is configured. The call is never attempted.
	ErrConfiguration = errors.New("gemini API key is not configured")

	ErrInvalidRole      = errors.New("role not found")
	ErrGenerationFailed = errors.New("scenario generation failed")
	ErrEvaluationParse  = errors.New("invalid coach evaluation")

	// ErrEmptyInstruction marks a blank submission. Callers treat it as a no-op.
	ErrEmptyInstruction = errors.New("instruction is empty")
)

// GatewayError is a failed call to the generative endpoint: a non-2xx status,
// a transport failure or a body without usable text.
type GatewayError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *GatewayError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("Error %d", e.StatusCode)
	}
	return "gateway request failed"
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}
