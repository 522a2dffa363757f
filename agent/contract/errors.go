package contract

import (
	"errors"
	"fmt"
)

var (
	ErrModelInvoke     = errors.New("model invoke failed")
	ErrSchemaViolation = errors.New("model response violates schema")
	ErrValidation      = errors.New("validation failed")

	ErrClassification       = errors.New("intent classification unavailable")
	ErrResponderTimeout     = errors.New("responder timed out")
	ErrResponderUnavailable = errors.New("responder unavailable")
	ErrSynthesis            = errors.New("no usable responder results")
	ErrDeadlineExceeded     = errors.New("pipeline deadline exceeded")
)

// ErrorKind is the coarse failure category surfaced to the transport
// layer, which maps every kind to a generic service-unavailable outcome.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindClassification ErrorKind = "classification"
	KindSynthesis      ErrorKind = "synthesis"
	KindDeadline       ErrorKind = "deadline"
)

// OrchestrationError is the only error shape HandleQuery returns.
type OrchestrationError struct {
	Kind ErrorKind
	Err  error
}

func (e *OrchestrationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("orchestration failed: %s", e.Kind)
	}
	return fmt.Sprintf("orchestration failed: %s: %v", e.Kind, e.Err)
}

func (e *OrchestrationError) Unwrap() error {
	return e.Err
}

func NewOrchestrationError(kind ErrorKind, err error) *OrchestrationError {
	return &OrchestrationError{Kind: kind, Err: err}
}
