// Package errors provides explicit, human-readable error types for briefdash.
// All errors must include a Reason and Suggestion for actionable feedback.
package errors

import (
	stderrors "errors"
	"fmt"
)

// BriefError is the base error type for all briefdash errors.
// Every error must provide a human-readable reason and suggestion.
type BriefError struct {
	Code       ErrorCode
	Message    string
	Reason     string
	Suggestion string
	Cause      error
}

// ErrorCode represents the category of error for status-code mapping.
type ErrorCode int

const (
	CodeValidation ErrorCode = 1
	CodeAuth       ErrorCode = 2
	CodeCost       ErrorCode = 3
	CodeWarehouse  ErrorCode = 4
	CodeStorage    ErrorCode = 5
	CodeInternal   ErrorCode = 6
)

func (e *BriefError) Error() string {
	msg := e.Message
	if e.Reason != "" {
		msg = fmt.Sprintf("%s\nReason: %s", msg, e.Reason)
	}
	if e.Suggestion != "" {
		msg = fmt.Sprintf("%s\nSuggestion: %s", msg, e.Suggestion)
	}
	if e.Cause != nil {
		msg = fmt.Sprintf("%s\nCaused by: %v", msg, e.Cause)
	}
	return msg
}

func (e *BriefError) Unwrap() error {
	return e.Cause
}

// ErrInvalidParams is returned when request parameters fail validation.
// It carries every collected problem, not just the first.
type ErrInvalidParams struct {
	BriefError
	Details []string
}

// NewInvalidParams creates a new ErrInvalidParams.
func NewInvalidParams(details []string) *ErrInvalidParams {
	return &ErrInvalidParams{
		BriefError: BriefError{
			Code:       CodeValidation,
			Message:    "parameter validation failed",
			Reason:     fmt.Sprintf("%d invalid parameter(s)", len(details)),
			Suggestion: "fix the listed parameters and retry",
		},
		Details: details,
	}
}

// ErrCostExceeded is returned when a dry-run estimate breaches the scan ceiling.
// It is an expected, user-facing condition, not an application failure.
type ErrCostExceeded struct {
	BriefError
	EstimatedGB float64
	LimitGB     float64
}

// NewCostExceeded creates a new ErrCostExceeded carrying the estimate.
func NewCostExceeded(estimatedGB, limitGB float64) *ErrCostExceeded {
	return &ErrCostExceeded{
		BriefError: BriefError{
			Code:       CodeCost,
			Message:    fmt.Sprintf("query exceeds maximum scan limit (%.1fGB)", limitGB),
			Reason:     fmt.Sprintf("dry-run estimated %.2f GB scanned", estimatedGB),
			Suggestion: "narrow the date range or category filter",
		},
		EstimatedGB: estimatedGB,
		LimitGB:     limitGB,
	}
}

// ErrEstimationFailed is returned when the dry-run itself errors.
// Distinct from ErrCostExceeded: this is a real failure, not a rejection.
type ErrEstimationFailed struct {
	BriefError
}

// NewEstimationFailed creates a new ErrEstimationFailed.
func NewEstimationFailed(cause error) *ErrEstimationFailed {
	return &ErrEstimationFailed{
		BriefError: BriefError{
			Code:       CodeWarehouse,
			Message:    "query estimation failed",
			Reason:     "the dry-run could not be completed",
			Suggestion: "check query syntax and warehouse permissions",
			Cause:      cause,
		},
	}
}

// ErrExecutionFailed is returned when the real execution fails after a
// successful estimate (timeout, billing-cap violation, transport error).
// One-shot semantics: the caller must not retry automatically.
type ErrExecutionFailed struct {
	BriefError
	JobID string
}

// NewExecutionFailed creates a new ErrExecutionFailed.
func NewExecutionFailed(jobID string, cause error) *ErrExecutionFailed {
	return &ErrExecutionFailed{
		BriefError: BriefError{
			Code:       CodeWarehouse,
			Message:    "query execution failed",
			Reason:     "the warehouse job did not complete",
			Suggestion: "inspect the job in the warehouse console; do not blind-retry",
			Cause:      cause,
		},
		JobID: jobID,
	}
}

// ErrShapeInvalid is returned when a reshaped bundle is structurally broken
// and must not be persisted.
type ErrShapeInvalid struct {
	BriefError
	Missing []string
}

// NewShapeInvalid creates a new ErrShapeInvalid.
func NewShapeInvalid(missing []string) *ErrShapeInvalid {
	return &ErrShapeInvalid{
		BriefError: BriefError{
			Code:       CodeValidation,
			Message:    "reshaped data failed structural validation",
			Reason:     fmt.Sprintf("missing required series: %v", missing),
			Suggestion: "this indicates a reshaper bug; the snapshot was not written",
		},
		Missing: missing,
	}
}

// ErrAuthFailed is returned when authentication fails. The message is
// deliberately uniform: callers must not learn which check failed.
type ErrAuthFailed struct {
	BriefError
}

// NewAuthFailed creates a new ErrAuthFailed. The reason is kept for logs only.
func NewAuthFailed(reason string) *ErrAuthFailed {
	return &ErrAuthFailed{
		BriefError: BriefError{
			Code:       CodeAuth,
			Message:    "authentication failed",
			Reason:     reason,
			Suggestion: "supply a valid bearer credential",
		},
	}
}

// ErrStoreUnavailable is returned when the snapshot store cannot be reached.
type ErrStoreUnavailable struct {
	BriefError
}

// NewStoreUnavailable creates a new ErrStoreUnavailable.
func NewStoreUnavailable(reason string, cause error) *ErrStoreUnavailable {
	return &ErrStoreUnavailable{
		BriefError: BriefError{
			Code:       CodeStorage,
			Message:    "snapshot store unavailable",
			Reason:     reason,
			Suggestion: "check cache backend connectivity and configuration",
			Cause:      cause,
		},
	}
}

// AsInvalidParams extracts an ErrInvalidParams from an error chain.
func AsInvalidParams(err error) (*ErrInvalidParams, bool) {
	var e *ErrInvalidParams
	ok := stderrors.As(err, &e)
	return e, ok
}

// AsCostExceeded extracts an ErrCostExceeded from an error chain.
func AsCostExceeded(err error) (*ErrCostExceeded, bool) {
	var e *ErrCostExceeded
	ok := stderrors.As(err, &e)
	return e, ok
}

// AsEstimationFailed extracts an ErrEstimationFailed from an error chain.
func AsEstimationFailed(err error) (*ErrEstimationFailed, bool) {
	var e *ErrEstimationFailed
	ok := stderrors.As(err, &e)
	return e, ok
}

// AsExecutionFailed extracts an ErrExecutionFailed from an error chain.
func AsExecutionFailed(err error) (*ErrExecutionFailed, bool) {
	var e *ErrExecutionFailed
	ok := stderrors.As(err, &e)
	return e, ok
}

// AsAuthFailed extracts an ErrAuthFailed from an error chain.
func AsAuthFailed(err error) (*ErrAuthFailed, bool) {
	var e *ErrAuthFailed
	ok := stderrors.As(err, &e)
	return e, ok
}

// AsStoreUnavailable extracts an ErrStoreUnavailable from an error chain.
func AsStoreUnavailable(err error) (*ErrStoreUnavailable, bool) {
	var e *ErrStoreUnavailable
	ok := stderrors.As(err, &e)
	return e, ok
}

// AsShapeInvalid extracts an ErrShapeInvalid from an error chain.
func AsShapeInvalid(err error) (*ErrShapeInvalid, bool) {
	var e *ErrShapeInvalid
	ok := stderrors.As(err, &e)
	return e, ok
}
