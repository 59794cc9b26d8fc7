// internal/core/errors.go
package core

import "fmt"

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is matching by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Input errors
	ErrInvalidRange   = &Error{Code: "INVALID_RANGE", Message: "invalid date range"}
	ErrInvalidTicker  = &Error{Code: "INVALID_TICKER", Message: "invalid ticker"}
	ErrInvalidHolding = &Error{Code: "INVALID_HOLDING", Message: "invalid holding"}
	ErrPortfolioFile  = &Error{Code: "PORTFOLIO_FILE", Message: "invalid portfolio file"}
	ErrInvalidReport  = &Error{Code: "INVALID_REPORT", Message: "invalid report id"}

	// Data errors
	ErrNoData       = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrDataProvider = &Error{Code: "DATA_PROVIDER", Message: "data provider failed"}
	ErrCancelled    = &Error{Code: "CANCELLED", Message: "request cancelled or timed out"}

	// Access errors
	ErrUnauthorized = &Error{Code: "UNAUTHORIZED", Message: "missing or invalid api key"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}
)
