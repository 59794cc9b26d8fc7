// internal/api/response/response.go
package response

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/stocksage/internal/core"
)

// Meta contains response metadata.
type Meta struct {
	Timestamp time.Time `json:"timestamp"`
}

// SuccessResponse is the standard success response format.
type SuccessResponse struct {
	Data any  `json:"data"`
	Meta Meta `json:"meta"`
}

// ErrorDetail contains error information.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Cause   string `json:"cause,omitempty"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// JSON writes a success response with data.
func JSON(w http.ResponseWriter, status int, data any) {
	resp := SuccessResponse{
		Data: data,
		Meta: Meta{Timestamp: time.Now().UTC()},
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Error writes an error response. Errors joined with other errors keep the
// full text as cause.
func Error(w http.ResponseWriter, status int, err error) {
	detail := ErrorDetail{
		Code:    "INTERNAL_ERROR",
		Message: "an internal error occurred",
	}

	var coreErr *core.Error
	if errors.As(err, &coreErr) {
		detail.Code = coreErr.Code
		detail.Message = coreErr.Message
		if err != error(coreErr) {
			detail.Cause = err.Error()
		} else if coreErr.Cause != nil {
			detail.Cause = coreErr.Cause.Error()
		}
	}

	resp := ErrorResponse{Error: detail}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// Fail writes err with the status derived from its code. A bare context
// cancellation is reported as CANCELLED.
func Fail(w http.ResponseWriter, err error) {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) && errors.Is(err, context.Canceled) {
		err = core.WrapError(core.ErrCancelled, err)
	}
	Error(w, StatusFor(err), err)
}

// StatusFor maps an error code to an HTTP status
func StatusFor(err error) int {
	var coreErr *core.Error
	if !errors.As(err, &coreErr) {
		return http.StatusInternalServerError
	}

	switch coreErr.Code {
	case core.ErrNoData.Code:
		return http.StatusNotFound
	case core.ErrDataProvider.Code:
		return http.StatusBadGateway
	case core.ErrUnauthorized.Code:
		return http.StatusUnauthorized
	case core.ErrCancelled.Code:
		return http.StatusRequestTimeout
	case core.ErrPortfolioFile.Code:
		return http.StatusBadRequest
	}
	if strings.HasPrefix(coreErr.Code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
