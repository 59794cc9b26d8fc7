package response

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newthinker/stocksage/internal/core"
)

func TestJSON_Success(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"ticker": "AAPL"}

	JSON(w, http.StatusOK, data)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if w.Header().Get("Content-Type") != "application/json" {
		t.Errorf("expected application/json content type")
	}

	var resp SuccessResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Data == nil {
		t.Error("expected data in response")
	}
	if resp.Meta.Timestamp.IsZero() {
		t.Error("expected timestamp in meta")
	}
}

func TestError_WithCoreError(t *testing.T) {
	w := httptest.NewRecorder()
	err := core.WrapError(core.ErrInvalidRange, fmt.Errorf("start is after end"))

	Error(w, http.StatusBadRequest, err)

	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INVALID_RANGE" {
		t.Errorf("expected INVALID_RANGE, got %s", resp.Error.Code)
	}
	if resp.Error.Cause != "start is after end" {
		t.Errorf("unexpected cause %q", resp.Error.Cause)
	}
}

func TestError_Joined(t *testing.T) {
	w := httptest.NewRecorder()
	err := errors.Join(
		core.WrapError(core.ErrInvalidHolding, fmt.Errorf("holding 0 (AAPL): quantity must be positive")),
		core.WrapError(core.ErrInvalidHolding, fmt.Errorf("holding 2 (MSFT): buy_price must be positive")),
	)

	Fail(w, err)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INVALID_HOLDING" {
		t.Errorf("expected INVALID_HOLDING, got %s", resp.Error.Code)
	}
	if !strings.Contains(resp.Error.Cause, "holding 0") || !strings.Contains(resp.Error.Cause, "holding 2") {
		t.Errorf("expected every holding in cause, got %q", resp.Error.Cause)
	}
}

func TestError_WithStandardError(t *testing.T) {
	w := httptest.NewRecorder()

	Fail(w, errors.New("boom"))

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("expected INTERNAL_ERROR, got %s", resp.Error.Code)
	}
	if resp.Error.Cause != "" {
		t.Errorf("internal errors must not leak a cause, got %q", resp.Error.Cause)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{core.ErrInvalidTicker, http.StatusBadRequest},
		{core.WrapError(core.ErrInvalidRange, nil), http.StatusBadRequest},
		{core.ErrInvalidHolding, http.StatusBadRequest},
		{core.ErrPortfolioFile, http.StatusBadRequest},
		{core.ErrNoData, http.StatusNotFound},
		{fmt.Errorf("wrapped: %w", core.ErrDataProvider), http.StatusBadGateway},
		{core.ErrUnauthorized, http.StatusUnauthorized},
		{core.WrapError(core.ErrCancelled, context.Canceled), http.StatusRequestTimeout},
		{core.ErrConfigMissing, http.StatusInternalServerError},
		{errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := StatusFor(tt.err); got != tt.want {
			t.Errorf("StatusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestFail_BareCancellation(t *testing.T) {
	w := httptest.NewRecorder()
	Fail(w, fmt.Errorf("analyze: %w", context.Canceled))

	if w.Code != http.StatusRequestTimeout {
		t.Errorf("expected 408, got %d", w.Code)
	}
	var resp ErrorResponse
	json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Error.Code != "CANCELLED" {
		t.Errorf("expected CANCELLED, got %s", resp.Error.Code)
	}
}
