// internal/api/handler/api/indicators.go
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/stocksage/internal/api/response"
	"github.com/newthinker/stocksage/internal/core"
)

// IndicatorComputer is the part of the indicator engine the handler needs
type IndicatorComputer interface {
	Compute(ctx context.Context, ticker string, start, end time.Time) (core.IndicatorResult, error)
}

// IndicatorHandler serves indicator requests.
type IndicatorHandler struct {
	engine IndicatorComputer
	now    func() time.Time
}

// NewIndicatorHandler creates a new indicator handler.
func NewIndicatorHandler(engine IndicatorComputer) *IndicatorHandler {
	return &IndicatorHandler{engine: engine, now: time.Now}
}

// Get computes indicators for ?ticker=&start=&end=. end defaults to the
// current calendar date.
func (h *IndicatorHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ticker := strings.ToUpper(strings.TrimSpace(q.Get("ticker")))

	start, err := parseDate("start", q.Get("start"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	end := core.Day(h.now())
	if raw := q.Get("end"); raw != "" {
		if end, err = parseDate("end", raw); err != nil {
			response.Fail(w, err)
			return
		}
	}

	result, err := h.engine.Compute(r.Context(), ticker, start, end)
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, result)
}

func parseDate(name, raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, core.WrapError(core.ErrInvalidRange, fmt.Errorf("%s is required", name))
	}
	d, err := time.Parse(core.DateFormat, raw)
	if err != nil {
		return time.Time{}, core.WrapError(core.ErrInvalidRange,
			fmt.Errorf("%s %q is not a yyyy-mm-dd date", name, raw))
	}
	return d, nil
}
