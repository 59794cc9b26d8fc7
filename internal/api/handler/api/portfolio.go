// internal/api/handler/api/portfolio.go
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/newthinker/stocksage/internal/api/response"
	"github.com/newthinker/stocksage/internal/core"
	"github.com/newthinker/stocksage/internal/portfolio"
	"github.com/newthinker/stocksage/internal/report"
	"go.uber.org/zap"
)

// maxPortfolioBody bounds request bodies of the analyze endpoint
const maxPortfolioBody = 1 << 20

// Analyzer runs a portfolio analysis.
type Analyzer interface {
	Analyze(ctx context.Context, holdings []portfolio.Holding) (*portfolio.Summary, error)
}

// ReportBuilder archives analyses and reads them back.
type ReportBuilder interface {
	Build(ctx context.Context, summary *portfolio.Summary) (*report.Result, error)
	Load(ctx context.Context, runID string) (*report.Document, error)
}

// AnalyzeResponse is returned by the analyze endpoint.
type AnalyzeResponse struct {
	Summary *portfolio.Summary `json:"summary"`
	Report  *report.Result     `json:"report,omitempty"`
}

// PortfolioHandler serves portfolio analysis and saved reports.
type PortfolioHandler struct {
	analyzer Analyzer
	reports  ReportBuilder
	logger   *zap.Logger
}

// NewPortfolioHandler creates a new portfolio handler. reports may be nil,
// in which case report requests fail.
func NewPortfolioHandler(analyzer Analyzer, reports ReportBuilder, logger *zap.Logger) *PortfolioHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PortfolioHandler{analyzer: analyzer, reports: reports, logger: logger}
}

// Analyze accepts a portfolio document and returns the analysis.
// With ?report=true the analysis is also archived.
func (h *PortfolioHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	withReport := false
	if raw := r.URL.Query().Get("report"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.Error(w, http.StatusBadRequest,
				core.WrapError(core.ErrPortfolioFile, errors.New("report must be a boolean")))
			return
		}
		withReport = v
	}
	if withReport && h.reports == nil {
		response.Fail(w, core.WrapError(core.ErrConfigMissing, errors.New("report storage is not configured")))
		return
	}

	holdings, err := portfolio.Decode(http.MaxBytesReader(w, r.Body, maxPortfolioBody))
	if err != nil {
		response.Fail(w, err)
		return
	}

	summary, err := h.analyzer.Analyze(r.Context(), holdings)
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := AnalyzeResponse{Summary: summary}
	if withReport {
		if resp.Report, err = h.reports.Build(r.Context(), summary); err != nil {
			h.logger.Error("report failed", zap.Error(err))
			response.Fail(w, err)
			return
		}
	}
	response.JSON(w, http.StatusOK, resp)
}

// Report returns a saved analysis document by run id.
func (h *PortfolioHandler) Report(w http.ResponseWriter, r *http.Request) {
	if h.reports == nil {
		response.Fail(w, core.WrapError(core.ErrConfigMissing, errors.New("report storage is not configured")))
		return
	}
	doc, err := h.reports.Load(r.Context(), r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, doc)
}
