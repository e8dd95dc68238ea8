package server

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/bobmcallan/fundlens/internal/common"
	"github.com/bobmcallan/fundlens/internal/models"
)

// compareRequest is the POST /api/compare body.
type compareRequest struct {
	FundIDs            []string `json:"fund_ids"`
	TopNHoldings       int      `json:"top_n_holdings,omitempty"`
	CorrelationPeriod  string   `json:"correlation_period,omitempty"`
	IncludeCorrelation *bool    `json:"include_correlation,omitempty"`
}

func (req compareRequest) options() models.CompareOptions {
	return models.CompareOptions{
		TopNHoldings:       req.TopNHoldings,
		CorrelationPeriod:  models.Period(req.CorrelationPeriod),
		IncludeCorrelation: req.IncludeCorrelation,
	}
}

// handleCompare handles POST /api/compare.
func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	var req compareRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	s.runCompare(w, r, req)
}

// handleCompareQuery handles GET /api/compare?ids=A,B&period=1Y&top_n=50&correlation=true.
func (s *Server) handleCompareQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	req := compareRequest{
		FundIDs:           splitIDs(q["ids"]),
		CorrelationPeriod: q.Get("period"),
	}

	if v := q.Get("top_n"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			WriteErrorWithCode(w, http.StatusBadRequest, "top_n must be an integer", "invalid_input")
			return
		}
		req.TopNHoldings = n
	}

	if v := q.Get("correlation"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			WriteErrorWithCode(w, http.StatusBadRequest, "correlation must be true or false", "invalid_input")
			return
		}
		req.IncludeCorrelation = &b
	}

	s.runCompare(w, r, req)
}

func (s *Server) runCompare(w http.ResponseWriter, r *http.Request, req compareRequest) {
	resp, err := s.compare.CompareFunds(r.Context(), req.FundIDs, req.options())
	if err != nil {
		s.writeCompareError(w, r, err)
		return
	}
	w.Header().Set(headerComparisonID, resp.Trace.ComparisonID)
	WriteJSON(w, http.StatusOK, resp)
}

// writeCompareError maps comparison failures onto HTTP status codes.
func (s *Server) writeCompareError(w http.ResponseWriter, r *http.Request, err error) {
	var inputErr *common.InputError

	switch {
	case errors.Is(err, common.ErrFundNotFound):
		resp := ErrorResponse{Error: err.Error(), Code: "fund_not_found"}
		if errors.As(err, &inputErr) {
			resp.MissingIDs = inputErr.MissingIDs
		}
		WriteJSON(w, http.StatusNotFound, resp)

	case errors.Is(err, common.ErrInvalidInput):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "invalid_input")

	case errors.Is(err, common.ErrDataUnavailable), errors.Is(err, context.DeadlineExceeded):
		s.logger.Warn().Err(err).Str("path", r.URL.Path).Msg("Fund data unavailable")
		WriteErrorWithCode(w, http.StatusServiceUnavailable, "Fund data unavailable", "data_unavailable")

	default:
		s.logger.Error().Err(err).Str("path", r.URL.Path).Msg("Comparison failed")
		WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// splitIDs accepts both ids=A,B and repeated ids=A&ids=B.
func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			ids = append(ids, strings.TrimSpace(id))
		}
	}
	return ids
}
