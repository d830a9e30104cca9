package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"credit-risk-engine/internal/engine"
)

const (
	maxBodyBytes        = 1 << 20
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

var errBadRequest = errors.New("bad request")

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	borrowerID, ok := BorrowerFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated)
		return
	}

	recalculate := false
	if raw := r.URL.Query().Get("recalculate"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, fmt.Errorf("%w: recalculate must be true or false", errBadRequest))
			return
		}
		recalculate = v
	}

	res, err := s.scores.Read(r.Context(), borrowerID, recalculate)
	if err != nil {
		s.logger.Error().Err(err).Str("borrower_id", borrowerID).Msg("read score")
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, ReadResponse{
		CreditScore: toScoreJSON(res.Record),
		Partners:    toPartnersJSON(res.Partners),
	})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	borrowerID, ok := BorrowerFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated)
		return
	}

	var req SubmitRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed JSON body: %v", errBadRequest, err))
		return
	}

	sub, err := req.Submission()
	if err != nil {
		writeError(w, err)
		return
	}

	rec, err := s.scores.Submit(r.Context(), borrowerID, sub)
	if err != nil {
		if !errors.Is(err, engine.ErrInvalidSubmission) {
			s.logger.Error().Err(err).Str("borrower_id", borrowerID).Msg("submit score")
		}
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SubmitResponse{CreditScore: toScoreJSON(rec)})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	borrowerID, ok := BorrowerFromContext(r.Context())
	if !ok {
		writeError(w, errUnauthenticated)
		return
	}

	limit := defaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 1 || v > maxHistoryLimit {
			writeError(w, fmt.Errorf("%w: limit must be an integer in [1, %d]", errBadRequest, maxHistoryLimit))
			return
		}
		limit = v
	}

	records, err := s.scores.History(r.Context(), borrowerID, limit)
	if err != nil {
		s.logger.Error().Err(err).Str("borrower_id", borrowerID).Msg("score history")
		writeError(w, err)
		return
	}

	out := HistoryResponse{History: make([]ScoreRecordJSON, 0, len(records))}
	for _, rec := range records {
		out.History = append(out.History, toScoreJSON(rec))
	}
	writeJSON(w, http.StatusOK, out)
}

// writeError maps an error to its HTTP status. Internal details are not
// exposed for server-side failures.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, errUnauthenticated):
		status, msg = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, errBadRequest), errors.Is(err, engine.ErrInvalidSubmission):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "request timed out"
	case errors.Is(err, engine.ErrStoreUnavailable):
		msg = "score store unavailable"
	}

	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
