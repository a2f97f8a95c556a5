package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"stockfolio/internal/ledger"
	"stockfolio/internal/portfolio"
	"stockfolio/internal/provider"
	"stockfolio/internal/store"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLookupSymbol(w http.ResponseWriter, r *http.Request) {
	q, err := s.service.LookupSymbol(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newQuoteResponse(q))
}

func (s *Server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	d, err := s.service.AggregatePortfolio(r.Context(), ownerID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newDashboardResponse(d))
}

func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	hs, err := s.service.ListHoldings(r.Context(), ownerID(r))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"holdings": hs})
}

func (s *Server) handleCreateHolding(w http.ResponseWriter, r *http.Request) {
	var req createHoldingRequest
	if !decodeBody(w, r, &req) {
		return
	}
	h, err := s.service.CreateHolding(r.Context(), ownerID(r), req.Symbol, req.AssetType)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleSummarize(w http.ResponseWriter, r *http.Request) {
	v, err := s.service.Summarize(r.Context(), ownerID(r), chi.URLParam(r, "holdingID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newHoldingResponse(v))
}

func (s *Server) handleDeleteHolding(w http.ResponseWriter, r *http.Request) {
	if err := s.service.DeleteHolding(r.Context(), ownerID(r), chi.URLParam(r, "holdingID")); err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	v, err := s.service.Transactions(r.Context(), ownerID(r), chi.URLParam(r, "holdingID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	out := transactionsResponse{
		holdingResponse: newHoldingResponse(v.HoldingView),
		Transactions:    make([]transactionResponse, 0, len(v.Lines)),
	}
	for _, l := range v.Lines {
		out.Transactions = append(out.Transactions, newLineResponse(l))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var p ledger.Payload
	if !decodeBody(w, r, &p) {
		return
	}
	tx, err := s.service.AddTransaction(r.Context(), ownerID(r), chi.URLParam(r, "holdingID"), p)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newTransactionResponse(tx))
}

func (s *Server) handleRemoveTransaction(w http.ResponseWriter, r *http.Request) {
	err := s.service.RemoveTransaction(r.Context(), ownerID(r), chi.URLParam(r, "holdingID"), chi.URLParam(r, "txID"))
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body", "")
		return false
	}
	return true
}

// writeServiceError maps domain errors to HTTP statuses.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *ledger.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Error(), verr.Field)
	case errors.Is(err, portfolio.ErrInvalidAssetType):
		writeError(w, http.StatusBadRequest, err.Error(), "asset_type")
	case errors.Is(err, store.ErrHoldingNotFound), errors.Is(err, ledger.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "")
	case errors.Is(err, provider.ErrSymbolNotFound):
		writeError(w, http.StatusNotFound, err.Error(), "symbol")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, err.Error(), "symbol")
	case errors.Is(err, provider.ErrQuoteUnavailable):
		writeError(w, http.StatusServiceUnavailable, err.Error(), "")
	default:
		s.log.Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		writeError(w, http.StatusInternalServerError, "internal server error", "")
	}
}

func writeError(w http.ResponseWriter, status int, msg, field string) {
	writeJSON(w, status, errorResponse{Error: msg, Field: field})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}
