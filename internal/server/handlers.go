package server

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	apperrors "forex-journal/internal/errors"
	"forex-journal/internal/journal"
	"forex-journal/internal/logging"
)

// errorResponse is the JSON body of every non-2xx reply.
type errorResponse struct {
	Error     string                 `json:"error"`
	Fields    []apperrors.FieldError `json:"fields,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "ok",
		"trades": len(s.journal.List()),
	})
}

func (s *Server) analytics(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, s.journal.Snapshot())
}

func (s *Server) listTrades(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("recent")
	if raw == "" {
		render.JSON(w, r, s.journal.List())
		return
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		s.fail(w, r, http.StatusBadRequest, "recent must be a positive integer", nil)
		return
	}
	render.JSON(w, r, s.journal.Recent(n))
}

func (s *Server) getTrade(w http.ResponseWriter, r *http.Request) {
	rec, err := s.journal.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	render.JSON(w, r, rec)
}

func (s *Server) createTrade(w http.ResponseWriter, r *http.Request) {
	var form journal.TradeForm
	if err := render.DecodeJSON(http.MaxBytesReader(w, r.Body, maxBodyBytes), &form); err != nil {
		s.fail(w, r, http.StatusBadRequest, "invalid JSON body", nil)
		return
	}

	rec, err := s.journal.Create(r.Context(), form)
	if err != nil {
		s.handleError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/trades/"+rec.ID)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, rec)
}

func (s *Server) deleteTrade(w http.ResponseWriter, r *http.Request) {
	if _, err := s.journal.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.handleError(w, r, err)
		return
	}
	render.NoContent(w, r)
}

// handleError maps service errors onto status codes.
func (s *Server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *apperrors.ValidationError
	switch {
	case apperrors.As(err, &verr):
		msg := "validation failed"
		if journal.MissingRequired(err) {
			msg = journal.RequiredFieldsMessage
		}
		s.fail(w, r, http.StatusBadRequest, msg, verr.Fields)
	case apperrors.Is(err, apperrors.ErrTradeNotFound):
		s.fail(w, r, http.StatusNotFound, "trade not found", nil)
	case apperrors.Is(err, apperrors.ErrDuplicateTrade):
		s.fail(w, r, http.StatusConflict, "duplicate trade id", nil)
	default:
		logger := logging.FromContext(r.Context())
		logger.Error().Err(err).Msg("Request failed")
		s.fail(w, r, http.StatusInternalServerError, "internal error", nil)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, status int, msg string, fields []apperrors.FieldError) {
	render.Status(r, status)
	render.JSON(w, r, errorResponse{
		Error:     msg,
		Fields:    fields,
		RequestID: middleware.GetReqID(r.Context()),
	})
}
