package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/domain"
)

type failRequest struct {
	Error string `json:"error"`
}

// GetTransfer handles GET /transfers/{id}.
func (s *Server) GetTransfer(w http.ResponseWriter, r *http.Request) {
	if s.ledger == nil {
		http.Error(w, "transfer ledger not configured", http.StatusNotImplemented)
		return
	}
	rec, err := s.ledger.Load(r.Context(), chi.URLParam(r, "transferID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// CompleteTransfer handles POST /transfers/{id}/complete. The body is the
// completion response, e.g. {"default": "https://cdn/a.png"}.
func (s *Server) CompleteTransfer(w http.ResponseWriter, r *http.Request) {
	var response map[string]any
	if err := decodeBody(r, &response); err != nil {
		s.writeError(w, err)
		return
	}
	s.drive(w, r, func(id string) error { return s.driver.CompleteTransfer(id, response) })
}

// FailTransfer handles POST /transfers/{id}/fail.
func (s *Server) FailTransfer(w http.ResponseWriter, r *http.Request) {
	var req failRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	cause := errors.New("upload failed")
	if req.Error != "" {
		cause = errors.New(req.Error)
	}
	s.drive(w, r, func(id string) error { return s.driver.FailTransfer(id, cause) })
}

// AbortTransfer handles POST /transfers/{id}/abort.
func (s *Server) AbortTransfer(w http.ResponseWriter, r *http.Request) {
	s.drive(w, r, func(id string) error { return s.driver.AbortTransfer(id) })
}

// drive runs a transfer transition under the lock of the session that
// started the transfer, since its callbacks edit that session's document.
func (s *Server) drive(w http.ResponseWriter, r *http.Request, fn func(id string) error) {
	if s.driver == nil {
		http.Error(w, "transfer driver not configured", http.StatusNotImplemented)
		return
	}
	transferID := chi.URLParam(r, "transferID")
	sessionID, err := s.Sessions.SessionForTransfer(transferID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.inspect(w, r, sessionID, http.StatusOK, func(ctx context.Context, ed *easel.Editor) error {
		err := fn(transferID)
		if err != nil && !errors.Is(err, domain.ErrTransferNotFound) {
			return fmt.Errorf("%w: %v", errTransferFinished, err)
		}
		return err
	})
}
