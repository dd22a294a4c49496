package http

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/resize"
)

// SessionView is the JSON representation of a session.
type SessionView struct {
	ID        string `json:"id"`
	Data      string `json:"data"`
	CanUpload bool   `json:"can_upload"`
	Resizing  bool   `json:"resizing"`
	Media     int    `json:"media"`
}

func viewOf(id string, ed *easel.Editor) SessionView {
	return SessionView{
		ID:        id,
		Data:      ed.Data(),
		CanUpload: ed.CanUpload(),
		Resizing:  ed.Resizer().State() != resize.Idle,
		Media:     len(ed.MediaElements()),
	}
}

type createSessionRequest struct {
	Data string `json:"data"`
}

type setDataRequest struct {
	Data string `json:"data"`
}

type selectionRequest struct {
	Path []int `json:"path"`
}

type point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type resizeRequest struct {
	Path   []int  `json:"path"`
	Handle string `json:"handle"`
	From   point  `json:"from"`
	To     point  `json:"to"`
}

// CreateSession handles POST /sessions.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if r.ContentLength != 0 {
		if err := decodeBody(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	id, err := s.Sessions.Create(r.Context(), req.Data)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.inspect(w, r, id, http.StatusCreated, func(ctx context.Context, ed *easel.Editor) error {
		s.watch(id, ed)
		return nil
	})
}

// ListSessions handles GET /sessions.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{"sessions": s.Sessions.List()})
}

// GetSession handles GET /sessions/{id}.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	s.inspect(w, r, chi.URLParam(r, "sessionID"), http.StatusOK, nil)
}

// DeleteSession handles DELETE /sessions/{id}.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Sessions.Close(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetData handles PUT /sessions/{id}/data.
func (s *Server) SetData(w http.ResponseWriter, r *http.Request) {
	var req setDataRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.inspect(w, r, chi.URLParam(r, "sessionID"), http.StatusOK, func(ctx context.Context, ed *easel.Editor) error {
		return ed.SetData(req.Data)
	})
}

// SetSelection handles PUT /sessions/{id}/selection. The path addresses a
// position: child indexes down the tree with the offset last.
func (s *Server) SetSelection(w http.ResponseWriter, r *http.Request) {
	var req selectionRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.inspect(w, r, chi.URLParam(r, "sessionID"), http.StatusOK, func(ctx context.Context, ed *easel.Editor) error {
		return ed.SelectPath(req.Path...)
	})
}

// Resize handles POST /sessions/{id}/resize.
func (s *Server) Resize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	handle, err := parseHandle(req.Handle)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.inspect(w, r, chi.URLParam(r, "sessionID"), http.StatusOK, func(ctx context.Context, ed *easel.Editor) error {
		el, err := ed.ElementAt(req.Path...)
		if err != nil {
			return err
		}
		if el.Name() != ed.MediaElement() {
			return fmt.Errorf("%w: %s is not a media element", errBadRequest, el.Name())
		}
		from := domain.Point{X: req.From.X, Y: req.From.Y}
		to := domain.Point{X: req.To.X, Y: req.To.Y}
		return ed.Resize(ctx, el, handle, from, to)
	})
}

func parseHandle(s string) (domain.Handle, error) {
	switch h := domain.Handle(s); h {
	case domain.HandleTopLeft, domain.HandleTopRight, domain.HandleBottomLeft, domain.HandleBottomRight:
		return h, nil
	case "":
		return domain.HandleBottomRight, nil
	default:
		return "", fmt.Errorf("%w: unknown handle %q", errBadRequest, s)
	}
}

// inspect runs fn under the session lock, then answers with the session view.
func (s *Server) inspect(w http.ResponseWriter, r *http.Request, id string, status int, fn func(context.Context, *easel.Editor) error) {
	var view SessionView
	err := s.Sessions.WithLock(r.Context(), id, func(ctx context.Context, ed *easel.Editor) error {
		if fn != nil {
			if err := fn(ctx, ed); err != nil {
				return err
			}
		}
		view = viewOf(id, ed)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, status, view)
}
