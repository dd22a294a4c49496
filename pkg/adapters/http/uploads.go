package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/ports"
)

// UploadResponse reports what one upload request did.
type UploadResponse struct {
	Session   SessionView   `json:"session"`
	Transfers []string      `json:"transfers"`
	Skipped   []SkippedFile `json:"skipped,omitempty"`
	Warnings  []string      `json:"warnings,omitempty"`
}

// SkippedFile names a file the upload command did not insert.
type SkippedFile struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// Upload handles POST /sessions/{id}/uploads. Every multipart part named
// "file" becomes one media element at the session selection.
func (s *Server) Upload(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	files, err := s.readFiles(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var resp UploadResponse
	err = s.Sessions.WithLock(r.Context(), sessionID, func(ctx context.Context, ed *easel.Editor) error {
		res := ed.Upload(ctx, files...)
		for _, tr := range res.Transfers {
			s.Sessions.TrackTransfer(tr.ID(), sessionID)
			resp.Transfers = append(resp.Transfers, tr.ID())
		}
		for _, skip := range res.Skipped {
			resp.Skipped = append(resp.Skipped, SkippedFile{Name: skip.File.Name(), Reason: skip.Reason.Error()})
		}
		for _, d := range res.Diagnostics {
			resp.Warnings = append(resp.Warnings, d.Code)
		}
		resp.Session = viewOf(sessionID, ed)
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	status := http.StatusAccepted
	if len(resp.Transfers) == 0 {
		status = http.StatusOK
	}
	s.writeJSON(w, status, resp)
}

func (s *Server) readFiles(w http.ResponseWriter, r *http.Request) ([]ports.File, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, errors.Join(errBadRequest, err)
	}
	var files []ports.File
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, errors.Join(errBadRequest, err)
		}
		if part.FormName() != "file" {
			_ = part.Close()
			continue
		}
		data, err := io.ReadAll(part)
		_ = part.Close()
		if err != nil {
			return nil, errors.Join(errBadRequest, err)
		}
		files = append(files, memory.NewFile(part.FileName(), part.Header.Get("Content-Type"), data))
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no file parts", errBadRequest)
	}
	return files, nil
}
