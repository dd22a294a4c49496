package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/model"
	"github.com/aretw0/easel/pkg/ports"
	"github.com/aretw0/easel/pkg/session"
)

// TransferDriver finishes transfers on behalf of an external uploader that
// reports back over HTTP.
type TransferDriver interface {
	CompleteTransfer(id string, response map[string]any) error
	FailTransfer(id string, cause error) error
	AbortTransfer(id string) error
}

// Server exposes editing sessions over HTTP.
type Server struct {
	Sessions *session.Manager
	Streams  *StreamManager

	driver    TransferDriver
	ledger    ports.TransferLedger
	metrics   http.Handler
	maxUpload int64
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithTransferDriver enables the /transfers/{id}/complete|fail|abort routes.
func WithTransferDriver(d TransferDriver) Option {
	return func(s *Server) {
		s.driver = d
	}
}

// WithTransferLedger enables GET /transfers/{id}.
func WithTransferLedger(l ports.TransferLedger) Option {
	return func(s *Server) {
		s.ledger = l
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithMaxUploadBytes limits the size of multipart upload requests.
func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		s.maxUpload = n
	}
}

// NewHandler creates the HTTP handler for the sessions of m.
func NewHandler(m *session.Manager, opts ...Option) http.Handler {
	s := &Server{
		Sessions:  m,
		Streams:   NewStreamManager(),
		maxUpload: 32 << 20,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams.logger = s.logger

	r := chi.NewRouter()
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.CreateSession)
		r.Get("/", s.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", s.GetSession)
			r.Delete("/", s.DeleteSession)
			r.Put("/data", s.SetData)
			r.Put("/selection", s.SetSelection)
			r.Post("/uploads", s.Upload)
			r.Post("/resize", s.Resize)
			r.Get("/events", s.SubscribeEvents)
		})
	})

	r.Route("/transfers/{transferID}", func(r chi.Router) {
		r.Get("/", s.GetTransfer)
		r.Post("/complete", s.CompleteTransfer)
		r.Post("/fail", s.FailTransfer)
		r.Post("/abort", s.AbortTransfer)
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "easel-http",
		"version": strings.TrimSpace(easel.Version),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "err", err)
	}
}

type errorResponse struct {
	Error string `json:"error"`
}

// writeError maps domain errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrTransferNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidPosition),
		errors.Is(err, domain.ErrSchemaViolation),
		errors.Is(err, domain.ErrNodeDetached),
		errors.Is(err, model.ErrMalformedMarkup),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidStateTransition),
		errors.Is(err, domain.ErrStaleReference),
		errors.Is(err, errTransferFinished):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "err", err)
	} else {
		s.logger.Debug("request rejected", "status", status, "err", err)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

var (
	errBadRequest       = errors.New("bad request")
	errTransferFinished = errors.New("transfer already finished")
)

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}
