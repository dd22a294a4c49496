package memory

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/aretw0/easel/internal/logging"
	"github.com/aretw0/easel/pkg/domain"
)

// Sink implements ports.DiagnosticSink by keeping every report and logging it.
type Sink struct {
	mu          sync.Mutex
	diagnostics []domain.Diagnostic
	logger      *slog.Logger
}

// NewSink creates a sink. A nil logger discards log output.
func NewSink(logger *slog.Logger) *Sink {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Sink{logger: logger}
}

// Report records d.
func (s *Sink) Report(ctx context.Context, d domain.Diagnostic) {
	s.mu.Lock()
	s.diagnostics = append(s.diagnostics, d)
	s.mu.Unlock()
	s.logger.WarnContext(ctx, d.Message, "code", d.Code, "err", d.Err)
}

// Diagnostics returns the reports received so far.
func (s *Sink) Diagnostics() []domain.Diagnostic {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.diagnostics)
}
