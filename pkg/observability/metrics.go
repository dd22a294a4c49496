package observability

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aretw0/easel/pkg/domain"
)

// Upload outcomes used as the "outcome" label.
const (
	OutcomeStarted   = "started"
	OutcomeCompleted = "completed"
	OutcomeFailed    = "failed"
	OutcomeAborted   = "aborted"
	OutcomeStale     = "stale"
)

// Metrics holds the editor collectors.
type Metrics struct {
	Uploads        *prometheus.CounterVec
	UploadsActive  prometheus.Gauge
	ResizeSessions *prometheus.CounterVec
	ResizeWidth    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Uploads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_uploads_total",
				Help: "Upload transfers by outcome",
			},
			[]string{"outcome"},
		),
		UploadsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "easel_uploads_in_flight",
			Help: "Upload transfers started and not yet finished",
		}),
		ResizeSessions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "easel_resize_sessions_total",
				Help: "Resize sessions by stage",
			},
			[]string{"stage"},
		),
		ResizeWidth: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "easel_resize_committed_width_pixels",
			Help:    "Widths committed by resize sessions",
			Buckets: prometheus.LinearBuckets(100, 100, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.Uploads, m.UploadsActive, m.ResizeSessions, m.ResizeWidth} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnUploadStart: func(_ context.Context, e *domain.UploadEvent) {
			m.Uploads.WithLabelValues(OutcomeStarted).Inc()
			m.UploadsActive.Inc()
		},
		OnUploadComplete: func(_ context.Context, e *domain.UploadEvent) {
			switch {
			case e.Stale:
				m.Uploads.WithLabelValues(OutcomeStale).Inc()
			case e.Err != nil:
				// A rejected completion is cleaned up and reported through OnUploadFail.
				return
			default:
				m.Uploads.WithLabelValues(OutcomeCompleted).Inc()
			}
			m.UploadsActive.Dec()
		},
		OnUploadFail: func(_ context.Context, e *domain.UploadEvent) {
			m.UploadsActive.Dec()
			if e.Type == domain.EventUploadAbort {
				m.Uploads.WithLabelValues(OutcomeAborted).Inc()
				return
			}
			m.Uploads.WithLabelValues(OutcomeFailed).Inc()
		},
		OnResizeBegin: func(_ context.Context, e *domain.ResizeEvent) {
			m.ResizeSessions.WithLabelValues("begin").Inc()
		},
		OnResizeCommit: func(_ context.Context, e *domain.ResizeEvent) {
			m.ResizeSessions.WithLabelValues("commit").Inc()
			m.ResizeWidth.Observe(e.Width)
		},
		OnResizeCancel: func(_ context.Context, e *domain.ResizeEvent) {
			m.ResizeSessions.WithLabelValues("cancel").Inc()
		},
	}
}

// Handler exposes g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// LogHooks returns lifecycle hooks that log every event.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	upload := func(level slog.Level) func(context.Context, *domain.UploadEvent) {
		return func(ctx context.Context, e *domain.UploadEvent) {
			attrs := []any{"transfer", e.TransferID}
			if e.FileName != "" {
				attrs = append(attrs, "file", e.FileName)
			}
			if e.Total > 0 {
				attrs = append(attrs, "uploaded", e.Uploaded, "total", e.Total)
			}
			if e.Stale {
				attrs = append(attrs, "stale", true)
			}
			if e.Err != nil {
				attrs = append(attrs, "err", e.Err)
			}
			logger.Log(ctx, level, string(e.Type), attrs...)
		}
	}
	resize := func(ctx context.Context, e *domain.ResizeEvent) {
		logger.InfoContext(ctx, string(e.Type), "width", e.Width, "height", e.Height)
	}
	return domain.LifecycleHooks{
		OnUploadStart:    upload(slog.LevelInfo),
		OnUploadProgress: upload(slog.LevelDebug),
		OnUploadComplete: upload(slog.LevelInfo),
		OnUploadFail:     upload(slog.LevelWarn),
		OnResizeBegin:    resize,
		OnResizeCommit:   resize,
		OnResizeCancel:   resize,
	}
}
