package observability_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel/pkg/domain"
	"github.com/aretw0/easel/pkg/observability"
)

func newMetrics(t *testing.T) (*observability.Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	return m, reg
}

func TestMetrics_UploadOutcomes(t *testing.T) {
	m, _ := newMetrics(t)
	h := m.Hooks()
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c", "d"} {
		h.OnUploadStart(ctx, domain.NewUploadEvent(domain.EventUploadStart, id))
	}
	assert.Equal(t, 4.0, testutil.ToFloat64(m.UploadsActive))

	h.OnUploadComplete(ctx, domain.NewUploadEvent(domain.EventUploadComplete, "a"))

	stale := domain.NewUploadEvent(domain.EventUploadComplete, "b")
	stale.Stale = true
	h.OnUploadComplete(ctx, stale)

	rejected := domain.NewUploadEvent(domain.EventUploadComplete, "c")
	rejected.Err = errors.New("bad response")
	h.OnUploadComplete(ctx, rejected)
	h.OnUploadFail(ctx, domain.NewUploadEvent(domain.EventUploadFail, "c"))

	h.OnUploadFail(ctx, domain.NewUploadEvent(domain.EventUploadAbort, "d"))

	assert.Equal(t, 4.0, testutil.ToFloat64(m.Uploads.WithLabelValues(observability.OutcomeStarted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(observability.OutcomeCompleted)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(observability.OutcomeStale)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(observability.OutcomeFailed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Uploads.WithLabelValues(observability.OutcomeAborted)))
	assert.Zero(t, testutil.ToFloat64(m.UploadsActive))
}

func TestMetrics_Resize(t *testing.T) {
	m, reg := newMetrics(t)
	h := m.Hooks()
	ctx := context.Background()

	h.OnResizeBegin(ctx, domain.NewResizeEvent(domain.EventResizeBegin, nil, 200, 100))
	h.OnResizeCommit(ctx, domain.NewResizeEvent(domain.EventResizeCommit, nil, 300, 150))
	h.OnResizeBegin(ctx, domain.NewResizeEvent(domain.EventResizeBegin, nil, 300, 150))
	h.OnResizeCancel(ctx, domain.NewResizeEvent(domain.EventResizeCancel, nil, 300, 150))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ResizeSessions.WithLabelValues("begin")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResizeSessions.WithLabelValues("commit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ResizeSessions.WithLabelValues("cancel")))

	count, err := testutil.GatherAndCount(reg, "easel_resize_committed_width_pixels")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	m, reg := newMetrics(t)
	m.Hooks().OnUploadStart(context.Background(), domain.NewUploadEvent(domain.EventUploadStart, "x"))

	rec := httptest.NewRecorder()
	observability.Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `easel_uploads_total{outcome="started"} 1`)
}

func TestLogHooks(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h := observability.LogHooks(logger)
	ctx := context.Background()

	ev := domain.NewUploadEvent(domain.EventUploadFail, "t1")
	ev.FileName = "cat.png"
	ev.Err = errors.New("boom")
	h.OnUploadFail(ctx, ev)
	h.OnResizeCommit(ctx, domain.NewResizeEvent(domain.EventResizeCommit, nil, 300, 150))

	out := buf.String()
	assert.Contains(t, out, "level=WARN msg=upload_fail transfer=t1 file=cat.png err=boom")
	assert.Contains(t, out, "msg=resize_commit width=300 height=150")
}
