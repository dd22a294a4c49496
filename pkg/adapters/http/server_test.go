package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/easel"
	easelhttp "github.com/aretw0/easel/pkg/adapters/http"
	"github.com/aretw0/easel/pkg/adapters/memory"
	"github.com/aretw0/easel/pkg/session"
)

func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s%d", prefix, n)
	}
}

func setupServer(t *testing.T) http.Handler {
	t.Helper()
	reg := memory.NewRegistry(memory.WithIDGenerator(sequentialIDs("u")))
	ledger := memory.NewLedger()
	factory := func(context.Context, string) (*easel.Editor, error) {
		return easel.New(easel.WithUploadRegistry(reg), easel.WithTransferLedger(ledger))
	}
	m := session.NewManager(factory, session.WithIDGenerator(sequentialIDs("s")))
	t.Cleanup(func() { m.CloseAll(context.Background()) })

	metrics := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("easel_uploads_total 0\n"))
	})
	return easelhttp.NewHandler(m,
		easelhttp.WithTransferDriver(reg),
		easelhttp.WithTransferLedger(ledger),
		easelhttp.WithMetricsHandler(metrics),
	)
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeView(t *testing.T, w *httptest.ResponseRecorder) easelhttp.SessionView {
	t.Helper()
	var v easelhttp.SessionView
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

func TestHealthAndInfo(t *testing.T) {
	h := setupServer(t)

	w := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = do(t, h, http.MethodGet, "/info", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), easel.Version[:3])

	w = do(t, h, http.MethodGet, "/metrics", "")
	assert.Contains(t, w.Body.String(), "easel_uploads_total")

	w = do(t, h, http.MethodOptions, "/sessions", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSessionLifecycle(t *testing.T) {
	h := setupServer(t)

	w := do(t, h, http.MethodPost, "/sessions", `{"data":"<paragraph>foo</paragraph>"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	v := decodeView(t, w)
	assert.Equal(t, "s1", v.ID)
	assert.Equal(t, "<paragraph>foo</paragraph>", v.Data)

	w = do(t, h, http.MethodPut, "/sessions/s1/selection", `{"path":[0,1]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v = decodeView(t, w)
	assert.Equal(t, "<paragraph>f[]oo</paragraph>", v.Data)
	assert.True(t, v.CanUpload)

	w = do(t, h, http.MethodPut, "/sessions/s1/data", `{"data":"<image src=\"a.png\"></image>"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeView(t, w).Media)

	w = do(t, h, http.MethodGet, "/sessions", "")
	assert.JSONEq(t, `{"sessions":["s1"]}`, w.Body.String())

	w = do(t, h, http.MethodDelete, "/sessions/s1", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = do(t, h, http.MethodGet, "/sessions/s1", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRequestErrors(t *testing.T) {
	h := setupServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sessions", `{"data":"<paragraph>foo</paragraph>"}`).Code)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"bad json", http.MethodPut, "/sessions/s1/data", `{`, http.StatusBadRequest},
		{"unknown field", http.MethodPut, "/sessions/s1/selection", `{"offset":1}`, http.StatusBadRequest},
		{"bad path", http.MethodPut, "/sessions/s1/selection", `{"path":[4,0]}`, http.StatusBadRequest},
		{"bad markup", http.MethodPut, "/sessions/s1/data", `{"data":"<paragraph>"}`, http.StatusBadRequest},
		{"unknown session", http.MethodPut, "/sessions/s9/data", `{"data":""}`, http.StatusNotFound},
		{"unknown handle", http.MethodPost, "/sessions/s1/resize", `{"path":[0],"handle":"middle"}`, http.StatusBadRequest},
		{"resize non-media", http.MethodPost, "/sessions/s1/resize", `{"path":[0]}`, http.StatusBadRequest},
		{"unknown transfer", http.MethodPost, "/transfers/u9/abort", ``, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}
}

func TestResize(t *testing.T) {
	h := setupServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sessions", `{"data":"<image src=\"a.png\"></image>"}`).Code)

	w := do(t, h, http.MethodPost, "/sessions/s1/resize", `{"path":[0],"handle":"bottom-right","from":{"x":0,"y":0},"to":{"x":50,"y":0}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	v := decodeView(t, w)
	assert.Equal(t, `[]<image src="a.png" width="500px"></image>`, v.Data)
	assert.False(t, v.Resizing)
}

func multipartBody(t *testing.T, names ...string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := mw.CreateFormFile("file", name)
		require.NoError(t, err)
		_, err = part.Write([]byte("\x89PNG\r\n\x1a\n"))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, h http.Handler, sessionID string, names ...string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, names...)
	req := httptest.NewRequest(http.MethodPost, "/sessions/"+sessionID+"/uploads", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestUploadAndComplete(t *testing.T) {
	h := setupServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sessions", `{"data":"<paragraph>fo[]o</paragraph>"}`).Code)

	w := upload(t, h, "s1", "cat.png")
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var resp easelhttp.UploadResponse
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	assert.Equal(t, []string{"u1"}, resp.Transfers)
	assert.Equal(t, `<image uploadId="u1"></image>[]<paragraph>foo</paragraph>`, resp.Session.Data)

	w = do(t, h, http.MethodPost, "/transfers/u1/complete", `{"default":"https://cdn.test/cat.png"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, `<image src="https://cdn.test/cat.png"></image>[]<paragraph>foo</paragraph>`, decodeView(t, w).Data)

	w = do(t, h, http.MethodPost, "/transfers/u1/complete", `{"default":"https://cdn.test/dog.png"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, h, http.MethodGet, "/transfers/u1", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"done"`)
}

func TestUploadFailRemovesPlaceholder(t *testing.T) {
	h := setupServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sessions", `{"data":"<paragraph>fo[]o</paragraph>"}`).Code)
	require.Equal(t, http.StatusAccepted, upload(t, h, "s1", "a.png", "b.png").Code)

	w := do(t, h, http.MethodPost, "/transfers/u1/fail", `{"error":"quota exceeded"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	w = do(t, h, http.MethodPost, "/transfers/u2/abort", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeView(t, w).Data
	assert.NotContains(t, data, "image")
	assert.Contains(t, data, "<paragraph>foo</paragraph>")

	w = do(t, h, http.MethodGet, "/transfers/u1", "")
	assert.Contains(t, w.Body.String(), "quota exceeded")
}

func TestUploadRequiresFiles(t *testing.T) {
	h := setupServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sessions", "").Code)

	w := upload(t, h, "s1")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubscribeEvents(t *testing.T) {
	h := setupServer(t)
	require.Equal(t, http.StatusCreated, do(t, h, http.MethodPost, "/sessions", `{"data":"<paragraph>foo</paragraph>"}`).Code)

	srv := httptest.NewServer(h)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/sessions/s1/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: ping\n", line)
	_, _ = reader.ReadString('\n')
	_, _ = reader.ReadString('\n')

	w := do(t, h, http.MethodPut, "/sessions/s1/data", `{"data":"<paragraph>bar</paragraph>"}`)
	require.Equal(t, http.StatusOK, w.Code)

	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: batch\n", line)
	line, err = reader.ReadString('\n')
	require.NoError(t, err)
	var ev easelhttp.BatchEvent
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(line), "data: ")), &ev))
	assert.Equal(t, "<paragraph>bar</paragraph>", ev.Data)
}

func TestSubscribeEvents_UnknownSession(t *testing.T) {
	h := setupServer(t)
	w := do(t, h, http.MethodGet, "/sessions/s9/events", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStreamManager(t *testing.T) {
	sm := easelhttp.NewStreamManager()
	ch, cancel := sm.Subscribe("s1")
	sm.Broadcast("s1", "hello")
	sm.Broadcast("s2", "ignored")
	assert.Equal(t, "hello", <-ch)

	for i := 0; i < 20; i++ {
		sm.Broadcast("s1", "flood")
	}
	assert.Len(t, ch, 10, "slow clients drop messages")

	cancel()
	_, open := <-ch
	for open {
		_, open = <-ch
	}
}
