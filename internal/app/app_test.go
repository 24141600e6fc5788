package app

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepstats/internal/config"
)

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Port = 8080
	cfg.Server.MaxUploadBytes = 1 << 20
	cfg.Security.EnableCORS = false
	cfg.Security.RateLimit.Enabled = false

	a := &Application{
		Config: cfg,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	a.initServices()
	a.setupRouter()
	return a
}

func TestApplicationRoutes(t *testing.T) {
	a := newTestApplication(t)

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var body map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "healthy", body["status"])
		assert.Equal(t, Version, body["version"])
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unknown route is problem json", func(t *testing.T) {
		rec := httptest.NewRecorder()
		a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "/errors/not-found")
	})
}

func TestErrorResponseCarriesRequestID(t *testing.T) {
	a := newTestApplication(t)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/view?key=NV&category=batting", nil)
	req.Header.Set("X-Request-ID", "req-4711")
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "req-4711", body["trace_id"])
	assert.Equal(t, "req-4711", rec.Header().Get("X-Request-ID"))
}

func TestSelectionChangeBroadcastToWebSocketClients(t *testing.T) {
	a := newTestApplication(t)
	a.WebSocketHub.Start()
	defer a.WebSocketHub.Stop()

	srv := httptest.NewServer(a.Router)
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	// The greeting confirms the client is registered before we mutate.
	var greeting map[string]interface{}
	require.NoError(t, conn.ReadJSON(&greeting))
	require.Equal(t, "connection", greeting["type"])

	req, err := http.NewRequest(http.MethodPut, srv.URL+"/api/selection/filter", strings.NewReader(`{"filter":"ru"}`))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msg map[string]interface{}
	require.NoError(t, conn.ReadJSON(&msg))
	assert.Equal(t, "selection:change", msg["type"])
	data := msg["data"].(map[string]interface{})
	assert.Equal(t, "ru", data["filter"])
}

func TestApplicationIngestToSelectionFlow(t *testing.T) {
	a := newTestApplication(t)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("files", "AK_batting_2024.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("name,hr\nRuth,54\n"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/stats/ingest", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	// The first ingested key becomes the default selection.
	rec = httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/selection", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "AK", data["key"])
}
