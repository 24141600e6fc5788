package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "prepstats/internal/errors"
	"prepstats/internal/selection"
	"prepstats/internal/services"
	"prepstats/internal/store"
)

func newTestStatsRouter(t *testing.T) (chi.Router, *services.StatsService) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st := store.New()
	sel := selection.New()
	st.Subscribe(sel.ObserveStore)
	svc := services.NewStatsService(st, sel, logger)

	handler := NewStatsHandler(svc, logger, apierrors.NewErrorHandler(logger, false), 1<<20)

	r := chi.NewRouter()
	r.Mount("/api/stats", handler.Routes())
	return r, svc
}

func multipartUpload(t *testing.T, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	for name, content := range files {
		part, err := writer.CreateFormFile("files", name)
		require.NoError(t, err)
		_, err = part.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return &buf, writer.FormDataContentType()
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatsHandlerIngest(t *testing.T) {
	t.Run("accepts well-formed file", func(t *testing.T) {
		router, _ := newTestStatsRouter(t)

		buf, contentType := multipartUpload(t, map[string]string{
			"AK_batting_2024.csv": "name,hr\nRuth,54\n",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/stats/ingest", buf)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["accepted"])
		assert.Equal(t, float64(0), body["skipped"])
	})

	t.Run("skips malformed name without failing request", func(t *testing.T) {
		router, _ := newTestStatsRouter(t)

		buf, contentType := multipartUpload(t, map[string]string{
			"notes.csv": "a,b\n1,2\n",
		})
		req := httptest.NewRequest(http.MethodPost, "/api/stats/ingest", buf)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(0), body["accepted"])
		assert.Equal(t, float64(1), body["skipped"])

		files := body["files"].([]interface{})
		require.Len(t, files, 1)
		assert.Equal(t, "malformed_name", files[0].(map[string]interface{})["reason"])
	})

	t.Run("accepts JSON body", func(t *testing.T) {
		router, _ := newTestStatsRouter(t)

		payload := `{"file_name":"CA_fielding_2024.csv","content":"name,po\nMays,448\n"}`
		req := httptest.NewRequest(http.MethodPost, "/api/stats/ingest", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(1), body["accepted"])
	})

	t.Run("rejects JSON body without content", func(t *testing.T) {
		router, _ := newTestStatsRouter(t)

		req := httptest.NewRequest(http.MethodPost, "/api/stats/ingest",
			bytes.NewBufferString(`{"file_name":"CA_fielding_2024.csv"}`))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects file name with path components", func(t *testing.T) {
		router, _ := newTestStatsRouter(t)

		payload := `{"file_name":"../CA_batting_2024.csv","content":"name\nx\n"}`
		req := httptest.NewRequest(http.MethodPost, "/api/stats/ingest", bytes.NewBufferString(payload))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, float64(0), body["accepted"])
		files := body["files"].([]interface{})
		require.Len(t, files, 1)
		assert.Equal(t, "invalid_name", files[0].(map[string]interface{})["reason"])
	})

	t.Run("rejects request without file parts", func(t *testing.T) {
		router, _ := newTestStatsRouter(t)

		buf, contentType := multipartUpload(t, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/stats/ingest", buf)
		req.Header.Set("Content-Type", contentType)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func ingestFixture(t *testing.T, svc *services.StatsService, fileName, content string) {
	t.Helper()
	_, err := svc.Ingest(context.Background(), fileName, bytes.NewReader([]byte(content)))
	require.NoError(t, err)
}

func TestStatsHandlerPartitionsAndCategories(t *testing.T) {
	router, svc := newTestStatsRouter(t)
	ingestFixture(t, svc, "CA_batting_a.csv", "name\nx\n")
	ingestFixture(t, svc, "AK_batting_b.csv", "name\ny\n")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/partitions", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []interface{}{"CA", "AK"}, body["data"])

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body = decodeBody(t, rec)
	assert.Equal(t, float64(4), body["count"])
}

func TestStatsHandlerGetView(t *testing.T) {
	router, svc := newTestStatsRouter(t)
	ingestFixture(t, svc, "CA_batting_2024.csv", "name,hr\nRuth,54\nGehrig,47\n")

	t.Run("returns filtered sorted view", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/stats/view?key=CA&category=batting&sort_column=hr&sort_direction=desc", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		body := decodeBody(t, rec)
		data := body["data"].(map[string]interface{})
		rows := data["rows"].([]interface{})
		require.Len(t, rows, 2)
		assert.Equal(t, "Ruth", rows[0].(map[string]interface{})["name"])
	})

	t.Run("missing key is a validation error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/stats/view?category=batting", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown key is not found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/stats/view?key=ZZ&category=batting", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "PARTITION_NOT_FOUND")
	})

	t.Run("bad sort direction is a validation error", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
			"/api/stats/view?key=CA&category=batting&sort_column=hr&sort_direction=sideways", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestStatsHandlerExportView(t *testing.T) {
	router, svc := newTestStatsRouter(t)
	ingestFixture(t, svc, "CA_batting_2024.csv", "name,hr\nRuth,54\n")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet,
		"/api/stats/export?key=CA&category=batting&bom=true", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "CA_batting.csv")

	out := rec.Body.Bytes()
	require.True(t, len(out) > 3)
	assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, out[:3])
	assert.Equal(t, "name,hr\nRuth,54\n", string(out[3:]))
}
