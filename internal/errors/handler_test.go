package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prepstats/internal/infrastructure"
)

func decodeProblem(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHandleErrorAPIError(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/view", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, New(http.StatusNotFound, "PARTITION_NOT_FOUND", "Partition 'NV' not found"))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeNotFound, body["type"])
	assert.Equal(t, float64(http.StatusNotFound), body["status"])
	assert.Equal(t, "PARTITION_NOT_FOUND", body["error_code"])
	assert.Equal(t, "/api/stats/view", body["instance"])
}

func TestHandleErrorCarriesTraceID(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	req := httptest.NewRequest(http.MethodGet, "/api/stats/view", nil)
	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-4711"))
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, New(http.StatusNotFound, "PARTITION_NOT_FOUND", "Partition 'NV' not found"))

	body := decodeProblem(t, rec)
	assert.Equal(t, "trace-4711", body["trace_id"])
}

func TestNotFoundCarriesTraceID(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	req = req.WithContext(infrastructure.WithTraceID(req.Context(), "trace-4712"))
	rec := httptest.NewRecorder()

	h.NotFound(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, "trace-4712", body["trace_id"])
}

func TestHandleErrorGenericError(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, fmt.Errorf("boom"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeProblem(t, rec)
	assert.Equal(t, TypeInternal, body["type"])
	// Internal details are never leaked to the client.
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestHandleErrorContextCancelled(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()

	h.HandleError(rec, req, context.DeadlineExceeded)

	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
}

func TestHandleErrorNil(t *testing.T) {
	h := NewErrorHandler(slog.Default(), false)

	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)

	assert.Empty(t, rec.Body.String())
}

func TestProblemDetailsMarshalIncludesExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "detail", "/x").
		WithExtension("field", "file_name")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "file_name", body["field"])
	assert.Equal(t, "detail", body["detail"])
}

func TestValidationErrorHelper(t *testing.T) {
	apiErr := ErrValidation("key", "Partition key is required")
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
	assert.Equal(t, "VALIDATION_FAILED", apiErr.ErrorCode)
}
