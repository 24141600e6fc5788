package http

import (
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"prepstats/internal/dataprocessing"
	apierrors "prepstats/internal/errors"
	"prepstats/internal/exporter"
	"prepstats/internal/infrastructure"
	"prepstats/internal/services"
	"prepstats/internal/validation"
	"prepstats/pkg/contracts/domain"
)

// StatsHandler handles stats-related HTTP requests with RFC 7807 compliance.
type StatsHandler struct {
	service        StatsServiceInterface
	logger         *slog.Logger
	errorHandler   *apierrors.ErrorHandler
	validator      *validation.FileValidator
	validate       *validator.Validate
	maxUploadBytes int64
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(service StatsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler, maxUploadBytes int64) *StatsHandler {
	return &StatsHandler{
		service:        service,
		logger:         logger.With(slog.String("component", "stats_handler")),
		errorHandler:   errorHandler,
		validator:      validation.NewFileValidator(logger),
		validate:       validator.New(),
		maxUploadBytes: maxUploadBytes,
	}
}

// Routes returns the stats routes.
func (h *StatsHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Post("/ingest", h.Ingest)
	r.Get("/partitions", h.GetPartitions)
	r.Get("/categories", h.GetCategories)
	r.Get("/view", h.GetView)
	r.Get("/export", h.ExportView)

	return r
}

// ingestFileResult reports the outcome for one uploaded file.
type ingestFileResult struct {
	FileName string                 `json:"file_name"`
	Accepted bool                   `json:"accepted"`
	Reason   string                 `json:"reason,omitempty"`
	Result   *services.IngestResult `json:"result,omitempty"`
}

// ingestJSONRequest is the JSON alternative to a multipart upload.
type ingestJSONRequest struct {
	FileName string `json:"file_name" validate:"required"`
	Content  string `json:"content" validate:"required"`
}

// Ingest handles POST /api/stats/ingest. Files arrive either as multipart
// form parts or as a JSON body with file_name and content; classification
// and parse failures skip the file rather than failing the request.
func (h *StatsHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	reqID := infrastructure.GetTraceID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		h.ingestJSON(w, r, reqID)
		return
	}

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	var parts []*multipart.FileHeader
	for _, headers := range r.MultipartForm.File {
		parts = append(parts, headers...)
	}
	if len(parts) == 0 {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("file", "At least one file part is required"))
		return
	}

	results := make([]ingestFileResult, 0, len(parts))
	accepted := 0
	for _, part := range parts {
		name, err := h.validator.ValidateUploadName(part.Filename)
		if err != nil {
			results = append(results, ingestFileResult{FileName: part.Filename, Reason: "invalid_name"})
			continue
		}

		file, err := part.Open()
		if err != nil {
			results = append(results, ingestFileResult{FileName: name, Reason: "unreadable"})
			continue
		}

		res, err := h.service.Ingest(r.Context(), name, file)
		file.Close()
		if err != nil {
			results = append(results, ingestFileResult{FileName: name, Reason: skipReason(err)})
			continue
		}

		accepted++
		results = append(results, ingestFileResult{FileName: name, Accepted: true, Result: res})
	}

	h.logger.InfoContext(r.Context(), "ingest request completed",
		slog.String("request_id", reqID),
		slog.Int("files", len(parts)),
		slog.Int("accepted", accepted))

	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"accepted": accepted,
		"skipped":  len(parts) - accepted,
		"files":    results,
	})
}

// ingestJSON handles the JSON body variant of an ingest request.
func (h *StatsHandler) ingestJSON(w http.ResponseWriter, r *http.Request, reqID string) {
	var req ingestJSONRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("body", "file_name and content are required"))
		return
	}

	result := ingestFileResult{FileName: req.FileName}
	accepted := 0
	if name, err := h.validator.ValidateUploadName(req.FileName); err != nil {
		result.Reason = "invalid_name"
	} else if res, err := h.service.Ingest(r.Context(), name, strings.NewReader(req.Content)); err != nil {
		result.Reason = skipReason(err)
	} else {
		result.Accepted = true
		result.Result = res
		accepted = 1
	}

	h.logger.InfoContext(r.Context(), "ingest request completed",
		slog.String("request_id", reqID),
		slog.Int("files", 1),
		slog.Int("accepted", accepted))

	render.JSON(w, r, map[string]interface{}{
		"status":   "success",
		"accepted": accepted,
		"skipped":  1 - accepted,
		"files":    []ingestFileResult{result},
	})
}

func skipReason(err error) string {
	switch {
	case errors.Is(err, dataprocessing.ErrMalformedName):
		return "malformed_name"
	case errors.Is(err, dataprocessing.ErrUnknownCategory):
		return "unknown_category"
	default:
		return "unparseable"
	}
}

// GetPartitions handles GET /api/stats/partitions.
func (h *StatsHandler) GetPartitions(w http.ResponseWriter, r *http.Request) {
	keys := h.service.Partitions(r.Context())

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   keys,
		"count":  len(keys),
	})
}

// GetCategories handles GET /api/stats/categories.
func (h *StatsHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	categories := h.service.Categories(r.Context())

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   categories,
		"count":  len(categories),
	})
}

// GetView handles GET /api/stats/view.
func (h *StatsHandler) GetView(w http.ResponseWriter, r *http.Request) {
	result, err := h.computeView(w, r)
	if err != nil {
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"count":  len(result.Rows),
	})
}

// ExportView handles GET /api/stats/export, streaming the view as a CSV
// attachment.
func (h *StatsHandler) ExportView(w http.ResponseWriter, r *http.Request) {
	result, err := h.computeView(w, r)
	if err != nil {
		return
	}

	fileName := fmt.Sprintf("%s_%s.csv", result.Key, result.Category)
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))

	options := exporter.WriteOptions{BOMPrefix: r.URL.Query().Get("bom") == "true"}
	if err := exporter.WriteView(w, result.Columns, result.Rows, options); err != nil {
		h.logger.ErrorContext(r.Context(), "export stream failed",
			slog.String("error", err.Error()))
	}
}

// computeView parses the shared view query parameters, invokes the service
// and writes the error response itself when something fails.
func (h *StatsHandler) computeView(w http.ResponseWriter, r *http.Request) (*services.ViewResult, error) {
	q := r.URL.Query()
	key := q.Get("key")
	category := q.Get("category")

	if key == "" {
		err := apierrors.ErrValidation("key", "Partition key is required")
		h.errorHandler.HandleError(w, r, err)
		return nil, err
	}
	if category == "" {
		err := apierrors.ErrValidation("category", "Category is required")
		h.errorHandler.HandleError(w, r, err)
		return nil, err
	}

	directive, err := parseSortParams(q.Get("sort_column"), q.Get("sort_direction"))
	if err != nil {
		h.errorHandler.HandleError(w, r, err)
		return nil, err
	}

	result, err := h.service.View(r.Context(), key, category, q.Get("filter"), directive)
	if err != nil {
		h.handleServiceError(w, r, err)
		return nil, err
	}
	return result, nil
}

// parseSortParams builds a sort directive from query parameters. An empty
// column means no sort; direction defaults to ascending.
func parseSortParams(column, direction string) (domain.SortDirective, error) {
	if column == "" {
		return domain.SortDirective{}, nil
	}

	dir := domain.Ascending
	switch strings.ToLower(direction) {
	case "", "asc":
	case "desc":
		dir = domain.Descending
	default:
		return domain.SortDirective{}, apierrors.ErrValidation("sort_direction", "Sort direction must be asc or desc")
	}

	return domain.SortDirective{Column: column, Direction: dir}, nil
}

// handleServiceError maps service sentinel errors to API errors.
func (h *StatsHandler) handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrPartitionNotFound):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"PARTITION_NOT_FOUND",
			"Unknown partition key",
		))
	case errors.Is(err, services.ErrInvalidCategory):
		h.errorHandler.HandleError(w, r, apierrors.ErrValidation("category", "Unknown category"))
	case errors.Is(err, services.ErrNoData):
		h.errorHandler.HandleError(w, r, apierrors.New(
			http.StatusNotFound,
			"NO_DATA",
			"No data has been ingested yet",
		))
	default:
		h.errorHandler.HandleError(w, r, err)
	}
}
