package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	apierrors "prepstats/internal/errors"
	"prepstats/internal/services"
)

// SelectionHandler exposes the selection state machine over HTTP.
type SelectionHandler struct {
	service      StatsServiceInterface
	logger       *slog.Logger
	errorHandler *apierrors.ErrorHandler
	validate     *validator.Validate
}

// NewSelectionHandler creates a new selection handler.
func NewSelectionHandler(service StatsServiceInterface, logger *slog.Logger, errorHandler *apierrors.ErrorHandler) *SelectionHandler {
	return &SelectionHandler{
		service:      service,
		logger:       logger.With(slog.String("component", "selection_handler")),
		errorHandler: errorHandler,
		validate:     validator.New(),
	}
}

// Routes returns the selection routes.
func (h *SelectionHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/", h.GetSelection)
	r.Put("/key", h.PutKey)
	r.Put("/category", h.PutCategory)
	r.Put("/filter", h.PutFilter)
	r.Post("/sort", h.PostSort)
	r.Get("/view", h.GetSelectionView)

	return r
}

type selectKeyRequest struct {
	Key string `json:"key" validate:"required"`
}

type selectCategoryRequest struct {
	Category string `json:"category" validate:"required"`
}

type setFilterRequest struct {
	Filter string `json:"filter"`
}

type sortRequest struct {
	Column string `json:"column" validate:"required"`
}

// decodeAndValidate binds the JSON body into v and runs struct validation,
// writing the error response itself on failure.
func (h *SelectionHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		h.errorHandler.HandleError(w, r, apierrors.InvalidRequestWithError(err))
		return false
	}
	if err := h.validate.Struct(v); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]apierrors.ValidationError, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, apierrors.ValidationError{
					Field:   fe.Field(),
					Message: "failed " + fe.Tag() + " validation",
				})
			}
			h.errorHandler.HandleError(w, r, apierrors.NewValidationErrors(fields))
			return false
		}
		h.errorHandler.HandleError(w, r, err)
		return false
	}
	return true
}

// GetSelection handles GET /api/selection.
func (h *SelectionHandler) GetSelection(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Selection(r.Context()),
	})
}

// PutKey handles PUT /api/selection/key.
func (h *SelectionHandler) PutKey(w http.ResponseWriter, r *http.Request) {
	var req selectKeyRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.service.SelectKey(r.Context(), req.Key); err != nil {
		if errors.Is(err, services.ErrPartitionNotFound) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"PARTITION_NOT_FOUND",
				"Unknown partition key",
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "selection key changed",
		slog.String("key", req.Key))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Selection(r.Context()),
	})
}

// PutCategory handles PUT /api/selection/category.
func (h *SelectionHandler) PutCategory(w http.ResponseWriter, r *http.Request) {
	var req selectCategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	cat, err := h.service.SelectCategory(r.Context(), req.Category)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCategory) {
			h.errorHandler.HandleError(w, r, apierrors.ErrValidation("category", "Unknown category"))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "selection category changed",
		slog.String("category", string(cat)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Selection(r.Context()),
	})
}

// PutFilter handles PUT /api/selection/filter. An empty filter clears it.
func (h *SelectionHandler) PutFilter(w http.ResponseWriter, r *http.Request) {
	var req setFilterRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	h.service.SetFilter(r.Context(), req.Filter)

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   h.service.Selection(r.Context()),
	})
}

// PostSort handles POST /api/selection/sort, applying the toggle rule:
// sorting the active column again flips its direction.
func (h *SelectionHandler) PostSort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	directive := h.service.RequestSort(r.Context(), req.Column)

	h.logger.InfoContext(r.Context(), "sort requested",
		slog.String("column", directive.Column),
		slog.String("direction", string(directive.Direction)))

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   directive,
	})
}

// GetSelectionView handles GET /api/selection/view.
func (h *SelectionHandler) GetSelectionView(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.SelectionView(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoData) {
			h.errorHandler.HandleError(w, r, apierrors.New(
				http.StatusNotFound,
				"NO_DATA",
				"No data has been ingested yet",
			))
			return
		}
		h.errorHandler.HandleError(w, r, err)
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": "success",
		"data":   result,
		"count":  len(result.Rows),
	})
}
