package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"prepstats/internal/dataprocessing"
	"prepstats/internal/metrics"
	"prepstats/internal/selection"
	"prepstats/internal/store"
	"prepstats/internal/view"
	"prepstats/pkg/contracts/domain"
)

// StatsService owns the ingestion pipeline and the derived-view
// computation over the partitioned store.
type StatsService struct {
	store     *store.Store
	selection *selection.State
	logger    *slog.Logger
}

// NewStatsService creates a stats service. The selection state must
// already be subscribed to the store by the caller; the service itself
// never touches the selection during ingestion.
func NewStatsService(st *store.Store, sel *selection.State, logger *slog.Logger) *StatsService {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatsService{
		store:     st,
		selection: sel,
		logger:    logger.With(slog.String("component", "stats_service")),
	}
}

// IngestResult describes one accepted file.
type IngestResult struct {
	ID       string          `json:"id"`
	Key      string          `json:"key"`
	Category domain.Category `json:"category"`
	Rows     int             `json:"rows"`
	Columns  []string        `json:"columns"`
}

// Ingest runs one file through classify → parse → upsert. Classification
// failures are reported as dataprocessing sentinel errors so callers can
// skip the file without surfacing a user-visible error; nothing is
// written to the store in that case. The upsert itself is atomic with
// respect to the store.
func (s *StatsService) Ingest(ctx context.Context, fileName string, r io.Reader) (*IngestResult, error) {
	cls, err := dataprocessing.Classify(fileName)
	if err != nil {
		reason := "malformed_name"
		if errors.Is(err, dataprocessing.ErrUnknownCategory) {
			reason = "unknown_category"
		}
		metrics.IngestsSkipped.WithLabelValues(reason).Inc()
		s.logger.WarnContext(ctx, "file skipped",
			slog.String("file_name", fileName),
			slog.String("reason", reason))
		return nil, err
	}

	ds, err := s.parse(fileName, r)
	if err != nil {
		metrics.IngestsSkipped.WithLabelValues("unparseable").Inc()
		s.logger.WarnContext(ctx, "file skipped",
			slog.String("file_name", fileName),
			slog.String("reason", "unparseable"),
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to parse %s: %w", fileName, err)
	}

	s.store.Upsert(cls.Key, cls.Category, ds)

	metrics.IngestsAccepted.WithLabelValues(string(cls.Category)).Inc()
	metrics.RowsIngested.Add(float64(len(ds.Rows)))

	result := &IngestResult{
		ID:       uuid.New().String(),
		Key:      cls.Key,
		Category: cls.Category,
		Rows:     len(ds.Rows),
		Columns:  ds.Columns,
	}

	s.logger.InfoContext(ctx, "file ingested",
		slog.String("ingest_id", result.ID),
		slog.String("key", result.Key),
		slog.String("category", string(result.Category)),
		slog.Int("rows", result.Rows))

	return result, nil
}

// parse picks the parser by file extension; everything that is not an
// Excel workbook is treated as CSV.
func (s *StatsService) parse(fileName string, r io.Reader) (domain.Dataset, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".xlsx", ".xls":
		return dataprocessing.ParseXLSX(r)
	default:
		return dataprocessing.ParseCSV(r)
	}
}

// Partitions returns the known partition keys in first-seen order.
func (s *StatsService) Partitions(ctx context.Context) []string {
	return s.store.Keys()
}

// Categories returns the fixed category enumeration.
func (s *StatsService) Categories(ctx context.Context) []domain.Category {
	return domain.Categories()
}

// ViewResult is a computed view plus the parameters that produced it.
type ViewResult struct {
	Key      string               `json:"key"`
	Category domain.Category      `json:"category"`
	Filter   string               `json:"filter,omitempty"`
	Sort     domain.SortDirective `json:"sort"`
	Columns  []string             `json:"columns"`
	Rows     []domain.Row         `json:"rows"`
	Total    int                  `json:"total"`
}

// View computes the filtered, sorted view over the dataset at (key,
// category). The key must be a known partition; a known key with no
// dataset for the category yields an empty view.
func (s *StatsService) View(ctx context.Context, key, category, filterText string, directive domain.SortDirective) (*ViewResult, error) {
	cat, ok := domain.ParseCategory(category)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	if !s.store.Has(key) {
		return nil, fmt.Errorf("%w: %q", ErrPartitionNotFound, key)
	}

	ds := s.store.Get(key, cat)
	rows := view.Compute(ds.Rows, filterText, directive)
	metrics.ViewsComputed.Inc()

	return &ViewResult{
		Key:      key,
		Category: cat,
		Filter:   filterText,
		Sort:     directive,
		Columns:  ds.Columns,
		Rows:     rows,
		Total:    len(ds.Rows),
	}, nil
}

// Selection returns the current selection state.
func (s *StatsService) Selection(ctx context.Context) domain.Selection {
	return s.selection.Snapshot()
}

// SelectKey makes key the active partition key. The key must be known.
func (s *StatsService) SelectKey(ctx context.Context, key string) error {
	if !s.store.Has(key) {
		return fmt.Errorf("%w: %q", ErrPartitionNotFound, key)
	}
	s.selection.SetKey(key)
	return nil
}

// SelectCategory makes category the active category.
func (s *StatsService) SelectCategory(ctx context.Context, category string) (domain.Category, error) {
	cat, ok := domain.ParseCategory(category)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, category)
	}
	s.selection.SetCategory(cat)
	return cat, nil
}

// SetFilter replaces the active filter text.
func (s *StatsService) SetFilter(ctx context.Context, text string) {
	s.selection.SetFilter(text)
}

// RequestSort applies the sort-toggle rule and returns the directive now
// in effect.
func (s *StatsService) RequestSort(ctx context.Context, column string) domain.SortDirective {
	return s.selection.RequestSort(column)
}

// SelectionView computes the view for the current selection.
func (s *StatsService) SelectionView(ctx context.Context) (*ViewResult, error) {
	sel := s.selection.Snapshot()
	if sel.Key == "" {
		return nil, ErrNoData
	}

	ds := s.store.Get(sel.Key, sel.Category)
	rows := view.Compute(ds.Rows, sel.Filter, sel.Sort)
	metrics.ViewsComputed.Inc()

	return &ViewResult{
		Key:      sel.Key,
		Category: sel.Category,
		Filter:   sel.Filter,
		Sort:     sel.Sort,
		Columns:  ds.Columns,
		Rows:     rows,
		Total:    len(ds.Rows),
	}, nil
}
