package http

import (
	"context"
	"io"

	"prepstats/internal/services"
	"prepstats/pkg/contracts/domain"
)

// StatsServiceInterface defines the operations the handlers need from the
// stats service.
type StatsServiceInterface interface {
	Ingest(ctx context.Context, fileName string, r io.Reader) (*services.IngestResult, error)
	Partitions(ctx context.Context) []string
	Categories(ctx context.Context) []domain.Category
	View(ctx context.Context, key, category, filterText string, directive domain.SortDirective) (*services.ViewResult, error)

	Selection(ctx context.Context) domain.Selection
	SelectKey(ctx context.Context, key string) error
	SelectCategory(ctx context.Context, category string) (domain.Category, error)
	SetFilter(ctx context.Context, text string)
	RequestSort(ctx context.Context, column string) domain.SortDirective
	SelectionView(ctx context.Context) (*services.ViewResult, error)
}
