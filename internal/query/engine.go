package query

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/hsorel/shelf/internal/domain"
	"github.com/hsorel/shelf/internal/search"
)

// RatingAny disables the rating equality filter.
const RatingAny = -1

// Spec describes one query against the catalogue.
type Spec struct {
	Type      domain.MediaType // "" = all types
	Rating    int              // RatingAny = all ratings
	Sort      domain.SortField
	Ascending bool
	Search    string
}

// Engine produces ordered result sets by walking the store's
// secondary indexes. It never paginates; that is the controller's job.
type Engine struct {
	store  domain.CatalogueStore
	logger *slog.Logger
}

func NewEngine(store domain.CatalogueStore, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, logger: logger}
}

// Run walks the index matching spec.Sort in the requested direction,
// keeping records that pass the type and rating filters. Index
// traversal yields values pre-sorted, so no separate sort step runs.
// A non-empty search term hands the candidates to the fuzzy primitive,
// whose ranked order overrides the chosen sort axis: free-text search
// always takes precedence.
func (e *Engine) Run(spec Spec) ([]domain.Record, error) {
	var items []domain.Record
	err := e.store.Walk(spec.Sort, spec.Ascending, func(rec domain.Record) error {
		if spec.Type != "" && rec.Type != spec.Type {
			return nil
		}
		if spec.Rating != RatingAny && rec.Rating != spec.Rating {
			return nil
		}
		items = append(items, rec)
		return nil
	})
	if err != nil {
		e.logger.Error("index walk failed", "sort", spec.Sort, "error", err)
		return nil, fmt.Errorf("%w: %v", domain.ErrQueryFailed, err)
	}

	if strings.TrimSpace(spec.Search) != "" {
		items = search.Rank(items, spec.Search)
	}

	e.logger.Debug("query complete", "sort", spec.Sort, "ascending", spec.Ascending,
		"type", spec.Type, "rating", spec.Rating, "search", spec.Search, "results", len(items))
	return items, nil
}
