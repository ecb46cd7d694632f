package render

import (
	"log/slog"

	"github.com/hsorel/shelf/internal/domain"
)

const (
	// PageSize is the fixed number of items rendered per page.
	PageSize = 32

	// scrollThreshold is how close to the bottom of rendered content,
	// in pixels, the viewport must be before the next page renders.
	scrollThreshold = 250
)

// Controller slices query results into pages and renders them
// incrementally onto a surface, extending the rendered set on
// scroll-driven triggers. Rendered items accumulate for the lifetime
// of the current result set; there is no virtualization.
type Controller struct {
	surface  domain.Surface
	logger   *slog.Logger
	pageSize int

	allItems    []domain.Record
	currentPage int
	isLoading   bool
}

func NewController(surface domain.Surface, logger *slog.Logger) *Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		surface:  surface,
		logger:   logger,
		pageSize: PageSize,
	}
}

// Reset replaces the result set and re-renders from the first page.
// Old and new result sets are never merged: the surface is cleared,
// scrolled back to the top, and repopulated.
func (c *Controller) Reset(items []domain.Record) {
	if c.isLoading {
		return
	}
	c.isLoading = true

	c.allItems = items
	c.currentPage = 0
	c.surface.Clear()
	c.surface.ScrollTop()
	c.RenderPage()
	c.surface.SetCount(len(items))

	c.isLoading = false
}

// RenderPage renders the current page and advances the page counter.
// An empty slice renders the empty-state message instead.
func (c *Controller) RenderPage() {
	start := c.currentPage * c.pageSize
	end := start + c.pageSize
	if end > len(c.allItems) {
		end = len(c.allItems)
	}
	if start >= end {
		c.surface.ShowEmpty()
		return
	}

	c.surface.AppendItems(c.allItems[start:end])
	c.currentPage++
	c.logger.Debug("rendered page", "page", c.currentPage, "items", end-start)
}

// HandleScroll extends the rendered set when the viewport is within
// the threshold of the bottom of rendered content. A trigger skipped
// while loading is not queued; it is recovered by the next scroll
// event.
func (c *Controller) HandleScroll(distanceFromBottom int) {
	if c.isLoading || !c.HasMorePages() {
		return
	}
	if distanceFromBottom > scrollThreshold {
		return
	}

	c.isLoading = true
	c.RenderPage()
	c.isLoading = false
}

// HasMorePages reports whether unrendered items remain.
func (c *Controller) HasMorePages() bool {
	return c.currentPage*c.pageSize < len(c.allItems)
}

// Total returns the size of the current result set.
func (c *Controller) Total() int {
	return len(c.allItems)
}
