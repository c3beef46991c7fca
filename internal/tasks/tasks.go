// package tasks implements search aggregation and download orchestration.
//
// The core abstractions are SearchEngine, which fans a query out to the
// configured providers and merges results, and DownloadEngine, which resolves
// a selected track to playable audio on a bounded worker pool.
// Long-running operations emit progress updates via channels for non-blocking
// status reporting to the chat and TUI layers.
package tasks

import (
	"context"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/services"
	"github.com/desertthunder/tunebot/internal/shared"
)

// SourceFilter selects which providers participate in an aggregate search.
type SourceFilter int

const (
	AllSources   SourceFilter = iota // media provider first, then catalog
	MediaOnly                        // extractor daemon only
	CatalogOnly                      // Spotify only
)

func (f SourceFilter) String() string {
	switch f {
	case MediaOnly:
		return "youtube"
	case CatalogOnly:
		return "spotify"
	default:
		return "all"
	}
}

// SearchEngine fans a user query out to the enabled providers and merges the
// results in fixed provider priority order.
type SearchEngine struct {
	media   services.MediaProvider
	catalog services.Provider
	logger  *log.Logger
	timeout time.Duration
}

// NewSearchEngine creates a SearchEngine over the given providers.
//
// Either provider may be nil or disabled; it then contributes zero results.
func NewSearchEngine(media services.MediaProvider, catalog services.Provider, logger *log.Logger) *SearchEngine {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &SearchEngine{
		media:   media,
		catalog: catalog,
		logger:  logger,
		timeout: 20 * time.Second,
	}
}

// Aggregate queries the selected providers concurrently and concatenates
// their results: media-retrievable tracks first, catalog tracks second, each
// group in its provider's native order.
//
// A provider failure or timeout is logged and contributes nothing; an empty
// aggregate is a valid outcome, not an error. The query must be non-empty
// after whitespace normalization.
func (e *SearchEngine) Aggregate(ctx context.Context, query string, limit int, filter SourceFilter) ([]models.Track, error) {
	query = shared.NormalizeQuery(query)
	if query == "" {
		return nil, shared.ErrInvalidInput
	}
	if limit <= 0 {
		limit = 1
	}

	type contribution struct {
		provider services.Provider
		tracks   []models.Track
	}

	slots := []*contribution{}
	if filter != CatalogOnly && e.media != nil && e.media.Enabled() {
		slots = append(slots, &contribution{provider: e.media})
	}
	if filter != MediaOnly && e.catalog != nil && e.catalog.Enabled() {
		slots = append(slots, &contribution{provider: e.catalog})
	}

	var wg sync.WaitGroup
	for _, slot := range slots {
		wg.Add(1)
		go func(c *contribution) {
			defer wg.Done()

			searchCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			tracks, err := c.provider.Search(searchCtx, query, limit)
			if err != nil {
				e.logger.Warn("provider search failed", "provider", c.provider.Name(), "query", query, "error", err)
				return
			}
			c.tracks = tracks
		}(slot)
	}
	wg.Wait()

	var merged []models.Track
	for _, slot := range slots {
		merged = append(merged, slot.tracks...)
	}

	e.logger.Info("search aggregated", "query", query, "filter", filter.String(), "results", len(merged))
	return merged, nil
}
