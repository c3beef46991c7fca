// Package tasks orchestrates the two long-running operations of the bot:
// aggregate search and media retrieval.
//
// # Search Aggregation
//
// [SearchEngine.Aggregate] fans a normalized query out to the enabled
// providers concurrently and concatenates the contributions in fixed
// priority order: the media-retrievable provider first, the catalog
// provider second, no cross-provider interleaving or re-ranking.
// A provider error, timeout, or disabled flag yields an empty contribution
// and a warning log, never an aborted aggregate.
//
// # Download Orchestration
//
// [DownloadEngine] owns the only true concurrency seam in the system: the
// bounded worker pool that runs resolutions and fetches off the
// conversational dispatch path. [DownloadEngine.Submit] enqueues a job and
// hands back a single-use result channel; the dispatcher awaits it in its
// own conversation goroutine.
//
// Catalog-only tracks are translated before fetching: a single-result search
// against the media provider using [models.Track.Hint]. Zero candidates fail
// with [shared.ErrNoMatchFound]; every adapter failure, including a
// mid-transfer size abort, is wrapped in [shared.ErrRetrievalFailed].
// No operation retries automatically; each failure is terminal for that
// attempt.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains the phase, a display message, and
// optional data for advanced UI rendering. Updates use select with default
// to prevent blocking.
package tasks
