package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/services"
	"github.com/desertthunder/tunebot/internal/shared"
)

// DownloadResult carries the outcome of one retrieval.
type DownloadResult struct {
	File     *models.MediaFile // Downloaded audio (nil on failure)
	Resolved models.Track      // Media-retrievable track actually fetched
	Err      error
}

// DownloadEngine resolves a selected track to playable audio.
//
// Catalog-only tracks are first translated into a single-result media search
// using their hint; the matched media track is then fetched. All work runs on
// a bounded worker pool so the conversational dispatcher never blocks on the
// extraction itself; callers await the result channel returned by Submit.
type DownloadEngine struct {
	media  services.MediaProvider
	logger *log.Logger
	jobs   chan downloadJob
	done   chan struct{}

	mu     sync.Mutex
	closed bool
}

type downloadJob struct {
	ctx      context.Context
	track    models.Track
	userID   int64
	progress chan<- ProgressUpdate
	result   chan DownloadResult
}

// NewDownloadEngine creates a DownloadEngine backed by the given media
// provider and starts its worker pool.
func NewDownloadEngine(media services.MediaProvider, workers int, logger *log.Logger) *DownloadEngine {
	if workers <= 0 {
		workers = 3
	}
	if workers > 10 {
		workers = 10
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	e := &DownloadEngine{
		media:  media,
		logger: logger,
		jobs:   make(chan downloadJob, workers*4),
		done:   make(chan struct{}),
	}

	for i := 0; i < workers; i++ {
		go e.worker()
	}

	return e
}

// Submit enqueues a retrieval and returns a channel that receives exactly one
// [DownloadResult]. The caller awaits without occupying a worker slot.
func (e *DownloadEngine) Submit(ctx context.Context, track models.Track, userID int64, progress chan<- ProgressUpdate) <-chan DownloadResult {
	result := make(chan DownloadResult, 1)

	job := downloadJob{ctx: ctx, track: track, userID: userID, progress: progress, result: result}

	// Enqueue under the lock: the jobs channel is buffered, and without the
	// lock a Close could land between the closed check and the send, leaving
	// the job stranded in the buffer with no workers left to answer it.
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		result <- DownloadResult{Err: fmt.Errorf("%w: download engine closed", shared.ErrRetrievalFailed)}
		return result
	}

	select {
	case e.jobs <- job:
		e.mu.Unlock()
	case <-ctx.Done():
		e.mu.Unlock()
		result <- DownloadResult{Err: fmt.Errorf("%w: %v", shared.ErrRetrievalFailed, ctx.Err())}
	}

	return result
}

// Retrieve performs the full resolve-and-fetch synchronously on the calling
// goroutine. Submit runs this on the pool; CLI one-shot commands call it
// directly.
func (e *DownloadEngine) Retrieve(ctx context.Context, track models.Track, userID int64) (*models.MediaFile, models.Track, error) {
	resolved, err := e.resolve(ctx, track)
	if err != nil {
		return nil, track, err
	}

	file, err := e.media.Fetch(ctx, resolved.SourceRef, userID)
	if err != nil {
		return nil, resolved, fmt.Errorf("%w: %w", shared.ErrRetrievalFailed, err)
	}

	e.logger.Info("retrieval complete", "title", resolved.Title, "user", userID, "size", file.Size)
	return file, resolved, nil
}

// Close stops the worker pool. Jobs already queued or in flight run to
// completion; later Submits fail immediately.
func (e *DownloadEngine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	close(e.done)
}

// resolve translates a track into a media-retrievable one.
//
// Media tracks pass through unchanged. Catalog tracks issue a single-result
// search against the media provider using the translation hint; an empty
// answer fails with [shared.ErrNoMatchFound].
func (e *DownloadEngine) resolve(ctx context.Context, track models.Track) (models.Track, error) {
	if track.Provenance.Retrievable() {
		return track, nil
	}

	hint := track.Hint()
	e.logger.Debug("translating catalog track", "hint", hint)

	candidates, err := e.media.Search(ctx, hint, 1)
	if err != nil {
		return models.Track{}, fmt.Errorf("%w: translation search: %v", shared.ErrRetrievalFailed, err)
	}
	if len(candidates) == 0 {
		return models.Track{}, fmt.Errorf("%w for %q", shared.ErrNoMatchFound, hint)
	}

	return candidates[0], nil
}

func (e *DownloadEngine) worker() {
	for {
		select {
		case <-e.done:
			// Drain anything already queued so no caller is left awaiting
			// a result that never arrives.
			for {
				select {
				case job := <-e.jobs:
					e.run(job)
				default:
					return
				}
			}
		case job := <-e.jobs:
			e.run(job)
		}
	}
}

func (e *DownloadEngine) run(job downloadJob) {
	sendProgress(job.progress, resolvingUpdate(job.track))

	resolved, err := e.resolve(job.ctx, job.track)
	if err != nil {
		e.logger.Warn("resolution failed", "title", job.track.Title, "error", err)
		sendProgress(job.progress, failedUpdate(job.track, err))
		job.result <- DownloadResult{Resolved: job.track, Err: err}
		return
	}

	sendProgress(job.progress, fetchingUpdate(resolved))

	file, err := e.media.Fetch(job.ctx, resolved.SourceRef, job.userID)
	if err != nil {
		err = fmt.Errorf("%w: %w", shared.ErrRetrievalFailed, err)
		e.logger.Warn("fetch failed", "title", resolved.Title, "error", err)
		sendProgress(job.progress, failedUpdate(resolved, err))
		job.result <- DownloadResult{Resolved: resolved, Err: err}
		return
	}

	e.logger.Info("retrieval complete", "title", resolved.Title, "user", job.userID, "size", file.Size)
	sendProgress(job.progress, completeUpdate(resolved, file))
	job.result <- DownloadResult{File: file, Resolved: resolved}
}

// IsTerminalFailure reports whether the error represents a failure the user
// must re-initiate from (no automatic retries exist in this engine).
func IsTerminalFailure(err error) bool {
	return errors.Is(err, shared.ErrNoMatchFound) || errors.Is(err, shared.ErrRetrievalFailed)
}
