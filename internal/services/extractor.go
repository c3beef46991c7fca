// yt-dlp extractor daemon [MediaProvider] implementation
//
// Communicates with the extractor daemon, a thin HTTP wrapper around yt-dlp
// that exposes flat search and audio extraction at a fixed target bitrate.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
	"golang.org/x/time/rate"
)

const defaultExtractorURL string = "http://localhost:8080"

// ExtractorTrack represents a search hit from the extractor daemon.
type ExtractorTrack struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Uploader    string `json:"uploader"`
	URL         string `json:"url"`
	DurationSec int    `json:"duration_seconds"`
	ViewCount   int    `json:"view_count"`
	Thumbnail   string `json:"thumbnail"`
}

// ExtractorOpts contains configuration for creating an [ExtractorService].
type ExtractorOpts struct {
	BaseURL      string        // Daemon base URL (default: http://localhost:8080)
	DownloadDir  string        // Directory for fetched audio files
	MaxDuration  int           // Search-time duration filter in seconds (0 = no filter)
	MaxBytes     int64         // Transfer-time size cap in bytes (0 = no cap)
	Bitrate      int           // Target bitrate in kbps (default: 192)
	RateLimit    float64       // Requests per second against the daemon (default: 5)
	SearchWindow time.Duration // Per-search timeout (default: 15s)
	FetchWindow  time.Duration // Per-download timeout (default: 5m)
}

// ExtractorService implements [MediaProvider] against the extractor daemon.
//
// Search applies the duration filter before results leave the adapter, so
// over-long tracks never reach the aggregator. Fetch streams the audio to a
// user-scoped file and aborts mid-transfer once the size cap is exceeded.
type ExtractorService struct {
	baseURL      string
	httpClient   *http.Client
	limiter      *rate.Limiter
	downloadDir  string
	maxDuration  int
	maxBytes     int64
	bitrate      int
	searchWindow time.Duration
	fetchWindow  time.Duration
}

// NewExtractorService creates a new extractor daemon client.
func NewExtractorService(opts ExtractorOpts) *ExtractorService {
	if opts.BaseURL == "" {
		opts.BaseURL = defaultExtractorURL
	}
	if opts.Bitrate <= 0 {
		opts.Bitrate = 192
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 5.0
	}
	if opts.SearchWindow <= 0 {
		opts.SearchWindow = 15 * time.Second
	}
	if opts.FetchWindow <= 0 {
		opts.FetchWindow = 5 * time.Minute
	}

	return &ExtractorService{
		baseURL:      opts.BaseURL,
		httpClient:   &http.Client{},
		limiter:      rate.NewLimiter(rate.Limit(opts.RateLimit), 1),
		downloadDir:  opts.DownloadDir,
		maxDuration:  opts.MaxDuration,
		maxBytes:     opts.MaxBytes,
		bitrate:      opts.Bitrate,
		searchWindow: opts.SearchWindow,
		fetchWindow:  opts.FetchWindow,
	}
}

// Name returns the provider name.
func (e *ExtractorService) Name() string {
	return "YouTube"
}

// Enabled always reports true; the daemon needs no credentials.
func (e *ExtractorService) Enabled() bool {
	return true
}

// Search queries the extractor daemon for tracks matching the query.
//
// Calls GET /api/search on the daemon. Tracks longer than the configured
// maximum duration are dropped here, not downstream, because only this
// provider's native metadata is reliable at search time.
func (e *ExtractorService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if limit <= 0 {
		limit = 5
	}

	ctx, cancel := context.WithTimeout(ctx, e.searchWindow)
	defer cancel()

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("/api/search?q=%s&limit=%d", url.QueryEscape(query), limit)

	var results []ExtractorTrack
	if err := e.doRequest(ctx, endpoint, &results); err != nil {
		return nil, err
	}

	tracks := make([]models.Track, 0, len(results))
	for _, entry := range results {
		if e.maxDuration > 0 && entry.DurationSec > e.maxDuration {
			continue
		}
		tracks = append(tracks, mapExtractorTrack(entry))
	}

	return tracks, nil
}

// Fetch downloads the audio for sourceRef into the download directory.
//
// Calls GET /api/audio on the daemon and streams the body to
// "<downloadDir>/<userID>_<uuid>.mp3". The copy is capped at the configured
// maximum size; exceeding it removes the partial file and fails with
// [shared.ErrFileTooLarge].
func (e *ExtractorService) Fetch(ctx context.Context, sourceRef string, userID int64) (*models.MediaFile, error) {
	ctx, cancel := context.WithTimeout(ctx, e.fetchWindow)
	defer cancel()

	if err := e.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	endpoint := fmt.Sprintf("%s/api/audio?url=%s&bitrate=%d", e.baseURL, url.QueryEscape(sourceRef), e.bitrate)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, e.errorFromResponse(resp)
	}

	if err := os.MkdirAll(e.downloadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create download directory: %w", err)
	}

	path := filepath.Join(e.downloadDir, fmt.Sprintf("%d_%s.mp3", userID, shared.GenerateID()))

	out, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	reader := io.Reader(resp.Body)
	if e.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, e.maxBytes+1)
	}

	written, err := io.Copy(out, reader)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("transfer failed: %w", err)
	}
	if e.maxBytes > 0 && written > e.maxBytes {
		os.Remove(path)
		return nil, fmt.Errorf("%w: aborted after %d bytes", shared.ErrFileTooLarge, written)
	}

	mime := resp.Header.Get("Content-Type")
	if mime == "" {
		mime = "audio/mpeg"
	}

	return &models.MediaFile{Path: path, Size: written, Mime: mime}, nil
}

// doRequest performs a GET against the daemon and decodes the JSON response.
func (e *ExtractorService) doRequest(ctx context.Context, endpoint string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.baseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return e.errorFromResponse(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// errorFromResponse extracts the daemon's error detail when present.
func (e *ExtractorService) errorFromResponse(resp *http.Response) error {
	var errResp struct {
		Detail string `json:"detail"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
		return fmt.Errorf("extractor error (status %d): %s", resp.StatusCode, errResp.Detail)
	}
	return fmt.Errorf("extractor error: status %d", resp.StatusCode)
}

// mapExtractorTrack converts an [ExtractorTrack] to a media-retrievable [models.Track].
func mapExtractorTrack(entry ExtractorTrack) models.Track {
	sourceRef := entry.URL
	if sourceRef == "" {
		sourceRef = fmt.Sprintf("https://www.youtube.com/watch?v=%s", entry.ID)
	}

	return models.Track{
		Title:      entry.Title,
		Artist:     entry.Uploader,
		Duration:   entry.DurationSec,
		Provenance: models.MediaRetrievable,
		SourceRef:  sourceRef,
		Popularity: entry.ViewCount,
		Thumbnail:  entry.Thumbnail,
	}
}
