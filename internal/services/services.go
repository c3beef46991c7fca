// package services defines provider adapters over the external catalogs
//
// Spotify (catalog metadata), yt-dlp extractor daemon (searchable, downloadable media)
package services

import (
	"context"

	"github.com/desertthunder/tunebot/internal/models"
)

// Provider defines the uniform search contract over an external music catalog.
type Provider interface {
	// Search queries the provider and returns up to limit tracks in the
	// provider's native order. Implementations enforce their own
	// availability flags and search-time filters.
	Search(ctx context.Context, query string, limit int) ([]models.Track, error)

	// Name returns the provider name (e.g. "Spotify", "YouTube")
	Name() string

	// Enabled reports whether the provider is configured and usable.
	// A disabled provider contributes zero results, never an error.
	Enabled() bool
}

// MediaProvider extends [Provider] with the ability to retrieve playable audio.
type MediaProvider interface {
	Provider

	// Fetch downloads the audio for the given source ref into durable local
	// storage scoped to userID and returns a handle to the file.
	// The transfer aborts mid-flight when the configured size cap is
	// exceeded; no partial file is left behind.
	Fetch(ctx context.Context, sourceRef string, userID int64) (*models.MediaFile, error)
}
