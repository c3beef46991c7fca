// package models defines the data model for the music search & download bot
package models

import (
	"fmt"
	"os"
	"time"
)

// Provenance tags a [Track] with the kind of provider that produced it.
//
// Catalog tracks carry metadata only and must be translated into a media
// query before they can be downloaded. Media tracks point at directly
// retrievable sources.
type Provenance string

const (
	CatalogOnly      Provenance = "catalog"
	MediaRetrievable Provenance = "media"
)

// Retrievable reports whether a track with this provenance can be fetched directly.
func (p Provenance) Retrievable() bool {
	return p == MediaRetrievable
}

// Track represents a single search result from any provider.
//
// Tracks are immutable once produced by an adapter.
type Track struct {
	Title           string
	Artist          string
	Album           string
	Duration        int // Duration in seconds
	Provenance      Provenance
	SourceRef       string // Provider-specific identifier or URL
	TranslationHint string // Precomposed media-provider query for catalog tracks
	Popularity      int    // Spotify popularity or YouTube view count
	Thumbnail       string
}

// Hint returns the media-provider query for this track, deriving
// "<artist> - <title>" when the adapter supplied none.
func (t Track) Hint() string {
	if t.TranslationHint != "" {
		return t.TranslationHint
	}
	return fmt.Sprintf("%s - %s", t.Artist, t.Title)
}

// Validate checks the track invariants, in particular that catalog tracks
// carry a usable translation hint.
func (t Track) Validate() error {
	if t.Title == "" {
		return fmt.Errorf("track title is required")
	}
	if t.Duration < 0 {
		return fmt.Errorf("track duration must be non-negative")
	}
	switch t.Provenance {
	case CatalogOnly:
		if t.Hint() == " - " {
			return fmt.Errorf("catalog track needs a translation hint")
		}
	case MediaRetrievable:
		if t.SourceRef == "" {
			return fmt.Errorf("media track needs a source ref")
		}
	default:
		return fmt.Errorf("unknown provenance %q", t.Provenance)
	}
	return nil
}

// MediaFile is a transient handle to a downloaded audio file.
//
// The download engine owns the file from creation until it is handed to the
// delivery layer, which removes it after the send completes (or fails).
type MediaFile struct {
	Path string
	Size int64  // Size in bytes
	Mime string // e.g. "audio/mpeg"
}

// Cleanup removes the underlying file. Safe to call on an already-removed file.
func (m *MediaFile) Cleanup() error {
	if m == nil || m.Path == "" {
		return nil
	}
	if err := os.Remove(m.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// HistoryRecord is an append-only row describing one completed retrieval.
type HistoryRecord struct {
	ID           string
	Sequence     int
	UserID       int64
	Title        string
	Artist       string
	Provenance   Provenance
	SourceRef    string
	Duration     int
	FileSize     int64 // 0 when unknown
	DownloadedAt time.Time
}

// Validate checks if the record's data is valid and returns an error if not
func (h *HistoryRecord) Validate() error {
	if h.UserID == 0 {
		return fmt.Errorf("history record needs a user id")
	}
	if h.Title == "" {
		return fmt.Errorf("history record needs a title")
	}
	return nil
}

// UserProfile is the persisted per-user row, upserted on every contact.
type UserProfile struct {
	ID           string
	Sequence     int
	UserID       int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
	CreatedAt    time.Time
	LastActiveAt time.Time
}

// Validate checks if the profile's data is valid and returns an error if not
func (u *UserProfile) Validate() error {
	if u.UserID == 0 {
		return fmt.Errorf("user profile needs a user id")
	}
	return nil
}

// HistoryStore defines the persistence contract for download history.
//
// Implementations append rows and answer the "most recent N for user"
// query backing the /history surface.
type HistoryStore interface {
	Create(record *HistoryRecord) error
	RecentByUser(userID int64, limit int) ([]*HistoryRecord, error)
}

// UserStore defines the persistence contract for user profiles.
type UserStore interface {
	Upsert(profile *UserProfile) error
	Get(userID int64) (*UserProfile, error)
}
