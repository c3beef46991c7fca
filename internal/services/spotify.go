// Spotify API implementation of [Provider]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyImage represents an image resource.
type SpotifyImage struct {
	URL    string `json:"url"`
	Height int    `json:"height"`
	Width  int    `json:"width"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Images []SpotifyImage `json:"images"`
}

type externalURLs struct {
	Spotify string `json:"spotify"`
}

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Artists      []SpotifyArtist `json:"artists"`
	Album        SpotifyAlbum    `json:"album"`
	DurationMS   int             `json:"duration_ms"`
	ExternalURLs externalURLs    `json:"external_urls"`
	Popularity   int             `json:"popularity"`
}

// SpotifySearchResponse represents the /search endpoint payload for type=track.
type SpotifySearchResponse struct {
	Tracks struct {
		Items []SpotifyTrack `json:"items"`
	} `json:"tracks"`
}

// SpotifyService implements [Provider] for the Spotify Web API.
//
// Authentication uses the client-credentials flow via [clientcredentials.Config];
// the oauth2 transport refreshes the app token transparently. The service is
// catalog-only: every result is tagged [models.CatalogOnly] with a translation
// hint for the media provider.
type SpotifyService struct {
	httpClient *http.Client
	baseURL    string
	enabled    bool
}

// NewSpotifyService creates a new Spotify service from client credentials.
//
// When either credential is empty the service is disabled and every search
// contributes zero results.
func NewSpotifyService(clientID, clientSecret string) *SpotifyService {
	svc := &SpotifyService{baseURL: spotifyBaseURL}

	if clientID == "" || clientSecret == "" {
		svc.httpClient = http.DefaultClient
		return svc
	}

	config := &clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     spotifyTokenURL,
	}

	svc.httpClient = config.Client(context.Background())
	svc.httpClient.Timeout = 15 * time.Second
	svc.enabled = true
	return svc
}

// Name returns the provider name.
func (s *SpotifyService) Name() string {
	return "Spotify"
}

// Enabled reports whether credentials were configured.
func (s *SpotifyService) Enabled() bool {
	return s.enabled
}

// Search queries the Spotify catalog for tracks matching the query.
//
// Results are returned in Spotify's native order, mapped to catalog-only
// [models.Track] values with a "<artists> - <title>" translation hint.
func (s *SpotifyService) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	if !s.enabled {
		return nil, fmt.Errorf("%w: Spotify credentials not configured", shared.ErrProviderUnavailable)
	}
	if limit <= 0 {
		limit = 5
	}

	endpoint := fmt.Sprintf("%s/search?q=%s&type=track&limit=%d", s.baseURL, url.QueryEscape(query), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("spotify API error: status %d", resp.StatusCode)
	}

	var response SpotifySearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	tracks := make([]models.Track, 0, len(response.Tracks.Items))
	for _, item := range response.Tracks.Items {
		tracks = append(tracks, mapSpotifyTrack(item))
	}

	return tracks, nil
}

// mapSpotifyTrack converts a [SpotifyTrack] to a catalog-only [models.Track].
func mapSpotifyTrack(item SpotifyTrack) models.Track {
	names := make([]string, 0, len(item.Artists))
	for _, artist := range item.Artists {
		names = append(names, artist.Name)
	}
	artist := strings.Join(names, ", ")

	var thumbnail string
	if len(item.Album.Images) > 0 {
		thumbnail = item.Album.Images[0].URL
	}

	return models.Track{
		Title:           item.Name,
		Artist:          artist,
		Album:           item.Album.Name,
		Duration:        item.DurationMS / 1000,
		Provenance:      models.CatalogOnly,
		SourceRef:       item.ExternalURLs.Spotify,
		TranslationHint: fmt.Sprintf("%s - %s", artist, item.Name),
		Popularity:      item.Popularity,
		Thumbnail:       thumbnail,
	}
}
