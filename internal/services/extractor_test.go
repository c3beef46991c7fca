package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
)

const extractorSearchPayload = `[
	{
		"id": "abc123",
		"title": "Sunny Day (Official Video)",
		"uploader": "ArtistChannel",
		"url": "https://www.youtube.com/watch?v=abc123",
		"duration_seconds": 272,
		"view_count": 1200000,
		"thumbnail": "https://i.ytimg.com/vi/abc123/hq.jpg"
	},
	{
		"id": "tooLong1",
		"title": "Full Album Mix",
		"uploader": "MixChannel",
		"url": "https://www.youtube.com/watch?v=tooLong1",
		"duration_seconds": 3600,
		"view_count": 99,
		"thumbnail": ""
	}
]`

func TestExtractorService_Search(t *testing.T) {
	t.Run("maps results and drops over-long tracks", func(t *testing.T) {
		var gotQuery, gotLimit string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/search" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			gotQuery = r.URL.Query().Get("q")
			gotLimit = r.URL.Query().Get("limit")
			w.Header().Set("Content-Type", "application/json")
			fmt.Fprint(w, extractorSearchPayload)
		}))
		defer srv.Close()

		svc := NewExtractorService(ExtractorOpts{
			BaseURL:     srv.URL,
			MaxDuration: 600,
			RateLimit:   1000,
		})

		tracks, err := svc.Search(context.Background(), "sunny day", 5)
		if err != nil {
			t.Fatalf("search failed: %v", err)
		}

		if gotQuery != "sunny day" || gotLimit != "5" {
			t.Errorf("unexpected request: q=%q limit=%q", gotQuery, gotLimit)
		}
		if len(tracks) != 1 {
			t.Fatalf("over-long track should be dropped, got %d results", len(tracks))
		}

		track := tracks[0]
		if track.Provenance != models.MediaRetrievable {
			t.Errorf("extractor results must be media-retrievable, got %q", track.Provenance)
		}
		if track.SourceRef != "https://www.youtube.com/watch?v=abc123" {
			t.Errorf("unexpected source ref: %q", track.SourceRef)
		}
		if track.Artist != "ArtistChannel" || track.Popularity != 1200000 {
			t.Errorf("unexpected mapping: %+v", track)
		}
	})

	t.Run("daemon error detail is surfaced", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprint(w, `{"detail": "yt-dlp backend offline"}`)
		}))
		defer srv.Close()

		svc := NewExtractorService(ExtractorOpts{BaseURL: srv.URL, RateLimit: 1000})
		_, err := svc.Search(context.Background(), "anything", 5)
		if err == nil || !strings.Contains(err.Error(), "yt-dlp backend offline") {
			t.Errorf("expected daemon detail in error, got %v", err)
		}
	})
}

func TestExtractorService_Fetch(t *testing.T) {
	t.Run("streams audio to a user-scoped file", func(t *testing.T) {
		audio := []byte("not really mp3 bytes")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/audio" {
				t.Errorf("unexpected path %q", r.URL.Path)
			}
			if got := r.URL.Query().Get("bitrate"); got != "192" {
				t.Errorf("unexpected bitrate %q", got)
			}
			w.Header().Set("Content-Type", "audio/mpeg")
			w.Write(audio)
		}))
		defer srv.Close()

		dir := t.TempDir()
		svc := NewExtractorService(ExtractorOpts{
			BaseURL:     srv.URL,
			DownloadDir: dir,
			MaxBytes:    1 << 20,
			RateLimit:   1000,
		})

		file, err := svc.Fetch(context.Background(), "https://www.youtube.com/watch?v=abc123", 42)
		if err != nil {
			t.Fatalf("fetch failed: %v", err)
		}

		if file.Size != int64(len(audio)) {
			t.Errorf("expected size %d, got %d", len(audio), file.Size)
		}
		if file.Mime != "audio/mpeg" {
			t.Errorf("unexpected mime %q", file.Mime)
		}
		if !strings.HasPrefix(filepath.Base(file.Path), "42_") {
			t.Errorf("file name should carry the user id: %q", file.Path)
		}

		content, err := os.ReadFile(file.Path)
		if err != nil {
			t.Fatalf("failed to read downloaded file: %v", err)
		}
		if string(content) != string(audio) {
			t.Error("downloaded content mismatch")
		}
	})

	t.Run("aborts transfers exceeding the size cap", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(make([]byte, 4096))
		}))
		defer srv.Close()

		dir := t.TempDir()
		svc := NewExtractorService(ExtractorOpts{
			BaseURL:     srv.URL,
			DownloadDir: dir,
			MaxBytes:    1024,
			RateLimit:   1000,
		})

		_, err := svc.Fetch(context.Background(), "https://www.youtube.com/watch?v=big", 42)
		if !errors.Is(err, shared.ErrFileTooLarge) {
			t.Fatalf("expected ErrFileTooLarge, got %v", err)
		}

		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("failed to read download dir: %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("partial file should be removed, found %d entries", len(entries))
		}
	})

	t.Run("fetch failure leaves no file behind", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"detail": "video unavailable"}`)
		}))
		defer srv.Close()

		dir := t.TempDir()
		svc := NewExtractorService(ExtractorOpts{BaseURL: srv.URL, DownloadDir: dir, RateLimit: 1000})

		if _, err := svc.Fetch(context.Background(), "https://www.youtube.com/watch?v=gone", 42); err == nil {
			t.Fatal("expected error for 404 response")
		}

		entries, _ := os.ReadDir(dir)
		if len(entries) != 0 {
			t.Errorf("no file should exist after a failed fetch, found %d", len(entries))
		}
	})
}

func TestMapExtractorTrack(t *testing.T) {
	t.Run("derives watch URL from id when url missing", func(t *testing.T) {
		track := mapExtractorTrack(ExtractorTrack{ID: "xyz", Title: "T", DurationSec: 100})
		if track.SourceRef != "https://www.youtube.com/watch?v=xyz" {
			t.Errorf("unexpected source ref %q", track.SourceRef)
		}
	})
}
