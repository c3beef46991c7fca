package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/tunebot/internal/models"
	tu "github.com/desertthunder/tunebot/internal/testing"
)

func TestGet(t *testing.T) {
	track := models.Track{
		Title:      "Sunny Day",
		Artist:     "Artist",
		Duration:   272,
		Provenance: models.MediaRetrievable,
		SourceRef:  "https://www.youtube.com/watch?v=yt-1",
	}

	t.Run("records history for a delivered download", func(t *testing.T) {
		file := tu.TempAudioFile(t, 2048)
		media := &tu.MockMediaProvider{
			MockProvider: tu.MockProvider{ProviderName: "youtube", Tracks: []models.Track{track}},
			File:         file,
		}
		history := &tu.MemoryHistory{}
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Media: media, History: history, Output: output})
		defer runner.downloads.Close()

		cmd := getCommand(runner)
		if err := cmd.Run(context.Background(), []string{"get", "--source", "youtube", "Sunny Day"}); err != nil {
			t.Fatalf("get failed: %v", err)
		}

		if !strings.Contains(output.String(), "✓ Downloaded Artist - Sunny Day") {
			t.Errorf("unexpected output: %s", output.String())
		}
		if len(history.Records) != 1 {
			t.Fatalf("expected one history record, got %d", len(history.Records))
		}

		record := history.Records[0]
		if record.UserID != localUserID {
			t.Errorf("expected local user id %d, got %d", localUserID, record.UserID)
		}
		if record.Title != "Sunny Day" || record.FileSize != 2048 {
			t.Errorf("unexpected record: %+v", record)
		}
		if record.Provenance != models.MediaRetrievable {
			t.Errorf("record should keep the selected track's provenance, got %v", record.Provenance)
		}
	})

	t.Run("failed retrieval records nothing", func(t *testing.T) {
		media := &tu.MockMediaProvider{
			MockProvider: tu.MockProvider{ProviderName: "youtube", Tracks: []models.Track{track}},
			FetchErr:     errors.New("daemon offline"),
		}
		history := &tu.MemoryHistory{}
		runner := NewRunner(RunnerOpts{Media: media, History: history, Output: &bytes.Buffer{}})
		defer runner.downloads.Close()

		cmd := getCommand(runner)
		if err := cmd.Run(context.Background(), []string{"get", "--source", "youtube", "Sunny Day"}); err == nil {
			t.Fatal("expected the download failure to surface")
		}

		if len(history.Records) != 0 {
			t.Errorf("failed download must not be recorded, got %d records", len(history.Records))
		}
	})

	t.Run("empty query fails", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &bytes.Buffer{}})
		defer runner.downloads.Close()

		cmd := getCommand(runner)
		if err := cmd.Run(context.Background(), []string{"get", "   "}); err == nil {
			t.Error("expected error for blank query")
		}
	})
}
