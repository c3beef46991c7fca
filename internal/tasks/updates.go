package tasks

import (
	"fmt"

	"github.com/desertthunder/tunebot/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the chat or TUI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	Resolving Phase = iota
	Fetching
	Complete
	Failed
)

func (p Phase) String() string {
	switch p {
	case Resolving:
		return "resolving"
	case Fetching:
		return "fetching"
	case Complete:
		return "complete"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func resolvingUpdate(track models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Resolving,
		Message: fmt.Sprintf("Resolving: %s - %s...", track.Artist, track.Title),
	}
}

func fetchingUpdate(track models.Track) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Fetching,
		Message: fmt.Sprintf("Downloading: %s - %s...", track.Artist, track.Title),
		Data:    track,
	}
}

func completeUpdate(track models.Track, file *models.MediaFile) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Message: fmt.Sprintf("Downloaded %s (%d bytes)", track.Title, file.Size),
		Data:    file,
	}
}

func failedUpdate(track models.Track, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Failed,
		Message: fmt.Sprintf("Download failed for %s: %v", track.Title, err),
	}
}
