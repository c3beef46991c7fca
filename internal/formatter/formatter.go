// package formatter renders search results, selection buttons, and history
// listings as presentable chat output
package formatter

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
)

// MaxButtons caps the number of selectable results per message.
//
// Result sets beyond this length are still cached in full; multi-page
// browsing is deliberately not offered.
const MaxButtons = 10

// selectionPrefix is the wire prefix for selection tokens ("download_<index>").
const selectionPrefix = "download_"

// Button is one selectable result presented to the user.
type Button struct {
	Label string
	Token string // Opaque selection token; the suffix is the cache slot index
}

// FormatResults renders an ordered track list as numbered display text.
//
// Each entry shows the provenance marker, title, artist, duration, and the
// provider's native popularity signal (view count or popularity score).
func FormatResults(tracks []models.Track) string {
	if len(tracks) == 0 {
		return "Nothing found. Try a different query."
	}

	var buf bytes.Buffer
	buf.WriteString("Search results:\n\n")

	for i, track := range tracks {
		if i >= MaxButtons {
			break
		}

		buf.WriteString(fmt.Sprintf("%d. %s %s\n", i+1, provenanceMarker(track.Provenance), track.Title))
		buf.WriteString(fmt.Sprintf("   %s | %s\n", track.Artist, shared.FormatDuration(track.Duration)))

		switch {
		case track.Provenance == models.MediaRetrievable && track.Popularity > 0:
			buf.WriteString(fmt.Sprintf("   %d views\n", track.Popularity))
		case track.Provenance == models.CatalogOnly && track.Popularity > 0:
			buf.WriteString(fmt.Sprintf("   popularity %d/100\n", track.Popularity))
		}

		buf.WriteString("\n")
	}

	return buf.String()
}

// ResultButtons builds one selection button per displayed result.
//
// The token's integer suffix is exactly the cache slot index of the result.
func ResultButtons(tracks []models.Track) []Button {
	count := len(tracks)
	if count > MaxButtons {
		count = MaxButtons
	}

	buttons := make([]Button, 0, count)
	for i := 0; i < count; i++ {
		buttons = append(buttons, Button{
			Label: fmt.Sprintf("%d. %s", i+1, truncate(tracks[i].Title, 25)),
			Token: fmt.Sprintf("%s%d", selectionPrefix, i),
		})
	}

	return buttons
}

// ParseSelectionToken extracts the slot index from a "download_<index>" token.
func ParseSelectionToken(token string) (int, error) {
	suffix, ok := strings.CutPrefix(token, selectionPrefix)
	if !ok {
		return 0, fmt.Errorf("%w: unknown token %q", shared.ErrInvalidArgument, token)
	}

	index, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, fmt.Errorf("%w: malformed token %q", shared.ErrInvalidArgument, token)
	}

	return index, nil
}

// FormatHistory renders the user's recent downloads, newest first.
func FormatHistory(records []*models.HistoryRecord) string {
	if len(records) == 0 {
		return "No downloads yet."
	}

	var buf bytes.Buffer
	buf.WriteString("Recent downloads:\n\n")

	for i, record := range records {
		buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, record.Title))
		if record.Artist != "" {
			buf.WriteString(fmt.Sprintf("   %s\n", record.Artist))
		}
		buf.WriteString(fmt.Sprintf("   %s\n\n", record.DownloadedAt.Format("2006-01-02 15:04")))
	}

	return buf.String()
}

// FormatCaption renders the delivery caption for a downloaded track.
func FormatCaption(track models.Track, file *models.MediaFile) string {
	caption := fmt.Sprintf("%s - %s (%s)", track.Artist, track.Title, shared.FormatDuration(track.Duration))
	if file != nil && file.Size > 0 {
		caption += fmt.Sprintf(", %s", shared.FormatSize(file.Size))
	}
	return caption
}

// provenanceMarker returns the display marker for a track's origin.
func provenanceMarker(p models.Provenance) string {
	if p.Retrievable() {
		return "[YT]"
	}
	return "[SP]"
}

// truncate shortens s to at most n runes, appending an ellipsis when cut.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
