package bot

import (
	"context"

	"github.com/desertthunder/tunebot/internal/formatter"
	"github.com/desertthunder/tunebot/internal/models"
)

// User identifies the chat user behind an inbound event.
type User struct {
	ID           int64
	Username     string
	FirstName    string
	LastName     string
	LanguageCode string
}

// Event is one inbound chat event: a text message/command or a button press.
type Event struct {
	ConversationID int64
	User           User
	Text           string // Message text; commands start with '/'
	SelectionToken string // Non-empty for button presses ("download_<index>")
}

// ResultList is a presentable search result message: ordered display text
// plus one selection button per result.
type ResultList struct {
	Text    string
	Buttons []formatter.Button
}

// Transport is the chat delivery boundary.
//
// The dispatcher never talks to a chat network directly; implementations
// (webhook server, TUI) render and deliver the outbound payloads.
// SendAudio takes ownership of the media file and removes it after the send,
// whether or not the send succeeded.
type Transport interface {
	SendText(ctx context.Context, conversationID int64, text string) error
	SendResults(ctx context.Context, conversationID int64, list ResultList) error
	SendAudio(ctx context.Context, conversationID int64, track models.Track, file *models.MediaFile, caption string) error
}
