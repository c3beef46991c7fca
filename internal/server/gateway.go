package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/desertthunder/tunebot/internal/bot"
	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
)

// GatewayTransport delivers outbound messages to the chat gateway over HTTP.
// Implements [bot.Transport].
type GatewayTransport struct {
	baseURL string
	secret  string
	client  *http.Client
}

// NewGatewayTransport creates a transport posting to the gateway at baseURL.
func NewGatewayTransport(baseURL, secret string, client *http.Client) *GatewayTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &GatewayTransport{baseURL: baseURL, secret: secret, client: client}
}

type outboundText struct {
	ConversationID int64  `json:"conversation_id"`
	Text           string `json:"text"`
}

type outboundResults struct {
	ConversationID int64            `json:"conversation_id"`
	Text           string           `json:"text"`
	Buttons        []outboundButton `json:"buttons"`
}

type outboundButton struct {
	Label string `json:"label"`
	Token string `json:"token"`
}

// SendText delivers a plain text message.
func (t *GatewayTransport) SendText(ctx context.Context, conversationID int64, text string) error {
	return t.postJSON(ctx, "/sendText", outboundText{ConversationID: conversationID, Text: text})
}

// SendResults delivers a result list with its selection buttons.
func (t *GatewayTransport) SendResults(ctx context.Context, conversationID int64, list bot.ResultList) error {
	payload := outboundResults{
		ConversationID: conversationID,
		Text:           list.Text,
		Buttons:        make([]outboundButton, 0, len(list.Buttons)),
	}
	for _, button := range list.Buttons {
		payload.Buttons = append(payload.Buttons, outboundButton{Label: button.Label, Token: button.Token})
	}
	return t.postJSON(ctx, "/sendResults", payload)
}

// SendAudio uploads the media file as multipart form data.
//
// The file is removed after the attempt regardless of outcome; the gateway
// has either taken the bytes or the delivery failed, and either way the
// local copy is done.
func (t *GatewayTransport) SendAudio(ctx context.Context, conversationID int64, track models.Track, file *models.MediaFile, caption string) error {
	defer file.Cleanup()

	src, err := os.Open(file.Path)
	if err != nil {
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer src.Close()

	// The form body streams through a pipe, so the file is never held in
	// memory in full while uploading.
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	go func() {
		err := writeAudioForm(writer, conversationID, track, caption, filepath.Base(file.Path), src)
		if cerr := writer.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/sendAudio", pr)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	return t.do(req)
}

// writeAudioForm writes the upload's metadata fields and the audio part.
func writeAudioForm(writer *multipart.Writer, conversationID int64, track models.Track, caption, filename string, src io.Reader) error {
	_ = writer.WriteField("conversation_id", fmt.Sprintf("%d", conversationID))
	_ = writer.WriteField("caption", caption)
	_ = writer.WriteField("title", track.Title)
	_ = writer.WriteField("artist", track.Artist)

	part, err := writer.CreateFormFile("audio", filename)
	if err != nil {
		return fmt.Errorf("failed to build upload: %w", err)
	}
	if _, err := io.Copy(part, src); err != nil {
		return fmt.Errorf("failed to read media file: %w", err)
	}
	return nil
}

func (t *GatewayTransport) postJSON(ctx context.Context, path string, payload any) error {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+path, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	return t.do(req)
}

func (t *GatewayTransport) do(req *http.Request) error {
	if t.secret != "" {
		req.Header.Set("X-Gateway-Secret", t.secret)
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("%w: gateway returned %d", shared.ErrProviderUnavailable, resp.StatusCode)
	}

	io.Copy(io.Discard, resp.Body)
	return nil
}
