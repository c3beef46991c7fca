package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebot/internal/bot"
)

// Update is the inbound webhook payload from the chat gateway.
//
// Exactly one of Message or Callback is set per update.
type Update struct {
	ConversationID int64        `json:"conversation_id"`
	User           UpdateUser   `json:"user"`
	Message        *UpdateText  `json:"message,omitempty"`
	Callback       *UpdateToken `json:"callback,omitempty"`
}

// UpdateUser identifies the sender of an update.
type UpdateUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username,omitempty"`
	FirstName    string `json:"first_name,omitempty"`
	LastName     string `json:"last_name,omitempty"`
	LanguageCode string `json:"language_code,omitempty"`
}

// UpdateText carries a text message or slash command.
type UpdateText struct {
	Text string `json:"text"`
}

// UpdateToken carries a button press's selection token.
type UpdateToken struct {
	Token string `json:"token"`
}

// WebhookHandler receives gateway updates and hands them to the dispatcher.
// Implements the [Handler] interface for registration with a [Router].
type WebhookHandler struct {
	dispatcher *bot.Dispatcher
	logger     *log.Logger
}

// NewWebhookHandler creates a webhook handler bound to a dispatcher.
func NewWebhookHandler(dispatcher *bot.Dispatcher, logger *log.Logger) *WebhookHandler {
	return &WebhookHandler{dispatcher: dispatcher, logger: logger}
}

// Routes returns the HTTP routes this handler serves.
func (h *WebhookHandler) Routes() []string {
	return []string{"/webhook"}
}

// ServeHTTP decodes one update and dispatches it on its own goroutine.
//
// The gateway gets an immediate 200; a slow download must not hold the
// webhook connection open or delay subsequent updates.
func (h *WebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var update Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		h.logger.Warn("malformed update", "error", err)
		http.Error(w, "Malformed update", http.StatusBadRequest)
		return
	}

	event, ok := eventFromUpdate(update)
	if !ok {
		http.Error(w, "Empty update", http.StatusBadRequest)
		return
	}

	// Detached from the request context: the update outlives this response.
	go h.dispatcher.Handle(context.Background(), event)

	w.WriteHeader(http.StatusOK)
}

func eventFromUpdate(update Update) (bot.Event, bool) {
	event := bot.Event{
		ConversationID: update.ConversationID,
		User: bot.User{
			ID:           update.User.ID,
			Username:     update.User.Username,
			FirstName:    update.User.FirstName,
			LastName:     update.User.LastName,
			LanguageCode: update.User.LanguageCode,
		},
	}

	switch {
	case update.Callback != nil && update.Callback.Token != "":
		event.SelectionToken = update.Callback.Token
	case update.Message != nil && update.Message.Text != "":
		event.Text = update.Message.Text
	default:
		return bot.Event{}, false
	}

	return event, true
}
