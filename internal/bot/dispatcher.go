package bot

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunebot/internal/cache"
	"github.com/desertthunder/tunebot/internal/formatter"
	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/shared"
	"github.com/desertthunder/tunebot/internal/tasks"
)

// State tracks where a conversation sits in the search-to-delivery flow.
type State int

const (
	Idle State = iota
	Searching
	ResultsCached
	Resolving
	Fetching
	Delivered
	Failed
)

func (s State) String() string {
	switch s {
	case Searching:
		return "searching"
	case ResultsCached:
		return "results_cached"
	case Resolving:
		return "resolving"
	case Fetching:
		return "fetching"
	case Delivered:
		return "delivered"
	case Failed:
		return "failed"
	default:
		return "idle"
	}
}

const (
	welcomeText = "Hi! Send me a song name and I'll search YouTube and Spotify for it.\n\n" +
		"/search <query> - search both catalogs\n" +
		"/youtube <query> - YouTube only\n" +
		"/spotify <query> - Spotify only\n" +
		"/history - your recent downloads\n" +
		"/settings - current settings\n" +
		"/help - this message"

	helpText = "Send a song name (e.g. \"周杰伦 晴天\") or use a command:\n\n" +
		"/search <query> - search YouTube and Spotify\n" +
		"/youtube <query> - search YouTube only\n" +
		"/spotify <query> - search Spotify only\n" +
		"/history - recent downloads\n" +
		"/settings - current settings\n\n" +
		"Pick a result button to download it as mp3 (192kbps).\n" +
		"Limits: 50 MB per file, 10 minutes per track."

	settingsText = "Settings:\n\n" +
		"- search source: YouTube + Spotify\n" +
		"- audio quality: 192kbps mp3\n" +
		"- auto-download: off"

	noResultsText        = "Nothing found. Try a different query."
	expiredSelectionText = "Those results have expired. Please search again."
	noMatchText          = "Couldn't find a downloadable version of that track."
	retrievalFailedText  = "Download failed. Please try again."
	missingQueryText     = "Please include a song name, e.g. /search 周杰伦 晴天"
	downloadingText      = "Downloading, hang on..."
	historyLimit         = 10
)

// Opts contains the dependencies for creating a [Dispatcher].
type Opts struct {
	Search    *tasks.SearchEngine
	Downloads *tasks.DownloadEngine
	Cache     *cache.SearchCache
	Users     models.UserStore
	History   models.HistoryStore
	Transport Transport
	Logger    *log.Logger
	Limit     int // per-provider result limit
}

// Dispatcher drives the per-conversation state machine.
//
// One Handle call processes one inbound event; the transport layer invokes
// Handle from its own per-event goroutine, so a conversation can sit in a
// long download await without stalling other conversations. The search cache
// is the only state shared across conversations.
type Dispatcher struct {
	search    *tasks.SearchEngine
	downloads *tasks.DownloadEngine
	cache     *cache.SearchCache
	users     models.UserStore
	history   models.HistoryStore
	transport Transport
	logger    *log.Logger
	limit     int

	mu     sync.Mutex
	states map[int64]State
}

// NewDispatcher creates a Dispatcher with the provided dependencies.
func NewDispatcher(opts Opts) *Dispatcher {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Limit <= 0 {
		opts.Limit = 5
	}
	return &Dispatcher{
		search:    opts.Search,
		downloads: opts.Downloads,
		cache:     opts.Cache,
		users:     opts.Users,
		history:   opts.History,
		transport: opts.Transport,
		logger:    opts.Logger,
		limit:     opts.Limit,
		states:    make(map[int64]State),
	}
}

// State returns the current state for a conversation.
func (d *Dispatcher) State(conversationID int64) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.states[conversationID]
}

func (d *Dispatcher) setState(conversationID int64, s State) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.states[conversationID] = s
}

// Handle routes one inbound event through the state machine.
func (d *Dispatcher) Handle(ctx context.Context, event Event) {
	d.touchUser(event.User)

	if event.SelectionToken != "" {
		d.handleSelection(ctx, event)
		return
	}

	command, args := splitCommand(event.Text)
	switch command {
	case "/start":
		d.send(ctx, event.ConversationID, welcomeText)
	case "/help":
		d.send(ctx, event.ConversationID, helpText)
	case "/settings":
		d.send(ctx, event.ConversationID, settingsText)
	case "/history":
		d.handleHistory(ctx, event)
	case "/search":
		d.handleSearch(ctx, event, args, tasks.AllSources)
	case "/youtube":
		d.handleSearch(ctx, event, args, tasks.MediaOnly)
	case "/spotify":
		d.handleSearch(ctx, event, args, tasks.CatalogOnly)
	default:
		// Bare text doubles as a search query.
		d.handleSearch(ctx, event, event.Text, tasks.AllSources)
	}
}

// handleSearch runs an aggregate search and caches the results.
//
// A new search always restarts the conversation's machine; the cache write
// discards any prior result set (last write wins).
func (d *Dispatcher) handleSearch(ctx context.Context, event Event, query string, filter tasks.SourceFilter) {
	if shared.NormalizeQuery(query) == "" {
		d.send(ctx, event.ConversationID, missingQueryText)
		return
	}

	d.setState(event.ConversationID, Searching)

	tracks, err := d.search.Aggregate(ctx, query, d.limit, filter)
	if err != nil {
		d.setState(event.ConversationID, Failed)
		d.send(ctx, event.ConversationID, missingQueryText)
		return
	}

	d.cache.Put(event.ConversationID, tracks)
	d.setState(event.ConversationID, ResultsCached)

	if len(tracks) == 0 {
		d.send(ctx, event.ConversationID, noResultsText)
		return
	}

	list := ResultList{
		Text:    formatter.FormatResults(tracks),
		Buttons: formatter.ResultButtons(tracks),
	}
	if err := d.transport.SendResults(ctx, event.ConversationID, list); err != nil {
		d.logger.Error("failed to send results", "conversation", event.ConversationID, "error", err)
	}
}

// handleSelection resolves a button press back to a cached track and runs the
// download on the worker pool, awaiting completion in this goroutine.
func (d *Dispatcher) handleSelection(ctx context.Context, event Event) {
	index, err := formatter.ParseSelectionToken(event.SelectionToken)
	if err != nil {
		d.logger.Warn("bad selection token", "token", event.SelectionToken, "error", err)
		d.send(ctx, event.ConversationID, expiredSelectionText)
		return
	}

	d.setState(event.ConversationID, Resolving)

	track, err := d.cache.Resolve(event.ConversationID, index)
	if err != nil {
		d.setState(event.ConversationID, Failed)
		d.send(ctx, event.ConversationID, expiredSelectionText)
		return
	}

	d.setState(event.ConversationID, Fetching)
	d.send(ctx, event.ConversationID, downloadingText)

	result := <-d.downloads.Submit(ctx, track, event.User.ID, nil)
	if result.Err != nil {
		d.setState(event.ConversationID, Failed)
		d.send(ctx, event.ConversationID, failureMessage(result.Err))
		return
	}

	caption := formatter.FormatCaption(result.Resolved, result.File)
	if err := d.transport.SendAudio(ctx, event.ConversationID, result.Resolved, result.File, caption); err != nil {
		d.setState(event.ConversationID, Failed)
		d.logger.Error("audio delivery failed", "conversation", event.ConversationID, "error", err)
		d.send(ctx, event.ConversationID, retrievalFailedText)
		return
	}

	d.setState(event.ConversationID, Delivered)
	d.recordHistory(event.User.ID, track, result.File)
}

// handleHistory lists the user's recent downloads.
func (d *Dispatcher) handleHistory(ctx context.Context, event Event) {
	records, err := d.history.RecentByUser(event.User.ID, historyLimit)
	if err != nil {
		d.logger.Error("history query failed", "user", event.User.ID, "error", err)
		d.send(ctx, event.ConversationID, "Couldn't load your history right now.")
		return
	}
	d.send(ctx, event.ConversationID, formatter.FormatHistory(records))
}

// recordHistory persists a history row for a delivered download.
//
// Persistence failure is logged and swallowed: a failed history write must
// never undo or fail a completed download. The recorded provenance is the
// originally selected track's, not the resolved media track's.
func (d *Dispatcher) recordHistory(userID int64, track models.Track, file *models.MediaFile) {
	record := &models.HistoryRecord{
		UserID:     userID,
		Title:      track.Title,
		Artist:     track.Artist,
		Provenance: track.Provenance,
		SourceRef:  track.SourceRef,
		Duration:   track.Duration,
	}
	if file != nil {
		record.FileSize = file.Size
	}

	if err := d.history.Create(record); err != nil {
		d.logger.Error("history write failed", "user", userID, "title", track.Title,
			"error", shared.ErrPersistenceFailed, "cause", err)
	}
}

// touchUser upserts the user profile, refreshing last_active.
// Failures are logged only; they never interrupt the user flow.
func (d *Dispatcher) touchUser(user User) {
	if user.ID == 0 || d.users == nil {
		return
	}

	profile := &models.UserProfile{
		UserID:       user.ID,
		Username:     user.Username,
		FirstName:    user.FirstName,
		LastName:     user.LastName,
		LanguageCode: user.LanguageCode,
	}

	if err := d.users.Upsert(profile); err != nil {
		d.logger.Error("user upsert failed", "user", user.ID,
			"error", shared.ErrPersistenceFailed, "cause", err)
	}
}

func (d *Dispatcher) send(ctx context.Context, conversationID int64, text string) {
	if err := d.transport.SendText(ctx, conversationID, text); err != nil {
		d.logger.Error("failed to send message", "conversation", conversationID, "error", err)
	}
}

// failureMessage maps a retrieval error to the user-facing text.
// Raw internal errors stay in the logs.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, shared.ErrNoMatchFound):
		return noMatchText
	case errors.Is(err, shared.ErrFileTooLarge):
		return "That file is too large to send."
	default:
		return retrievalFailedText
	}
}

// splitCommand separates a leading slash command from its arguments.
func splitCommand(text string) (string, string) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", text
	}

	parts := strings.SplitN(text, " ", 2)
	command := strings.ToLower(parts[0])
	if idx := strings.Index(command, "@"); idx > 0 {
		command = command[:idx]
	}

	args := ""
	if len(parts) > 1 {
		args = parts[1]
	}
	return command, args
}
