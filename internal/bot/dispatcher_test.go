package bot_test

import (
	"context"
	"strings"
	"testing"

	"github.com/desertthunder/tunebot/internal/bot"
	"github.com/desertthunder/tunebot/internal/cache"
	"github.com/desertthunder/tunebot/internal/models"
	"github.com/desertthunder/tunebot/internal/tasks"
	mocks "github.com/desertthunder/tunebot/internal/testing"
)

type fixture struct {
	media     *mocks.MockMediaProvider
	catalog   *mocks.MockProvider
	transport *mocks.MockTransport
	users     *mocks.MemoryUsers
	history   *mocks.MemoryHistory
	results   *cache.SearchCache
	downloads *tasks.DownloadEngine
	d         *bot.Dispatcher
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		media:     &mocks.MockMediaProvider{MockProvider: mocks.MockProvider{ProviderName: "youtube"}},
		catalog:   &mocks.MockProvider{ProviderName: "spotify"},
		transport: &mocks.MockTransport{},
		users:     &mocks.MemoryUsers{},
		history:   &mocks.MemoryHistory{},
		results:   cache.NewSearchCache(),
	}

	f.downloads = tasks.NewDownloadEngine(f.media, 1, nil)
	t.Cleanup(f.downloads.Close)

	f.d = bot.NewDispatcher(bot.Opts{
		Search:    tasks.NewSearchEngine(f.media, f.catalog, nil),
		Downloads: f.downloads,
		Cache:     f.results,
		Users:     f.users,
		History:   f.history,
		Transport: f.transport,
		Limit:     5,
	})
	return f
}

func event(text string) bot.Event {
	return bot.Event{
		ConversationID: 500,
		User:           bot.User{ID: 42, Username: "listener", FirstName: "Test"},
		Text:           text,
	}
}

func selection(token string) bot.Event {
	e := event("")
	e.SelectionToken = token
	return e
}

func mediaTrack(title string) models.Track {
	return models.Track{
		Title:      title,
		Artist:     "Artist",
		Duration:   272,
		Provenance: models.MediaRetrievable,
		SourceRef:  "https://youtube.com/watch?v=" + title,
	}
}

func TestDispatcher_Commands(t *testing.T) {
	ctx := context.Background()

	t.Run("start sends the welcome message", func(t *testing.T) {
		f := newFixture(t)
		f.d.Handle(ctx, event("/start"))

		last := f.transport.Last(t)
		if !strings.Contains(last.Text, "/search") {
			t.Errorf("welcome should list commands: %q", last.Text)
		}
	})

	t.Run("help and settings answer directly", func(t *testing.T) {
		f := newFixture(t)

		f.d.Handle(ctx, event("/help"))
		if !strings.Contains(f.transport.Last(t).Text, "192kbps") {
			t.Errorf("help should mention quality: %q", f.transport.Last(t).Text)
		}

		f.d.Handle(ctx, event("/settings"))
		if !strings.Contains(f.transport.Last(t).Text, "Settings") {
			t.Errorf("unexpected settings reply: %q", f.transport.Last(t).Text)
		}
	})

	t.Run("command without a query prompts for one", func(t *testing.T) {
		f := newFixture(t)
		f.d.Handle(ctx, event("/search   "))

		if !strings.Contains(f.transport.Last(t).Text, "include a song name") {
			t.Errorf("unexpected reply: %q", f.transport.Last(t).Text)
		}
	})

	t.Run("every event upserts the user profile", func(t *testing.T) {
		f := newFixture(t)
		f.d.Handle(ctx, event("/start"))

		profile, err := f.users.Get(42)
		if err != nil {
			t.Fatalf("profile not recorded: %v", err)
		}
		if profile.Username != "listener" {
			t.Errorf("unexpected profile: %+v", profile)
		}
	})
}

func TestDispatcher_Search(t *testing.T) {
	ctx := context.Background()

	t.Run("bare text searches and sends buttons", func(t *testing.T) {
		f := newFixture(t)
		f.media.Tracks = []models.Track{mediaTrack("one"), mediaTrack("two")}

		f.d.Handle(ctx, event("sunny day"))

		last := f.transport.Last(t)
		if last.Buttons != 2 {
			t.Errorf("expected 2 buttons, got %d", last.Buttons)
		}
		if !strings.Contains(last.Text, "one") || !strings.Contains(last.Text, "two") {
			t.Errorf("result text missing tracks: %q", last.Text)
		}
		if got := f.d.State(500); got != bot.ResultsCached {
			t.Errorf("expected ResultsCached state, got %v", got)
		}
	})

	t.Run("no results sends a friendly message", func(t *testing.T) {
		f := newFixture(t)
		f.d.Handle(ctx, event("obscure song"))

		if !strings.Contains(f.transport.Last(t).Text, "Nothing found") {
			t.Errorf("unexpected reply: %q", f.transport.Last(t).Text)
		}
	})

	t.Run("youtube and spotify commands filter sources", func(t *testing.T) {
		f := newFixture(t)
		f.media.Tracks = []models.Track{mediaTrack("yt-only")}
		f.catalog.Tracks = []models.Track{{
			Title: "sp-only", Artist: "A", Provenance: models.CatalogOnly,
			SourceRef: "https://open.spotify.com/track/x",
		}}

		f.d.Handle(ctx, event("/youtube sunny"))
		if text := f.transport.Last(t).Text; strings.Contains(text, "sp-only") {
			t.Errorf("youtube search leaked catalog results: %q", text)
		}

		f.d.Handle(ctx, event("/spotify sunny"))
		if text := f.transport.Last(t).Text; strings.Contains(text, "yt-only") {
			t.Errorf("spotify search leaked media results: %q", text)
		}
	})
}

func TestDispatcher_Selection(t *testing.T) {
	ctx := context.Background()

	t.Run("selection downloads, delivers, and records history", func(t *testing.T) {
		f := newFixture(t)
		track := mediaTrack("chosen")
		f.media.Tracks = []models.Track{track}
		f.media.File = mocks.TempAudioFile(t, 2048)
		audioPath := f.media.File.Path

		f.d.Handle(ctx, event("sunny day"))
		f.d.Handle(ctx, selection("download_0"))

		var delivered bool
		for _, msg := range f.transport.Sent() {
			if msg.Audio {
				delivered = true
			}
		}
		if !delivered {
			t.Fatal("audio was never delivered")
		}
		if got := f.d.State(500); got != bot.Delivered {
			t.Errorf("expected Delivered state, got %v", got)
		}

		mocks.AssertFileGone(t, audioPath)

		if len(f.history.Records) != 1 {
			t.Fatalf("expected 1 history record, got %d", len(f.history.Records))
		}
		record := f.history.Records[0]
		if record.UserID != 42 || record.Title != "chosen" {
			t.Errorf("unexpected history record: %+v", record)
		}
		if record.FileSize != 2048 {
			t.Errorf("history should carry the file size, got %d", record.FileSize)
		}
	})

	t.Run("selection without cached results reports expiry", func(t *testing.T) {
		f := newFixture(t)
		f.d.Handle(ctx, selection("download_0"))

		if !strings.Contains(f.transport.Last(t).Text, "expired") {
			t.Errorf("unexpected reply: %q", f.transport.Last(t).Text)
		}
		if got := f.d.State(500); got != bot.Failed {
			t.Errorf("expected Failed state, got %v", got)
		}
	})

	t.Run("malformed token reports expiry", func(t *testing.T) {
		f := newFixture(t)
		f.d.Handle(ctx, selection("download_oops"))

		if !strings.Contains(f.transport.Last(t).Text, "expired") {
			t.Errorf("unexpected reply: %q", f.transport.Last(t).Text)
		}
	})

	t.Run("unmatchable catalog selection reports no match", func(t *testing.T) {
		f := newFixture(t)
		f.catalog.Tracks = []models.Track{{
			Title: "rare b-side", Artist: "Artist", Provenance: models.CatalogOnly,
			SourceRef: "https://open.spotify.com/track/x",
		}}

		f.d.Handle(ctx, event("/spotify rare"))
		f.d.Handle(ctx, selection("download_0"))

		if !strings.Contains(f.transport.Last(t).Text, "downloadable") {
			t.Errorf("unexpected reply: %q", f.transport.Last(t).Text)
		}
		if len(f.history.Records) != 0 {
			t.Error("failed downloads must not write history")
		}
	})

	t.Run("history write failure never reaches the user", func(t *testing.T) {
		f := newFixture(t)
		f.media.Tracks = []models.Track{mediaTrack("chosen")}
		f.media.File = mocks.TempAudioFile(t, 1024)

		failing := &mocks.FailingStore{}
		d := bot.NewDispatcher(bot.Opts{
			Search:    tasks.NewSearchEngine(f.media, f.catalog, nil),
			Downloads: f.downloads,
			Cache:     f.results,
			Users:     failing,
			History:   failing,
			Transport: f.transport,
			Limit:     5,
		})

		d.Handle(ctx, event("sunny day"))
		d.Handle(ctx, selection("download_0"))

		if got := d.State(500); got != bot.Delivered {
			t.Errorf("persistence failure must not fail delivery, got state %v", got)
		}
		for _, msg := range f.transport.Sent() {
			if strings.Contains(msg.Text, "store failed") {
				t.Errorf("internal error leaked to user: %q", msg.Text)
			}
		}
	})
}

func TestDispatcher_History(t *testing.T) {
	ctx := context.Background()

	t.Run("history command lists recent downloads", func(t *testing.T) {
		f := newFixture(t)
		f.history.Create(&models.HistoryRecord{UserID: 42, Title: "Sunny Day"})

		f.d.Handle(ctx, event("/history"))
		if !strings.Contains(f.transport.Last(t).Text, "Sunny Day") {
			t.Errorf("history reply missing record: %q", f.transport.Last(t).Text)
		}
	})

	t.Run("empty history", func(t *testing.T) {
		f := newFixture(t)
		f.d.Handle(ctx, event("/history"))

		if !strings.Contains(f.transport.Last(t).Text, "No downloads yet") {
			t.Errorf("unexpected reply: %q", f.transport.Last(t).Text)
		}
	})
}
