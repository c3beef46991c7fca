// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/tunebot/internal/bot"
	"github.com/desertthunder/tunebot/internal/models"
)

// MockProvider is a configurable test double for [services.Provider].
type MockProvider struct {
	ProviderName string
	Tracks       []models.Track
	Err          error
	Disabled     bool
	Calls        int
}

func (m *MockProvider) Search(ctx context.Context, query string, limit int) ([]models.Track, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if limit > 0 && len(m.Tracks) > limit {
		return m.Tracks[:limit], nil
	}
	return m.Tracks, nil
}

func (m *MockProvider) Name() string {
	if m.ProviderName != "" {
		return m.ProviderName
	}
	return "mock"
}

func (m *MockProvider) Enabled() bool { return !m.Disabled }

// MockMediaProvider extends [MockProvider] with a canned Fetch result,
// implementing [services.MediaProvider].
type MockMediaProvider struct {
	MockProvider
	File       *models.MediaFile
	FetchErr   error
	FetchCalls int
	FetchedRef string
}

func (m *MockMediaProvider) Fetch(ctx context.Context, sourceRef string, userID int64) (*models.MediaFile, error) {
	m.FetchCalls++
	m.FetchedRef = sourceRef
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.File, nil
}

// SentMessage records one outbound transport call.
type SentMessage struct {
	ConversationID int64
	Text           string
	Buttons        int
	Audio          bool
}

// MockTransport records outbound messages for assertion, implementing
// [bot.Transport].
type MockTransport struct {
	mu       sync.Mutex
	Messages []SentMessage
	Err      error
}

func (m *MockTransport) SendText(ctx context.Context, conversationID int64, text string) error {
	m.record(SentMessage{ConversationID: conversationID, Text: text})
	return m.Err
}

func (m *MockTransport) SendResults(ctx context.Context, conversationID int64, list bot.ResultList) error {
	m.record(SentMessage{ConversationID: conversationID, Text: list.Text, Buttons: len(list.Buttons)})
	return m.Err
}

func (m *MockTransport) SendAudio(ctx context.Context, conversationID int64, track models.Track, file *models.MediaFile, caption string) error {
	defer file.Cleanup()
	m.record(SentMessage{ConversationID: conversationID, Text: caption, Audio: true})
	return m.Err
}

func (m *MockTransport) record(msg SentMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Messages = append(m.Messages, msg)
}

// Sent returns a snapshot of the recorded messages.
func (m *MockTransport) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMessage, len(m.Messages))
	copy(out, m.Messages)
	return out
}

// Last returns the most recent recorded message.
func (m *MockTransport) Last(t *testing.T) SentMessage {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Messages) == 0 {
		t.Fatal("no messages sent")
	}
	return m.Messages[len(m.Messages)-1]
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FailingStore errors on every persistence call. Useful for asserting that
// history and profile write failures never surface to the user.
type FailingStore struct{}

func (f *FailingStore) Create(record *models.HistoryRecord) error { return errors.New("store failed") }
func (f *FailingStore) RecentByUser(userID int64, limit int) ([]*models.HistoryRecord, error) {
	return nil, errors.New("store failed")
}
func (f *FailingStore) Upsert(profile *models.UserProfile) error { return errors.New("store failed") }
func (f *FailingStore) Get(userID int64) (*models.UserProfile, error) {
	return nil, errors.New("store failed")
}

// MemoryHistory is an in-memory [models.HistoryStore].
type MemoryHistory struct {
	mu      sync.Mutex
	Records []*models.HistoryRecord
}

func (m *MemoryHistory) Create(record *models.HistoryRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Records = append(m.Records, record)
	return nil
}

func (m *MemoryHistory) RecentByUser(userID int64, limit int) ([]*models.HistoryRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.HistoryRecord
	for i := len(m.Records) - 1; i >= 0 && len(out) < limit; i-- {
		if m.Records[i].UserID == userID {
			out = append(out, m.Records[i])
		}
	}
	return out, nil
}

// MemoryUsers is an in-memory [models.UserStore].
type MemoryUsers struct {
	mu       sync.Mutex
	Profiles map[int64]*models.UserProfile
}

func (m *MemoryUsers) Upsert(profile *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Profiles == nil {
		m.Profiles = make(map[int64]*models.UserProfile)
	}
	m.Profiles[profile.UserID] = profile
	return nil
}

func (m *MemoryUsers) Get(userID int64) (*models.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	profile, ok := m.Profiles[userID]
	if !ok {
		return nil, errors.New("not found")
	}
	return profile, nil
}

// TempAudioFile writes a throwaway file and returns a [models.MediaFile]
// handle pointing at it.
func TempAudioFile(t *testing.T, size int) *models.MediaFile {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "audio-*.mp3")
	if err != nil {
		t.Fatalf("Failed to create temp file: %v", err)
	}
	if _, err := f.Write(make([]byte, size)); err != nil {
		t.Fatalf("Failed to write temp file: %v", err)
	}
	f.Close()
	return &models.MediaFile{Path: f.Name(), Size: int64(size), Mime: "audio/mpeg"}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileGone(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File still exists: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
