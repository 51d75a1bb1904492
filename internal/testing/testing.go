// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/williamschertzer/spotify-representative-sampler/internal/models"
	"golang.org/x/oauth2"
)

// MockService is a configurable test double for [services.Service] and
// [services.OAuthService]. It serves pages of Library through SavedTracks and
// records the batches passed to SeveralArtists and AddPlaylistItems so tests
// can assert on batching behavior.
type MockService struct {
	// Library is the full saved-tracks collection served page by page.
	Library []models.Track

	// Artists maps artist ID to genre list for SeveralArtists.
	Artists map[string][]string

	// User returned by CurrentUser. Defaults to a fixed test user when nil.
	User *models.User

	// Playlist returned by CreatePlaylist. A default is synthesized when nil.
	Playlist *models.Playlist

	// Per-operation error overrides.
	AuthenticateErr     error
	CurrentUserErr      error
	SavedTracksErr      error
	SeveralArtistsErr   error
	CreatePlaylistErr   error
	AddPlaylistItemsErr error

	// Recorded calls.
	SavedTracksCalls [][2]int
	ArtistCalls      [][]string
	AddedBatches     [][]string
	CreatedName      string
	CreatedDesc      string
	CreatedPublic    bool
	Refreshed        bool
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.AuthenticateErr
}

func (m *MockService) CurrentUser(ctx context.Context) (*models.User, error) {
	if m.CurrentUserErr != nil {
		return nil, m.CurrentUserErr
	}
	if m.User != nil {
		return m.User, nil
	}
	return &models.User{ID: "mock_user", DisplayName: "Mock User"}, nil
}

func (m *MockService) SavedTracks(ctx context.Context, limit, offset int) ([]models.Track, error) {
	if m.SavedTracksErr != nil {
		return nil, m.SavedTracksErr
	}
	m.SavedTracksCalls = append(m.SavedTracksCalls, [2]int{limit, offset})

	if offset >= len(m.Library) {
		return []models.Track{}, nil
	}
	end := offset + limit
	if end > len(m.Library) {
		end = len(m.Library)
	}
	page := make([]models.Track, end-offset)
	copy(page, m.Library[offset:end])
	return page, nil
}

func (m *MockService) SeveralArtists(ctx context.Context, artistIDs []string) ([]models.Artist, error) {
	if m.SeveralArtistsErr != nil {
		return nil, m.SeveralArtistsErr
	}
	ids := make([]string, len(artistIDs))
	copy(ids, artistIDs)
	m.ArtistCalls = append(m.ArtistCalls, ids)

	artists := make([]models.Artist, 0, len(artistIDs))
	for _, id := range artistIDs {
		genres, ok := m.Artists[id]
		if !ok {
			continue
		}
		artists = append(artists, models.Artist{ID: id, Name: "Artist " + id, Genres: genres})
	}
	return artists, nil
}

func (m *MockService) CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error) {
	if m.CreatePlaylistErr != nil {
		return nil, m.CreatePlaylistErr
	}
	m.CreatedName = name
	m.CreatedDesc = description
	m.CreatedPublic = public

	if m.Playlist != nil {
		return m.Playlist, nil
	}
	return &models.Playlist{
		ID:          "mock_playlist",
		Name:        name,
		Description: description,
		Public:      public,
		URL:         "https://open.spotify.com/playlist/mock_playlist",
	}, nil
}

func (m *MockService) AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error {
	if m.AddPlaylistItemsErr != nil {
		return m.AddPlaylistItemsErr
	}
	batch := make([]string, len(uris))
	copy(batch, uris)
	m.AddedBatches = append(m.AddedBatches, batch)
	return nil
}

func (m *MockService) Name() string { return "mock" }

func (m *MockService) GetAuthURL(state string) string {
	return "https://accounts.example.com/authorize?state=" + state
}

func (m *MockService) GetOAuthConfig() *oauth2.Config {
	return &oauth2.Config{}
}

func (m *MockService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	return m.AuthenticateErr
}

func (m *MockService) Refresh(ctx context.Context) (*oauth2.Token, error) {
	m.Refreshed = true
	return &oauth2.Token{AccessToken: "refreshed_token"}, nil
}

// AddedURIs flattens the recorded AddPlaylistItems batches in call order.
func (m *MockService) AddedURIs() []string {
	var uris []string
	for _, batch := range m.AddedBatches {
		uris = append(uris, batch...)
	}
	return uris
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

func NewLimitedWriter(maxWrites, written int, target io.Writer) *LimitedWriter {
	return &LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
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
