package services

import (
	"context"

	"github.com/williamschertzer/spotify-representative-sampler/internal/models"
	"golang.org/x/oauth2"
)

// Service defines the client capability the sampling pipeline consumes.
//
// Implementations are explicit, caller-held objects: no ambient session state
// is read or written, and the caller refreshes credentials before a run.
type Service interface {
	// Authenticate performs OAuth or token authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's identity.
	CurrentUser(ctx context.Context) (*models.User, error)

	// SavedTracks retrieves one page of the user's saved tracks at the given
	// offset. An empty page signals the end of the library.
	SavedTracks(ctx context.Context, limit, offset int) ([]models.Track, error)

	// SeveralArtists retrieves up to 50 artist records by ID in one call.
	SeveralArtists(ctx context.Context, artistIDs []string) ([]models.Artist, error)

	// CreatePlaylist creates a playlist owned by the given user.
	CreatePlaylist(ctx context.Context, userID, name, description string, public bool) (*models.Playlist, error)

	// AddPlaylistItems appends up to 100 track URIs to a playlist, preserving order.
	AddPlaylistItems(ctx context.Context, playlistID string, uris []string) error

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends Service for providers using server-side OAuth flows.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL for user login.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 configuration for callback handlers.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate authenticates with a previously obtained token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// Refresh forces a token refresh and returns the fresh token. Callers
	// invoke it before each pipeline run so the run never starts with an
	// expired token.
	Refresh(ctx context.Context) (*oauth2.Token, error)
}
