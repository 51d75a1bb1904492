// Package services defines the [Service] interface for the streaming provider
// and implements it for Spotify.
//
// # Service Interface
//
// The pipeline consumes an explicit client capability: paginated saved-tracks
// retrieval, batched artist lookup, current-user identity, playlist creation,
// and bounded playlist insertion. Nothing reads or writes ambient session
// state; the caller owns the client and refreshes its credentials before
// each run.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
//
// The [oauth2] HTTP client refreshes expired tokens using the refresh token;
// refreshed tokens are surfaced through [SpotifyService.SetTokenRefreshCallback]
// so callers can persist them to the config file.
//
// # OAuth Service Extension
//
// The [OAuthService] interface extends Service for OAuth providers.
// [SpotifyService] implements it for the server-side flows used by the CLI and
// the web boundary.
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrAPIRequest] : HTTP request failed
//
// Any remote failure propagates unmodified to the caller; there is no retry
// policy in this layer.
package services
