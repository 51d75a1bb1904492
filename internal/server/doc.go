// Package server provides HTTP routing, middleware, OAuth handling, and the web interface.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// [OAuthHandler] implements the OAuth2 authorization code callback flow for the CLI.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// When the user runs the auth command, a temporary HTTP server starts on the configured
// redirect address, handles the callback, and shuts down after receiving the OAuth token.
//
// # Web Application
//
// [App] serves the browser workflow around the sampling pipeline:
//
//	GET  /                 → Sampling form (login prompt when unauthenticated)
//	GET  /login            → OAuth initiation with per-session state
//	GET  /callback         → OAuth completion, stores the token in the session
//	POST /create_playlist  → Runs the pipeline and creates the playlist
//	GET  /download_csv     → Downloads the most recent CSV export
//
// Browser state lives in an in-memory [SessionStore] keyed by cookie. Each
// session carries its own Spotify token and the CSV bytes of its last run.
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
