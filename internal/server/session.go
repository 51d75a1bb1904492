package server

import (
	"net/http"
	"sync"
	"time"

	"github.com/williamschertzer/spotify-representative-sampler/internal/shared"
	"golang.org/x/oauth2"
)

// SessionCookie is the name of the browser session cookie.
const SessionCookie = "sampler_session"

// Session holds per-browser state for the web interface.
type Session struct {
	ID        string
	State     string        // OAuth state parameter issued at login
	Token     *oauth2.Token // Spotify token after a completed login
	CSV       []byte        // Most recent CSV export for download
	CreatedAt time.Time
}

// Authenticated reports whether the session carries a usable token.
func (s *Session) Authenticated() bool {
	return s.Token != nil && s.Token.AccessToken != ""
}

// SessionStore is an in-memory session registry keyed by cookie value.
//
// Sessions are not persisted; restarting the server logs everyone out.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionStore creates an empty SessionStore.
func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*Session)}
}

// Get returns the session identified by the request's cookie, if any.
func (st *SessionStore) Get(r *http.Request) (*Session, bool) {
	cookie, err := r.Cookie(SessionCookie)
	if err != nil {
		return nil, false
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	session, ok := st.sessions[cookie.Value]
	return session, ok
}

// Start returns the request's session, creating one and setting the cookie
// when the request carries none.
func (st *SessionStore) Start(w http.ResponseWriter, r *http.Request) *Session {
	if session, ok := st.Get(r); ok {
		return session
	}

	session := &Session{
		ID:        shared.GenerateID(),
		CreatedAt: time.Now(),
	}

	st.mu.Lock()
	st.sessions[session.ID] = session
	st.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    session.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return session
}

// Delete removes the session with the given ID.
func (st *SessionStore) Delete(id string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	delete(st.sessions, id)
}
