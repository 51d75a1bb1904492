package server

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/williamschertzer/spotify-representative-sampler/internal/formatter"
	"github.com/williamschertzer/spotify-representative-sampler/internal/models"
	"github.com/williamschertzer/spotify-representative-sampler/internal/services"
	"github.com/williamschertzer/spotify-representative-sampler/internal/shared"
	"github.com/williamschertzer/spotify-representative-sampler/internal/tasks"
)

//go:embed templates/index.html
var templateFS embed.FS

// App is the web interface for the sampling pipeline.
//
// It wires the OAuth login flow, the sampling form, and the CSV download
// around a shared [SessionStore]. One App serves one Spotify application;
// each browser session carries its own token.
type App struct {
	svc      services.OAuthService
	engine   tasks.Engine
	sessions *SessionStore
	router   *BasicRouter
	logger   *log.Logger
	tmpl     *template.Template
	runMu    sync.Mutex
}

// runView is the template model for a completed sampling run.
type runView struct {
	Playlist *models.Playlist
	Tracks   []models.Track
	Message  string
	Total    int
	Filtered int
}

// pageData is the template model for the index page.
type pageData struct {
	Authenticated bool
	Error         string
	Result        *runView
}

// NewApp creates the web application around the given service.
func NewApp(svc services.OAuthService, logger *log.Logger, opts tasks.EngineOpts) *App {
	app := &App{
		svc:      svc,
		engine:   tasks.NewSampleEngine(svc, opts),
		sessions: NewSessionStore(),
		router:   NewBasicRouter(),
		logger:   logger,
		tmpl: template.Must(template.New("index.html").
			Funcs(template.FuncMap{"join": strings.Join}).
			ParseFS(templateFS, "templates/index.html")),
	}

	app.router.Use(LogRequests(logger))
	app.router.Handle("GET", "/", http.HandlerFunc(app.handleIndex))
	app.router.Handle("GET", "/login", http.HandlerFunc(app.handleLogin))
	app.router.Handle("GET", "/callback", http.HandlerFunc(app.handleCallback))
	app.router.Handle("POST", "/create_playlist", http.HandlerFunc(app.handleCreatePlaylist))
	app.router.Handle("GET", "/download_csv", http.HandlerFunc(app.handleDownloadCSV))
	return app
}

// ServeHTTP implements [http.Handler].
func (a *App) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.router.ServeHTTP(w, r)
}

// Serve runs the HTTP server until the context is cancelled.
func (a *App) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: a}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("server shutdown failed", "error", err)
		}
	}()

	a.logger.Info("serving web interface", "addr", addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (a *App) render(w http.ResponseWriter, data pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := a.tmpl.Execute(w, data); err != nil {
		a.logger.Error("template render failed", "error", err)
	}
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	session := a.sessions.Start(w, r)
	a.render(w, pageData{Authenticated: session.Authenticated()})
}

func (a *App) handleLogin(w http.ResponseWriter, r *http.Request) {
	session := a.sessions.Start(w, r)

	state, err := shared.GenerateState()
	if err != nil {
		http.Error(w, "failed to start login", http.StatusInternalServerError)
		return
	}
	session.State = state

	http.Redirect(w, r, a.svc.GetAuthURL(state), http.StatusFound)
}

func (a *App) handleCallback(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessions.Get(r)
	if !ok || session.State == "" {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if r.URL.Query().Get("state") != session.State {
		a.render(w, pageData{Error: "Login failed: state mismatch. Please try again."})
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		a.render(w, pageData{Error: "Login failed: Spotify denied authorization."})
		return
	}

	token, err := a.svc.GetOAuthConfig().Exchange(r.Context(), code)
	if err != nil {
		a.logger.Error("token exchange failed", "error", err)
		a.render(w, pageData{Error: "Login failed: could not exchange authorization code."})
		return
	}

	session.State = ""
	session.Token = token
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) handleCreatePlaylist(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessions.Get(r)
	if !ok || !session.Authenticated() {
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		a.render(w, pageData{Authenticated: true, Error: "Invalid form submission."})
		return
	}

	keywords := models.ParseKeywords(r.FormValue("keywords"))
	if len(keywords) == 0 {
		a.render(w, pageData{Authenticated: true, Error: "Please provide at least one keyword."})
		return
	}

	// A malformed sample size yields an empty sample rather than an error.
	size, err := strconv.Atoi(r.FormValue("size"))
	if err != nil {
		size = 0
	}

	// OAuthenticate swaps the token on the one shared Spotify client, so runs
	// from different sessions must not interleave.
	a.runMu.Lock()
	defer a.runMu.Unlock()

	ctx := r.Context()
	if err := a.svc.OAuthenticate(ctx, session.Token); err != nil {
		a.render(w, pageData{Authenticated: false, Error: "Your Spotify session expired. Please log in again."})
		return
	}

	result, err := a.engine.Run(ctx, nil, keywords, size)
	if err != nil {
		a.logger.Error("sampling run failed", "error", err)
		a.render(w, pageData{Authenticated: true, Error: "Sampling failed. Please try again."})
		return
	}

	view := &runView{Total: result.Total, Filtered: result.Filtered}

	if len(result.Selected) == 0 {
		if result.Filtered == 0 {
			view.Message = "No tracks matched the given keywords."
		} else {
			view.Message = "Sample size must be a positive number."
		}
		a.render(w, pageData{Authenticated: true, Result: view})
		return
	}

	name := r.FormValue("playlist_name")
	if name == "" {
		name = result.DefaultPlaylistName()
	}

	playlist, err := a.engine.Materialize(ctx, nil, name, result.Selected)
	if err != nil {
		a.logger.Error("playlist creation failed", "error", err)
		a.render(w, pageData{Authenticated: true, Error: "Playlist creation failed. Please try again."})
		return
	}

	csvData, err := formatter.ExportToCSV(result.Selected)
	if err != nil {
		a.logger.Error("CSV export failed", "error", err)
	} else {
		session.CSV = csvData
	}

	view.Playlist = playlist
	view.Tracks = result.Selected
	a.render(w, pageData{Authenticated: true, Result: view})
}

func (a *App) handleDownloadCSV(w http.ResponseWriter, r *http.Request) {
	session, ok := a.sessions.Get(r)
	if !ok || len(session.CSV) == 0 {
		http.Error(w, "no export available", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", formatter.DefaultExportFilename))
	w.Write(session.CSV)
}
