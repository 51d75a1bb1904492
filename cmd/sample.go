package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"github.com/williamschertzer/spotify-representative-sampler/internal/formatter"
	"github.com/williamschertzer/spotify-representative-sampler/internal/models"
	"github.com/williamschertzer/spotify-representative-sampler/internal/shared"
	"github.com/williamschertzer/spotify-representative-sampler/internal/tasks"
	"github.com/williamschertzer/spotify-representative-sampler/internal/ui"
	"golang.org/x/oauth2"
)

// runSummary is the JSON output shape of the run command.
type runSummary struct {
	Total    int              `json:"total"`
	Filtered int              `json:"filtered"`
	Selected int              `json:"selected"`
	Keywords []string         `json:"keywords"`
	Playlist *models.Playlist `json:"playlist,omitempty"`
	CSVFile  string           `json:"csv_file,omitempty"`
}

// SampleRun executes the full sampling pipeline from the CLI.
//
// Fetches the library, enriches genres, filters by keywords, samples, creates
// the playlist (unless --no-playlist), and writes the CSV export.
func (r *Runner) SampleRun(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	keywords := models.ParseKeywords(cmd.String("keywords"))
	if len(keywords) == 0 {
		return fmt.Errorf("%w: at least one non-empty keyword is required", shared.ErrMissingArgument)
	}
	size := cmd.Int("size")

	svc, err := r.oauthService()
	if err != nil {
		return err
	}

	token := r.config.Credentials.Spotify.Token()
	if token == nil {
		return fmt.Errorf("%w: run 'repsample auth' first", shared.ErrNotAuthenticated)
	}
	if err := svc.OAuthenticate(ctx, token); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	// Refresh up front so a long run doesn't expire mid-flight.
	if token.RefreshToken != "" {
		fresh, err := svc.Refresh(ctx)
		if err != nil {
			return fmt.Errorf("%w: token refresh failed: %v", shared.ErrAuthFailed, err)
		}
		r.persistToken(cmd.String("config"), fresh)
	}

	engine := tasks.NewSampleEngine(svc, tasks.EngineOpts{
		RateLimit: r.config.Sampler.RateLimit,
		Rand:      r.rng,
	})

	progress := make(chan tasks.ProgressUpdate, 32)
	drained := make(chan struct{})
	go func() {
		for update := range progress {
			r.logger.Info(update.Message)
		}
		close(drained)
	}()
	finish := func() {
		close(progress)
		<-drained
	}

	result, err := engine.Run(ctx, progress, keywords, size)
	if err != nil {
		if reauthed, authErr := r.handleSpotifyAuthError(ctx, err, cmd); reauthed {
			if authErr != nil {
				finish()
				return authErr
			}
			if result, err = engine.Run(ctx, progress, keywords, size); err != nil {
				finish()
				return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
			}
		} else {
			finish()
			return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
	}

	if len(result.Selected) == 0 {
		finish()
		if result.Filtered == 0 {
			return r.writePlain("%s\n", ui.Warn("No tracks matched the given keywords."))
		}
		return r.writePlain("%s\n", ui.Warn("Sample size must be a positive number."))
	}

	var playlist *models.Playlist
	if !cmd.Bool("no-playlist") {
		name := cmd.String("name")
		if name == "" {
			name = result.DefaultPlaylistName()
		}
		if playlist, err = engine.Materialize(ctx, progress, name, result.Selected); err != nil {
			finish()
			return fmt.Errorf("failed to create playlist: %w", err)
		}
	}

	exportPath := cmd.String("output")
	if exportPath == "" {
		exportPath = r.config.Sampler.ExportFile
	}
	written, err := formatter.WriteCSVExport(result.Selected, exportPath)
	if err != nil {
		finish()
		return err
	}

	finish()

	if cmd.Bool("json") {
		return r.writeJSON(runSummary{
			Total:    result.Total,
			Filtered: result.Filtered,
			Selected: len(result.Selected),
			Keywords: result.Keywords,
			Playlist: playlist,
			CSVFile:  written,
		}, cmd.Bool("pretty"))
	}

	r.writePlain("%s\n", ui.Title("Sampling complete"))
	r.writePlain("  Library tracks: %d\n", result.Total)
	r.writePlain("  Matched:        %d\n", result.Filtered)
	r.writePlain("  Sampled:        %d\n", len(result.Selected))
	r.writePlain("\n%s", formatter.ExportToText(result.Selected))

	if playlist != nil {
		r.writePlain("%s\n", ui.OK(fmt.Sprintf("✓ Playlist created: %s (%d tracks)", playlist.Name, playlist.TrackCount)))
		if playlist.URL != "" {
			r.writePlain("  %s\n", ui.Help(playlist.URL))
		}
	}
	r.writePlain("%s\n", ui.OK(fmt.Sprintf("✓ CSV exported to %s", written)))

	return nil
}

// persistToken saves a refreshed token back to the config file when one exists.
func (r *Runner) persistToken(configPath string, token *oauth2.Token) {
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		r.logger.Warn("failed to update token in config", "error", err)
		return
	}

	if configPath == "" {
		return
	}
	if _, err := os.Stat(configPath); err != nil {
		return
	}
	if err := shared.SaveConfig(configPath, r.config); err != nil {
		r.logger.Warn("failed to save refreshed token", "error", err)
	}
}
