package main

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"github.com/williamschertzer/spotify-representative-sampler/internal/models"
	"github.com/williamschertzer/spotify-representative-sampler/internal/shared"
	tu "github.com/williamschertzer/spotify-representative-sampler/internal/testing"
)

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			spotify := &tu.MockService{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Logger:  logger,
				Output:  output,
				Spotify: spotify,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.spotify != spotify {
				t.Error("expected spotify to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Config: nil})
			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil logger uses default", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Logger: nil})
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: nil})
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})

		t.Run("with nil rand uses seeded source", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Rand: nil})
			if runner.rng == nil {
				t.Error("expected default rand source to be set")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output})

		data := map[string]any{"key": "value"}
		if err := runner.writeJSON(data, false); err != nil {
			t.Fatalf("writeJSON failed: %v", err)
		}
		if !strings.Contains(output.String(), `"key":"value"`) {
			t.Errorf("unexpected output: %s", output.String())
		}

		output.Reset()
		if err := runner.writeJSON(data, true); err != nil {
			t.Fatalf("writeJSON pretty failed: %v", err)
		}
		if !strings.Contains(output.String(), "  \"key\": \"value\"") {
			t.Errorf("expected indented output, got: %s", output.String())
		}
	})

	t.Run("writeJSON handles write errors", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})
		if err := runner.writeJSON(map[string]string{"a": "b"}, false); err == nil {
			t.Error("expected error from failing writer")
		}
	})

	t.Run("writeJSON fails on truncated output", func(t *testing.T) {
		// One write succeeds (the payload), the trailing newline fails.
		runner := NewRunner(RunnerOpts{Output: tu.NewLimitedWriter(1, 0, io.Discard)})
		if err := runner.writeJSON(map[string]string{"a": "b"}, false); err == nil {
			t.Error("expected error when the trailing newline cannot be written")
		}
	})

	t.Run("oauthService", func(t *testing.T) {
		t.Run("nil service", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: io.Discard})
			if _, err := runner.oauthService(); err == nil {
				t.Error("expected error for missing service")
			}
		})

		t.Run("mock service supports oauth", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Spotify: &tu.MockService{}, Output: io.Discard})
			if _, err := runner.oauthService(); err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: io.Discard})
		commands := runner.register()
		if len(commands) != 4 {
			t.Fatalf("expected 4 commands, got %d", len(commands))
		}

		names := map[string]bool{}
		for _, c := range commands {
			names[c.Name] = true
		}
		for _, want := range []string{"setup", "auth", "run", "serve"} {
			if !names[want] {
				t.Errorf("missing command %q", want)
			}
		}
	})
}

// sampleRunner builds a Runner wired to a mock library where the first
// jazzCount artists carry a jazz genre.
func sampleRunner(t *testing.T, total, jazzCount int) (*Runner, *tu.MockService, *bytes.Buffer) {
	t.Helper()

	library := make([]models.Track, total)
	artists := make(map[string][]string)
	for i := range library {
		id := fmt.Sprintf("artist%03d", i)
		library[i] = models.Track{
			Name:      fmt.Sprintf("Track %03d", i),
			Artists:   []string{fmt.Sprintf("Artist %03d", i)},
			ArtistIDs: []string{id},
			URI:       fmt.Sprintf("spotify:track:%03d", i),
		}
		if i < jazzCount {
			artists[id] = []string{"cool jazz"}
		}
	}
	mock := &tu.MockService{Library: library, Artists: artists}

	config := shared.DefaultConfig()
	config.Credentials.Spotify.AccessToken = "test_token"
	config.Sampler.RateLimit = 10_000

	output := &bytes.Buffer{}
	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: mock,
		Logger:  log.New(io.Discard),
		Output:  output,
		Rand:    rand.New(rand.NewSource(1)),
	})
	return runner, mock, output
}

// runCLI invokes the run command against the runner with the given extra args.
func runCLI(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{Name: "repsample", Commands: runner.register()}
	return app.Run(context.Background(), append([]string{"repsample", "run"}, args...))
}

func TestSampleRun(t *testing.T) {
	t.Run("Creates Playlist And CSV", func(t *testing.T) {
		runner, mock, output := sampleRunner(t, 80, 30)
		exportPath := filepath.Join(t.TempDir(), "export.csv")

		err := runCLI(t, runner, "--keywords", "jazz", "--size", "10", "--output", exportPath)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if mock.CreatedName != "Rep sample (10) - jazz" {
			t.Errorf("unexpected playlist name: %q", mock.CreatedName)
		}
		if len(mock.AddedURIs()) != 10 {
			t.Errorf("expected 10 added tracks, got %d", len(mock.AddedURIs()))
		}

		content := tu.MustReadFile(t, exportPath)
		records, err := csv.NewReader(strings.NewReader(content)).ReadAll()
		if err != nil {
			t.Fatalf("export is not valid CSV: %v", err)
		}
		if len(records) != 11 {
			t.Errorf("expected header plus 10 rows, got %d", len(records))
		}

		if !strings.Contains(output.String(), "Sampling complete") {
			t.Errorf("expected summary output, got: %s", output.String())
		}

		// The summary lists the sampled tracks.
		if !strings.Contains(output.String(), "Tracks: 10") {
			t.Errorf("expected track listing header, got: %s", output.String())
		}
		if !strings.Contains(output.String(), "1. Artist 0") {
			t.Errorf("expected numbered track listing, got: %s", output.String())
		}
	})

	t.Run("No Playlist Flag", func(t *testing.T) {
		runner, mock, _ := sampleRunner(t, 40, 20)
		exportPath := filepath.Join(t.TempDir(), "export.csv")

		err := runCLI(t, runner, "--keywords", "jazz", "--size", "5", "--output", exportPath, "--no-playlist")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		if mock.CreatedName != "" {
			t.Error("playlist should not be created with --no-playlist")
		}
		tu.AssertFileExists(t, exportPath)
	})

	t.Run("JSON Summary", func(t *testing.T) {
		runner, _, output := sampleRunner(t, 40, 20)
		exportPath := filepath.Join(t.TempDir(), "export.csv")

		err := runCLI(t, runner, "--keywords", "jazz", "--size", "5", "--output", exportPath, "--json")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}

		got := output.String()
		if !strings.Contains(got, `"total": 40`) || !strings.Contains(got, `"selected": 5`) {
			t.Errorf("unexpected JSON summary: %s", got)
		}
	})

	t.Run("No Matches", func(t *testing.T) {
		runner, mock, output := sampleRunner(t, 40, 20)

		err := runCLI(t, runner, "--keywords", "zydeco", "--size", "5")
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if mock.CreatedName != "" {
			t.Error("playlist should not be created when nothing matched")
		}
		if !strings.Contains(output.String(), "No tracks matched") {
			t.Errorf("expected no-match message, got: %s", output.String())
		}
	})

	t.Run("Blank Keywords Rejected", func(t *testing.T) {
		runner, _, _ := sampleRunner(t, 10, 5)
		err := runCLI(t, runner, "--keywords", " , ,")
		if err == nil {
			t.Error("expected error for blank keywords")
		}
	})

	t.Run("Missing Token", func(t *testing.T) {
		runner, _, _ := sampleRunner(t, 10, 5)
		runner.config.Credentials.Spotify.AccessToken = ""

		err := runCLI(t, runner, "--keywords", "jazz")
		if err == nil {
			t.Error("expected error without stored token")
		}
	})
}

func TestSetup(t *testing.T) {
	t.Run("Creates Config Template", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: log.New(io.Discard)})

		app := &cli.Command{Name: "repsample", Commands: runner.register()}
		err := app.Run(context.Background(), []string{"repsample", "setup", "--config", configPath})
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		tu.AssertFileExists(t, configPath)
		if !strings.Contains(output.String(), "Next steps") {
			t.Errorf("expected next steps output, got: %s", output.String())
		}
	})

	t.Run("Existing Config Untouched", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(configPath, []byte("# custom"), 0600); err != nil {
			t.Fatal(err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Output: output, Logger: log.New(io.Discard)})

		app := &cli.Command{Name: "repsample", Commands: runner.register()}
		err := app.Run(context.Background(), []string{"repsample", "setup", "--config", configPath})
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		if got := tu.MustReadFile(t, configPath); got != "# custom" {
			t.Error("existing config file was modified")
		}
	})
}
