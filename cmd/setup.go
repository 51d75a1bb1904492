package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"github.com/williamschertzer/spotify-representative-sampler/internal/shared"
)

// Setup writes the configuration file template.
func (r *Runner) Setup(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")

	if _, err := os.Stat(configPath); err == nil {
		r.writePlain("Config file already exists at %s\n", configPath)
		return nil
	}

	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.writePlain("✓ Config file created at %s\n\n", configPath)
	r.writePlain("Next steps:\n")
	r.writePlain("1. Add your Spotify client_id and client_secret to %s\n", configPath)
	r.writePlain("   (create an app at https://developer.spotify.com/dashboard)\n")
	r.writePlain("2. Run 'repsample auth' to authorize with Spotify\n")
	r.writePlain("3. Run 'repsample run --keywords \"jazz, blues\"' to sample a playlist\n")

	return nil
}
