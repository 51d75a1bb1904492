package main

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"github.com/williamschertzer/spotify-representative-sampler/internal/server"
	"github.com/williamschertzer/spotify-representative-sampler/internal/shared"
	"github.com/williamschertzer/spotify-representative-sampler/internal/tasks"
)

// Serve starts the web interface.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if cmd.Bool("verbose") {
		shared.SetLogLevel(r.logger, log.DebugLevel)
	}

	svc, err := r.oauthService()
	if err != nil {
		return err
	}

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.Server.Addr()
	}

	app := server.NewApp(svc, r.logger, tasks.EngineOpts{
		RateLimit: r.config.Sampler.RateLimit,
	})

	return app.Serve(ctx, addr)
}
