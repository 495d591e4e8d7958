package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jfin/internal/services"
	"github.com/desertthunder/jfin/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	var spotifySource *services.SpotifySource
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if src, err := services.NewSpotifySource(config.Credentials.Spotify); err == nil {
			spotifySource = src
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Spotify: spotifySource,
		Logger:  logger,
	})

	app := &cli.Command{
		Name:     "jfin",
		Usage:    "Import Spotify playlists into a Jellyfin server",
		Version:  "0.3.0",
		Commands: runner.register(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Log level (debug, info, warn, error)",
				Value: "info",
			},
		},
		Before: func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
			if level, err := log.ParseLevel(cmd.String("log-level")); err == nil {
				shared.SetLogLevel(logger, level)
			}
			return ctx, nil
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
