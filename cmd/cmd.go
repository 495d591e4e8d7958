// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// importCommand runs a full import from an export file or the Spotify API.
func importCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "import",
		Aliases: []string{"i"},
		Usage:   "Import playlists into Jellyfin from an export file or Spotify",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "file",
			},
		},
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "spotify",
				Usage: "Treat the file as a Spotify account-data JSON export",
			},
			&cli.BoolFlag{
				Name:  "from-spotify",
				Usage: "Pull playlists live from the Spotify API instead of a file",
			},
			&cli.IntFlag{
				Name:  "fuzz",
				Usage: "Fuzzy-match tolerance, 80-100 (higher means less tolerance)",
				Value: r.config.Import.Fuzz,
			},
			&cli.BoolFlag{
				Name:  "any-album",
				Usage: "Search tracks in any album, not just the one named in the export",
				Value: r.config.Import.AnyAlbum,
			},
			&cli.BoolFlag{
				Name:  "public",
				Usage: "Create new playlists as public",
				Value: r.config.Import.Public,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Resolve and report without writing to the server",
				Value: r.config.Import.DryRun,
			},
			&cli.BoolFlag{
				Name:  "no-cache",
				Usage: "Skip the local match cache",
			},
			&cli.StringFlag{
				Name:  "report",
				Usage: "Write unmatched tracks to a CSV file at this path",
			},
			&cli.BoolFlag{
				Name:  "ui",
				Usage: "Show an interactive progress UI",
			},
		},
		Action: r.Import,
	}
}

// catalogCommand inspects the server's audio catalog.
func catalogCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Inspect the Jellyfin audio catalog",
		Commands: []*cli.Command{
			{
				Name:  "search",
				Usage: "Fuzzy-search the catalog for a track",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "query",
					},
				},
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of results",
						Value: 10,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.CatalogSearch,
			},
		},
	}
}

// playlistsCommand handles existing Jellyfin playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"pl"},
		Usage:   "List and export Jellyfin playlists",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List playlists on the server",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistsList,
			},
			{
				Name:  "export",
				Usage: "Export a playlist and its tracks to a file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "name",
						Usage:    "Playlist name to export",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Output format (csv, markdown, text)",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
					},
				},
				Action: r.PlaylistsExport,
			},
		},
	}
}

// runsCommand reads import run history.
func runsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "runs",
		Usage: "Show import run history",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List past import runs",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of runs to show",
						Value: 20,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
				},
				Action: r.RunsList,
			},
		},
	}
}

// cacheCommand manages the local match cache.
func cacheCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "cache",
		Usage: "Manage the local match cache",
		Commands: []*cli.Command{
			{
				Name:   "stats",
				Usage:  "Show cached match count",
				Action: r.CacheStats,
			},
			{
				Name:   "purge",
				Usage:  "Delete all cached matches (use after a library rescan)",
				Action: r.CachePurge,
			},
		},
	}
}

// setupCommand handles setup operations for database and server credentials.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Create a config.toml from the embedded template",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupDatabase,
			},
			{
				Name:    "jellyfin",
				Aliases: []string{"jf"},
				Usage:   "Configure Jellyfin credentials from browser headers",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "curl",
						Usage: "cURL command from browser DevTools (Copy as cURL)",
					},
					&cli.StringFlag{
						Name:  "curl-file",
						Usage: "Path to .sh file containing cURL command",
					},
					&cli.StringFlag{
						Name:  "username",
						Usage: "Jellyfin username the importer acts as",
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SetupJellyfin,
			},
		},
	}
}

// spotifyCommand handles the live Spotify playlist source.
func spotifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "spotify",
		Aliases: []string{"spot"},
		Usage:   "Spotify playlist source operations",
		Commands: []*cli.Command{
			{
				Name:  "auth",
				Usage: "Authenticate with Spotify using OAuth2",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to configuration file",
						Value:   "config.toml",
					},
				},
				Action: r.SpotifyAuth,
			},
			{
				Name:  "playlists",
				Usage: "List Spotify playlists",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of playlists to return",
						Value: 50,
					},
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
					},
				},
				Action: r.SpotifyPlaylists,
			},
		},
	}
}
