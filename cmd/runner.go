package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jfin/internal/services"
	"github.com/desertthunder/jfin/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config   *shared.Config
	jellyfin services.MediaServer
	spotify  *services.SpotifySource
	logger   *log.Logger
	output   io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Jellyfin and Spotify may be nil; commands construct them lazily from
// config, and tests inject fakes.
type RunnerOpts struct {
	Config   *shared.Config
	Jellyfin services.MediaServer
	Spotify  *services.SpotifySource
	Logger   *log.Logger
	Output   io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:   opts.Config,
		jellyfin: opts.Jellyfin,
		spotify:  opts.Spotify,
		logger:   opts.Logger,
		output:   opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		importCommand, catalogCommand, playlistsCommand, runsCommand, cacheCommand, setupCommand, spotifyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger swaps the runner's logger, e.g. for file logging under the TUI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// server returns the Jellyfin client, constructing and authenticating it
// from config on first use. The client is only cached once the user ID has
// been resolved, so a failed authentication is retried on the next call.
func (r *Runner) server(ctx context.Context) (services.MediaServer, error) {
	if r.jellyfin != nil {
		return r.jellyfin, nil
	}

	svc, err := services.NewJellyfinService(r.config.Jellyfin)
	if err != nil {
		return nil, fmt.Errorf("%w: run 'jfin setup jellyfin' first: %v", shared.ErrServiceUnavailable, err)
	}

	if err := svc.Authenticate(ctx); err != nil {
		return nil, err
	}

	r.jellyfin = svc
	return svc, nil
}

// openDatabase opens the configured SQLite database and applies migrations.
func (r *Runner) openDatabase() (*sql.DB, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
