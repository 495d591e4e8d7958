package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/jfin/internal/formatter"
	"github.com/desertthunder/jfin/internal/importer"
	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/parser"
	"github.com/desertthunder/jfin/internal/repositories"
	"github.com/desertthunder/jfin/internal/shared"
	"github.com/desertthunder/jfin/internal/ui"
	"github.com/urfave/cli/v3"
)

// Import runs a full playlist import from an export file or the Spotify API.
//
// Resolves every track against the Jellyfin catalog and merges the results
// into server playlists, append-only. Exits non-zero when any playlist
// write fails so scripted runs can detect partial imports.
func (r *Runner) Import(ctx context.Context, cmd *cli.Command) error {
	fuzz := cmd.Int("fuzz")
	if fuzz < 80 || fuzz > 100 {
		return fmt.Errorf("%w: --fuzz must be between 80 and 100, got %d", shared.ErrInvalidFlag, fuzz)
	}

	entries, source, err := r.importEntries(ctx, cmd)
	if err != nil {
		return err
	}

	server, err := r.server(ctx)
	if err != nil {
		return err
	}

	// The cache is best-effort: a database that won't open downgrades the
	// run to uncached instead of failing it.
	var db *sql.DB
	var cache importer.MatchCache
	if !cmd.Bool("no-cache") {
		if db, err = r.openDatabase(); err != nil {
			r.logger.Warn("match cache unavailable, continuing without it", "error", err)
		} else {
			defer db.Close()
			cache = repositories.NewMatchRepository(db)
		}
	}

	opts := importer.Options{
		Tolerance: fuzz,
		AnyAlbum:  cmd.Bool("any-album"),
		DryRun:    cmd.Bool("dry-run"),
		Public:    cmd.Bool("public"),
	}

	if cmd.Bool("ui") {
		// Redirect logs to file to avoid interfering with TUI rendering
		fileLogger, err := shared.NewFileLogger("./tmp/jfin-import.log")
		if err != nil {
			return fmt.Errorf("failed to create file logger: %w", err)
		}
		r.SetLogger(fileLogger)
	}

	driver, err := importer.NewDriver(server, r.logger, opts, cache)
	if err != nil {
		return err
	}

	r.logger.Info("starting import", "source", source, "entries", len(entries), "fuzz", fuzz, "dry_run", opts.DryRun)

	startedAt := time.Now()

	var summary *models.RunSummary
	if cmd.Bool("ui") {
		summary, err = r.runWithUI(ctx, driver, entries)
	} else {
		summary, err = r.runWithProgress(ctx, driver, entries)
	}
	if err != nil {
		return err
	}

	if db != nil {
		runs := repositories.NewRunRepository(db)
		if recordErr := runs.Record(summary, source, opts.DryRun, startedAt); recordErr != nil {
			r.logger.Warn("failed to record run history", "error", recordErr)
		}
	}

	if _, err := r.output.Write(formatter.SummaryToText(summary)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if reportPath := cmd.String("report"); reportPath != "" && len(summary.Skipped) > 0 {
		data, err := formatter.UnmatchedToCSV(summary.Skipped)
		if err != nil {
			return fmt.Errorf("failed to generate unmatched report: %w", err)
		}
		if err := os.WriteFile(reportPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write unmatched report: %w", err)
		}
		r.writePlain("\n✓ Unmatched tracks written to %s\n", reportPath)
	}

	if failed := summary.WriteFailures(); len(failed) > 0 {
		return fmt.Errorf("%w: %d playlist(s) failed to write", shared.ErrRemoteWrite, len(failed))
	}

	return nil
}

// importEntries resolves the run's input: a Spotify account-data JSON
// export, a CSV file, or the live Spotify API.
func (r *Runner) importEntries(ctx context.Context, cmd *cli.Command) ([]models.PlaylistEntry, string, error) {
	if cmd.Bool("from-spotify") {
		if r.spotify == nil {
			return nil, "", fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
		}

		token := r.config.Credentials.Spotify.AccessToken
		if token == "" {
			return nil, "", fmt.Errorf("%w: run 'jfin spotify auth' first", shared.ErrNotAuthenticated)
		}
		if err := r.spotify.Authenticate(ctx, token, ""); err != nil {
			return nil, "", err
		}

		entries, err := r.spotify.Entries(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		return entries, "spotify", nil
	}

	filePath := cmd.StringArg("file")
	if filePath == "" {
		return nil, "", fmt.Errorf("%w: file path (or --from-spotify)", shared.ErrMissingArgument)
	}

	entries, err := parser.ParseFile(filePath, cmd.Bool("spotify"))
	if err != nil {
		return nil, "", err
	}
	return entries, filePath, nil
}

// runWithProgress executes the import with plain progress lines on stdout.
func (r *Runner) runWithProgress(ctx context.Context, driver *importer.Driver, entries []models.PlaylistEntry) (*models.RunSummary, error) {
	progressCh := make(chan importer.ProgressUpdate, 50)
	drained := make(chan struct{})
	go func() {
		defer close(drained)
		for update := range progressCh {
			switch update.Phase {
			case importer.BuildCatalog:
				r.writePlain("📥 %s\n", update.Message)
			case importer.MatchTracks:
				if update.Step == 1 {
					r.writePlain("\n🔍 Matching tracks\n")
				}
				r.writePlain("   %s\n", update.Message)
			case importer.MergePlaylists:
				r.writePlain("📝 %s\n", update.Message)
			}
		}
	}()

	summary, err := driver.Run(ctx, entries, progressCh)
	close(progressCh)
	<-drained

	if err != nil {
		return nil, err
	}

	r.writePlain("\n═══════════════════════════════════════\n\n")
	return summary, nil
}

// runWithUI executes the import inside the bubbletea TUI.
func (r *Runner) runWithUI(ctx context.Context, driver *importer.Driver, entries []models.PlaylistEntry) (*models.RunSummary, error) {
	run := func(ctx context.Context, progress chan<- importer.ProgressUpdate) (*models.RunSummary, error) {
		return driver.Run(ctx, entries, progress)
	}

	model := ui.NewModel(ctx, run)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return nil, fmt.Errorf("error running TUI: %w", err)
	}

	summary, err := model.Summary()
	if err != nil {
		return nil, err
	}
	if summary == nil {
		return nil, fmt.Errorf("import cancelled")
	}
	return summary, nil
}
