package main

import (
	"context"

	"github.com/desertthunder/jfin/internal/repositories"
	"github.com/urfave/cli/v3"
)

// RunsList prints import run history, most recent first.
func (r *Runner) RunsList(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	runs := repositories.NewRunRepository(db)
	records, err := runs.List(cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(records, true)
	}

	if len(records) == 0 {
		r.writePlain("No import runs recorded yet.\n")
		return nil
	}

	r.writePlain("Found %d runs:\n\n", len(records))
	for _, record := range records {
		r.writePlain("%s  %s\n", record.StartedAt.Format("2006-01-02 15:04"), record.Source)
		r.writePlain("   ID: %s\n", record.ID)
		r.writePlain("   Matched: %d, Unmatched: %d, Playlists: %d", record.Matched, record.Unmatched, record.Playlists)
		if record.Failures > 0 {
			r.writePlain(", Failures: %d", record.Failures)
		}
		if record.DryRun {
			r.writePlain(" [dry run]")
		}
		r.writePlain("\n\n")
	}

	return nil
}

// CacheStats prints the number of cached matches.
func (r *Runner) CacheStats(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	matches := repositories.NewMatchRepository(db)
	count, err := matches.Count()
	if err != nil {
		return err
	}

	r.writePlain("Cached matches: %d\n", count)
	return nil
}

// CachePurge deletes all cached matches.
func (r *Runner) CachePurge(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	matches := repositories.NewMatchRepository(db)
	purged, err := matches.Purge()
	if err != nil {
		return err
	}

	r.logger.Info("match cache purged", "rows", purged)
	r.writePlain("✓ Purged %d cached matches\n", purged)
	return nil
}
