package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jfin/internal/importer"
	"github.com/desertthunder/jfin/internal/shared"
	"github.com/urfave/cli/v3"
)

// CatalogSearch fuzzy-searches the server's audio catalog for a track.
//
// Useful for checking what an unmatched export row would have scored
// against before loosening --fuzz.
func (r *Runner) CatalogSearch(ctx context.Context, cmd *cli.Command) error {
	query := cmd.StringArg("query")
	if query == "" {
		return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
	}

	server, err := r.server(ctx)
	if err != nil {
		return err
	}

	r.logger.Info("searching catalog", "query", query)

	catalog := importer.NewCatalog(server)
	if err := catalog.Build(ctx); err != nil {
		return err
	}

	results := catalog.Search(query, cmd.Int("limit"))

	if cmd.Bool("json") {
		return r.writeJSON(results, true)
	}

	r.writePlain("Catalog: %d tracks\n\n", catalog.Size())
	for i, result := range results {
		track := result.Track
		r.writePlain("%d. [%3d] %s - %s", i+1, result.Score, track.Artist, track.Title)
		if track.Album != "" {
			r.writePlain(" (%s)", track.Album)
		}
		r.writePlain("\n   ID: %s\n", track.ID)
	}

	return nil
}
