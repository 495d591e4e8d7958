package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/jfin/internal/formatter"
	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/shared"
	"github.com/urfave/cli/v3"
)

// playlistReader is the optional server surface the playlists commands
// need beyond [services.MediaServer]. JellyfinService implements it.
type playlistReader interface {
	ListPlaylists(ctx context.Context) ([]models.PlaylistState, error)
	PlaylistTracks(ctx context.Context, playlistID string) ([]models.CatalogTrack, error)
}

func (r *Runner) playlistReader(ctx context.Context) (playlistReader, error) {
	server, err := r.server(ctx)
	if err != nil {
		return nil, err
	}

	reader, ok := server.(playlistReader)
	if !ok {
		return nil, fmt.Errorf("%w: %s does not support playlist listing", shared.ErrServiceUnavailable, server.Name())
	}
	return reader, nil
}

// PlaylistsList lists playlists on the Jellyfin server.
func (r *Runner) PlaylistsList(ctx context.Context, cmd *cli.Command) error {
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	reader, err := r.playlistReader(ctx)
	if err != nil {
		return err
	}

	playlists, err := reader.ListPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", len(p.TrackIDs))
		r.writePlain("   Visibility: %s\n\n", shared.VisibilityString(p.Public))
	}

	return nil
}

// PlaylistsExport exports a playlist and its resolved tracks to a file.
func (r *Runner) PlaylistsExport(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	format := cmd.String("format")
	output := cmd.String("output")

	reader, err := r.playlistReader(ctx)
	if err != nil {
		return err
	}

	server, err := r.server(ctx)
	if err != nil {
		return err
	}

	state, err := server.GetPlaylistByName(ctx, name)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	if state == nil {
		return fmt.Errorf("%w: %q", shared.ErrPlaylistNotFound, name)
	}

	tracks, err := reader.PlaylistTracks(ctx, state.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	export := &models.PlaylistExport{Playlist: *state, Tracks: tracks}

	r.logger.Info("exporting playlist", "playlist", state.Name, "tracks", len(tracks), "format", format)

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Tracks written to %s\n", result.TracksFile)
		r.writePlain("✓ Metadata written to %s\n", result.MetadataFile)
	case "markdown", "md":
		path, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Playlist written to %s\n", path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Playlist written to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q (want csv, markdown, or text)", shared.ErrInvalidFlag, format)
	}

	return nil
}
