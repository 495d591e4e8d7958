// package services defines interfaces for the remote media server and
// playlist sources
//
// Jellyfin (destination), Spotify (optional live source)
package services

import (
	"context"

	"github.com/desertthunder/jfin/internal/models"
)

// MediaServer defines the remote catalog and playlist operations the
// importer needs. Implemented by [JellyfinService].
type MediaServer interface {
	// Authenticate verifies credentials and resolves the acting user.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context) error

	// ListAllTracks retrieves every audio item visible to the user.
	// The importer calls this exactly once per run to build its catalog.
	ListAllTracks(ctx context.Context) ([]models.CatalogTrack, error)

	// GetPlaylistByName retrieves a playlist and its current track IDs.
	// Returns (nil, nil) when no playlist has that name.
	GetPlaylistByName(ctx context.Context, name string) (*models.PlaylistState, error)

	// CreatePlaylist creates a playlist with the given tracks and
	// visibility, returning its ID.
	CreatePlaylist(ctx context.Context, name string, trackIDs []string, public bool) (string, error)

	// AppendToPlaylist adds tracks to an existing playlist.
	AppendToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error

	// Name returns the name of the service (e.g., "Jellyfin")
	Name() string
}

// PlaylistSource yields the playlist entries to import. Implemented by the
// file parsers and by [SpotifySource].
type PlaylistSource interface {
	// Entries returns one entry per source row, grouped implicitly by
	// playlist name.
	Entries(ctx context.Context) ([]models.PlaylistEntry, error)

	// Name returns a short description of where the entries came from.
	Name() string
}
