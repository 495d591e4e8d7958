package importer

import (
	"context"
	"fmt"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/services"
	"github.com/desertthunder/jfin/internal/shared"
)

// EnsureOpts configures one Ensure call.
type EnsureOpts struct {
	DryRun bool
	Public bool
}

// Merger idempotently ensures playlists exist and contain resolved tracks.
// Existing entries are never removed or reordered; new tracks are appended
// in resolution order. Playlist state is fetched lazily per name and cached
// for the lifetime of the run.
type Merger struct {
	server services.MediaServer
	states map[string]*models.PlaylistState
	known  map[string]bool
}

// NewMerger creates a Merger writing through the given server.
func NewMerger(server services.MediaServer) *Merger {
	return &Merger{
		server: server,
		states: make(map[string]*models.PlaylistState),
		known:  make(map[string]bool),
	}
}

// state returns the cached playlist state for name, fetching it on first
// use. A nil state with no error means the playlist does not exist.
func (g *Merger) state(ctx context.Context, name string) (*models.PlaylistState, error) {
	if g.known[name] {
		return g.states[name], nil
	}

	state, err := g.server.GetPlaylistByName(ctx, name)
	if err != nil {
		return nil, err
	}

	g.known[name] = true
	g.states[name] = state
	return state, nil
}

// dedupeIDs collapses exact-duplicate IDs, preserving first-occurrence order.
func dedupeIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	return unique
}

// Ensure makes the named playlist contain resolvedIDs without disturbing
// what is already there. Absent playlists are created with the deduped
// sequence; existing ones get only the residual IDs appended, in resolved
// order. Under dry-run no remote mutation happens and the report carries
// the hypothetical counts. A rejected write is recorded on the report and
// does not affect other playlists.
func (g *Merger) Ensure(ctx context.Context, name string, resolvedIDs []string, opts EnsureOpts) models.PlaylistReport {
	report := models.PlaylistReport{Name: name, DryRun: opts.DryRun}

	unique := dedupeIDs(resolvedIDs)
	if len(unique) == 0 {
		return report
	}

	state, err := g.state(ctx, name)
	if err != nil {
		// A failed read is not a rejected write; keep the taxonomy honest.
		report.Err = fmt.Errorf("%w: fetching playlist %q: %v", shared.ErrAPIRequest, name, err)
		return report
	}

	if state == nil {
		report.Created = true
		report.Appended = len(unique)
		if opts.DryRun {
			return report
		}

		id, err := g.server.CreatePlaylist(ctx, name, unique, opts.Public)
		if err != nil {
			report.Created = false
			report.Appended = 0
			report.Err = err
			return report
		}

		g.states[name] = &models.PlaylistState{
			ID:       id,
			Name:     name,
			Public:   opts.Public,
			TrackIDs: append([]string(nil), unique...),
		}
		return report
	}

	existing := make(map[string]struct{}, len(state.TrackIDs))
	for _, id := range state.TrackIDs {
		existing[id] = struct{}{}
	}

	var residual []string
	for _, id := range unique {
		if _, ok := existing[id]; ok {
			report.Skipped++
			continue
		}
		residual = append(residual, id)
	}

	report.Appended = len(residual)
	if len(residual) == 0 || opts.DryRun {
		return report
	}

	if err := g.server.AppendToPlaylist(ctx, state.ID, residual); err != nil {
		report.Appended = 0
		report.Err = err
		return report
	}

	state.TrackIDs = append(state.TrackIDs, residual...)
	return report
}
