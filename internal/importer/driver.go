package importer

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/services"
	"github.com/desertthunder/jfin/internal/shared"
)

// RunState tracks where a run is in its lifecycle.
type RunState int

const (
	StateInit RunState = iota
	StateCatalogBuilt
	StateMatching
	StateMerging
	StateDone
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateCatalogBuilt:
		return "catalog_built"
	case StateMatching:
		return "matching"
	case StateMerging:
		return "merging"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return ""
	}
}

// MatchCache looks up and stores previously resolved matches so repeat runs
// skip the fuzzy comparison. Implemented by repositories.MatchRepository; a
// nil cache disables caching.
type MatchCache interface {
	// Get returns the cached item ID for a descriptor under the given
	// matching parameters, or ok=false on a miss.
	Get(descriptor models.TrackDescriptor, tolerance int, anyAlbum bool) (itemID string, ok bool)

	// Put stores a successful resolution. Failures are non-fatal to the
	// run and only logged.
	Put(descriptor models.TrackDescriptor, tolerance int, anyAlbum bool, itemID string, score int) error
}

// Options configures one import run.
type Options struct {
	Tolerance int  // fuzzy threshold, 80-100
	AnyAlbum  bool // search the whole catalog instead of the descriptor's album
	DryRun    bool // report without mutating the server
	Public    bool // visibility for newly created playlists
}

// Driver orchestrates a full import run.
type Driver struct {
	server  services.MediaServer
	catalog *Catalog
	matcher *Matcher
	merger  *Merger
	cache   MatchCache
	logger  *log.Logger
	opts    Options
	state   RunState
}

// NewDriver wires up a Driver. cache may be nil.
func NewDriver(server services.MediaServer, logger *log.Logger, opts Options, cache MatchCache) (*Driver, error) {
	if server == nil {
		return nil, fmt.Errorf("%w: media server not initialized", shared.ErrServiceUnavailable)
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	catalog := NewCatalog(server)
	matcher, err := NewMatcher(catalog, MatcherOpts{Tolerance: opts.Tolerance, AnyAlbum: opts.AnyAlbum})
	if err != nil {
		return nil, err
	}

	return &Driver{
		server:  server,
		catalog: catalog,
		matcher: matcher,
		merger:  NewMerger(server),
		cache:   cache,
		logger:  logger,
		opts:    opts,
		state:   StateInit,
	}, nil
}

// State returns the driver's current run state.
func (d *Driver) State() RunState { return d.state }

// Catalog exposes the built catalog, e.g. for the search command.
func (d *Driver) Catalog() *Catalog { return d.catalog }

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (d *Driver) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// playlistGroup holds one playlist's descriptors in input order.
type playlistGroup struct {
	name        string
	descriptors []models.TrackDescriptor
}

// groupEntries splits entries per playlist, preserving first-seen playlist
// order and per-playlist descriptor order.
func groupEntries(entries []models.PlaylistEntry) []playlistGroup {
	index := make(map[string]int)
	var groups []playlistGroup

	for _, entry := range entries {
		i, ok := index[entry.Playlist]
		if !ok {
			i = len(groups)
			index[entry.Playlist] = i
			groups = append(groups, playlistGroup{name: entry.Playlist})
		}
		groups[i].descriptors = append(groups[i].descriptors, entry.Track)
	}

	return groups
}

// resolve finds the catalog ID for one descriptor, consulting the cache
// first. Cached IDs that have vanished from the catalog fall back to a
// fresh fuzzy match.
func (d *Driver) resolve(descriptor models.TrackDescriptor) models.MatchResult {
	if d.cache != nil {
		if id, ok := d.cache.Get(descriptor, d.opts.Tolerance, d.opts.AnyAlbum); ok && d.catalog.Contains(id) {
			return models.MatchResult{Descriptor: descriptor, ID: id, Cached: true}
		}
	}

	result := d.matcher.Match(descriptor)

	if result.Matched() && d.cache != nil {
		if err := d.cache.Put(descriptor, d.opts.Tolerance, d.opts.AnyAlbum, result.ID, result.Score); err != nil {
			d.logger.Debug("failed to cache match", "title", descriptor.Title, "err", err)
		}
	}

	return result
}

// Run executes one import: build the catalog, resolve every entry, merge
// per playlist, and summarize. The returned error is non-nil only for
// fatal failures (empty input, catalog unavailable); per-track and
// per-playlist problems land in the summary.
func (d *Driver) Run(ctx context.Context, entries []models.PlaylistEntry, progress chan<- ProgressUpdate) (*models.RunSummary, error) {
	if len(entries) == 0 {
		d.state = StateFailed
		return nil, fmt.Errorf("%w: no tracks to import", shared.ErrInvalidInput)
	}

	d.sendProgress(progress, buildCatalogUpdate())
	if err := d.catalog.Build(ctx); err != nil {
		d.state = StateFailed
		return nil, err
	}
	d.state = StateCatalogBuilt
	d.logger.Info("catalog built", "tracks", d.catalog.Size())
	d.sendProgress(progress, catalogBuiltUpdate(d.catalog.Size()))

	summary := &models.RunSummary{RunID: shared.GenerateID()}

	d.state = StateMatching
	groups := groupEntries(entries)
	resolved := make(map[string][]string, len(groups))

	total := len(entries)
	step := 0
	for _, group := range groups {
		for _, descriptor := range group.descriptors {
			step++
			result := d.resolve(descriptor)
			d.sendProgress(progress, matchTrackUpdate(step, total, result))

			if result.Matched() {
				summary.Matched++
				resolved[group.name] = append(resolved[group.name], result.ID)
				d.logger.Info("track found",
					"title", descriptor.Title, "artist", descriptor.Artist, "album", descriptor.Album,
					"item", result.ID, "score", result.Score, "cached", result.Cached)
			} else {
				summary.Unmatched++
				summary.Skipped = append(summary.Skipped, descriptor)
				d.logger.Warn("track not found",
					"title", descriptor.Title, "artist", descriptor.Artist, "album", descriptor.Album,
					"best_score", result.Score)
			}
		}
	}

	d.state = StateMerging
	ensureOpts := EnsureOpts{DryRun: d.opts.DryRun, Public: d.opts.Public}
	for i, group := range groups {
		ids := resolved[group.name]

		d.sendProgress(progress, mergePlaylistUpdate(i+1, len(groups), group.name))

		if len(ids) == 0 {
			d.logger.Info("playlist skipped: no tracks found on server", "playlist", group.name)
			report := models.PlaylistReport{Name: group.name, DryRun: d.opts.DryRun}
			summary.Playlists = append(summary.Playlists, report)
			d.sendProgress(progress, mergeDoneUpdate(i+1, len(groups), report))
			continue
		}

		report := d.merger.Ensure(ctx, group.name, ids, ensureOpts)
		summary.Playlists = append(summary.Playlists, report)
		d.sendProgress(progress, mergeDoneUpdate(i+1, len(groups), report))

		if report.Err != nil {
			d.logger.Error("playlist write failed", "playlist", group.name, "err", report.Err)
		} else {
			d.logger.Info("playlist merged",
				"playlist", group.name, "created", report.Created,
				"appended", report.Appended, "already_present", report.Skipped,
				"dry_run", report.DryRun)
		}
	}

	d.state = StateDone
	d.sendProgress(progress, completeUpdate(summary))
	return summary, nil
}
