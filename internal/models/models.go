// package models defines the data model for the playlist import tool
package models

// TrackDescriptor describes one track as it appears in an export file.
// Album may be empty; duplicates across rows are allowed and each is
// attempted independently.
type TrackDescriptor struct {
	Title  string
	Artist string
	Album  string
}

// PlaylistEntry pairs a descriptor with the playlist it belongs to.
// Input parsing yields one entry per source row.
type PlaylistEntry struct {
	Playlist string
	Track    TrackDescriptor
}

// CatalogTrack is one audio item known to the media server.
type CatalogTrack struct {
	ID     string
	Title  string
	Artist string
	Album  string
}

// MatchResult is the outcome of resolving a single descriptor.
// ID is empty when no catalog track reached the tolerance threshold.
type MatchResult struct {
	Descriptor TrackDescriptor
	ID         string
	Score      int
	Cached     bool
}

// Matched reports whether the descriptor resolved to a catalog track.
func (m MatchResult) Matched() bool { return m.ID != "" }

// PlaylistState is a playlist as it currently exists on the server.
// TrackIDs preserves server order.
type PlaylistState struct {
	ID       string
	Name     string
	Public   bool
	TrackIDs []string
}

// PlaylistReport summarizes what the merger did (or would do, under
// dry-run) for one playlist.
type PlaylistReport struct {
	Name     string
	Created  bool
	Appended int
	Skipped  int // resolved IDs already present on the server
	DryRun   bool
	Err      error
}

// PlaylistExport pairs a playlist's server state with its resolved tracks,
// ready for rendering to a file format.
type PlaylistExport struct {
	Playlist PlaylistState
	Tracks   []CatalogTrack
}

// RunSummary is the structured result of one import run.
type RunSummary struct {
	RunID     string
	Matched   int
	Unmatched int
	Playlists []PlaylistReport
	Skipped   []TrackDescriptor // descriptors that found no match
}

// WriteFailures returns the reports whose remote write was rejected.
func (s *RunSummary) WriteFailures() []PlaylistReport {
	var failed []PlaylistReport
	for _, pl := range s.Playlists {
		if pl.Err != nil {
			failed = append(failed, pl)
		}
	}
	return failed
}
