package importer

import (
	"fmt"

	"github.com/desertthunder/jfin/internal/models"
)

// ProgressUpdate represents a progress event during an import run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Run phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Run phase enumeration
type Phase int

const (
	BuildCatalog Phase = iota
	MatchTracks
	MergePlaylists
	Complete
)

func (p Phase) String() string {
	switch p {
	case BuildCatalog:
		return "build_catalog"
	case MatchTracks:
		return "match_tracks"
	case MergePlaylists:
		return "merge_playlists"
	case Complete:
		return "complete"
	default:
		return ""
	}
}

func buildCatalogUpdate() ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildCatalog,
		Step:    1,
		Total:   1,
		Message: "Fetching track catalog from server...",
	}
}

func catalogBuiltUpdate(size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BuildCatalog,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Catalog ready: %d tracks", size),
		Data:    size,
	}
}

func matchTrackUpdate(step, total int, result models.MatchResult) ProgressUpdate {
	d := result.Descriptor
	status := "✗"
	if result.Matched() {
		status = "✓"
	}
	return ProgressUpdate{
		Phase:   MatchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s %s - %s", step, total, status, d.Artist, d.Title),
		Data:    result,
	}
}

func mergePlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MergePlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Merging playlist: %s", step, total, name),
	}
}

func mergeDoneUpdate(step, total int, report models.PlaylistReport) ProgressUpdate {
	var message string
	switch {
	case report.Err != nil:
		message = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, report.Name, report.Err)
	case report.Created:
		message = fmt.Sprintf("[%d/%d] ✓ Created %s (%d tracks)", step, total, report.Name, report.Appended)
	case report.Appended > 0:
		message = fmt.Sprintf("[%d/%d] ✓ Updated %s (+%d tracks)", step, total, report.Name, report.Appended)
	default:
		message = fmt.Sprintf("[%d/%d] %s: nothing to do", step, total, report.Name)
	}
	return ProgressUpdate{
		Phase:   MergePlaylists,
		Step:    step,
		Total:   total,
		Message: message,
		Data:    report,
	}
}

func completeUpdate(summary *models.RunSummary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Complete,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Import complete: %d matched, %d skipped", summary.Matched, summary.Unmatched),
		Data:    summary,
	}
}
