// package formatter renders run summaries and playlist exports to various formats (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/shared"
)

// SummaryToText renders a run summary for terminal output. Playlists are
// listed in merge order; write failures carry their error text.
func SummaryToText(summary *models.RunSummary) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Run: %s\n", summary.RunID))
	buf.WriteString(fmt.Sprintf("Matched: %d\n", summary.Matched))
	buf.WriteString(fmt.Sprintf("Unmatched: %d\n\n", summary.Unmatched))

	for _, pl := range summary.Playlists {
		switch {
		case pl.Err != nil:
			buf.WriteString(fmt.Sprintf("  %s: FAILED (%v)\n", pl.Name, pl.Err))
		case pl.Created:
			buf.WriteString(fmt.Sprintf("  %s: created with %d tracks%s\n", pl.Name, pl.Appended, dryRunSuffix(pl)))
		case pl.Appended > 0:
			buf.WriteString(fmt.Sprintf("  %s: appended %d, already present %d%s\n", pl.Name, pl.Appended, pl.Skipped, dryRunSuffix(pl)))
		case pl.Skipped > 0:
			buf.WriteString(fmt.Sprintf("  %s: up to date (%d tracks already present)\n", pl.Name, pl.Skipped))
		default:
			buf.WriteString(fmt.Sprintf("  %s: skipped, no tracks found on server\n", pl.Name))
		}
	}

	if len(summary.Skipped) > 0 {
		buf.WriteString("\nUnmatched tracks:\n")
		for _, track := range summary.Skipped {
			buf.WriteString(fmt.Sprintf("  %s - %s", track.Artist, track.Title))
			if track.Album != "" {
				buf.WriteString(fmt.Sprintf(" (%s)", track.Album))
			}
			buf.WriteString("\n")
		}
	}

	return buf.Bytes()
}

func dryRunSuffix(pl models.PlaylistReport) string {
	if pl.DryRun {
		return " [dry run]"
	}
	return ""
}

// UnmatchedToCSV renders the descriptors that found no match as a CSV with
// the same header the import accepts, so the file can be fixed up and re-fed.
func UnmatchedToCSV(skipped []models.TrackDescriptor) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	if err := writer.Write([]string{"trackName", "artistName", "albumName"}); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range skipped {
		if err := writer.Write([]string{track.Title, track.Artist, track.Album}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToCSV converts a PlaylistExport to CSV format with columns: ID, Title, Artist, Album
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "Album"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		record := []string{track.ID, track.Title, track.Artist, track.Album}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown format
func ExportToMarkdown(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Playlist.Name))
	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(export.Tracks)))
	buf.WriteString(fmt.Sprintf("**Visibility**: %s\n\n", shared.VisibilityString(export.Playlist.Public)))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		albumPart := ""
		if track.Album != "" {
			albumPart = fmt.Sprintf(" (%s)", track.Album)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s\n", i+1, track.Artist, track.Title, albumPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name))
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, track.Artist, track.Title))
	}

	return buf.Bytes(), nil
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.PlaylistState) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to playlist ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *models.PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.ID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// WriteMarkdownExport exports a playlist to Markdown format.
//
// Defaults to {playlist.ID}.md as the filename.
func WriteMarkdownExport(export *models.PlaylistExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s.md", export.Playlist.ID)
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate Markdown: %w", err)
	}

	if err := os.WriteFile(filepath, mdData, 0644); err != nil {
		return "", fmt.Errorf("failed to write Markdown file: %w", err)
	}

	return filepath, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {playlist.ID}_tracks.txt as the filename.
func WriteTextExport(export *models.PlaylistExport, filepath string) (string, error) {
	if filepath == "" {
		filepath = fmt.Sprintf("%s_tracks.txt", export.Playlist.ID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(filepath, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return filepath, nil
}
