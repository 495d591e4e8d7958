// package parser reads playlist export files into entries ready for import.
//
// Two formats are supported: the JSON file Spotify produces for account data
// requests (Playlist1.json) and a flat CSV with one track per row. Both yield
// [models.PlaylistEntry] slices in file order.
package parser

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/shared"
)

// csvFields are the columns a CSV export must provide. Extra columns are
// ignored; order does not matter.
var csvFields = []string{"trackName", "artistName", "albumName"}

// spotifyExport mirrors the structure of a Spotify account-data playlist
// dump. Fields not needed for import are left out.
type spotifyExport struct {
	Playlists []struct {
		Name  string `json:"name"`
		Items []struct {
			Track *spotifyTrack `json:"track"`
		} `json:"items"`
	} `json:"playlists"`
}

type spotifyTrack struct {
	TrackName  string `json:"trackName"`
	ArtistName string `json:"artistName"`
	AlbumName  string `json:"albumName"`
}

// ParseSpotifyJSON decodes a Spotify account-data export. Playlists with no
// items are dropped; rows missing a track object (local files, podcasts) are
// skipped.
func ParseSpotifyJSON(r io.Reader) ([]models.PlaylistEntry, error) {
	var export spotifyExport
	if err := json.NewDecoder(r).Decode(&export); err != nil {
		return nil, fmt.Errorf("%w: cannot decode json file: %v", shared.ErrInvalidInput, err)
	}

	var entries []models.PlaylistEntry
	for _, playlist := range export.Playlists {
		if len(playlist.Items) == 0 {
			continue
		}
		for _, item := range playlist.Items {
			if item.Track == nil {
				continue
			}
			entries = append(entries, models.PlaylistEntry{
				Playlist: playlist.Name,
				Track: models.TrackDescriptor{
					Title:  item.Track.TrackName,
					Artist: item.Track.ArtistName,
					Album:  item.Track.AlbumName,
				},
			})
		}
	}

	return entries, nil
}

// ParseCSV reads a flat CSV export into a single playlist named playlistName.
// The header row must contain trackName, artistName and albumName.
func ParseCSV(r io.Reader, playlistName string) ([]models.PlaylistEntry, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read CSV header: %v", shared.ErrInvalidInput, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.TrimSpace(name)] = i
	}
	for _, field := range csvFields {
		if _, ok := columns[field]; !ok {
			return nil, fmt.Errorf("%w: cannot find field %q in CSV header", shared.ErrInvalidInput, field)
		}
	}

	var entries []models.PlaylistEntry
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: malformed CSV record: %v", shared.ErrInvalidInput, err)
		}
		entries = append(entries, models.PlaylistEntry{
			Playlist: playlistName,
			Track: models.TrackDescriptor{
				Title:  record[columns["trackName"]],
				Artist: record[columns["artistName"]],
				Album:  record[columns["albumName"]],
			},
		})
	}

	return entries, nil
}

// ParseFile dispatches on format. For CSV files the playlist takes the name
// of the file without its extension.
func ParseFile(path string, spotify bool) ([]models.PlaylistEntry, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	defer f.Close()

	if spotify {
		return ParseSpotifyJSON(f)
	}
	return ParseCSV(f, FileStem(path))
}

// FileStem returns the base name of path without its extension.
func FileStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
