// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"testing"

	"github.com/desertthunder/jfin/internal/models"
)

// FakeServer is a configurable in-memory test double for
// [services.MediaServer].
type FakeServer struct {
	Tracks    []models.CatalogTrack
	Playlists map[string]*models.PlaylistState

	ListErr   error
	LookupErr error
	CreateErr error
	AppendErr error

	ListCalls   int
	LookupCalls int
	CreateCalls int
	AppendCalls int

	nextID int
}

func NewFakeServer(tracks ...models.CatalogTrack) *FakeServer {
	return &FakeServer{
		Tracks:    tracks,
		Playlists: make(map[string]*models.PlaylistState),
	}
}

func (f *FakeServer) Name() string { return "fake" }

func (f *FakeServer) Authenticate(ctx context.Context) error { return nil }

func (f *FakeServer) ListAllTracks(ctx context.Context) ([]models.CatalogTrack, error) {
	f.ListCalls++
	if f.ListErr != nil {
		return nil, f.ListErr
	}
	return f.Tracks, nil
}

func (f *FakeServer) GetPlaylistByName(ctx context.Context, name string) (*models.PlaylistState, error) {
	f.LookupCalls++
	if f.LookupErr != nil {
		return nil, f.LookupErr
	}
	state, ok := f.Playlists[name]
	if !ok {
		return nil, nil
	}
	// Copy so callers can't mutate server state through the cache.
	clone := *state
	clone.TrackIDs = append([]string(nil), state.TrackIDs...)
	return &clone, nil
}

func (f *FakeServer) CreatePlaylist(ctx context.Context, name string, trackIDs []string, public bool) (string, error) {
	f.CreateCalls++
	if f.CreateErr != nil {
		return "", f.CreateErr
	}
	f.nextID++
	id := fmt.Sprintf("pl-%d", f.nextID)
	f.Playlists[name] = &models.PlaylistState{
		ID:       id,
		Name:     name,
		Public:   public,
		TrackIDs: append([]string(nil), trackIDs...),
	}
	return id, nil
}

func (f *FakeServer) AppendToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	f.AppendCalls++
	if f.AppendErr != nil {
		return f.AppendErr
	}
	for _, state := range f.Playlists {
		if state.ID == playlistID {
			state.TrackIDs = append(state.TrackIDs, trackIDs...)
			return nil
		}
	}
	return errors.New("playlist not found")
}

// ListPlaylists returns all playlists sorted by ID for stable output.
func (f *FakeServer) ListPlaylists(ctx context.Context) ([]models.PlaylistState, error) {
	if f.LookupErr != nil {
		return nil, f.LookupErr
	}
	var playlists []models.PlaylistState
	for _, state := range f.Playlists {
		clone := *state
		clone.TrackIDs = append([]string(nil), state.TrackIDs...)
		playlists = append(playlists, clone)
	}
	sort.Slice(playlists, func(i, j int) bool { return playlists[i].ID < playlists[j].ID })
	return playlists, nil
}

// PlaylistTracks resolves a playlist's track IDs against the fake catalog.
func (f *FakeServer) PlaylistTracks(ctx context.Context, playlistID string) ([]models.CatalogTrack, error) {
	if f.LookupErr != nil {
		return nil, f.LookupErr
	}
	for _, state := range f.Playlists {
		if state.ID != playlistID {
			continue
		}
		var tracks []models.CatalogTrack
		for _, id := range state.TrackIDs {
			for _, track := range f.Tracks {
				if track.ID == id {
					tracks = append(tracks, track)
					break
				}
			}
		}
		return tracks, nil
	}
	return nil, errors.New("playlist not found")
}

// WriteCalls returns the total number of mutating calls made.
func (f *FakeServer) WriteCalls() int {
	return f.CreateCalls + f.AppendCalls
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
