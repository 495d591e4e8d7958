package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/desertthunder/jfin/internal/shared"
	"golang.org/x/oauth2"
)

func TestSpotifySource(t *testing.T) {
	t.Run("NewSpotifySource", func(t *testing.T) {
		t.Run("With Valid Credentials", func(t *testing.T) {
			src, err := NewSpotifySource(shared.SpotifyConfig{
				ClientID:     "test_client_id",
				ClientSecret: "test_client_secret",
				RedirectURI:  "http://localhost:9999/callback",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}

			if src.Name() != "Spotify" {
				t.Errorf("expected source name 'Spotify', got %s", src.Name())
			}

			if src.config.RedirectURL != "http://localhost:9999/callback" {
				t.Errorf("unexpected redirect URL %s", src.config.RedirectURL)
			}
		})

		t.Run("Missing Client ID", func(t *testing.T) {
			_, err := NewSpotifySource(shared.SpotifyConfig{ClientSecret: "secret"})
			if !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})

		t.Run("Default Redirect URI", func(t *testing.T) {
			src, err := NewSpotifySource(shared.SpotifyConfig{
				ClientID:     "id",
				ClientSecret: "secret",
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if src.config.RedirectURL != "http://localhost:8080/callback" {
				t.Errorf("expected default redirect URI, got %s", src.config.RedirectURL)
			}
		})
	})

	t.Run("Get AuthURL", func(t *testing.T) {
		src, err := NewSpotifySource(shared.SpotifyConfig{
			ClientID:     "test_client_id",
			ClientSecret: "test_client_secret",
		})
		if err != nil {
			t.Fatalf("failed to create source: %v", err)
		}

		authURL := src.GetAuthURL("test_state")
		if !strings.Contains(authURL, "accounts.spotify.com") {
			t.Error("auth URL should contain Spotify domain")
		}
		if !strings.Contains(authURL, "test_client_id") {
			t.Error("auth URL should contain client_id")
		}
		if !strings.Contains(authURL, "test_state") {
			t.Error("auth URL should contain state")
		}
	})

	t.Run("Authenticate", func(t *testing.T) {
		src, err := NewSpotifySource(shared.SpotifyConfig{
			ClientID:     "id",
			ClientSecret: "secret",
		})
		if err != nil {
			t.Fatalf("failed to create source: %v", err)
		}

		t.Run("With Access Token", func(t *testing.T) {
			if err := src.Authenticate(context.Background(), "tok", ""); err != nil {
				t.Errorf("expected no error with access token, got %v", err)
			}
			if src.token.AccessToken != "tok" {
				t.Errorf("expected token to be stored")
			}
		})

		t.Run("Missing Credentials", func(t *testing.T) {
			fresh, _ := NewSpotifySource(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
			if err := fresh.Authenticate(context.Background(), "", ""); !errors.Is(err, shared.ErrMissingCredentials) {
				t.Errorf("expected ErrMissingCredentials, got %v", err)
			}
		})
	})

	t.Run("Requests Require Authentication", func(t *testing.T) {
		src, _ := NewSpotifySource(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
		if _, err := src.AllPlaylists(context.Background()); !errors.Is(err, shared.ErrNotAuthenticated) {
			t.Errorf("expected ErrNotAuthenticated, got %v", err)
		}
	})
}

// spotifyRoundTripper serves canned JSON per request path.
type spotifyRoundTripper struct {
	responses map[string]any
}

func (rt *spotifyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	payload, ok := rt.responses[req.URL.Path]
	if !ok {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("{}")),
			Header:     http.Header{},
		}, nil
	}

	data, _ := json.Marshal(payload)
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewReader(data)),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
	}, nil
}

func TestSpotifyEntries(t *testing.T) {
	src, err := NewSpotifySource(shared.SpotifyConfig{ClientID: "id", ClientSecret: "secret"})
	if err != nil {
		t.Fatalf("failed to create source: %v", err)
	}

	src.token = &oauth2.Token{AccessToken: "tok"}
	src.httpClient = &http.Client{Transport: &spotifyRoundTripper{
		responses: map[string]any{
			"/v1/me/playlists": SpotifyPaginatedPlaylists{
				Items: []SpotifySimplePlaylist{
					{ID: "pl1", Name: "Morning Mix"},
					{ID: "pl2", Name: "Empty"},
				},
			},
			"/v1/playlists/pl1/tracks": playlistItemsPage{
				Items: []SpotifyPlaylistTrack{
					{Track: SpotifyTrack{
						ID:      "t1",
						Name:    "Yesterday",
						Artists: []SpotifyArtist{{Name: "The Beatles"}},
						Album:   SpotifyAlbum{Name: "Help!"},
					}},
				},
			},
			"/v1/playlists/pl2/tracks": playlistItemsPage{},
		},
	}}

	entries, err := src.Entries(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entry := entries[0]
	if entry.Playlist != "Morning Mix" {
		t.Errorf("expected playlist Morning Mix, got %s", entry.Playlist)
	}
	if entry.Track.Title != "Yesterday" || entry.Track.Artist != "The Beatles" || entry.Track.Album != "Help!" {
		t.Errorf("unexpected descriptor %+v", entry.Track)
	}
}
