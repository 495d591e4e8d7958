// Spotify API implementation of [PlaylistSource]
//
// Lets users import straight from the Spotify API instead of an
// account-data export file. Response types based on
// https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/shared"
	"golang.org/x/oauth2"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// SpotifyTrack represents a Spotify track.
type SpotifyTrack struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Artists []SpotifyArtist `json:"artists"`
	Album   SpotifyAlbum    `json:"album"`
}

// SpotifyArtist represents a Spotify artist.
type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyAlbum represents a Spotify album.
type SpotifyAlbum struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// SpotifyPlaylistTrack represents a track within a playlist context.
type SpotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   SpotifyTrack `json:"track"`
}

type playlistItemsPage struct {
	Items []SpotifyPlaylistTrack `json:"items"`
	Total int                    `json:"total"`
	Next  *string                `json:"next"`
}

// SpotifySimplePlaylist represents a simplified playlist object (used in lists).
type SpotifySimplePlaylist struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Public bool   `json:"public"`
	Tracks struct {
		Total int `json:"total"`
	} `json:"tracks"`
}

// SpotifyPaginatedPlaylists represents a paginated response of playlists.
type SpotifyPaginatedPlaylists struct {
	Items  []SpotifySimplePlaylist `json:"items"`
	Total  int                     `json:"total"`
	Limit  int                     `json:"limit"`
	Offset int                     `json:"offset"`
	Next   *string                 `json:"next"`
}

// SpotifySource implements PlaylistSource against the Spotify API.
// Uses [oauth2] for authentication with read-only playlist scopes.
type SpotifySource struct {
	config     *oauth2.Config
	token      *oauth2.Token
	httpClient *http.Client
}

// NewSpotifySource creates a new Spotify source with the given OAuth2 credentials.
func NewSpotifySource(cfg shared.SpotifyConfig) (*SpotifySource, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: missing spotify client_id or client_secret", shared.ErrMissingCredentials)
	}

	redirectURI := cfg.RedirectURI
	if redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"playlist-read-private",
			"playlist-read-collaborative",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifySource{
		config:     config,
		httpClient: http.DefaultClient,
	}, nil
}

func (s *SpotifySource) Name() string {
	return "Spotify"
}

// GetOAuthConfig exposes the underlying OAuth2 config for the loopback
// callback handler.
func (s *SpotifySource) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifySource) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// Authenticate completes OAuth2 authentication. Accepts either a previously
// obtained access token or an authorization code to exchange.
func (s *SpotifySource) Authenticate(ctx context.Context, accessToken, authCode string) error {
	if accessToken != "" {
		s.token = &oauth2.Token{AccessToken: accessToken}
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	if authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("%w: failed to exchange auth code: %v", shared.ErrAuthFailed, err)
		}
		s.token = token
		s.httpClient = s.config.Client(ctx, s.token)
		return nil
	}

	return fmt.Errorf("%w: missing access token or auth code", shared.ErrMissingCredentials)
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifySource) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.token == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", spotifyBaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+s.token.AccessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// UserPlaylists retrieves one page of the current user's playlists.
func (s *SpotifySource) UserPlaylists(ctx context.Context, limit, offset int) (*SpotifyPaginatedPlaylists, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 50 {
		limit = 50
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var response SpotifyPaginatedPlaylists
	if err := s.doRequest(ctx, endpoint, &response); err != nil {
		return nil, err
	}

	return &response, nil
}

// AllPlaylists retrieves every playlist for the authenticated user.
func (s *SpotifySource) AllPlaylists(ctx context.Context) ([]SpotifySimplePlaylist, error) {
	var all []SpotifySimplePlaylist
	limit := 50
	offset := 0

	for {
		page, err := s.UserPlaylists(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// PlaylistTracks retrieves every track of a playlist, following pagination.
func (s *SpotifySource) PlaylistTracks(ctx context.Context, playlistID string) ([]SpotifyPlaylistTrack, error) {
	var all []SpotifyPlaylistTrack
	limit := 100
	offset := 0

	for {
		endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", playlistID, limit, offset)

		var page playlistItemsPage
		if err := s.doRequest(ctx, endpoint, &page); err != nil {
			return nil, err
		}

		all = append(all, page.Items...)

		if page.Next == nil {
			break
		}
		offset += limit
	}

	return all, nil
}

// Entries fetches all playlists and their tracks, flattened into importer
// entries. Playlists without tracks yield no entries.
func (s *SpotifySource) Entries(ctx context.Context) ([]models.PlaylistEntry, error) {
	playlists, err := s.AllPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	var entries []models.PlaylistEntry
	for _, pl := range playlists {
		tracks, err := s.PlaylistTracks(ctx, pl.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch tracks for %q: %w", pl.Name, err)
		}

		for _, item := range tracks {
			descriptor := models.TrackDescriptor{
				Title: item.Track.Name,
				Album: item.Track.Album.Name,
			}
			if len(item.Track.Artists) > 0 {
				descriptor.Artist = item.Track.Artists[0].Name
			}

			entries = append(entries, models.PlaylistEntry{
				Playlist: pl.Name,
				Track:    descriptor,
			})
		}
	}

	return entries, nil
}
