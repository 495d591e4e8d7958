// Jellyfin API implementation of [MediaServer]
//
// Endpoint shapes follow https://api.jellyfin.org/
package services

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/shared"
	"golang.org/x/time/rate"
)

// catalogPageSize is the number of items requested per catalog page.
const catalogPageSize = 500

// jellyfinUser represents a Jellyfin user account.
type jellyfinUser struct {
	ID   string `json:"Id"`
	Name string `json:"Name"`
}

// JellyfinItem represents one library item (audio track or playlist).
type JellyfinItem struct {
	ID          string   `json:"Id"`
	Name        string   `json:"Name"`
	Type        string   `json:"Type"`
	Album       string   `json:"Album"`
	AlbumArtist string   `json:"AlbumArtist"`
	Artists     []string `json:"Artists"`
}

// itemsResponse is the envelope Jellyfin wraps item listings in.
type itemsResponse struct {
	Items            []JellyfinItem `json:"Items"`
	TotalRecordCount int            `json:"TotalRecordCount"`
}

type createPlaylistResponse struct {
	ID string `json:"Id"`
}

// JellyfinService implements the MediaServer interface against a Jellyfin
// server using token authentication. Requests are rate limited so catalog
// pagination and playlist writes stay gentle on small home servers.
type JellyfinService struct {
	baseURL    string
	token      string
	username   string
	userID     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewJellyfinService creates a Jellyfin client from connection settings.
func NewJellyfinService(cfg shared.JellyfinConfig) (*JellyfinService, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: missing jellyfin url", shared.ErrInvalidConfig)
	}
	if cfg.Token == "" {
		return nil, fmt.Errorf("%w: missing jellyfin token", shared.ErrMissingCredentials)
	}
	if cfg.Username == "" {
		return nil, fmt.Errorf("%w: missing jellyfin username", shared.ErrMissingCredentials)
	}

	client := http.DefaultClient
	if cfg.SkipTLS {
		client = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
			},
		}
	}

	return &JellyfinService{
		baseURL:    strings.TrimSuffix(cfg.URL, "/"),
		token:      cfg.Token,
		username:   cfg.Username,
		httpClient: client,
		limiter:    rate.NewLimiter(rate.Limit(10), 5),
	}, nil
}

func (s *JellyfinService) Name() string {
	return "Jellyfin"
}

// doRequest performs an authenticated HTTP request to the Jellyfin API.
func (s *JellyfinService) doRequest(ctx context.Context, method, endpoint string, params url.Values, body any, result any) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	apiURL := s.baseURL + endpoint
	if len(params) > 0 {
		apiURL += "?" + params.Encode()
	}

	var reqBody *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", fmt.Sprintf("MediaBrowser Token=%q", s.token))
	req.Header.Set("X-Emby-Token", s.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: jellyfin status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// Authenticate resolves the configured username to a user ID. All item and
// playlist queries are scoped to that user.
func (s *JellyfinService) Authenticate(ctx context.Context) error {
	var users []jellyfinUser
	if err := s.doRequest(ctx, "GET", "/Users", nil, nil, &users); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	for _, user := range users {
		if user.Name == s.username {
			s.userID = user.ID
			return nil
		}
	}

	return fmt.Errorf("%w: user %q not found on server", shared.ErrInvalidCredentials, s.username)
}

// requireUser guards methods that need a resolved user ID.
func (s *JellyfinService) requireUser() error {
	if s.userID == "" {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}
	return nil
}

// ListAllTracks retrieves every audio item the user can see, paginating
// until the server reports no more records.
func (s *JellyfinService) ListAllTracks(ctx context.Context) ([]models.CatalogTrack, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}

	var tracks []models.CatalogTrack
	startIndex := 0

	for {
		params := url.Values{}
		params.Set("IncludeItemTypes", "Audio")
		params.Set("Recursive", "true")
		params.Set("StartIndex", fmt.Sprintf("%d", startIndex))
		params.Set("Limit", fmt.Sprintf("%d", catalogPageSize))

		var page itemsResponse
		endpoint := fmt.Sprintf("/Users/%s/Items", s.userID)
		if err := s.doRequest(ctx, "GET", endpoint, params, nil, &page); err != nil {
			return nil, err
		}

		for _, item := range page.Items {
			tracks = append(tracks, itemToCatalogTrack(item))
		}

		startIndex += len(page.Items)
		if len(page.Items) == 0 || startIndex >= page.TotalRecordCount {
			break
		}
	}

	return tracks, nil
}

// itemToCatalogTrack maps a Jellyfin audio item onto the importer's model.
func itemToCatalogTrack(item JellyfinItem) models.CatalogTrack {
	artist := item.AlbumArtist
	if len(item.Artists) > 0 {
		artist = item.Artists[0]
	}
	return models.CatalogTrack{
		ID:     item.ID,
		Title:  item.Name,
		Artist: artist,
		Album:  item.Album,
	}
}

// ListPlaylists retrieves all playlists the user can see.
func (s *JellyfinService) ListPlaylists(ctx context.Context) ([]models.PlaylistState, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("IncludeItemTypes", "Playlist")
	params.Set("Recursive", "true")

	var page itemsResponse
	endpoint := fmt.Sprintf("/Users/%s/Items", s.userID)
	if err := s.doRequest(ctx, "GET", endpoint, params, nil, &page); err != nil {
		return nil, err
	}

	playlists := make([]models.PlaylistState, 0, len(page.Items))
	for _, item := range page.Items {
		playlists = append(playlists, models.PlaylistState{ID: item.ID, Name: item.Name})
	}

	return playlists, nil
}

// GetPlaylistByName finds a playlist by exact name and loads its current
// track IDs in server order. Returns (nil, nil) when absent.
func (s *JellyfinService) GetPlaylistByName(ctx context.Context, name string) (*models.PlaylistState, error) {
	playlists, err := s.ListPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	for _, pl := range playlists {
		if pl.Name != name {
			continue
		}

		ids, err := s.playlistTrackIDs(ctx, pl.ID)
		if err != nil {
			return nil, err
		}
		pl.TrackIDs = ids
		return &pl, nil
	}

	return nil, nil
}

// playlistTrackIDs returns the IDs of a playlist's entries in server order.
func (s *JellyfinService) playlistTrackIDs(ctx context.Context, playlistID string) ([]string, error) {
	items, err := s.PlaylistTracks(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ID)
	}
	return ids, nil
}

// PlaylistTracks retrieves a playlist's entries with track metadata.
func (s *JellyfinService) PlaylistTracks(ctx context.Context, playlistID string) ([]models.CatalogTrack, error) {
	if err := s.requireUser(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("userId", s.userID)

	var page itemsResponse
	endpoint := fmt.Sprintf("/Playlists/%s/Items", playlistID)
	if err := s.doRequest(ctx, "GET", endpoint, params, nil, &page); err != nil {
		return nil, err
	}

	tracks := make([]models.CatalogTrack, 0, len(page.Items))
	for _, item := range page.Items {
		tracks = append(tracks, itemToCatalogTrack(item))
	}
	return tracks, nil
}

// CreatePlaylist creates an audio playlist with the given tracks.
func (s *JellyfinService) CreatePlaylist(ctx context.Context, name string, trackIDs []string, public bool) (string, error) {
	if err := s.requireUser(); err != nil {
		return "", err
	}

	payload := map[string]any{
		"Name":      name,
		"Ids":       trackIDs,
		"UserId":    s.userID,
		"MediaType": "Audio",
		"IsPublic":  public,
	}

	var created createPlaylistResponse
	if err := s.doRequest(ctx, "POST", "/Playlists", nil, payload, &created); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrRemoteWrite, err)
	}

	return created.ID, nil
}

// AppendToPlaylist adds tracks to the end of an existing playlist.
func (s *JellyfinService) AppendToPlaylist(ctx context.Context, playlistID string, trackIDs []string) error {
	if err := s.requireUser(); err != nil {
		return err
	}
	if len(trackIDs) == 0 {
		return nil
	}

	params := url.Values{}
	params.Set("ids", strings.Join(trackIDs, ","))
	params.Set("userId", s.userID)

	endpoint := fmt.Sprintf("/Playlists/%s/Items", playlistID)
	if err := s.doRequest(ctx, "POST", endpoint, params, nil, nil); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRemoteWrite, err)
	}

	return nil
}
