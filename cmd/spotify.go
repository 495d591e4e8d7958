package main

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/jfin/internal/server"
	"github.com/desertthunder/jfin/internal/services"
	"github.com/desertthunder/jfin/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// SpotifyAuth performs OAuth2 authentication flow for Spotify.
//
// Starts a local HTTP server, opens browser for user authorization, and
// exchanges the auth code for tokens. The access token is written back to
// the config file for later `jfin import --from-spotify` runs.
func (r *Runner) SpotifyAuth(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	config := r.loadOrDefaultConfig(configPath)

	if config.Credentials.Spotify.ClientID == "" || config.Credentials.Spotify.ClientSecret == "" {
		return fmt.Errorf("%w: Spotify client_id and client_secret must be set in config.toml", shared.ErrInvalidArgument)
	}

	token, err := r.doOAuth(config)
	if err != nil {
		return err
	}

	config.Credentials.Spotify.AccessToken = token.AccessToken
	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	r.config = config

	r.writePlainln("✓ Authorization successful")
	r.writePlain("✓ Token saved to %s\n\n", configPath)
	r.writePlain("You can now use: jfin import --from-spotify\n")

	return nil
}

// SpotifyPlaylists lists the authenticated user's Spotify playlists.
func (r *Runner) SpotifyPlaylists(ctx context.Context, cmd *cli.Command) error {
	limit := cmd.Int("limit")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	if r.spotify == nil {
		return fmt.Errorf("%w: Spotify credentials not configured", shared.ErrServiceUnavailable)
	}

	token := r.config.Credentials.Spotify.AccessToken
	if token == "" {
		return fmt.Errorf("%w: run 'jfin spotify auth' first", shared.ErrNotAuthenticated)
	}
	if err := r.spotify.Authenticate(ctx, token, ""); err != nil {
		return err
	}

	r.logger.Info("listing spotify playlists", "limit", limit)

	playlists, err := r.spotify.AllPlaylists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if useJSON {
		return r.writeJSON(playlists, pretty)
	}

	r.writePlain("Found %d playlists:\n\n", len(playlists))
	for i, p := range playlists {
		r.writePlain("%d. %s\n", i+1, p.Name)
		r.writePlain("   ID: %s\n", p.ID)
		r.writePlain("   Tracks: %d\n", p.Tracks.Total)
		r.writePlain("   Visibility: %s\n\n", shared.VisibilityString(p.Public))
	}

	return nil
}

func newSpotifySource(config *shared.Config) (*services.SpotifySource, error) {
	src, err := services.NewSpotifySource(config.Credentials.Spotify)
	if err != nil {
		return nil, fmt.Errorf("failed to create Spotify source: %w", err)
	}
	return src, nil
}

// callbackAddr derives the loopback listen address from the configured
// redirect URI.
func callbackAddr(redirectURI string) (string, error) {
	if redirectURI == "" {
		return "localhost:8080", nil
	}

	parsed, err := url.Parse(redirectURI)
	if err != nil {
		return "", fmt.Errorf("%w: invalid redirect_uri %q: %v", shared.ErrInvalidConfig, redirectURI, err)
	}

	host := parsed.Host
	if host == "" {
		return "", fmt.Errorf("%w: redirect_uri %q has no host", shared.ErrInvalidConfig, redirectURI)
	}
	return host, nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(config *shared.Config) (*oauth2.Token, error) {
	src := r.spotify
	if src == nil {
		var err error
		if src, err = newSpotifySource(config); err != nil {
			return nil, err
		}
		r.spotify = src
	}

	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := src.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(src.GetOAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Use(server.LoggingMiddleware(r.logger))
	router.Handler(oauthHandler)

	serverAddr, err := callbackAddr(config.Credentials.Spotify.RedirectURI)
	if err != nil {
		return nil, err
	}

	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("starting OAuth callback server", "addr", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warn("failed to open browser automatically", "error", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
