// Package server provides the loopback HTTP infrastructure for CLI OAuth flows.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// When the user runs `jfin spotify auth`, a temporary HTTP server starts on
// localhost, handles the provider callback, and shuts down after the OAuth
// token arrives. The token grants read-only playlist access; Jellyfin itself
// authenticates with a static API token and never goes through this package.
package server
