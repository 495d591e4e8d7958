// Package services contains the HTTP clients the importer talks to.
//
// JellyfinService is the destination media server: it exposes the catalog
// listing, playlist lookup, and the create/append writes the merger
// performs. SpotifySource is an optional live input that reads playlists
// straight from the Spotify API when no export file is at hand.
//
// Both are constructed from sections of [shared.Config] and hold no global
// state; tests swap their HTTP transports via httptest servers.
package services
