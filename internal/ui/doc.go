// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI renders a live import run in two views:
//  1. [RunView] : Spinner during catalog build, progress bar while tracks resolve and playlists merge
//  2. [ResultView] : Per-playlist outcome plus the tracks that found no match
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern.
// Progress updates flow through a channel from the import driver, providing non-blocking status reporting while the run executes.
package ui
