// Package importer implements the track resolution and playlist-merge
// engine.
//
// The core abstraction is Driver, which orchestrates one import run:
// build the catalog once, resolve every descriptor against it under fuzzy
// equality, then merge resolved tracks into playlists append-only.
// Operations emit progress updates via channels for non-blocking status
// reporting to CLI/UI layers.
//
// A run moves through Init → CatalogBuilt → Matching → Merging → Done.
// Only a catalog build failure (or empty input) reaches Failed; unmatched
// descriptors and rejected playlist writes are collected and surfaced in
// the run summary instead of aborting the run.
package importer
