package importer

import (
	"fmt"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/shared"
)

// Tolerance bounds for the fuzzy match threshold. Higher values mean less
// tolerance; 100 only accepts tracks whose title and artist both match
// exactly after normalization.
const (
	MinTolerance = 80
	MaxTolerance = 100
)

// Composite score weights. Titles carry more discriminative signal than
// artist names, so the title similarity dominates. Tunable constants; the
// two must sum to 100.
const (
	titleWeight  = 70
	artistWeight = 30
)

// MatcherOpts configures a Matcher.
type MatcherOpts struct {
	// Tolerance is the minimum composite score a candidate must reach,
	// in [MinTolerance, MaxTolerance].
	Tolerance int
	// AnyAlbum disables album scoping: candidates are drawn from the
	// whole catalog instead of tracks on the descriptor's album.
	AnyAlbum bool
}

// Matcher resolves one track descriptor to at most one catalog track.
// Stateless between calls; matching the same descriptor against the same
// catalog always yields the same result.
type Matcher struct {
	catalog   *Catalog
	tolerance int
	anyAlbum  bool
}

// NewMatcher creates a Matcher over a built catalog, validating the
// tolerance range.
func NewMatcher(catalog *Catalog, opts MatcherOpts) (*Matcher, error) {
	if opts.Tolerance < MinTolerance || opts.Tolerance > MaxTolerance {
		return nil, fmt.Errorf("%w: tolerance must be between %d and %d, got %d",
			shared.ErrInvalidArgument, MinTolerance, MaxTolerance, opts.Tolerance)
	}
	return &Matcher{
		catalog:   catalog,
		tolerance: opts.Tolerance,
		anyAlbum:  opts.AnyAlbum,
	}, nil
}

// Tolerance returns the configured threshold.
func (m *Matcher) Tolerance() int { return m.tolerance }

// compositeScore blends title and artist similarity into one 0-100 score.
// Integer arithmetic truncates, so a composite of 100 requires both
// sub-scores to be 100.
func compositeScore(descriptor models.TrackDescriptor, candidate models.CatalogTrack) int {
	titleSim := Similarity(descriptor.Title, candidate.Title)
	artistSim := Similarity(descriptor.Artist, candidate.Artist)
	return (titleWeight*titleSim + artistWeight*artistSim) / 100
}

// Match resolves a descriptor against the catalog. A result with an empty
// ID means no candidate reached the tolerance; that is an expected outcome,
// not an error. Ties between equal maximal scores go to the first candidate
// in catalog order.
func (m *Matcher) Match(descriptor models.TrackDescriptor) models.MatchResult {
	result := models.MatchResult{Descriptor: descriptor}

	candidates := m.catalog.Lookup(!m.anyAlbum, descriptor.Album, m.tolerance)

	best := -1
	for _, candidate := range candidates {
		score := compositeScore(descriptor, candidate)
		if score > best {
			best = score
			if score >= m.tolerance {
				result.ID = candidate.ID
				result.Score = score
			}
		}
	}

	if best >= 0 && result.ID == "" {
		result.Score = best
	}
	return result
}
