package importer

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"unicode"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/services"
	"github.com/desertthunder/jfin/internal/shared"
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// foldString lowercases a string and replaces every rune that is not a
// letter or digit with a space, collapsing runs of whitespace. Punctuation
// must not count against similarity: "Help" and "Help!" name the same track.
func foldString(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// Similarity returns the normalized similarity of two strings in the range
// 0-100, where 100 means the strings are equal after case folding,
// punctuation stripping and whitespace normalization. Symmetric and
// deterministic.
func Similarity(a, b string) int {
	return fuzzy.QRatio(foldString(a), foldString(b))
}

// Catalog is an in-memory view of the server's audio catalog, built once
// per run and never mutated afterwards. Iteration order is the server's
// listing order, which makes tie-breaking during matching deterministic.
type Catalog struct {
	server services.MediaServer
	tracks []models.CatalogTrack
	ids    map[string]struct{}
	built  bool
}

// NewCatalog creates an empty catalog backed by the given server.
func NewCatalog(server services.MediaServer) *Catalog {
	return &Catalog{server: server}
}

// Build fetches the full track listing. A transport or server error here is
// fatal for the run: the caller gets ErrCatalogUnavailable and must not
// attempt a partial import.
func (c *Catalog) Build(ctx context.Context) error {
	tracks, err := c.server.ListAllTracks(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrCatalogUnavailable, err)
	}

	c.tracks = tracks
	c.ids = make(map[string]struct{}, len(tracks))
	for _, track := range tracks {
		c.ids[track.ID] = struct{}{}
	}
	c.built = true
	return nil
}

// Built reports whether Build has completed successfully.
func (c *Catalog) Built() bool { return c.built }

// Size returns the number of catalog tracks.
func (c *Catalog) Size() int { return len(c.tracks) }

// Contains reports whether an item ID is present in the catalog.
func (c *Catalog) Contains(id string) bool {
	_, ok := c.ids[id]
	return ok
}

// Lookup returns the candidate tracks to consider for one descriptor. With
// albumScope set, only tracks whose album fuzzy-equals the given album at
// the tolerance are returned; otherwise the full catalog. An empty album
// makes scoping meaningless, so the full catalog is returned in that case.
func (c *Catalog) Lookup(albumScope bool, album string, tolerance int) []models.CatalogTrack {
	if !albumScope || album == "" {
		return c.tracks
	}

	var scoped []models.CatalogTrack
	for _, track := range c.tracks {
		if Similarity(album, track.Album) >= tolerance {
			scoped = append(scoped, track)
		}
	}
	return scoped
}

// ScoredTrack pairs a catalog track with a similarity score.
type ScoredTrack struct {
	Track models.CatalogTrack
	Score int
}

// Search scores every catalog track against a free-form query and returns
// the top matches, best first. Used by the catalog search command.
func (c *Catalog) Search(query string, limit int) []ScoredTrack {
	scored := make([]ScoredTrack, 0, len(c.tracks))
	for _, track := range c.tracks {
		score := Similarity(query, track.Artist+" "+track.Title)
		if titleOnly := Similarity(query, track.Title); titleOnly > score {
			score = titleOnly
		}
		scored = append(scored, ScoredTrack{Track: track, Score: score})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}
