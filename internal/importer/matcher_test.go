package importer

import (
	"errors"
	"testing"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/shared"
)

func newTestMatcher(t *testing.T, catalog *Catalog, opts MatcherOpts) *Matcher {
	t.Helper()
	matcher, err := NewMatcher(catalog, opts)
	if err != nil {
		t.Fatalf("failed to create matcher: %v", err)
	}
	return matcher
}

func TestNewMatcher(t *testing.T) {
	catalog := builtCatalog(t, testCatalogTracks())

	for _, tolerance := range []int{79, 101, 0, -1} {
		if _, err := NewMatcher(catalog, MatcherOpts{Tolerance: tolerance}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("tolerance %d: expected ErrInvalidArgument, got %v", tolerance, err)
		}
	}

	for _, tolerance := range []int{80, 90, 100} {
		if _, err := NewMatcher(catalog, MatcherOpts{Tolerance: tolerance}); err != nil {
			t.Errorf("tolerance %d: unexpected error %v", tolerance, err)
		}
	}
}

func TestMatchScenarios(t *testing.T) {
	catalog := builtCatalog(t, testCatalogTracks())

	// spec scenario: sloppy descriptor resolves at 80, fails at 100.
	descriptor := models.TrackDescriptor{Title: "yesterday", Artist: "Beatles", Album: "Help"}

	t.Run("loose tolerance matches", func(t *testing.T) {
		matcher := newTestMatcher(t, catalog, MatcherOpts{Tolerance: 80, AnyAlbum: true})
		result := matcher.Match(descriptor)
		if !result.Matched() {
			t.Fatalf("expected match, got best score %d", result.Score)
		}
		if result.ID != "1" {
			t.Errorf("expected item 1, got %s", result.ID)
		}
		if result.Score < 80 {
			t.Errorf("expected score >= 80, got %d", result.Score)
		}
	})

	t.Run("strict tolerance rejects", func(t *testing.T) {
		matcher := newTestMatcher(t, catalog, MatcherOpts{Tolerance: 100, AnyAlbum: true})
		result := matcher.Match(descriptor)
		if result.Matched() {
			t.Errorf("expected no match at tolerance 100, resolved to %s (score %d)", result.ID, result.Score)
		}
	})

	t.Run("exact descriptor matches at 100", func(t *testing.T) {
		matcher := newTestMatcher(t, catalog, MatcherOpts{Tolerance: 100})
		result := matcher.Match(models.TrackDescriptor{Title: "Yesterday", Artist: "The Beatles", Album: "Help!"})
		if !result.Matched() || result.ID != "1" {
			t.Errorf("expected exact match on item 1, got %+v", result)
		}
		if result.Score != 100 {
			t.Errorf("expected score 100, got %d", result.Score)
		}
	})

	t.Run("empty candidate set", func(t *testing.T) {
		empty := builtCatalog(t, nil)
		matcher := newTestMatcher(t, empty, MatcherOpts{Tolerance: 80})
		if result := matcher.Match(descriptor); result.Matched() {
			t.Errorf("expected no match against empty catalog, got %+v", result)
		}
	})

	t.Run("empty descriptor fields fail quietly", func(t *testing.T) {
		matcher := newTestMatcher(t, catalog, MatcherOpts{Tolerance: 80, AnyAlbum: true})
		if result := matcher.Match(models.TrackDescriptor{}); result.Matched() {
			t.Errorf("expected empty descriptor not to match, got %+v", result)
		}
	})

	t.Run("album scope excludes other albums", func(t *testing.T) {
		matcher := newTestMatcher(t, catalog, MatcherOpts{Tolerance: 80})
		result := matcher.Match(models.TrackDescriptor{Title: "Karma Police", Artist: "Radiohead", Album: "Help!"})
		if result.Matched() {
			t.Errorf("expected album scope to exclude match, got %s", result.ID)
		}
	})
}

func TestMatchDeterminism(t *testing.T) {
	catalog := builtCatalog(t, testCatalogTracks())
	matcher := newTestMatcher(t, catalog, MatcherOpts{Tolerance: 80, AnyAlbum: true})

	descriptor := models.TrackDescriptor{Title: "Karma Police", Artist: "Radiohead"}
	first := matcher.Match(descriptor)
	for i := 0; i < 10; i++ {
		if got := matcher.Match(descriptor); got != first {
			t.Fatalf("match not deterministic: %+v vs %+v", got, first)
		}
	}
}

func TestMatchTieBreak(t *testing.T) {
	// Two identical tracks on different IDs: first in catalog order wins.
	catalog := builtCatalog(t, []models.CatalogTrack{
		{ID: "a", Title: "Same Song", Artist: "Same Artist", Album: "X"},
		{ID: "b", Title: "Same Song", Artist: "Same Artist", Album: "Y"},
	})
	matcher := newTestMatcher(t, catalog, MatcherOpts{Tolerance: 80, AnyAlbum: true})

	result := matcher.Match(models.TrackDescriptor{Title: "Same Song", Artist: "Same Artist"})
	if result.ID != "a" {
		t.Errorf("expected first candidate to win tie, got %s", result.ID)
	}
}

func TestToleranceMonotonicity(t *testing.T) {
	catalog := builtCatalog(t, testCatalogTracks())

	descriptors := []models.TrackDescriptor{
		{Title: "Yesterday", Artist: "The Beatles", Album: "Help!"},
		{Title: "yesterday", Artist: "Beatles", Album: "Help"},
		{Title: "Yesterdy", Artist: "The Beatls"},
		{Title: "Karma Police", Artist: "Radiohead"},
		{Title: "Completely Unrelated", Artist: "Nobody"},
		{Title: "", Artist: ""},
	}

	matchedAt := func(tolerance int) map[int]bool {
		matcher := newTestMatcher(t, catalog, MatcherOpts{Tolerance: tolerance, AnyAlbum: true})
		matched := make(map[int]bool)
		for i, d := range descriptors {
			matched[i] = matcher.Match(d).Matched()
		}
		return matched
	}

	// For t1 < t2 the set matched at t2 must be a subset of the set at t1.
	tolerances := []int{80, 85, 90, 95, 100}
	for i := 1; i < len(tolerances); i++ {
		looser := matchedAt(tolerances[i-1])
		stricter := matchedAt(tolerances[i])
		for idx, matched := range stricter {
			if matched && !looser[idx] {
				t.Errorf("descriptor %d matched at %d but not at %d", idx, tolerances[i], tolerances[i-1])
			}
		}
	}
}

func TestCompositeScore(t *testing.T) {
	t.Run("perfect match scores 100", func(t *testing.T) {
		got := compositeScore(
			models.TrackDescriptor{Title: "A Song", Artist: "An Artist"},
			models.CatalogTrack{Title: "A Song", Artist: "An Artist"},
		)
		if got != 100 {
			t.Errorf("expected 100, got %d", got)
		}
	})

	t.Run("imperfect artist keeps composite below 100", func(t *testing.T) {
		got := compositeScore(
			models.TrackDescriptor{Title: "A Song", Artist: "Artist"},
			models.CatalogTrack{Title: "A Song", Artist: "A Different Artist"},
		)
		if got >= 100 {
			t.Errorf("expected < 100, got %d", got)
		}
		if got < 70 {
			t.Errorf("perfect title alone contributes 70, got %d", got)
		}
	})

	t.Run("title dominates artist", func(t *testing.T) {
		titleOnly := compositeScore(
			models.TrackDescriptor{Title: "A Song", Artist: "zzz"},
			models.CatalogTrack{Title: "A Song", Artist: "qqq"},
		)
		artistOnly := compositeScore(
			models.TrackDescriptor{Title: "zzz", Artist: "An Artist"},
			models.CatalogTrack{Title: "qqq", Artist: "An Artist"},
		)
		if titleOnly <= artistOnly {
			t.Errorf("expected title weight to dominate: title-only %d, artist-only %d", titleOnly, artistOnly)
		}
	})
}
