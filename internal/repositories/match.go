package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/jfin/internal/models"
	"github.com/desertthunder/jfin/internal/shared"
)

// MatchRepository persists resolved descriptor-to-item matches so repeat
// imports skip the fuzzy comparison. Implements importer.MatchCache.
//
// Rows are keyed by the normalized track key plus the album and matching
// parameters that produced the hit: a match found at fuzz 80 must not be
// reused for a run at fuzz 100.
type MatchRepository struct {
	db *sql.DB
}

// NewMatchRepository creates a new MatchRepository with the given database connection
func NewMatchRepository(db *sql.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

// cacheAlbum returns the album component of the cache key. Runs that search
// the whole catalog share one row per track regardless of album.
func cacheAlbum(descriptor models.TrackDescriptor, anyAlbum bool) string {
	if anyAlbum {
		return ""
	}
	return strings.ToLower(strings.TrimSpace(descriptor.Album))
}

// Get returns the cached item ID for a descriptor under the given matching
// parameters, or ok=false on a miss. Lookup failures are treated as misses.
func (r *MatchRepository) Get(descriptor models.TrackDescriptor, tolerance int, anyAlbum bool) (string, bool) {
	query := `
		SELECT item_id
		FROM matches
		WHERE track_key = ? AND album = ? AND fuzz = ? AND any_album = ?
	`

	var itemID string
	err := r.db.QueryRow(query,
		shared.NormalizeTrackKey(descriptor.Title, descriptor.Artist),
		cacheAlbum(descriptor, anyAlbum),
		tolerance,
		anyAlbum,
	).Scan(&itemID)
	if err != nil {
		return "", false
	}

	return itemID, true
}

// Put stores a successful resolution, replacing any previous row for the
// same key.
func (r *MatchRepository) Put(descriptor models.TrackDescriptor, tolerance int, anyAlbum bool, itemID string, score int) error {
	query := `
		INSERT INTO matches (id, track_key, album, fuzz, any_album, item_id, score, matched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(track_key, album, fuzz, any_album)
		DO UPDATE SET item_id = excluded.item_id, score = excluded.score, matched_at = excluded.matched_at
	`

	_, err := r.db.Exec(query,
		shared.GenerateID(),
		shared.NormalizeTrackKey(descriptor.Title, descriptor.Artist),
		cacheAlbum(descriptor, anyAlbum),
		tolerance,
		anyAlbum,
		itemID,
		score,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to cache match: %w", err)
	}

	return nil
}

// Purge deletes all cached matches. Useful after a library rescan renames
// item IDs wholesale.
func (r *MatchRepository) Purge() (int64, error) {
	result, err := r.db.Exec("DELETE FROM matches")
	if err != nil {
		return 0, fmt.Errorf("failed to purge match cache: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected rows: %w", err)
	}

	return rows, nil
}

// Count returns the number of cached matches.
func (r *MatchRepository) Count() (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM matches").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count matches: %w", err)
	}
	return count, nil
}
