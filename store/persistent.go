package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"ShelfFM/model"
	"ShelfFM/storage"

	"gorm.io/gorm"
)

// PersistentGateway implements Gateway on the real backing stores: track rows
// and deleted entries in MySQL, favorite keys through GORM, audio/art payloads
// in the blob store. Session tracks never reach this gateway.
type PersistentGateway struct {
	db    *sql.DB
	gorm  *gorm.DB
	blobs *storage.BlobStore
}

// NewPersistentGateway assembles a gateway from already-connected handles.
func NewPersistentGateway(db *sql.DB, gormDB *gorm.DB, blobs *storage.BlobStore) *PersistentGateway {
	return &PersistentGateway{db: db, gorm: gormDB, blobs: blobs}
}

const trackColumns = `id, title, artist, album, folder, filename, duration, added_at, favorite, source, source_key, art_url`

func scanTrackSummary(row interface{ Scan(dest ...any) error }) (*model.TrackSummary, error) {
	s := &model.TrackSummary{}
	var source string
	err := row.Scan(&s.ID, &s.Title, &s.Artist, &s.Album, &s.Folder, &s.Filename,
		&s.Duration, &s.AddedAt, &s.Favorite, &source, &s.SourceKey, &s.ArtURL)
	if err != nil {
		return nil, err
	}
	s.Source = model.TrackSource(source)
	return s, nil
}

// PutTrack upserts the metadata row, then the payload objects. The row write
// goes first so a blob failure surfaces as a failed import rather than an
// orphaned row.
func (g *PersistentGateway) PutTrack(ctx context.Context, rec *model.TrackRecord) error {
	query := `INSERT INTO tracks (` + trackColumns + `)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE
	           title=VALUES(title), artist=VALUES(artist), album=VALUES(album),
	           folder=VALUES(folder), filename=VALUES(filename), duration=VALUES(duration),
	           added_at=VALUES(added_at), favorite=VALUES(favorite), source=VALUES(source),
	           source_key=VALUES(source_key), art_url=VALUES(art_url)`

	_, err := g.db.ExecContext(ctx, query,
		rec.ID, rec.Title, rec.Artist, rec.Album, rec.Folder, rec.Filename,
		rec.Duration, rec.AddedAt, rec.Favorite, string(rec.Source), rec.SourceKey, rec.ArtURL)
	if err != nil {
		return fmt.Errorf("failed to upsert track %s: %w", rec.ID, err)
	}

	if len(rec.Blob) > 0 {
		if err := g.blobs.PutAudio(ctx, rec.ID, rec.Blob); err != nil {
			return err
		}
	}
	if len(rec.Art) > 0 {
		if err := g.blobs.PutCover(ctx, rec.ID, rec.Art); err != nil {
			return err
		}
	}
	return nil
}

func (g *PersistentGateway) GetTrack(ctx context.Context, id string) (*model.TrackRecord, error) {
	row := g.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id)
	summary, err := scanTrackSummary(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by ID %s: %w", id, err)
	}

	rec := &model.TrackRecord{TrackSummary: *summary}
	rec.Blob, err = g.blobs.GetAudio(ctx, id)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (g *PersistentGateway) GetTrackBySourceKey(ctx context.Context, sourceKey string) (*model.TrackRecord, error) {
	row := g.db.QueryRowContext(ctx, `SELECT `+trackColumns+` FROM tracks WHERE source_key = ?`, sourceKey)
	summary, err := scanTrackSummary(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to scan track by source key %s: %w", sourceKey, err)
	}
	return &model.TrackRecord{TrackSummary: *summary}, nil
}

func (g *PersistentGateway) AllTrackSummaries(ctx context.Context) ([]model.TrackSummary, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT `+trackColumns+` FROM tracks`)
	if err != nil {
		return nil, fmt.Errorf("failed to query tracks: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.TrackSummary, 0)
	for rows.Next() {
		summary, err := scanTrackSummary(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan track in AllTrackSummaries: %w", err)
		}
		summaries = append(summaries, *summary)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during rows iteration in AllTrackSummaries: %w", err)
	}
	return summaries, nil
}

func (g *PersistentGateway) DeleteTrack(ctx context.Context, id string) error {
	if _, err := g.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete track %s: %w", id, err)
	}
	return g.blobs.RemoveTrackObjects(ctx, id)
}

func (g *PersistentGateway) ClearTracks(ctx context.Context) error {
	if _, err := g.db.ExecContext(ctx, `DELETE FROM tracks`); err != nil {
		return fmt.Errorf("failed to clear tracks: %w", err)
	}
	return g.blobs.RemoveAll(ctx)
}

func (g *PersistentGateway) GetBlob(ctx context.Context, id string) ([]byte, error) {
	return g.blobs.GetAudio(ctx, id)
}

func (g *PersistentGateway) GetArt(ctx context.Context, id string) ([]byte, error) {
	return g.blobs.GetCover(ctx, id)
}

func (g *PersistentGateway) PutDeleted(ctx context.Context, entry model.DeletedEntry) error {
	query := `INSERT INTO deleted_entries (source_key, deleted_at, title, artist, album, folder, filename)
	           VALUES (?, ?, ?, ?, ?, ?, ?)
	           ON DUPLICATE KEY UPDATE deleted_at=VALUES(deleted_at)`
	_, err := g.db.ExecContext(ctx, query,
		entry.SourceKey, entry.DeletedAt, entry.Title, entry.Artist, entry.Album, entry.Folder, entry.Filename)
	if err != nil {
		return fmt.Errorf("failed to record deleted entry %s: %w", entry.SourceKey, err)
	}
	return nil
}

func (g *PersistentGateway) RemoveDeleted(ctx context.Context, sourceKey string) error {
	if _, err := g.db.ExecContext(ctx, `DELETE FROM deleted_entries WHERE source_key = ?`, sourceKey); err != nil {
		return fmt.Errorf("failed to remove deleted entry %s: %w", sourceKey, err)
	}
	return nil
}

func (g *PersistentGateway) IsDeleted(ctx context.Context, sourceKey string) (bool, error) {
	var one int
	err := g.db.QueryRowContext(ctx,
		`SELECT 1 FROM deleted_entries WHERE source_key = ?`, sourceKey).Scan(&one)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("failed to check deleted entry %s: %w", sourceKey, err)
	}
	return true, nil
}

func (g *PersistentGateway) AllDeleted(ctx context.Context) ([]model.DeletedEntry, error) {
	rows, err := g.db.QueryContext(ctx,
		`SELECT source_key, deleted_at, title, artist, album, folder, filename
		 FROM deleted_entries ORDER BY deleted_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query deleted entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.DeletedEntry, 0)
	for rows.Next() {
		var e model.DeletedEntry
		if err := rows.Scan(&e.SourceKey, &e.DeletedAt, &e.Title, &e.Artist, &e.Album, &e.Folder, &e.Filename); err != nil {
			return nil, fmt.Errorf("failed to scan deleted entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (g *PersistentGateway) PutFavoriteKey(ctx context.Context, sourceKey string, updatedAt time.Time) error {
	key := model.FavoriteKey{SourceKey: sourceKey, UpdatedAt: updatedAt}
	if err := g.gorm.WithContext(ctx).Save(&key).Error; err != nil {
		return fmt.Errorf("failed to save favorite key %s: %w", sourceKey, err)
	}
	return nil
}

func (g *PersistentGateway) RemoveFavoriteKey(ctx context.Context, sourceKey string) error {
	if err := g.gorm.WithContext(ctx).Delete(&model.FavoriteKey{}, "source_key = ?", sourceKey).Error; err != nil {
		return fmt.Errorf("failed to remove favorite key %s: %w", sourceKey, err)
	}
	return nil
}

func (g *PersistentGateway) HasFavoriteKey(ctx context.Context, sourceKey string) (bool, error) {
	var count int64
	err := g.gorm.WithContext(ctx).Model(&model.FavoriteKey{}).
		Where("source_key = ?", sourceKey).Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("failed to check favorite key %s: %w", sourceKey, err)
	}
	return count > 0, nil
}

func (g *PersistentGateway) AllFavoriteKeys(ctx context.Context) (map[string]time.Time, error) {
	var keys []model.FavoriteKey
	if err := g.gorm.WithContext(ctx).Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("failed to list favorite keys: %w", err)
	}

	out := make(map[string]time.Time, len(keys))
	for _, k := range keys {
		out[k.SourceKey] = k.UpdatedAt
	}
	return out, nil
}

// Close is a no-op; the underlying handles are owned and closed by the caller
// that connected them.
func (g *PersistentGateway) Close() error {
	return nil
}
