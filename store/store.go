package store

import (
	"context"
	"time"

	"ShelfFM/model"
)

// Gateway is the persistent key-value surface the library sits on: track
// records (with a secondary lookup by source key), audio/art blobs, the
// deleted-key set and the favorite-key set. Lookups that miss return
// (nil, nil) rather than an error; callers treat absence as a no-op.
type Gateway interface {
	// Track records. PutTrack is an atomic upsert keyed by id.
	PutTrack(ctx context.Context, rec *model.TrackRecord) error
	GetTrack(ctx context.Context, id string) (*model.TrackRecord, error)
	GetTrackBySourceKey(ctx context.Context, sourceKey string) (*model.TrackRecord, error)
	AllTrackSummaries(ctx context.Context) ([]model.TrackSummary, error)
	DeleteTrack(ctx context.Context, id string) error
	ClearTracks(ctx context.Context) error

	// Payloads, addressed by track id. GetBlob returns (nil, nil) when the
	// track or its payload is missing.
	GetBlob(ctx context.Context, id string) ([]byte, error)
	GetArt(ctx context.Context, id string) ([]byte, error)

	// Deleted keys.
	PutDeleted(ctx context.Context, entry model.DeletedEntry) error
	RemoveDeleted(ctx context.Context, sourceKey string) error
	IsDeleted(ctx context.Context, sourceKey string) (bool, error)
	AllDeleted(ctx context.Context) ([]model.DeletedEntry, error)

	// Favorite keys.
	PutFavoriteKey(ctx context.Context, sourceKey string, updatedAt time.Time) error
	RemoveFavoriteKey(ctx context.Context, sourceKey string) error
	HasFavoriteKey(ctx context.Context, sourceKey string) (bool, error)
	AllFavoriteKeys(ctx context.Context) (map[string]time.Time, error)

	Close() error
}
