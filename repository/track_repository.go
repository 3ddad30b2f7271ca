package repository

import (
	"context"
	"fmt"
	"path"
	"sync"
	"time"

	"ShelfFM/logger"
	"ShelfFM/model"
	"ShelfFM/store"
)

// ImportStatus reports what an import attempt did.
type ImportStatus int

const (
	// StatusImported means a new track was created.
	StatusImported ImportStatus = iota
	// StatusMerged means the source key matched an existing track, which was
	// refreshed in place keeping its id, favorite flag and addedAt.
	StatusMerged
	// StatusSkippedDeleted means the source key sits in the deleted set, so
	// the import was suppressed.
	StatusSkippedDeleted
)

// TrackRepository is the in-memory summary cache synchronized with the
// storage gateway. Lookups that miss return nil without an error.
type TrackRepository interface {
	// Hydrate fills the summary cache from the gateway. Call once at startup.
	Hydrate(ctx context.Context) error

	// ListAll returns the cached summaries. Ordering is unspecified; callers
	// sort. Summaries never carry payload blobs.
	ListAll() []model.TrackSummary
	// Get returns a single cached summary, or nil.
	Get(id string) *model.TrackSummary
	// GetBlob resolves a track's audio payload, or (nil, nil).
	GetBlob(ctx context.Context, id string) ([]byte, error)
	// GetArt resolves a track's cover art, or (nil, nil).
	GetArt(ctx context.Context, id string) ([]byte, error)

	// Upsert persists records and reflects them in the cache. Idempotent per
	// id; a failed persist leaves the cache untouched.
	Upsert(ctx context.Context, recs ...*model.TrackRecord) error
	// Update applies a pure mutation to the stored record and persists the
	// result. Returns (nil, nil) when the id is absent.
	Update(ctx context.Context, id string, mutate func(*model.TrackRecord)) (*model.TrackSummary, error)
	// Delete removes the track. Recording a DeletedEntry and stripping the id
	// from any live queue is the caller's protocol, not the repository's.
	Delete(ctx context.Context, id string) error
	// ClearAll wipes the entire track store.
	ClearAll(ctx context.Context) error

	// Import runs the dedup-on-import algorithm for one extracted record.
	Import(ctx context.Context, rec *model.TrackRecord) (ImportStatus, *model.TrackSummary, error)

	// SetFavorite flips the favorite bit on the track record and mirrors it
	// into the independent favorite-key store.
	SetFavorite(ctx context.Context, id string, favorite bool) (*model.TrackSummary, error)

	// Deleted-set protocol.
	RecordDeleted(ctx context.Context, s model.TrackSummary) error
	Restore(ctx context.Context, sourceKey string) error
	DeletedEntries(ctx context.Context) ([]model.DeletedEntry, error)
}

// SourceKeyFor derives the stable dedup key for a file at folder/filename.
// Re-importing the same filesystem path yields the same key across sessions.
func SourceKeyFor(folder, filename string) string {
	return path.Join(folder, filename)
}

type trackRepository struct {
	gw store.Gateway

	mu        sync.RWMutex
	summaries map[string]model.TrackSummary
	bySource  map[string]string // sourceKey -> id

	// Session tracks live here only; they are never handed to the gateway.
	sessionBlobs map[string][]byte
	sessionArt   map[string][]byte
}

// New creates a repository over the given gateway.
func New(gw store.Gateway) TrackRepository {
	return &trackRepository{
		gw:           gw,
		summaries:    make(map[string]model.TrackSummary),
		bySource:     make(map[string]string),
		sessionBlobs: make(map[string][]byte),
		sessionArt:   make(map[string][]byte),
	}
}

func (r *trackRepository) Hydrate(ctx context.Context) error {
	summaries, err := r.gw.AllTrackSummaries(ctx)
	if err != nil {
		return fmt.Errorf("failed to hydrate track cache: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.summaries = make(map[string]model.TrackSummary, len(summaries))
	r.bySource = make(map[string]string, len(summaries))
	for _, s := range summaries {
		r.summaries[s.ID] = s
		if s.SourceKey != "" {
			r.bySource[s.SourceKey] = s.ID
		}
	}

	logger.Info("track cache hydrated", logger.Int("tracks", len(summaries)))
	return nil
}

func (r *trackRepository) ListAll() []model.TrackSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.TrackSummary, 0, len(r.summaries))
	for _, s := range r.summaries {
		out = append(out, s)
	}
	return out
}

func (r *trackRepository) Get(id string) *model.TrackSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if s, ok := r.summaries[id]; ok {
		cp := s
		return &cp
	}
	return nil
}

func (r *trackRepository) GetBlob(ctx context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	if blob, ok := r.sessionBlobs[id]; ok {
		r.mu.RUnlock()
		return blob, nil
	}
	r.mu.RUnlock()

	return r.gw.GetBlob(ctx, id)
}

func (r *trackRepository) GetArt(ctx context.Context, id string) ([]byte, error) {
	r.mu.RLock()
	if art, ok := r.sessionArt[id]; ok {
		r.mu.RUnlock()
		return art, nil
	}
	r.mu.RUnlock()

	return r.gw.GetArt(ctx, id)
}

func (r *trackRepository) Upsert(ctx context.Context, recs ...*model.TrackRecord) error {
	for _, rec := range recs {
		if rec.Source == model.SourceSession {
			r.cacheSession(rec)
			continue
		}

		// Persist first: the cache must never claim a write that failed.
		if err := r.gw.PutTrack(ctx, rec); err != nil {
			return err
		}
		r.cacheSummary(rec.Summary())
	}
	return nil
}

func (r *trackRepository) cacheSession(rec *model.TrackRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summaries[rec.ID] = rec.Summary()
	if rec.SourceKey != "" {
		r.bySource[rec.SourceKey] = rec.ID
	}
	r.sessionBlobs[rec.ID] = rec.Blob
	if len(rec.Art) > 0 {
		r.sessionArt[rec.ID] = rec.Art
	}
}

func (r *trackRepository) cacheSummary(s model.TrackSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.summaries[s.ID] = s
	if s.SourceKey != "" {
		r.bySource[s.SourceKey] = s.ID
	}
}

func (r *trackRepository) Update(ctx context.Context, id string, mutate func(*model.TrackRecord)) (*model.TrackSummary, error) {
	r.mu.RLock()
	summary, cached := r.summaries[id]
	_, isSession := r.sessionBlobs[id]
	r.mu.RUnlock()

	if !cached {
		return nil, nil
	}

	if isSession {
		rec := &model.TrackRecord{TrackSummary: summary}
		mutate(rec)
		rec.ID = id // id is immutable
		r.cacheSummary(rec.Summary())
		s := rec.Summary()
		return &s, nil
	}

	rec, err := r.gw.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}

	mutate(rec)
	rec.ID = id // id is immutable

	if err := r.gw.PutTrack(ctx, rec); err != nil {
		return nil, err
	}
	r.cacheSummary(rec.Summary())

	s := rec.Summary()
	return &s, nil
}

func (r *trackRepository) Delete(ctx context.Context, id string) error {
	r.mu.RLock()
	summary, cached := r.summaries[id]
	_, isSession := r.sessionBlobs[id]
	r.mu.RUnlock()

	if !cached {
		return nil
	}

	if !isSession {
		if err := r.gw.DeleteTrack(ctx, id); err != nil {
			return err
		}
	}

	r.mu.Lock()
	delete(r.summaries, id)
	delete(r.sessionBlobs, id)
	delete(r.sessionArt, id)
	if summary.SourceKey != "" {
		delete(r.bySource, summary.SourceKey)
	}
	r.mu.Unlock()

	return nil
}

func (r *trackRepository) ClearAll(ctx context.Context) error {
	if err := r.gw.ClearTracks(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.summaries = make(map[string]model.TrackSummary)
	r.bySource = make(map[string]string)
	r.sessionBlobs = make(map[string][]byte)
	r.sessionArt = make(map[string][]byte)
	r.mu.Unlock()

	logger.Info("track store cleared")
	return nil
}

func (r *trackRepository) Import(ctx context.Context, rec *model.TrackRecord) (ImportStatus, *model.TrackSummary, error) {
	if rec.SourceKey != "" {
		deleted, err := r.gw.IsDeleted(ctx, rec.SourceKey)
		if err != nil {
			return 0, nil, err
		}
		if deleted {
			// The user deleted this source; do not resurrect it.
			logger.Debug("import suppressed by deleted set", logger.String("sourceKey", rec.SourceKey))
			return StatusSkippedDeleted, nil, nil
		}
	}

	status := StatusImported

	if rec.SourceKey != "" {
		r.mu.RLock()
		existingID, exists := r.bySource[rec.SourceKey]
		existing := r.summaries[existingID]
		r.mu.RUnlock()

		if exists {
			// Same logical file re-imported: keep the original identity and
			// the user's state.
			rec.ID = existingID
			rec.Favorite = existing.Favorite
			rec.AddedAt = existing.AddedAt
			if rec.ArtURL != "" {
				rec.ArtURL = model.ArtURLFor(existingID)
			}
			status = StatusMerged
		} else {
			// Fresh import of a key the user once favorited: the side store
			// survives delete+reimport cycles.
			fav, err := r.gw.HasFavoriteKey(ctx, rec.SourceKey)
			if err != nil {
				return 0, nil, err
			}
			if fav {
				rec.Favorite = true
			}
		}
	}

	if err := r.Upsert(ctx, rec); err != nil {
		return 0, nil, err
	}

	s := rec.Summary()
	return status, &s, nil
}

func (r *trackRepository) SetFavorite(ctx context.Context, id string, favorite bool) (*model.TrackSummary, error) {
	summary, err := r.Update(ctx, id, func(rec *model.TrackRecord) {
		rec.Favorite = favorite
	})
	if err != nil || summary == nil {
		return summary, err
	}

	if summary.SourceKey != "" {
		if favorite {
			err = r.gw.PutFavoriteKey(ctx, summary.SourceKey, time.Now())
		} else {
			err = r.gw.RemoveFavoriteKey(ctx, summary.SourceKey)
		}
		if err != nil {
			// The track record already carries the bit; the side store is a
			// resilience layer. Log and keep going.
			logger.Warn("favorite key store update failed",
				logger.String("sourceKey", summary.SourceKey), logger.ErrorField(err))
		}
	}

	return summary, nil
}

func (r *trackRepository) RecordDeleted(ctx context.Context, s model.TrackSummary) error {
	key := s.SourceKey
	if key == "" {
		key = SourceKeyFor(s.Folder, s.Filename)
	}

	return r.gw.PutDeleted(ctx, model.DeletedEntry{
		SourceKey: key,
		DeletedAt: time.Now(),
		Title:     s.Title,
		Artist:    s.Artist,
		Album:     s.Album,
		Folder:    s.Folder,
		Filename:  s.Filename,
	})
}

func (r *trackRepository) Restore(ctx context.Context, sourceKey string) error {
	return r.gw.RemoveDeleted(ctx, sourceKey)
}

func (r *trackRepository) DeletedEntries(ctx context.Context) ([]model.DeletedEntry, error) {
	return r.gw.AllDeleted(ctx)
}
