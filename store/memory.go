package store

import (
	"context"
	"sync"
	"time"

	"ShelfFM/model"
)

// MemoryGateway keeps every collection in process memory. It backs tests and
// the "session" import mode where nothing should touch disk.
type MemoryGateway struct {
	mu        sync.RWMutex
	tracks    map[string]*model.TrackRecord
	bySource  map[string]string // sourceKey -> id
	deleted   map[string]model.DeletedEntry
	favorites map[string]time.Time
}

// NewMemoryGateway creates an empty in-memory gateway.
func NewMemoryGateway() *MemoryGateway {
	return &MemoryGateway{
		tracks:    make(map[string]*model.TrackRecord),
		bySource:  make(map[string]string),
		deleted:   make(map[string]model.DeletedEntry),
		favorites: make(map[string]time.Time),
	}
}

func (g *MemoryGateway) PutTrack(ctx context.Context, rec *model.TrackRecord) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	// Copy so later caller mutations don't leak into the store.
	cp := *rec
	cp.Blob = append([]byte(nil), rec.Blob...)
	cp.Art = append([]byte(nil), rec.Art...)

	if old, ok := g.tracks[cp.ID]; ok && old.SourceKey != "" && old.SourceKey != cp.SourceKey {
		delete(g.bySource, old.SourceKey)
	}
	g.tracks[cp.ID] = &cp
	if cp.SourceKey != "" {
		g.bySource[cp.SourceKey] = cp.ID
	}
	return nil
}

func (g *MemoryGateway) GetTrack(ctx context.Context, id string) (*model.TrackRecord, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.tracks[id]
	if !ok {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

func (g *MemoryGateway) GetTrackBySourceKey(ctx context.Context, sourceKey string) (*model.TrackRecord, error) {
	g.mu.RLock()
	id, ok := g.bySource[sourceKey]
	g.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return g.GetTrack(ctx, id)
}

func (g *MemoryGateway) AllTrackSummaries(ctx context.Context) ([]model.TrackSummary, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	summaries := make([]model.TrackSummary, 0, len(g.tracks))
	for _, rec := range g.tracks {
		summaries = append(summaries, rec.Summary())
	}
	return summaries, nil
}

func (g *MemoryGateway) DeleteTrack(ctx context.Context, id string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if rec, ok := g.tracks[id]; ok {
		if rec.SourceKey != "" {
			delete(g.bySource, rec.SourceKey)
		}
		delete(g.tracks, id)
	}
	return nil
}

func (g *MemoryGateway) ClearTracks(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.tracks = make(map[string]*model.TrackRecord)
	g.bySource = make(map[string]string)
	return nil
}

func (g *MemoryGateway) GetBlob(ctx context.Context, id string) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.tracks[id]
	if !ok || len(rec.Blob) == 0 {
		return nil, nil
	}
	return append([]byte(nil), rec.Blob...), nil
}

func (g *MemoryGateway) GetArt(ctx context.Context, id string) ([]byte, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rec, ok := g.tracks[id]
	if !ok || len(rec.Art) == 0 {
		return nil, nil
	}
	return append([]byte(nil), rec.Art...), nil
}

func (g *MemoryGateway) PutDeleted(ctx context.Context, entry model.DeletedEntry) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.deleted[entry.SourceKey] = entry
	return nil
}

func (g *MemoryGateway) RemoveDeleted(ctx context.Context, sourceKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.deleted, sourceKey)
	return nil
}

func (g *MemoryGateway) IsDeleted(ctx context.Context, sourceKey string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.deleted[sourceKey]
	return ok, nil
}

func (g *MemoryGateway) AllDeleted(ctx context.Context) ([]model.DeletedEntry, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	entries := make([]model.DeletedEntry, 0, len(g.deleted))
	for _, e := range g.deleted {
		entries = append(entries, e)
	}
	return entries, nil
}

func (g *MemoryGateway) PutFavoriteKey(ctx context.Context, sourceKey string, updatedAt time.Time) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.favorites[sourceKey] = updatedAt
	return nil
}

func (g *MemoryGateway) RemoveFavoriteKey(ctx context.Context, sourceKey string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.favorites, sourceKey)
	return nil
}

func (g *MemoryGateway) HasFavoriteKey(ctx context.Context, sourceKey string) (bool, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	_, ok := g.favorites[sourceKey]
	return ok, nil
}

func (g *MemoryGateway) AllFavoriteKeys(ctx context.Context) (map[string]time.Time, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]time.Time, len(g.favorites))
	for k, v := range g.favorites {
		out[k] = v
	}
	return out, nil
}

func (g *MemoryGateway) Close() error {
	return nil
}
