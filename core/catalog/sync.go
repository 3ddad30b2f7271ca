package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ShelfFM/core/meta"
	"ShelfFM/logger"
	"ShelfFM/model"
	"ShelfFM/repository"
)

// Entry is one bundled track in the manifest.
type Entry struct {
	Path     string `json:"path"` // audio file path, relative to the manifest
	Filename string `json:"filename"`
	Folder   string `json:"folder"`
	Album    string `json:"album,omitempty"`
}

// Manifest lists the tracks shipped with the application.
type Manifest struct {
	Tracks []Entry `json:"tracks"`
}

// TrackID is the stable id scheme for bundled tracks.
func TrackID(path string) string {
	return "embedded:" + path
}

// LoadManifest reads and parses the manifest file.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded manifest: %w", err)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse embedded manifest: %w", err)
	}
	return &m, nil
}

// Sync imports manifest entries that are not yet in the repository. Entries
// the user deleted stay deleted, and previously favorited entries come back
// favorited through the favorite-key store. Returns the number of tracks
// added.
func Sync(ctx context.Context, repo repository.TrackRepository, manifestPath string) (int, error) {
	manifest, err := LoadManifest(manifestPath)
	if err != nil {
		return 0, err
	}

	baseDir := filepath.Dir(manifestPath)
	added := 0

	for _, entry := range manifest.Tracks {
		id := TrackID(entry.Path)
		if repo.Get(id) != nil {
			continue
		}

		data, err := os.ReadFile(filepath.Join(baseDir, entry.Path))
		if err != nil {
			logger.Warn("embedded track unreadable, skipping",
				logger.String("path", entry.Path), logger.ErrorField(err))
			continue
		}

		md := meta.Extract(data, entry.Filename)
		album := entry.Album
		if album == "" {
			album = md.Album
		}
		artURL := ""
		if len(md.Art) > 0 {
			artURL = model.ArtURLFor(id)
		}

		rec := &model.TrackRecord{
			TrackSummary: model.TrackSummary{
				ID:        id,
				Title:     md.Title,
				Artist:    md.Artist,
				Album:     album,
				Folder:    entry.Folder,
				Filename:  entry.Filename,
				Duration:  md.Duration,
				AddedAt:   time.Now(),
				Source:    model.SourceEmbedded,
				SourceKey: id,
				ArtURL:    artURL,
			},
			Blob: data,
			Art:  md.Art,
		}

		status, _, err := repo.Import(ctx, rec)
		if err != nil {
			return added, fmt.Errorf("failed to import embedded track %s: %w", entry.Path, err)
		}
		if status != repository.StatusSkippedDeleted {
			added++
		}
	}

	logger.Info("embedded catalog synced", logger.Int("added", added))
	return added, nil
}
