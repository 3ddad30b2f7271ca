package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ShelfFM/core/meta"
	"ShelfFM/logger"
	"ShelfFM/model"
	"ShelfFM/repository"

	"github.com/google/uuid"
)

// File is one audio file handed to the importer.
type File struct {
	Data     []byte
	Filename string
	Folder   string
	Session  bool // session files are held in memory only, never persisted
}

// Progress reports import advancement. Completed increases strictly
// monotonically up to Total.
type Progress struct {
	Completed int    `json:"completed"`
	Total     int    `json:"total"`
	Current   string `json:"current"`
}

// Report summarizes one import batch.
type Report struct {
	Imported int `json:"imported"`
	Merged   int `json:"merged"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Importer feeds files through extraction and the repository's dedup import.
// Files are processed sequentially by index: persistent writes stay serial
// and in-batch dedup needs no locking.
type Importer struct {
	repo       repository.TrackRepository
	onProgress func(Progress)
}

// New creates an importer. onProgress may be nil.
func New(repo repository.TrackRepository, onProgress func(Progress)) *Importer {
	return &Importer{repo: repo, onProgress: onProgress}
}

// ImportFiles imports a batch. A failed extraction falls back to
// filename-derived metadata; a failed persist counts the file as failed and
// the batch continues.
func (im *Importer) ImportFiles(ctx context.Context, files []File) Report {
	var report Report
	seen := make(map[string]bool, len(files)) // sourceKeys imported in this batch

	for i, f := range files {
		if err := ctx.Err(); err != nil {
			logger.Warn("import cancelled", logger.Int("completed", i), logger.Int("total", len(files)))
			return report
		}

		im.progress(i, len(files), f.Filename)

		sourceKey := repository.SourceKeyFor(f.Folder, f.Filename)
		if seen[sourceKey] {
			report.Skipped++
			continue
		}
		seen[sourceKey] = true

		status, _, err := im.importOne(ctx, f, sourceKey)
		if err != nil {
			logger.Error("import failed", logger.String("file", f.Filename), logger.ErrorField(err))
			report.Failed++
			continue
		}

		switch status {
		case repository.StatusImported:
			report.Imported++
		case repository.StatusMerged:
			report.Merged++
		case repository.StatusSkippedDeleted:
			report.Skipped++
		}
	}

	im.progress(len(files), len(files), "")
	logger.Info("import batch done",
		logger.Int("imported", report.Imported),
		logger.Int("merged", report.Merged),
		logger.Int("skipped", report.Skipped),
		logger.Int("failed", report.Failed))
	return report
}

func (im *Importer) importOne(ctx context.Context, f File, sourceKey string) (repository.ImportStatus, *model.TrackSummary, error) {
	md := meta.Extract(f.Data, f.Filename)

	album := md.Album
	if album == "" {
		album = meta.AlbumFromFolder(f.Folder)
	}

	source := model.SourceImported
	if f.Session {
		source = model.SourceSession
	}

	id := uuid.NewString()
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
			Folder:    f.Folder,
			Filename:  f.Filename,
			Duration:  md.Duration,
			AddedAt:   time.Now(),
			Source:    source,
			SourceKey: sourceKey,
			ArtURL:    artURL,
		},
		Blob: f.Data,
		Art:  md.Art,
	}

	return im.repo.Import(ctx, rec)
}

func (im *Importer) progress(completed, total int, current string) {
	if im.onProgress != nil {
		im.onProgress(Progress{Completed: completed, Total: total, Current: current})
	}
}

// ImportPath imports a single file or walks a folder, collecting supported
// audio files in walk order.
func (im *Importer) ImportPath(ctx context.Context, path string, session bool) (Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Report{}, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var files []File
	appendFile := func(p string) error {
		data, err := os.ReadFile(p)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", p, err)
		}
		files = append(files, File{
			Data:     data,
			Filename: filepath.Base(p),
			Folder:   filepath.Dir(p),
			Session:  session,
		})
		return nil
	}

	if info.IsDir() {
		err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !meta.SupportedExt(p) {
				return nil
			}
			return appendFile(p)
		})
		if err != nil {
			return Report{}, fmt.Errorf("failed to walk %s: %w", path, err)
		}
	} else {
		if !meta.SupportedExt(path) {
			return Report{}, fmt.Errorf("unsupported file type: %s", path)
		}
		if err := appendFile(path); err != nil {
			return Report{}, err
		}
	}

	return im.ImportFiles(ctx, files), nil
}
