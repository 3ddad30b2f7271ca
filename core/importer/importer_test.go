package importer

import (
	"context"
	"errors"
	"testing"

	"ShelfFM/model"
	"ShelfFM/repository"
	"ShelfFM/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T, gw store.Gateway) repository.TrackRepository {
	t.Helper()
	repo := repository.New(gw)
	require.NoError(t, repo.Hydrate(context.Background()))
	return repo
}

func file(folder, filename string) File {
	return File{
		Data:     []byte("not-really-audio " + filename),
		Filename: filename,
		Folder:   folder,
	}
}

func TestImportFiles(t *testing.T) {
	repo := newTestRepo(t, store.NewMemoryGateway())
	im := New(repo, nil)

	report := im.ImportFiles(context.Background(), []File{
		file("music", "one.mp3"),
		file("music", "two.mp3"),
	})

	assert.Equal(t, Report{Imported: 2}, report)
	assert.Len(t, repo.ListAll(), 2)

	// Untagged files fall back to filename-derived titles.
	titles := make(map[string]bool)
	for _, s := range repo.ListAll() {
		titles[s.Title] = true
		assert.Equal(t, "Unknown Artist", s.Artist)
		assert.Equal(t, "music", s.Album)
	}
	assert.True(t, titles["one"])
	assert.True(t, titles["two"])
}

func TestImportFilesDedupsWithinBatch(t *testing.T) {
	repo := newTestRepo(t, store.NewMemoryGateway())
	im := New(repo, nil)

	report := im.ImportFiles(context.Background(), []File{
		file("music", "one.mp3"),
		file("music", "one.mp3"),
		file("other", "one.mp3"), // different folder, different source key
	})

	assert.Equal(t, Report{Imported: 2, Skipped: 1}, report)
	assert.Len(t, repo.ListAll(), 2)
}

func TestImportFilesReportsMerges(t *testing.T) {
	repo := newTestRepo(t, store.NewMemoryGateway())
	im := New(repo, nil)
	ctx := context.Background()

	report := im.ImportFiles(ctx, []File{file("music", "one.mp3")})
	assert.Equal(t, Report{Imported: 1}, report)

	report = im.ImportFiles(ctx, []File{file("music", "one.mp3")})
	assert.Equal(t, Report{Merged: 1}, report)
	assert.Len(t, repo.ListAll(), 1)
}

func TestImportFilesProgressIsMonotonic(t *testing.T) {
	repo := newTestRepo(t, store.NewMemoryGateway())

	var seen []Progress
	im := New(repo, func(p Progress) { seen = append(seen, p) })

	im.ImportFiles(context.Background(), []File{
		file("music", "one.mp3"),
		file("music", "two.mp3"),
		file("music", "three.mp3"),
	})

	require.NotEmpty(t, seen)
	last := -1
	for _, p := range seen {
		assert.Equal(t, 3, p.Total)
		assert.GreaterOrEqual(t, p.Completed, last, "progress must never move backwards")
		last = p.Completed
	}
	assert.Equal(t, 3, seen[len(seen)-1].Completed)
}

// failingGateway makes PutTrack fail for one source key so a mid-batch
// persist error can be observed.
type failingGateway struct {
	*store.MemoryGateway
	failKey string
}

func (g *failingGateway) PutTrack(ctx context.Context, rec *model.TrackRecord) error {
	if rec.SourceKey == g.failKey {
		return errors.New("disk full")
	}
	return g.MemoryGateway.PutTrack(ctx, rec)
}

func TestImportFilesContinuesAfterFailure(t *testing.T) {
	gw := &failingGateway{MemoryGateway: store.NewMemoryGateway(), failKey: "music/two.mp3"}
	repo := newTestRepo(t, gw)
	im := New(repo, nil)

	report := im.ImportFiles(context.Background(), []File{
		file("music", "one.mp3"),
		file("music", "two.mp3"),
		file("music", "three.mp3"),
	})

	assert.Equal(t, Report{Imported: 2, Failed: 1}, report)
	assert.Len(t, repo.ListAll(), 2)
}

func TestImportFilesHonorsCancellation(t *testing.T) {
	repo := newTestRepo(t, store.NewMemoryGateway())
	im := New(repo, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := im.ImportFiles(ctx, []File{file("music", "one.mp3")})
	assert.Equal(t, Report{}, report)
	assert.Empty(t, repo.ListAll())
}

func TestSessionImportStaysInMemory(t *testing.T) {
	gw := store.NewMemoryGateway()
	repo := newTestRepo(t, gw)
	im := New(repo, nil)
	ctx := context.Background()

	f := file("", "scratch.mp3")
	f.Session = true
	report := im.ImportFiles(ctx, []File{f})
	assert.Equal(t, Report{Imported: 1}, report)

	all := repo.ListAll()
	require.Len(t, all, 1)
	assert.Equal(t, model.SourceSession, all[0].Source)

	persisted, err := gw.AllTrackSummaries(ctx)
	require.NoError(t, err)
	assert.Empty(t, persisted)
}
