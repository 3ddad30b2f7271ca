package catalog

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"ShelfFM/model"
	"ShelfFM/repository"
	"ShelfFM/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, dir string, m Manifest) string {
	t.Helper()
	data, err := json.Marshal(m)
	require.NoError(t, err)
	path := filepath.Join(dir, "manifest.json")
	require.NoError(t, os.WriteFile(path, data, 0644))
	return path
}

func writeTrack(t *testing.T, dir, rel string) {
	t.Helper()
	full := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte("bundled-audio "+rel), 0644))
}

func newTestRepo(t *testing.T) repository.TrackRepository {
	t.Helper()
	repo := repository.New(store.NewMemoryGateway())
	require.NoError(t, repo.Hydrate(context.Background()))
	return repo
}

func TestSyncImportsManifestEntries(t *testing.T) {
	dir := t.TempDir()
	writeTrack(t, dir, "tracks/one.mp3")
	writeTrack(t, dir, "tracks/two.mp3")
	manifest := writeManifest(t, dir, Manifest{Tracks: []Entry{
		{Path: "tracks/one.mp3", Filename: "one.mp3", Album: "Bundle"},
		{Path: "tracks/two.mp3", Filename: "two.mp3"},
	}})

	repo := newTestRepo(t)
	added, err := Sync(context.Background(), repo, manifest)
	require.NoError(t, err)
	assert.Equal(t, 2, added)

	one := repo.Get(TrackID("tracks/one.mp3"))
	require.NotNil(t, one)
	assert.Equal(t, model.SourceEmbedded, one.Source)
	assert.Equal(t, "Bundle", one.Album)
	assert.Equal(t, "one", one.Title)
}

func TestSyncIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	writeTrack(t, dir, "tracks/one.mp3")
	manifest := writeManifest(t, dir, Manifest{Tracks: []Entry{
		{Path: "tracks/one.mp3", Filename: "one.mp3"},
	}})

	repo := newTestRepo(t)
	ctx := context.Background()

	added, err := Sync(ctx, repo, manifest)
	require.NoError(t, err)
	assert.Equal(t, 1, added)

	added, err = Sync(ctx, repo, manifest)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Len(t, repo.ListAll(), 1)
}

func TestSyncRespectsDeletedEntries(t *testing.T) {
	dir := t.TempDir()
	writeTrack(t, dir, "tracks/one.mp3")
	manifest := writeManifest(t, dir, Manifest{Tracks: []Entry{
		{Path: "tracks/one.mp3", Filename: "one.mp3"},
	}})

	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := Sync(ctx, repo, manifest)
	require.NoError(t, err)

	id := TrackID("tracks/one.mp3")
	summary := repo.Get(id)
	require.NotNil(t, summary)
	require.NoError(t, repo.Delete(ctx, id))
	require.NoError(t, repo.RecordDeleted(ctx, *summary))

	// The next sync must not resurrect what the user deleted.
	added, err := Sync(ctx, repo, manifest)
	require.NoError(t, err)
	assert.Zero(t, added)
	assert.Nil(t, repo.Get(id))
}

func TestSyncRehydratesFavorites(t *testing.T) {
	dir := t.TempDir()
	writeTrack(t, dir, "tracks/one.mp3")
	manifest := writeManifest(t, dir, Manifest{Tracks: []Entry{
		{Path: "tracks/one.mp3", Filename: "one.mp3"},
	}})

	repo := newTestRepo(t)
	ctx := context.Background()

	_, err := Sync(ctx, repo, manifest)
	require.NoError(t, err)

	id := TrackID("tracks/one.mp3")
	_, err = repo.SetFavorite(ctx, id, true)
	require.NoError(t, err)
	require.NoError(t, repo.Delete(ctx, id))

	_, err = Sync(ctx, repo, manifest)
	require.NoError(t, err)
	got := repo.Get(id)
	require.NotNil(t, got)
	assert.True(t, got.Favorite)
}

func TestSyncSkipsUnreadableFiles(t *testing.T) {
	dir := t.TempDir()
	writeTrack(t, dir, "tracks/one.mp3")
	manifest := writeManifest(t, dir, Manifest{Tracks: []Entry{
		{Path: "tracks/missing.mp3", Filename: "missing.mp3"},
		{Path: "tracks/one.mp3", Filename: "one.mp3"},
	}})

	repo := newTestRepo(t)
	added, err := Sync(context.Background(), repo, manifest)
	require.NoError(t, err)
	assert.Equal(t, 1, added)
}

func TestLoadManifestErrors(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0644))
	_, err = LoadManifest(bad)
	assert.Error(t, err)
}
