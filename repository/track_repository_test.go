package repository

import (
	"context"
	"testing"
	"time"

	"ShelfFM/model"
	"ShelfFM/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (TrackRepository, *store.MemoryGateway) {
	t.Helper()
	gw := store.NewMemoryGateway()
	repo := New(gw)
	require.NoError(t, repo.Hydrate(context.Background()))
	return repo, gw
}

func record(id, title, sourceKey string) *model.TrackRecord {
	return &model.TrackRecord{
		TrackSummary: model.TrackSummary{
			ID:        id,
			Title:     title,
			Artist:    "Unknown Artist",
			Folder:    "music",
			Filename:  title + ".mp3",
			AddedAt:   time.Now(),
			Source:    model.SourceImported,
			SourceKey: sourceKey,
		},
		Blob: []byte("audio-bytes-" + id),
	}
}

func TestSourceKeyFor(t *testing.T) {
	tests := []struct {
		folder   string
		filename string
		want     string
	}{
		{"music/rock", "track.mp3", "music/rock/track.mp3"},
		{"", "track.mp3", "track.mp3"},
		{"music", "a.flac", "music/a.flac"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SourceKeyFor(tt.folder, tt.filename))
	}
}

func TestImportNewTrack(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	status, summary, err := repo.Import(ctx, record("t1", "Song", "music/Song.mp3"))
	require.NoError(t, err)
	assert.Equal(t, StatusImported, status)
	require.NotNil(t, summary)
	assert.Equal(t, "t1", summary.ID)

	got := repo.Get("t1")
	require.NotNil(t, got)
	assert.Equal(t, "Song", got.Title)

	blob, err := repo.GetBlob(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes-t1"), blob)
}

func TestImportMergeKeepsIdentityAndUserState(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	first := record("t1", "Song", "music/Song.mp3")
	first.AddedAt = time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
	_, _, err := repo.Import(ctx, first)
	require.NoError(t, err)

	_, err = repo.SetFavorite(ctx, "t1", true)
	require.NoError(t, err)

	// Re-import the same source under a fresh id with refreshed metadata.
	again := record("t2", "Song (remastered)", "music/Song.mp3")
	status, summary, err := repo.Import(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, StatusMerged, status)
	require.NotNil(t, summary)

	assert.Equal(t, "t1", summary.ID, "merge must keep the original id")
	assert.True(t, summary.Favorite, "merge must keep the favorite flag")
	assert.Equal(t, first.AddedAt, summary.AddedAt, "merge must keep the original addedAt")
	assert.Equal(t, "Song (remastered)", summary.Title, "merge refreshes metadata")

	// No duplicate appeared.
	assert.Len(t, repo.ListAll(), 1)
	assert.Nil(t, repo.Get("t2"))
}

func TestImportSuppressedByDeletedSet(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	rec := record("t1", "Song", "music/Song.mp3")
	_, _, err := repo.Import(ctx, rec)
	require.NoError(t, err)

	summary := repo.Get("t1")
	require.NotNil(t, summary)
	require.NoError(t, repo.Delete(ctx, "t1"))
	require.NoError(t, repo.RecordDeleted(ctx, *summary))

	status, got, err := repo.Import(ctx, record("t2", "Song", "music/Song.mp3"))
	require.NoError(t, err)
	assert.Equal(t, StatusSkippedDeleted, status)
	assert.Nil(t, got)
	assert.Empty(t, repo.ListAll())

	entries, err := repo.DeletedEntries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "music/Song.mp3", entries[0].SourceKey)
	assert.Equal(t, "Song", entries[0].Title)

	// Restore lifts the suppression; the next import goes through.
	require.NoError(t, repo.Restore(ctx, "music/Song.mp3"))

	status, got, err = repo.Import(ctx, record("t3", "Song", "music/Song.mp3"))
	require.NoError(t, err)
	assert.Equal(t, StatusImported, status)
	require.NotNil(t, got)
	assert.Equal(t, "t3", got.ID)
}

func TestFavoriteSurvivesDeleteAndReimport(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.Import(ctx, record("t1", "Song", "music/Song.mp3"))
	require.NoError(t, err)

	_, err = repo.SetFavorite(ctx, "t1", true)
	require.NoError(t, err)

	// Delete without recording a deleted entry, as clearing the library does.
	require.NoError(t, repo.Delete(ctx, "t1"))
	assert.Empty(t, repo.ListAll())

	status, summary, err := repo.Import(ctx, record("t2", "Song", "music/Song.mp3"))
	require.NoError(t, err)
	assert.Equal(t, StatusImported, status)
	require.NotNil(t, summary)
	assert.True(t, summary.Favorite, "favorite key store must rehydrate the flag")
}

func TestUnfavoriteClearsSideStore(t *testing.T) {
	repo, gw := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.Import(ctx, record("t1", "Song", "music/Song.mp3"))
	require.NoError(t, err)

	_, err = repo.SetFavorite(ctx, "t1", true)
	require.NoError(t, err)
	has, err := gw.HasFavoriteKey(ctx, "music/Song.mp3")
	require.NoError(t, err)
	assert.True(t, has)

	summary, err := repo.SetFavorite(ctx, "t1", false)
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.False(t, summary.Favorite)

	has, err = gw.HasFavoriteKey(ctx, "music/Song.mp3")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUpdateMissingIDReturnsNilNil(t *testing.T) {
	repo, _ := newTestRepo(t)

	summary, err := repo.Update(context.Background(), "nope", func(r *model.TrackRecord) {
		r.Title = "changed"
	})
	assert.NoError(t, err)
	assert.Nil(t, summary)

	summary, err = repo.SetFavorite(context.Background(), "nope", true)
	assert.NoError(t, err)
	assert.Nil(t, summary)
}

func TestUpdateCannotChangeID(t *testing.T) {
	repo, _ := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.Import(ctx, record("t1", "Song", "music/Song.mp3"))
	require.NoError(t, err)

	summary, err := repo.Update(ctx, "t1", func(r *model.TrackRecord) {
		r.ID = "hijacked"
		r.Title = "renamed"
	})
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.Equal(t, "t1", summary.ID)
	assert.Equal(t, "renamed", summary.Title)
	assert.Nil(t, repo.Get("hijacked"))
}

func TestDeleteRemovesTrackAndSourceKey(t *testing.T) {
	repo, gw := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.Import(ctx, record("t1", "Song", "music/Song.mp3"))
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, "t1"))
	assert.Nil(t, repo.Get("t1"))

	rec, err := gw.GetTrack(ctx, "t1")
	require.NoError(t, err)
	assert.Nil(t, rec)

	// Deleting an absent id is a no-op.
	assert.NoError(t, repo.Delete(ctx, "t1"))
}

func TestClearAllKeepsDeletedAndFavoriteStores(t *testing.T) {
	repo, gw := newTestRepo(t)
	ctx := context.Background()

	_, _, err := repo.Import(ctx, record("t1", "One", "music/One.mp3"))
	require.NoError(t, err)
	_, _, err = repo.Import(ctx, record("t2", "Two", "music/Two.mp3"))
	require.NoError(t, err)

	_, err = repo.SetFavorite(ctx, "t1", true)
	require.NoError(t, err)
	require.NoError(t, repo.RecordDeleted(ctx, *repo.Get("t2")))

	require.NoError(t, repo.ClearAll(ctx))
	assert.Empty(t, repo.ListAll())

	// The independent stores survive a library wipe.
	has, err := gw.HasFavoriteKey(ctx, "music/One.mp3")
	require.NoError(t, err)
	assert.True(t, has)

	entries, err := repo.DeletedEntries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	// Reimporting the favorited source after the wipe brings the flag back.
	_, summary, err := repo.Import(ctx, record("t3", "One", "music/One.mp3"))
	require.NoError(t, err)
	require.NotNil(t, summary)
	assert.True(t, summary.Favorite)
}

func TestSessionTracksNeverTouchGateway(t *testing.T) {
	repo, gw := newTestRepo(t)
	ctx := context.Background()

	rec := record("s1", "Ephemeral", "tmp/Ephemeral.mp3")
	rec.Source = model.SourceSession
	rec.Art = []byte("cover")

	status, summary, err := repo.Import(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, StatusImported, status)
	require.NotNil(t, summary)

	// Visible through the repository.
	assert.NotNil(t, repo.Get("s1"))
	blob, err := repo.GetBlob(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("audio-bytes-s1"), blob)
	art, err := repo.GetArt(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []byte("cover"), art)

	// Invisible to the gateway.
	stored, err := gw.GetTrack(ctx, "s1")
	require.NoError(t, err)
	assert.Nil(t, stored)

	require.NoError(t, repo.Delete(ctx, "s1"))
	assert.Nil(t, repo.Get("s1"))
}

func TestHydrateRebuildsCacheFromGateway(t *testing.T) {
	gw := store.NewMemoryGateway()
	ctx := context.Background()
	require.NoError(t, gw.PutTrack(ctx, record("t1", "One", "music/One.mp3")))
	require.NoError(t, gw.PutTrack(ctx, record("t2", "Two", "music/Two.mp3")))

	repo := New(gw)
	require.NoError(t, repo.Hydrate(ctx))

	assert.Len(t, repo.ListAll(), 2)
	require.NotNil(t, repo.Get("t1"))

	// The sourceKey index came back too: re-import merges instead of duplicating.
	status, summary, err := repo.Import(ctx, record("t9", "One", "music/One.mp3"))
	require.NoError(t, err)
	assert.Equal(t, StatusMerged, status)
	assert.Equal(t, "t1", summary.ID)
}

func TestGetBlobMissingIDReturnsNilNil(t *testing.T) {
	repo, _ := newTestRepo(t)

	blob, err := repo.GetBlob(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, blob)

	art, err := repo.GetArt(context.Background(), "nope")
	assert.NoError(t, err)
	assert.Nil(t, art)
}
