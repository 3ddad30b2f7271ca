package view

import (
	"math"
	"testing"
	"time"

	"ShelfFM/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func track(id, title, artist, album, folder string, addedAt time.Time, favorite bool) model.TrackSummary {
	return model.TrackSummary{
		ID:       id,
		Title:    title,
		Artist:   artist,
		Album:    album,
		Folder:   folder,
		Filename: title + ".mp3",
		AddedAt:  addedAt,
		Favorite: favorite,
		Source:   model.SourceImported,
	}
}

func testLibrary() []model.TrackSummary {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	return []model.TrackSummary{
		track("a", "Aurora", "Nova", "Dawn", "music/dawn", base, false),
		track("b", "Borealis", "Nova", "Dawn", "music/dawn", base.Add(time.Hour), true),
		track("c", "Cascade", "Rill", "Waters", "music/waters", base.Add(2*time.Hour), false),
		track("d", "Delta", "Rill", "Waters", "music/waters", base.Add(3*time.Hour), true),
	}
}

func ids(tracks []model.TrackSummary) []string {
	out := make([]string, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, t.ID)
	}
	return out
}

func TestDeriveDefaultOrderIsNewestFirst(t *testing.T) {
	got := Derive(testLibrary(), Inputs{Tab: TabAll})
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(got))
}

func TestDeriveFavoritesTab(t *testing.T) {
	got := Derive(testLibrary(), Inputs{Tab: TabFavorites})
	assert.Equal(t, []string{"d", "b"}, ids(got))
}

func TestDeriveAlbumsTab(t *testing.T) {
	// No album selected: an empty list, never the whole library.
	got := Derive(testLibrary(), Inputs{Tab: TabAlbums})
	assert.Empty(t, got)

	got = Derive(testLibrary(), Inputs{Tab: TabAlbums, SelectedAlbum: "music/waters"})
	assert.Equal(t, []string{"d", "c"}, ids(got))
}

func TestDeriveSearch(t *testing.T) {
	lib := testLibrary()

	tests := []struct {
		name string
		in   Inputs
		want []string
	}{
		{"matches any field by default", Inputs{Tab: TabAll, Search: "rill"}, []string{"d", "c"}},
		{"case insensitive", Inputs{Tab: TabAll, Search: "AURORA"}, []string{"a"}},
		{"trims whitespace", Inputs{Tab: TabAll, Search: "  aurora  "}, []string{"a"}},
		{"title field only", Inputs{Tab: TabAll, Search: "nova", FilterBy: FieldTitle}, nil},
		{"artist field only", Inputs{Tab: TabAll, Search: "nova", FilterBy: FieldArtist}, []string{"b", "a"}},
		{"folder field", Inputs{Tab: TabAll, Search: "waters", FilterBy: FieldFolder}, []string{"d", "c"}},
		{"no match", Inputs{Tab: TabAll, Search: "zzz"}, nil},
		{"composes with favorites tab", Inputs{Tab: TabFavorites, Search: "delta"}, []string{"d"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Derive(lib, tt.in))
			if tt.want == nil {
				assert.Empty(t, got)
			} else {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestDeriveExplicitSorts(t *testing.T) {
	lib := testLibrary()

	got := Derive(lib, Inputs{Tab: TabAll, SortBy: SortTitle})
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got))

	got = Derive(lib, Inputs{Tab: TabAll, SortBy: SortTitle, SortDesc: true})
	assert.Equal(t, []string{"d", "c", "b", "a"}, ids(got))

	got = Derive(lib, Inputs{Tab: TabAll, SortBy: SortAddedAt})
	assert.Equal(t, []string{"a", "b", "c", "d"}, ids(got))
}

func TestDeriveDoesNotMutateInput(t *testing.T) {
	lib := testLibrary()
	before := ids(lib)

	Derive(lib, Inputs{Tab: TabAll, SortBy: SortTitle})
	assert.Equal(t, before, ids(lib))
}

func TestNaturalLess(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"Track 2", "Track 10", true},
		{"Track 10", "Track 2", false},
		{"track 2", "Track 10", true}, // case insensitive
		{"alpha", "beta", true},
		{"same", "same", false},
		{"a", "ab", true},
		{"Track 2b", "Track 2c", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, naturalLess(tt.a, tt.b), "%q < %q", tt.a, tt.b)
	}
}

func TestAlbums(t *testing.T) {
	lib := testLibrary()
	// A session track never joins an album group.
	session := track("s", "Scratch", "", "", "", time.Now(), false)
	session.Source = model.SourceSession
	lib = append(lib, session)

	albums := Albums(lib)
	require.Len(t, albums, 2)

	// Sorted by display name, which prefers the album tag.
	assert.Equal(t, "Dawn", albums[0].Name)
	assert.Equal(t, "music/dawn", albums[0].Key)
	assert.Equal(t, 2, albums[0].Count)
	assert.Equal(t, "Waters", albums[1].Name)

	// Members keep the default newest-first order.
	assert.Equal(t, []string{"b", "a"}, ids(albums[0].Tracks))
}

func TestAlbumsNameFallsBackToFolderSegment(t *testing.T) {
	lib := []model.TrackSummary{
		track("x", "Untitled", "", "", "music/bootlegs", time.Now(), false),
	}
	albums := Albums(lib)
	require.Len(t, albums, 1)
	assert.Equal(t, "bootlegs", albums[0].Name)
}

func TestAlbumsEmbeddedGroup(t *testing.T) {
	emb := track("e", "Bundled", "", "", "", time.Now(), false)
	emb.Source = model.SourceEmbedded

	albums := Albums([]model.TrackSummary{emb})
	require.Len(t, albums, 1)
	assert.Equal(t, "Embedded", albums[0].Key)
}

func TestEngineMemoizesUnchangedInputs(t *testing.T) {
	e := NewEngine()
	lib := testLibrary()
	in := Inputs{Tab: TabAll, SortBy: SortTitle}

	first := e.Derive(lib, in)
	second := e.Derive(lib, in)
	assert.Same(t, &first[0], &second[0], "unchanged inputs must return the memoized slice")

	// Different inputs recompute.
	third := e.Derive(lib, Inputs{Tab: TabFavorites})
	assert.Equal(t, []string{"d", "b"}, ids(third))

	// Invalidate drops the memo even for identical inputs.
	e.Invalidate()
	fourth := e.Derive(lib, Inputs{Tab: TabFavorites})
	assert.Equal(t, []string{"d", "b"}, ids(fourth))
	assert.NotSame(t, &third[0], &fourth[0])
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		seconds float64
		want    string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{math.NaN(), "0:00"},
		{math.Inf(1), "0:00"},
		{math.Inf(-1), "0:00"},
		{1, "0:01"},
		{59.9, "0:59"},
		{60, "1:00"},
		{125, "2:05"},
		{3599, "59:59"},
		{3600, "1:00:00"},
		{3725, "1:02:05"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.seconds), "FormatDuration(%v)", tt.seconds)
	}
}
