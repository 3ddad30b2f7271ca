package view

import (
	"sort"
	"strings"
	"sync"

	"ShelfFM/model"

	"github.com/samber/lo"
)

// Tab selects which slice of the library is visible.
type Tab string

const (
	TabAll       Tab = "all"
	TabFavorites Tab = "favorites"
	TabAlbums    Tab = "albums"
)

// FilterField selects which field the search string matches against.
type FilterField string

const (
	FieldAll      FilterField = "all"
	FieldTitle    FilterField = "title"
	FieldArtist   FilterField = "artist"
	FieldAlbum    FilterField = "album"
	FieldFolder   FilterField = "folder"
	FieldFilename FilterField = "filename"
)

// SortField selects the explicit sort. Empty means the default order,
// addedAt descending (most recent import first).
type SortField string

const (
	SortDefault  SortField = ""
	SortTitle    SortField = "title"
	SortArtist   SortField = "artist"
	SortAlbum    SortField = "album"
	SortDuration SortField = "duration"
	SortAddedAt  SortField = "addedAt"
)

// Inputs are the declared inputs of the derivation. Same inputs over the
// same tracks always yield the same visible list.
type Inputs struct {
	Tab           Tab
	Search        string
	FilterBy      FilterField
	SelectedAlbum string // album grouping key; only meaningful on TabAlbums
	SortBy        SortField
	SortDesc      bool
}

// Derive computes the visible track list: tab filter, then search filter,
// then sort. Side-effect free; one O(n) scan plus the sort.
func Derive(tracks []model.TrackSummary, in Inputs) []model.TrackSummary {
	visible := tracks

	switch in.Tab {
	case TabFavorites:
		visible = lo.Filter(visible, func(t model.TrackSummary, _ int) bool {
			return t.Favorite
		})
	case TabAlbums:
		if in.SelectedAlbum == "" {
			return []model.TrackSummary{}
		}
		visible = lo.Filter(visible, func(t model.TrackSummary, _ int) bool {
			return albumKey(t) == in.SelectedAlbum
		})
	}

	if search := strings.ToLower(strings.TrimSpace(in.Search)); search != "" {
		field := in.FilterBy
		if field == "" {
			field = FieldAll
		}
		visible = lo.Filter(visible, func(t model.TrackSummary, _ int) bool {
			return strings.Contains(strings.ToLower(searchText(t, field)), search)
		})
	}

	out := make([]model.TrackSummary, len(visible))
	copy(out, visible)
	sortTracks(out, in.SortBy, in.SortDesc)
	return out
}

func searchText(t model.TrackSummary, field FilterField) string {
	switch field {
	case FieldTitle:
		return t.Title
	case FieldArtist:
		return t.Artist
	case FieldAlbum:
		return t.Album
	case FieldFolder:
		return t.Folder
	case FieldFilename:
		return t.Filename
	default:
		return strings.Join([]string{t.Title, t.Artist, t.Album, t.Folder, t.Filename}, " ")
	}
}

func sortTracks(tracks []model.TrackSummary, field SortField, desc bool) {
	less := func(a, b model.TrackSummary) bool {
		switch field {
		case SortTitle:
			return naturalLess(a.Title, b.Title)
		case SortArtist:
			return naturalLess(a.Artist, b.Artist)
		case SortAlbum:
			return naturalLess(a.Album, b.Album)
		case SortDuration:
			return a.Duration < b.Duration
		case SortAddedAt:
			return a.AddedAt.Before(b.AddedAt)
		default:
			// Default order: most recent import first.
			return a.AddedAt.After(b.AddedAt)
		}
	}

	sort.SliceStable(tracks, func(i, j int) bool {
		if desc && field != SortDefault {
			return less(tracks[j], tracks[i])
		}
		return less(tracks[i], tracks[j])
	})
}

// naturalLess compares strings case-insensitively with embedded numbers
// compared numerically, so "Track 2" sorts before "Track 10".
func naturalLess(a, b string) bool {
	a, b = strings.ToLower(a), strings.ToLower(b)
	for len(a) > 0 && len(b) > 0 {
		if isDigit(a[0]) && isDigit(b[0]) {
			na, ra := leadingNumber(a)
			nb, rb := leadingNumber(b)
			if na != nb {
				return na < nb
			}
			a, b = ra, rb
			continue
		}
		if a[0] != b[0] {
			return a[0] < b[0]
		}
		a, b = a[1:], b[1:]
	}
	return len(a) < len(b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func leadingNumber(s string) (uint64, string) {
	var n uint64
	i := 0
	for i < len(s) && isDigit(s[i]) {
		n = n*10 + uint64(s[i]-'0')
		i++
	}
	return n, s[i:]
}

// albumKey is the grouping key for a track: its folder, or "Embedded" when
// it has none.
func albumKey(t model.TrackSummary) string {
	if t.Folder == "" {
		return "Embedded"
	}
	return t.Folder
}

// Albums rebuilds the derived album groups: imported and embedded tracks
// grouped by folder, display name preferring the album tag over the last
// folder segment, groups sorted by display name.
func Albums(tracks []model.TrackSummary) []model.Album {
	grouped := lo.GroupBy(
		lo.Filter(tracks, func(t model.TrackSummary, _ int) bool {
			return t.Source == model.SourceImported || t.Source == model.SourceEmbedded
		}),
		albumKey,
	)

	albums := make([]model.Album, 0, len(grouped))
	for key, members := range grouped {
		name := ""
		for _, t := range members {
			if t.Album != "" {
				name = t.Album
				break
			}
		}
		if name == "" {
			name = lastSegment(key)
		}

		sorted := make([]model.TrackSummary, len(members))
		copy(sorted, members)
		sortTracks(sorted, SortDefault, false)

		albums = append(albums, model.Album{
			Key:    key,
			Name:   name,
			Tracks: sorted,
			Count:  len(sorted),
		})
	}

	sort.Slice(albums, func(i, j int) bool {
		return naturalLess(albums[i].Name, albums[j].Name)
	})
	return albums
}

func lastSegment(folder string) string {
	folder = strings.TrimRight(folder, "/\\")
	if idx := strings.LastIndexAny(folder, "/\\"); idx >= 0 {
		return folder[idx+1:]
	}
	return folder
}

// Engine memoizes Derive on unchanged inputs. Mutating the library must be
// followed by Invalidate; deriving is then cheap enough to run per keystroke.
type Engine struct {
	mu       sync.Mutex
	valid    bool
	lastIn   Inputs
	lastOut  []model.TrackSummary
	lastAlbs []model.Album
}

// NewEngine creates an empty memoizing engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Invalidate drops the memo; call after any repository mutation.
func (e *Engine) Invalidate() {
	e.mu.Lock()
	e.valid = false
	e.mu.Unlock()
}

// Derive returns the visible list, reusing the previous result when the
// inputs are unchanged since the last call.
func (e *Engine) Derive(tracks []model.TrackSummary, in Inputs) []model.TrackSummary {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.valid && in == e.lastIn {
		return e.lastOut
	}

	e.lastOut = Derive(tracks, in)
	e.lastAlbs = Albums(tracks)
	e.lastIn = in
	e.valid = true
	return e.lastOut
}

// Albums returns the album groups for the same track set passed to Derive.
func (e *Engine) Albums(tracks []model.TrackSummary) []model.Album {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.valid {
		return e.lastAlbs
	}
	return Albums(tracks)
}
