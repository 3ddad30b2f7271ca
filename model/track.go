package model

import "time"

// TrackSource identifies where a track came from.
type TrackSource string

const (
	// SourceImported is a track imported from the user's filesystem.
	SourceImported TrackSource = "imported"
	// SourceEmbedded is a track from the bundled catalog synced at startup.
	SourceEmbedded TrackSource = "embedded"
	// SourceSession is a track held in memory only, never persisted.
	SourceSession TrackSource = "session"
)

// TrackSummary is a track's metadata without its audio payload. This is the
// shape list views work with; it must never carry the blob.
type TrackSummary struct {
	ID        string      `json:"id"`
	Title     string      `json:"title"`
	Artist    string      `json:"artist"`
	Album     string      `json:"album"`
	Folder    string      `json:"folder"`
	Filename  string      `json:"filename"`
	Duration  float64     `json:"duration"` // seconds
	AddedAt   time.Time   `json:"addedAt"`
	Favorite  bool        `json:"favorite"`
	Source    TrackSource `json:"source"`
	SourceKey string      `json:"sourceKey,omitempty"`
	ArtURL    string      `json:"artUrl,omitempty"`
}

// TrackRecord is the persisted shape of a track: the summary plus the audio
// payload and optional cover art bytes.
type TrackRecord struct {
	TrackSummary
	Blob []byte `json:"-"`
	Art  []byte `json:"-"`
}

// Summary returns the record's metadata view.
func (r *TrackRecord) Summary() TrackSummary {
	return r.TrackSummary
}

// ArtURLFor is the serving route for a track's stored cover art.
func ArtURLFor(id string) string {
	return "/api/tracks/" + id + "/art"
}
