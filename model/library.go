package model

import "time"

// DeletedEntry records a user deletion so re-importing the same source is
// suppressed until the entry is restored. Title/artist/album/folder/filename
// are denormalized so the entry can be displayed without the original track.
type DeletedEntry struct {
	SourceKey string    `json:"sourceKey"`
	DeletedAt time.Time `json:"deletedAt"`
	Title     string    `json:"title"`
	Artist    string    `json:"artist"`
	Album     string    `json:"album"`
	Folder    string    `json:"folder"`
	Filename  string    `json:"filename"`
}

// FavoriteKey maps a track's source key to the time its favorite bit was last
// flipped on. Kept independent of the track store so favorite status survives
// delete+reimport cycles.
type FavoriteKey struct {
	SourceKey string    `json:"sourceKey" gorm:"primaryKey;column:source_key;size:512"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"column:updated_at"`
}

// TableName sets the gorm table name for FavoriteKey.
func (FavoriteKey) TableName() string {
	return "favorite_keys"
}

// Album is a derived grouping of tracks by folder; it is rebuilt from the
// track repository and never persisted.
type Album struct {
	Key    string         `json:"key"`  // grouping key: folder, or "Embedded"
	Name   string         `json:"name"` // album tag, falling back to the last folder segment
	Tracks []TrackSummary `json:"tracks"`
	Count  int            `json:"count"`
}

// Queue is the ordered set of track ids eligible for next/prev navigation,
// snapshotted from the visible list at play time.
type Queue struct {
	IDs       []string `json:"ids"`
	CurrentID string   `json:"currentId"` // empty when nothing is current
	ShuffleOn bool     `json:"shuffleOn"`
}

// IndexOf returns the position of id in the queue, or -1.
func (q *Queue) IndexOf(id string) int {
	for i, v := range q.IDs {
		if v == id {
			return i
		}
	}
	return -1
}

// Remove strips id from the queue, keeping order. Returns true if removed.
func (q *Queue) Remove(id string) bool {
	idx := q.IndexOf(id)
	if idx < 0 {
		return false
	}
	q.IDs = append(q.IDs[:idx], q.IDs[idx+1:]...)
	return true
}
