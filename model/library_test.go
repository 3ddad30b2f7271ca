package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueueIndexOf(t *testing.T) {
	q := Queue{IDs: []string{"a", "b", "c"}}

	assert.Equal(t, 0, q.IndexOf("a"))
	assert.Equal(t, 2, q.IndexOf("c"))
	assert.Equal(t, -1, q.IndexOf("x"))
	assert.Equal(t, -1, (&Queue{}).IndexOf("a"))
}

func TestQueueRemove(t *testing.T) {
	q := Queue{IDs: []string{"a", "b", "c"}}

	assert.True(t, q.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, q.IDs)

	assert.False(t, q.Remove("b"))
	assert.Equal(t, []string{"a", "c"}, q.IDs)

	assert.True(t, q.Remove("a"))
	assert.True(t, q.Remove("c"))
	assert.Empty(t, q.IDs)
}

func TestTrackRecordSummary(t *testing.T) {
	r := TrackRecord{
		TrackSummary: TrackSummary{ID: "t1", Title: "Song"},
		Blob:         []byte("audio"),
		Art:          []byte("art"),
	}

	s := r.Summary()
	assert.Equal(t, "t1", s.ID)
	assert.Equal(t, "Song", s.Title)
}
