package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractFallbacks(t *testing.T) {
	// Untagged, undecodable bytes must still yield usable metadata.
	md := Extract([]byte("definitely not audio"), "03 - Midnight Drive.mp3")

	assert.Equal(t, "03 - Midnight Drive", md.Title)
	assert.Equal(t, "Unknown Artist", md.Artist)
	assert.Empty(t, md.Album)
	assert.Zero(t, md.Duration)
	assert.Nil(t, md.Art)
}

func TestTitleFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"song.mp3", "song"},
		{"dir/song.flac", "song"},
		{"no-extension", "no-extension"},
		{"dots.in.name.ogg", "dots.in.name"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TitleFromFilename(tt.filename))
	}
}

func TestAlbumFromFolder(t *testing.T) {
	tests := []struct {
		folder string
		want   string
	}{
		{"music/albums/Blue", "Blue"},
		{"music/albums/Blue/", "Blue"},
		{"Blue", "Blue"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AlbumFromFolder(tt.folder))
	}
}

func TestSupportedExt(t *testing.T) {
	assert.True(t, SupportedExt("a.mp3"))
	assert.True(t, SupportedExt("a.FLAC"))
	assert.True(t, SupportedExt("a.ogg"))
	assert.False(t, SupportedExt("a.txt"))
	assert.False(t, SupportedExt("a"))
}

func TestProbeDurationUndecodable(t *testing.T) {
	assert.Zero(t, ProbeDuration([]byte("garbage"), "x.mp3"))
	assert.Zero(t, ProbeDuration(nil, "x.wav"))
}
