package meta

import (
	"bytes"
	"path/filepath"
	"strings"

	"ShelfFM/logger"

	"github.com/dhowden/tag"
)

// Metadata is what extraction yields for one audio file. Any field may end up
// at its fallback when the file carries no usable tags.
type Metadata struct {
	Title    string
	Artist   string
	Album    string
	Duration float64 // seconds; 0 when not recoverable
	Art      []byte
	ArtMIME  string
}

// Extract reads tags from raw audio bytes. Malformed or unsupported metadata
// is not an error: the result falls back to a filename-derived title and
// "Unknown Artist", and the import continues.
func Extract(data []byte, filename string) Metadata {
	var md Metadata

	m, err := tag.ReadFrom(bytes.NewReader(data))
	if err == nil {
		md.Title = strings.TrimSpace(m.Title())
		md.Artist = strings.TrimSpace(m.Artist())
		md.Album = strings.TrimSpace(m.Album())

		if pic := m.Picture(); pic != nil {
			md.Art = pic.Data
			md.ArtMIME = pic.MIMEType
		}
	} else {
		logger.Debug("tag read failed, using fallbacks",
			logger.String("filename", filename), logger.ErrorField(err))
	}

	if md.Title == "" {
		md.Title = TitleFromFilename(filename)
	}
	if md.Artist == "" {
		md.Artist = "Unknown Artist"
	}

	// Tags don't carry duration; probe the decoded audio instead.
	md.Duration = ProbeDuration(data, filename)

	return md
}

// TitleFromFilename strips the extension off the base name.
func TitleFromFilename(filename string) string {
	base := filepath.Base(filename)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// AlbumFromFolder derives a display album from the last path segment of the
// folder a file was imported from.
func AlbumFromFolder(folder string) string {
	folder = strings.TrimRight(folder, "/\\")
	if folder == "" {
		return ""
	}
	return filepath.Base(folder)
}
