package meta

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"ShelfFM/logger"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/flac"
	"github.com/gopxl/beep/v2/mp3"
	"github.com/gopxl/beep/v2/vorbis"
	"github.com/gopxl/beep/v2/wav"
)

// ProbeDuration decodes the audio just far enough to compute its length in
// seconds. Unsupported or undecodable files probe as 0.
func ProbeDuration(data []byte, filename string) float64 {
	streamer, format, err := DecodeAudio(data, filename)
	if err != nil {
		logger.Debug("duration probe failed",
			logger.String("filename", filename), logger.ErrorField(err))
		return 0
	}
	defer streamer.Close()

	n := streamer.Len()
	if n <= 0 || format.SampleRate <= 0 {
		return 0
	}
	return format.SampleRate.D(n).Seconds()
}

// DecodeAudio picks a decoder by file extension. The caller owns the returned
// streamer and must close it.
func DecodeAudio(data []byte, filename string) (beep.StreamSeekCloser, beep.Format, error) {
	rc := io.NopCloser(bytes.NewReader(data))

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".flac":
		return flac.Decode(rc)
	case ".wav":
		return wav.Decode(rc)
	case ".ogg", ".oga":
		return vorbis.Decode(rc)
	default:
		// mp3 also covers unknown extensions; most session imports are mp3.
		return mp3.Decode(rc)
	}
}

// SupportedExt reports whether a filename looks like an audio file we import.
func SupportedExt(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3", ".flac", ".wav", ".ogg", ".oga", ".m4a", ".aac":
		return true
	}
	return false
}
