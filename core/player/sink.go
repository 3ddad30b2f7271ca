package player

// Sink is the audio output the engine drives. Implementations hold at most
// one decoded source at a time; the engine guarantees Release is called
// before the next Attach.
type Sink interface {
	// Attach decodes data and makes it the current source, initially paused.
	Attach(data []byte, filename string) error
	// Play starts or resumes the current source.
	Play() error
	// Pause halts playback, keeping the source attached.
	Pause()
	// Seek moves the playhead to pos seconds into the current source.
	Seek(pos float64) error
	// Position is the playhead in seconds, 0 when nothing is attached.
	Position() float64
	// Duration is the current source's length in seconds, 0 when unknown.
	Duration() float64
	// Release drops the current source and frees its decoded resources.
	Release()
	// OnEnded registers the end-of-track notification. The callback may be
	// invoked from the audio pipeline's goroutine.
	OnEnded(fn func())
}

// RandSource supplies shuffle picks. Injectable so tests can assert exact
// selections.
type RandSource interface {
	Intn(n int) int
}
