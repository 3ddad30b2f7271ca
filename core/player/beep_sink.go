package player

import (
	"fmt"
	"sync"
	"time"

	"ShelfFM/core/meta"

	"github.com/gopxl/beep/v2"
	"github.com/gopxl/beep/v2/speaker"
)

// BeepSink plays audio through the system speaker. One decoded streamer is
// held at a time; Release closes it and clears the speaker.
type BeepSink struct {
	mu sync.Mutex

	initialized bool
	sampleRate  beep.SampleRate

	streamer beep.StreamSeekCloser
	format   beep.Format
	ctrl     *beep.Ctrl
	onEnded  func()
}

// NewBeepSink creates a sink at the standard output sample rate.
func NewBeepSink() *BeepSink {
	return &BeepSink{
		sampleRate: beep.SampleRate(44100),
	}
}

func (s *BeepSink) OnEnded(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEnded = fn
}

// Attach decodes data and queues it on the speaker, paused.
func (s *BeepSink) Attach(data []byte, filename string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer != nil {
		return fmt.Errorf("sink already has an attached source")
	}

	streamer, format, err := meta.DecodeAudio(data, filename)
	if err != nil {
		return fmt.Errorf("failed to decode audio: %w", err)
	}

	if !s.initialized {
		if err := speaker.Init(s.sampleRate, s.sampleRate.N(time.Second/10)); err != nil {
			streamer.Close()
			return fmt.Errorf("failed to init speaker: %w", err)
		}
		s.initialized = true
	}

	s.streamer = streamer
	s.format = format

	resampled := beep.Resample(4, format.SampleRate, s.sampleRate, streamer)
	s.ctrl = &beep.Ctrl{Streamer: resampled, Paused: true}

	onEnded := s.onEnded
	speaker.Play(beep.Seq(s.ctrl, beep.Callback(func() {
		if onEnded != nil {
			// Advance from a fresh goroutine: the callback runs inside the
			// speaker loop and the handler will touch the speaker again.
			go onEnded()
		}
	})))

	return nil
}

func (s *BeepSink) Play() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return fmt.Errorf("no source attached")
	}
	speaker.Lock()
	s.ctrl.Paused = false
	speaker.Unlock()
	return nil
}

func (s *BeepSink) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ctrl == nil {
		return
	}
	speaker.Lock()
	s.ctrl.Paused = true
	speaker.Unlock()
}

func (s *BeepSink) Seek(pos float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return fmt.Errorf("no source attached")
	}

	sample := s.format.SampleRate.N(time.Duration(pos * float64(time.Second)))
	if sample < 0 {
		sample = 0
	}
	if n := s.streamer.Len(); sample > n {
		sample = n
	}

	speaker.Lock()
	err := s.streamer.Seek(sample)
	speaker.Unlock()
	if err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	return nil
}

func (s *BeepSink) Position() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}
	speaker.Lock()
	pos := s.streamer.Position()
	speaker.Unlock()
	return s.format.SampleRate.D(pos).Seconds()
}

func (s *BeepSink) Duration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return 0
	}
	return s.format.SampleRate.D(s.streamer.Len()).Seconds()
}

// Release clears the speaker and closes the decoded streamer.
func (s *BeepSink) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.streamer == nil {
		return
	}
	if s.initialized {
		speaker.Clear()
	}
	s.streamer.Close()
	s.streamer = nil
	s.ctrl = nil
}
