package player

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"ShelfFM/logger"
	"ShelfFM/model"
)

// State is the engine's playback state.
type State string

const (
	// StateIdle means no current track.
	StateIdle State = "idle"
	// StateLoaded means a current track exists but is not playing; it may
	// still be waiting for its payload to attach.
	StateLoaded State = "loaded"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

const statusTTL = 4 * time.Second

// Library is the slice of the track repository the engine needs.
type Library interface {
	Get(id string) *model.TrackSummary
	GetBlob(ctx context.Context, id string) ([]byte, error)
	SetFavorite(ctx context.Context, id string, favorite bool) (*model.TrackSummary, error)
	Delete(ctx context.Context, id string) error
	RecordDeleted(ctx context.Context, s model.TrackSummary) error
	ClearAll(ctx context.Context) error
}

// QueueSaver persists queue snapshots across restarts. Optional.
type QueueSaver interface {
	Save(ctx context.Context, q model.Queue) error
	Clear(ctx context.Context) error
}

// Snapshot is the externally visible player state.
type Snapshot struct {
	State     State    `json:"state"`
	CurrentID string   `json:"currentId,omitempty"`
	QueueIDs  []string `json:"queueIds"`
	ShuffleOn bool     `json:"shuffleOn"`
	Position  float64  `json:"position"`
	Duration  float64  `json:"duration"`
	Status    string   `json:"status,omitempty"`
}

// Engine owns the playback queue, the current-track pointer and the audio
// sink. All mutations are serialized behind one mutex; async payload loads
// are keyed by a sequence number so a superseded load can never overwrite a
// newer selection.
type Engine struct {
	mu   sync.Mutex
	lib  Library
	sink Sink
	rnd  RandSource

	queue model.Queue
	state State

	// pendingPlay marks that playback should start as soon as the in-flight
	// payload attaches.
	pendingPlay bool
	loadSeq     uint64

	// attachedID is the track whose payload the sink currently holds; empty
	// when nothing is attached. Toggle uses it to tell "resume" apart from
	// "the current track still needs its payload".
	attachedID string

	status      string
	statusTimer *time.Timer

	saver    QueueSaver
	onChange func(Snapshot)
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand injects the shuffle random source.
func WithRand(rnd RandSource) Option {
	return func(e *Engine) { e.rnd = rnd }
}

// WithQueueSaver mirrors queue changes to a persistent snapshot.
func WithQueueSaver(saver QueueSaver) Option {
	return func(e *Engine) { e.saver = saver }
}

// WithOnChange registers a listener for state snapshots.
func WithOnChange(fn func(Snapshot)) Option {
	return func(e *Engine) { e.onChange = fn }
}

// NewEngine creates an idle engine over the given library and sink.
func NewEngine(lib Library, sink Sink, opts ...Option) *Engine {
	e := &Engine{
		lib:   lib,
		sink:  sink,
		rnd:   rand.New(rand.NewSource(time.Now().UnixNano())),
		state: StateIdle,
	}
	for _, opt := range opts {
		opt(e)
	}
	sink.OnEnded(e.onTrackEnd)
	return e
}

// Snapshot returns the current externally visible state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

func (e *Engine) snapshotLocked() Snapshot {
	ids := make([]string, len(e.queue.IDs))
	copy(ids, e.queue.IDs)
	return Snapshot{
		State:     e.state,
		CurrentID: e.queue.CurrentID,
		QueueIDs:  ids,
		ShuffleOn: e.queue.ShuffleOn,
		Position:  e.sink.Position(),
		Duration:  e.sink.Duration(),
		Status:    e.status,
	}
}

func (e *Engine) notifyLocked() {
	if e.onChange == nil {
		return
	}
	snap := e.snapshotLocked()
	go e.onChange(snap)
}

func (e *Engine) saveQueueLocked() {
	if e.saver == nil {
		return
	}
	q := e.queue
	q.IDs = append([]string(nil), e.queue.IDs...)
	go func() {
		if err := e.saver.Save(context.Background(), q); err != nil {
			logger.Warn("queue snapshot save failed", logger.ErrorField(err))
		}
	}()
}

// Play snapshots the visible list as the new queue, points at the given
// track and starts loading its payload. The load is asynchronous; until it
// resolves the state is loaded-pending.
func (e *Engine) Play(ctx context.Context, track model.TrackSummary, visible []model.TrackSummary) {
	e.mu.Lock()

	ids := make([]string, 0, len(visible))
	for _, t := range visible {
		ids = append(ids, t.ID)
	}
	e.queue.IDs = ids
	e.queue.CurrentID = track.ID
	e.pendingPlay = true
	e.startLoadLocked(ctx, track.ID)
	e.saveQueueLocked()
	e.notifyLocked()
	e.mu.Unlock()
}

// startLoadLocked kicks off the async payload load for id. Must hold e.mu.
func (e *Engine) startLoadLocked(ctx context.Context, id string) {
	e.loadSeq++
	seq := e.loadSeq
	e.state = StateLoaded

	go e.load(ctx, id, seq)
}

func (e *Engine) load(ctx context.Context, id string, seq uint64) {
	blob, err := e.lib.GetBlob(ctx, id)

	e.mu.Lock()
	defer e.mu.Unlock()

	// A later Play superseded this load; its result is dead.
	if seq != e.loadSeq {
		return
	}

	if err != nil || blob == nil {
		if err != nil {
			logger.Error("payload load failed", logger.String("id", id), logger.ErrorField(err))
		}
		// The id may have vanished (deleted mid-load); treat as a no-op.
		if e.queue.CurrentID == id {
			e.state = StatePaused
			e.setStatusLocked("Could not load track")
		}
		e.notifyLocked()
		return
	}

	filename := id
	if s := e.lib.Get(id); s != nil {
		filename = s.Filename
	}

	// Exactly one decoded resource lives at a time: release before acquire.
	e.sink.Release()
	e.attachedID = ""
	if err := e.sink.Attach(blob, filename); err != nil {
		logger.Warn("audio attach failed", logger.String("id", id), logger.ErrorField(err))
		e.state = StatePaused
		e.setStatusLocked("Playback unavailable")
		e.notifyLocked()
		return
	}
	e.attachedID = id

	if e.pendingPlay {
		e.pendingPlay = false
		if err := e.sink.Play(); err != nil {
			// Output rejected (e.g. device busy): degrade to paused, never fatal.
			logger.Warn("audio play failed", logger.String("id", id), logger.ErrorField(err))
			e.state = StatePaused
			e.notifyLocked()
			return
		}
		e.state = StatePlaying
	}
	e.notifyLocked()
}

// Next advances to the following track: a shuffle pick when shuffle is on,
// otherwise the queue successor. A no-op at the end of an unshuffled queue.
func (e *Engine) Next(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked(ctx, 1, true)
}

// Prev moves to the preceding track; a no-op at the head of the queue.
func (e *Engine) Prev(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stepLocked(ctx, -1, true)
}

// stepLocked picks the next current id and starts its load. Returns false
// when there is no target. Must hold e.mu.
func (e *Engine) stepLocked(ctx context.Context, dir int, startPlaying bool) bool {
	if len(e.queue.IDs) == 0 || e.queue.CurrentID == "" {
		return false
	}

	var target string
	if e.queue.ShuffleOn {
		candidates := make([]string, 0, len(e.queue.IDs))
		for _, id := range e.queue.IDs {
			if id != e.queue.CurrentID {
				candidates = append(candidates, id)
			}
		}
		if len(candidates) == 0 {
			// Single-element queue: repeat-self is allowed.
			target = e.queue.CurrentID
		} else {
			target = candidates[e.rnd.Intn(len(candidates))]
		}
	} else {
		idx := e.queue.IndexOf(e.queue.CurrentID)
		if idx < 0 {
			return false
		}
		next := idx + dir
		if next < 0 || next >= len(e.queue.IDs) {
			return false
		}
		target = e.queue.IDs[next]
	}

	e.queue.CurrentID = target
	e.pendingPlay = startPlaying
	e.startLoadLocked(ctx, target)
	e.saveQueueLocked()
	e.notifyLocked()
	return true
}

// onTrackEnd fires from the sink when the current source runs out. Advances
// like Next; a non-shuffled queue that is exhausted parks the engine instead
// of looping.
func (e *Engine) onTrackEnd() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stepLocked(context.Background(), 1, true) {
		return
	}

	e.sink.Pause()
	if e.queue.CurrentID == "" {
		e.state = StateIdle
	} else {
		e.state = StatePaused
	}
	e.notifyLocked()
}

// Toggle flips playing and paused. With no current track and a non-empty
// visible list it behaves like Play on the first visible track; with a
// current track whose payload has not attached yet it marks pending-play.
func (e *Engine) Toggle(ctx context.Context, visible []model.TrackSummary) {
	e.mu.Lock()

	if e.queue.CurrentID == "" {
		if len(visible) == 0 {
			e.mu.Unlock()
			return
		}
		first := visible[0]
		e.mu.Unlock()
		e.Play(ctx, first, visible)
		return
	}

	defer e.mu.Unlock()

	switch e.state {
	case StateLoaded:
		// Payload still in flight; play as soon as it attaches.
		e.pendingPlay = true
	case StatePlaying:
		e.sink.Pause()
		e.state = StatePaused
	default:
		// Paused with no payload attached (queue restored across a restart,
		// or the last load failed): request attachment instead of resuming.
		if e.attachedID != e.queue.CurrentID {
			e.pendingPlay = true
			e.startLoadLocked(ctx, e.queue.CurrentID)
			break
		}
		if err := e.sink.Play(); err != nil {
			logger.Warn("audio play failed", logger.ErrorField(err))
			e.state = StatePaused
			break
		}
		e.state = StatePlaying
	}
	e.notifyLocked()
}

// Seek clamps pos to [0, duration] and moves the playhead immediately.
func (e *Engine) Seek(pos float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.queue.CurrentID == "" {
		return
	}

	if pos < 0 {
		pos = 0
	}
	if d := e.sink.Duration(); d > 0 && pos > d {
		pos = d
	}
	if err := e.sink.Seek(pos); err != nil {
		logger.Warn("seek failed", logger.Float64("pos", pos), logger.ErrorField(err))
		return
	}
	e.notifyLocked()
}

// SetShuffle switches shuffle mode for subsequent next/prev picks.
func (e *Engine) SetShuffle(on bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue.ShuffleOn = on
	e.saveQueueLocked()
	e.notifyLocked()
}

// SetFavorite persists the favorite bit through the repository and the
// favorite-key side store.
func (e *Engine) SetFavorite(ctx context.Context, id string, favorite bool) (*model.TrackSummary, error) {
	return e.lib.SetFavorite(ctx, id, favorite)
}

// Delete removes the track from the repository, records its deleted entry,
// and strips it from the queue. Deleting the current track resets the engine
// to idle and releases the held audio resource. Confirmation is the caller's
// concern.
func (e *Engine) Delete(ctx context.Context, id string) error {
	summary := e.lib.Get(id)
	if summary == nil {
		return nil
	}

	if err := e.lib.Delete(ctx, id); err != nil {
		return err
	}
	if err := e.lib.RecordDeleted(ctx, *summary); err != nil {
		logger.Warn("deleted-entry record failed", logger.String("id", id), logger.ErrorField(err))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.queue.Remove(id)
	if e.queue.CurrentID == id {
		// Invalidate any in-flight load for this id.
		e.loadSeq++
		e.queue.CurrentID = ""
		e.pendingPlay = false
		e.sink.Release()
		e.attachedID = ""
		e.state = StateIdle
	}
	e.saveQueueLocked()
	e.notifyLocked()
	return nil
}

// ClearLibrary stops playback synchronously, releases the audio resource,
// tears down the queue and wipes the track store.
func (e *Engine) ClearLibrary(ctx context.Context) error {
	e.mu.Lock()
	e.loadSeq++ // pending loads become stale
	e.queue = model.Queue{}
	e.pendingPlay = false
	e.sink.Release()
	e.attachedID = ""
	e.state = StateIdle
	if e.saver != nil {
		if err := e.saver.Clear(ctx); err != nil {
			logger.Warn("queue snapshot clear failed", logger.ErrorField(err))
		}
	}
	e.notifyLocked()
	e.mu.Unlock()

	return e.lib.ClearAll(ctx)
}

// RestoreQueue reinstates a persisted queue snapshot, dropping ids that no
// longer resolve. Playback stays idle; the user resumes explicitly.
func (e *Engine) RestoreQueue(q model.Queue) {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make([]string, 0, len(q.IDs))
	for _, id := range q.IDs {
		if e.lib.Get(id) != nil {
			ids = append(ids, id)
		}
	}
	e.queue.IDs = ids
	e.queue.ShuffleOn = q.ShuffleOn
	if q.CurrentID != "" && e.lib.Get(q.CurrentID) != nil {
		e.queue.CurrentID = q.CurrentID
		e.state = StatePaused
	}
	e.notifyLocked()
}

// Shutdown stops playback and releases the sink resource.
func (e *Engine) Shutdown() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.loadSeq++
	e.pendingPlay = false
	e.sink.Release()
	e.attachedID = ""
	e.state = StateIdle
	if e.statusTimer != nil {
		e.statusTimer.Stop()
	}
}

// SetStatus publishes a transient status message that clears itself.
func (e *Engine) SetStatus(msg string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.setStatusLocked(msg)
	e.notifyLocked()
}

// setStatusLocked replaces the status and restarts the expiry timer. A new
// message cancels the previous timer so it can't clear the wrong message.
func (e *Engine) setStatusLocked(msg string) {
	if e.statusTimer != nil {
		e.statusTimer.Stop()
	}
	e.status = msg
	if msg == "" {
		return
	}
	e.statusTimer = time.AfterFunc(statusTTL, func() {
		e.mu.Lock()
		if e.status == msg {
			e.status = ""
			e.notifyLocked()
		}
		e.mu.Unlock()
	})
}
