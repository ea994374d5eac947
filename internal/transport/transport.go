// Package transport tracks absolute playback position on top of a media
// backend whose clock restarts at every Play call.
package transport

import (
	"errors"
	"fmt"

	"github.com/jssdwang06/listening-master/internal/media"
)

// ErrMediaLoad is matched by every error returned from Load.
var ErrMediaLoad = errors.New("media load failed")

// DefaultEpsilon absorbs backend rounding when detecting the end of a track.
const DefaultEpsilon = 0.1

// LoadError reports a file the backend rejected.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrMediaLoad) hold for any LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrMediaLoad }

// Transport is not safe for concurrent use; the player mutates it from its
// own loop only.
type Transport struct {
	backend media.Backend
	Epsilon float64

	path    string
	length  float64
	loaded  bool
	paused  bool
	active  bool // playback armed since the last Play; cleared by Pause and SettleAtEnd
	offset  float64
	cursor  float64 // pause position; valid while paused
	segment string  // rendered file currently loaded in the backend, if any

	segPlaying bool
	segFrom    float64
	segCursor  float64
}

// New returns an unloaded Transport over b.
func New(b media.Backend) *Transport {
	return &Transport{backend: b, Epsilon: DefaultEpsilon, paused: true}
}

// Load replaces the current track. On failure the previous track and
// position are left untouched.
func (t *Transport) Load(path string) error {
	length, err := t.backend.Load(path)
	if err != nil {
		return &LoadError{Path: path, Err: err}
	}
	t.reset(path, length)
	return nil
}

// LoadMeasured replaces the current track with a file whose length was
// measured elsewhere. The backend does not probe it again.
func (t *Transport) LoadMeasured(path string, length float64) error {
	if length <= 0 {
		return &LoadError{Path: path, Err: fmt.Errorf("non-positive length %v", length)}
	}
	if err := t.backend.Switch(path); err != nil {
		return &LoadError{Path: path, Err: err}
	}
	t.reset(path, length)
	return nil
}

func (t *Transport) reset(path string, length float64) {
	t.path = path
	t.length = length
	t.loaded = true
	t.paused = true
	t.active = false
	t.offset = 0
	t.cursor = 0
	t.segment = ""
	t.segPlaying = false
}

// Play arms the backend at from seconds.
func (t *Transport) Play(from float64) error {
	if !t.loaded {
		return fmt.Errorf("play: nothing loaded")
	}
	if err := t.restoreSource(); err != nil {
		return err
	}

	from = t.clamp(from)
	if err := t.backend.Play(from); err != nil {
		return fmt.Errorf("play at %.2fs: %w", from, err)
	}
	t.offset = from
	t.cursor = 0
	t.paused = false
	t.active = true
	return nil
}

// Pause freezes the cursor at the current absolute position. It is a no-op
// when already paused.
func (t *Transport) Pause() error {
	if t.paused {
		return nil
	}
	pos := t.Position()
	t.cursor = pos
	t.paused = true
	t.active = false
	if err := t.backend.Pause(); err != nil {
		return fmt.Errorf("pause: %w", err)
	}
	return nil
}

// Resume plays from the pause cursor. A cursor at the end of the track
// restarts from the beginning.
func (t *Transport) Resume() error {
	if !t.paused {
		return nil
	}
	from := t.cursor
	if from >= t.length-t.Epsilon {
		from = 0
	}
	return t.Play(from)
}

// Seek moves to seconds. While paused only the cursor moves; the backend is
// re-armed on the next Resume.
func (t *Transport) Seek(to float64) error {
	if !t.loaded {
		return fmt.Errorf("seek: nothing loaded")
	}
	to = t.clamp(to)
	if t.paused {
		t.cursor = to
		t.offset = to
		return nil
	}
	return t.Play(to)
}

// Jump seeks relative to the current position.
func (t *Transport) Jump(delta float64) error {
	return t.Seek(t.Position() + delta)
}

// Position returns the absolute position in seconds, clamped to the track.
func (t *Transport) Position() float64 {
	if !t.loaded {
		return 0
	}
	if t.paused {
		return t.clamp(t.cursor)
	}
	return t.clamp(t.offset + t.backend.PositionSincePlay())
}

// Finished reports that armed playback ran off the end of the track.
func (t *Transport) Finished() bool {
	if !t.active || t.paused || t.backend.Busy() {
		return false
	}
	return t.offset+t.backend.PositionSincePlay() >= t.length-t.Epsilon
}

// SettleAtEnd parks the transport paused at the end of the track.
func (t *Transport) SettleAtEnd() error {
	t.paused = true
	t.active = false
	t.cursor = t.length
	t.offset = t.length
	if err := t.backend.Pause(); err != nil {
		return fmt.Errorf("pause at end: %w", err)
	}
	return nil
}

// PlaySegment pauses the track and plays a rendered file from the given
// offset into it. The file is switched into the backend only when it changes.
func (t *Transport) PlaySegment(path string, from float64) error {
	if err := t.Pause(); err != nil {
		return err
	}
	if t.segment != path {
		if err := t.backend.Switch(path); err != nil {
			return &LoadError{Path: path, Err: err}
		}
		t.segment = path
	}
	if err := t.backend.Play(from); err != nil {
		t.segPlaying = false
		t.segCursor = from
		return fmt.Errorf("play segment: %w", err)
	}
	t.segPlaying = true
	t.segFrom = from
	t.segCursor = 0
	return nil
}

// StopSegment halts a rendered segment, freezing its position. The track
// cursor is unaffected.
func (t *Transport) StopSegment() error {
	if t.segment == "" || !t.segPlaying {
		return nil
	}
	t.segCursor = t.SegmentPosition()
	t.segPlaying = false
	if err := t.backend.Pause(); err != nil {
		return fmt.Errorf("stop segment: %w", err)
	}
	return nil
}

// SegmentPosition returns seconds into the loaded rendered file.
func (t *Transport) SegmentPosition() float64 {
	if t.segment == "" {
		return 0
	}
	if !t.segPlaying {
		return t.segCursor
	}
	return t.segFrom + t.backend.PositionSincePlay()
}

// SegmentPlaying reports whether a rendered file is currently playing.
func (t *Transport) SegmentPlaying() bool { return t.segment != "" && t.segPlaying }

// SegmentBusy reports whether the backend is still producing segment audio.
func (t *Transport) SegmentBusy() bool { return t.SegmentPlaying() && t.backend.Busy() }

// Segment returns the rendered file loaded in the backend, or "".
func (t *Transport) Segment() string { return t.segment }

// RestoreSource switches the original track back into the backend after
// segment playback. Track position and length are kept.
func (t *Transport) RestoreSource() error {
	if err := t.StopSegment(); err != nil {
		return err
	}
	return t.restoreSource()
}

func (t *Transport) restoreSource() error {
	if t.segment == "" {
		return nil
	}
	if err := t.backend.Switch(t.path); err != nil {
		return &LoadError{Path: t.path, Err: err}
	}
	t.segment = ""
	t.segPlaying = false
	t.segCursor = 0
	return nil
}

// Unload stops playback and forgets the track.
func (t *Transport) Unload() error {
	var err error
	if !t.paused || t.segment != "" {
		err = t.backend.Pause()
	}
	*t = Transport{backend: t.backend, Epsilon: t.Epsilon, paused: true}
	return err
}

// Path returns the loaded track path.
func (t *Transport) Path() string { return t.path }

// Length returns the track length in seconds.
func (t *Transport) Length() float64 { return t.length }

// Loaded reports whether a track is loaded.
func (t *Transport) Loaded() bool { return t.loaded }

// Paused reports whether track playback is paused.
func (t *Transport) Paused() bool { return t.paused }

func (t *Transport) clamp(s float64) float64 {
	if s < 0 {
		return 0
	}
	if s > t.length {
		return t.length
	}
	return s
}
