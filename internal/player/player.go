// Package player is the playback mode controller. It owns the transport,
// the listening-time accumulator and the resample coordination, and is
// driven from a single goroutine by UI commands and a periodic Tick.
package player

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"time"

	"github.com/jssdwang06/listening-master/internal/cue"
	"github.com/jssdwang06/listening-master/internal/dictation"
	"github.com/jssdwang06/listening-master/internal/resample"
	"github.com/jssdwang06/listening-master/internal/session"
	"github.com/jssdwang06/listening-master/internal/transport"
)

// Mode is the controller state.
type Mode int

const (
	Idle Mode = iota
	Normal
	SentenceLoop
	Dictation
)

func (m Mode) String() string {
	switch m {
	case Idle:
		return "idle"
	case Normal:
		return "normal"
	case SentenceLoop:
		return "loop"
	case Dictation:
		return "dictation"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

var (
	ErrNotLoaded  = errors.New("no audio loaded")
	ErrNotPlaying = errors.New("sentence loop needs playback running")
	ErrNoCues     = errors.New("subtitle has no usable cues")
	ErrBadSpeed   = errors.New("speed must be positive")
	ErrFinished   = errors.New("dictation finished")
	ErrWrongMode  = errors.New("not available in this mode")
)

// Resampler renders loop segments in the background. Results must only be
// read by the controller.
type Resampler interface {
	Submit(req resample.Request) bool
	Results() <-chan resample.Result
	Close()
}

// AttemptSink persists graded dictation attempts.
type AttemptSink interface {
	RecordAttempt(audioPath string, a dictation.Attempt) error
}

// Notice is a user-facing message. Transient notices are cleared by the UI
// after a short delay.
type Notice struct {
	Text      string
	Transient bool
}

// Options tune a Controller. Zero values take defaults.
type Options struct {
	Speeds           []float64
	DefaultSpeed     float64
	JumpSeconds      float64
	CorrectThreshold float64
	Now              func() time.Time
	Attempts         AttemptSink
}

// DefaultSpeeds is the speed cycle used when Options.Speeds is empty.
var DefaultSpeeds = []float64{0.5, 0.75, 1.0, 1.25, 1.5, 2.0}

// loopEndSlack restarts a loop slightly early so the rendered file's own
// end does not leave an audible gap before the next tick.
const loopEndSlack = 0.05

// Controller is not safe for concurrent use.
type Controller struct {
	tr   *transport.Transport
	rs   Resampler
	acc  *session.Accumulator
	opts Options
	now  func() time.Time

	mode   Mode
	cues   *cue.Index
	cueIdx int
	speed  float64

	// sentence loop
	gen        uint64
	inFlight   bool
	pending    bool
	seg        *resample.Segment
	segStarted time.Time
	segOffset  float64 // seconds into seg at segStarted
	wantOffset float64 // start offset for the next applied segment
	loopPaused bool

	dict dictationState

	notices []Notice
}

// New returns an idle controller.
func New(t *transport.Transport, r Resampler, acc *session.Accumulator, opts Options) *Controller {
	if len(opts.Speeds) == 0 {
		opts.Speeds = DefaultSpeeds
	}
	if opts.DefaultSpeed <= 0 {
		opts.DefaultSpeed = 1.0
	}
	if opts.JumpSeconds <= 0 {
		opts.JumpSeconds = 5
	}
	if opts.CorrectThreshold <= 0 {
		opts.CorrectThreshold = dictation.CorrectThreshold
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Controller{
		tr:     t,
		rs:     r,
		acc:    acc,
		opts:   opts,
		now:    opts.Now,
		cueIdx: -1,
		speed:  opts.DefaultSpeed,
		cues:   cue.NewIndex(nil),
	}
}

// Mode returns the current state.
func (c *Controller) Mode() Mode { return c.mode }

// Speed returns the loop speed factor.
func (c *Controller) Speed() float64 { return c.speed }

// Cues returns the loaded cue index.
func (c *Controller) Cues() *cue.Index { return c.cues }

// Load parses the subtitle at cuePath and opens audioPath with it.
func (c *Controller) Load(audioPath, cuePath string) error {
	f, err := os.Open(cuePath)
	if err != nil {
		return fmt.Errorf("open subtitle: %w", err)
	}
	defer f.Close()

	cues, err := cue.ParseSRT(f)
	if err != nil {
		return fmt.Errorf("read subtitle %s: %w", cuePath, err)
	}
	return c.Open(audioPath, cues)
}

// Open loads audioPath with an already parsed cue list. The backend measures
// the file, so callers on the UI loop should prefer OpenMeasured. On failure
// the current track keeps playing as before.
func (c *Controller) Open(audioPath string, cues []cue.Cue) error {
	return c.open(audioPath, cues, func() error { return c.tr.Load(audioPath) })
}

// OpenMeasured is Open for a file whose length was measured off the loop.
func (c *Controller) OpenMeasured(audioPath string, length float64, cues []cue.Cue) error {
	return c.open(audioPath, cues, func() error { return c.tr.LoadMeasured(audioPath, length) })
}

func (c *Controller) open(audioPath string, cues []cue.Cue, load func() error) error {
	if len(cues) == 0 {
		return ErrNoCues
	}
	if err := load(); err != nil {
		return err
	}

	c.abandonLoop()
	c.mode = Normal
	c.cues = cue.NewIndex(cues)
	c.cueIdx = c.cues.ActiveIndex(0)
	c.dict = dictationState{}

	// Open finalizes whatever the previous file had open.
	if err := c.acc.Open(audioPath, c.tr.Length()); err != nil {
		c.notify(err.Error(), true)
	}
	log.Printf("player: loaded %s (%.1fs, %d cues)", audioPath, c.tr.Length(), c.cues.Len())
	return nil
}

// TogglePlay plays or pauses in whatever way the current mode plays audio.
func (c *Controller) TogglePlay() error {
	switch c.mode {
	case Idle:
		return ErrNotLoaded
	case Normal:
		if c.tr.Paused() {
			return c.resumeTrack()
		}
		c.finalize()
		return c.fatal(c.tr.Pause())
	case SentenceLoop:
		return c.toggleLoop()
	case Dictation:
		return c.PlayDictationSentence()
	}
	return nil
}

// Play resumes playback if paused.
func (c *Controller) Play() error {
	if c.playing() {
		return nil
	}
	return c.TogglePlay()
}

// Pause pauses playback if playing.
func (c *Controller) Pause() error {
	if !c.playing() {
		return nil
	}
	return c.TogglePlay()
}

func (c *Controller) resumeTrack() error {
	if err := c.tr.Resume(); err != nil {
		return c.fatal(err)
	}
	c.acc.StartSegment()
	return nil
}

// Seek moves normal playback to seconds.
func (c *Controller) Seek(to float64) error {
	if c.mode == Idle {
		return ErrNotLoaded
	}
	if c.mode != Normal {
		return ErrWrongMode
	}

	playing := !c.tr.Paused()
	if playing {
		c.finalize()
	}
	if err := c.tr.Seek(to); err != nil {
		return c.fatal(err)
	}
	if playing {
		c.acc.StartSegment()
	}
	c.cueIdx = c.cues.ActiveIndex(c.tr.Position())
	return nil
}

// Jump seeks by delta seconds. A zero delta jumps forward by the configured
// step.
func (c *Controller) Jump(delta float64) error {
	if delta == 0 {
		delta = c.opts.JumpSeconds
	}
	return c.Seek(c.tr.Position() + delta)
}

// JumpSeconds returns the configured jump step.
func (c *Controller) JumpSeconds() float64 { return c.opts.JumpSeconds }

// Next moves to the following sentence.
func (c *Controller) Next() error { return c.step(1) }

// Prev moves to the preceding sentence.
func (c *Controller) Prev() error { return c.step(-1) }

func (c *Controller) step(dir int) error {
	switch c.mode {
	case Idle:
		return ErrNotLoaded
	case Normal:
		target := c.cues.ActiveIndex(c.tr.Position()) + dir
		if target < 0 || target >= c.cues.Len() {
			return nil
		}
		if err := c.Seek(c.cues.At(target).Start); err != nil {
			return err
		}
		c.cueIdx = target
		return nil
	case SentenceLoop:
		target := c.cueIdx + dir
		if target < 0 || target >= c.cues.Len() {
			return nil
		}
		c.cueIdx = target
		c.restartLoop(0)
		return nil
	case Dictation:
		if dir > 0 {
			return c.NextDictationSentence()
		}
		return c.prevDictationSentence()
	}
	return nil
}

// SetSpeed changes the loop speed. An active loop re-renders its sentence
// from the start.
func (c *Controller) SetSpeed(f float64) error {
	if !(f > 0) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %v", ErrBadSpeed, f)
	}
	if f == c.speed {
		return nil
	}
	c.speed = f
	if c.mode == SentenceLoop {
		c.restartLoop(0)
	}
	return nil
}

// CycleSpeed moves dir steps through the configured speed list.
func (c *Controller) CycleSpeed(dir int) error {
	speeds := c.opts.Speeds
	cur := 0
	best := math.Inf(1)
	for i, s := range speeds {
		if d := math.Abs(s - c.speed); d < best {
			best, cur = d, i
		}
	}
	next := min(max(cur+dir, 0), len(speeds)-1)
	return c.SetSpeed(speeds[next])
}

// Home stops everything and returns to Idle.
func (c *Controller) Home() error {
	c.abandonLoop()
	if err := c.acc.Close(); err != nil {
		c.notify(err.Error(), true)
	}
	err := c.tr.Unload()
	c.reset()
	return err
}

// Shutdown returns to Idle and stops the resample workers. The controller
// must not be used afterwards.
func (c *Controller) Shutdown() error {
	err := c.Home()
	c.rs.Close()
	return err
}

func (c *Controller) reset() {
	c.mode = Idle
	c.cues = cue.NewIndex(nil)
	c.cueIdx = -1
	c.dict = dictationState{}
}

// Notices drains queued user messages.
func (c *Controller) Notices() []Notice {
	out := c.notices
	c.notices = nil
	return out
}

func (c *Controller) notify(text string, transient bool) {
	c.notices = append(c.notices, Notice{Text: text, Transient: transient})
}

// fatal ends the track after a backend failure during playback.
func (c *Controller) fatal(err error) error {
	if err == nil {
		return nil
	}
	log.Printf("player: transport failure, closing track: %v", err)
	c.notify(fmt.Sprintf("playback stopped: %v", err), false)
	c.abandonLoop()
	if cerr := c.acc.Close(); cerr != nil {
		log.Printf("player: %v", cerr)
	}
	_ = c.tr.Unload()
	c.reset()
	return err
}

func (c *Controller) finalize() {
	if err := c.acc.Finalize(); err != nil {
		log.Printf("player: %v", err)
		c.notify(err.Error(), true)
	}
}

func (c *Controller) playing() bool {
	switch c.mode {
	case Normal, Dictation:
		return !c.tr.Paused()
	case SentenceLoop:
		return !c.loopPaused
	}
	return false
}

// Tick advances time-driven behaviour and returns the published state.
func (c *Controller) Tick() State {
	c.drainResults()

	switch c.mode {
	case Normal:
		if !c.tr.Paused() {
			c.cueIdx = c.cues.ActiveIndex(c.tr.Position())
			if c.tr.Finished() {
				c.finalize()
				if err := c.tr.SettleAtEnd(); err != nil {
					c.fatal(err)
				}
			}
		}
	case SentenceLoop:
		c.tickLoop()
	case Dictation:
		c.tickDictation()
	}
	return c.Snapshot()
}
