package player

import (
	"log"

	"github.com/jssdwang06/listening-master/internal/dictation"
)

type dictationState struct {
	// mode to return to and where it was
	prevMode   Mode
	position   float64
	paused     bool
	loopCue    int
	loopOffset float64 // seconds into the rendered loop segment

	index int
	log   dictation.Log
	done  bool
}

// EnterDictation pauses playback, remembers it, and starts dictation at the
// current sentence.
func (c *Controller) EnterDictation() error {
	switch c.mode {
	case Idle:
		return ErrNotLoaded
	case Dictation:
		return nil
	}

	snap := dictationState{prevMode: c.mode}
	switch c.mode {
	case Normal:
		snap.position = c.tr.Position()
		snap.paused = c.tr.Paused()
		snap.index = max(c.cues.ActiveIndex(snap.position), 0)
		c.finalize()
		if err := c.tr.Pause(); err != nil {
			return c.fatal(err)
		}
	case SentenceLoop:
		snap.position = c.loopTrackPosition()
		snap.paused = c.loopPaused
		snap.loopCue = c.cueIdx
		snap.loopOffset = c.loopElapsed()
		snap.index = c.cueIdx
		c.abandonLoop()
	}

	c.dict = snap
	c.mode = Dictation
	if err := c.tr.RestoreSource(); err != nil {
		return c.fatal(err)
	}
	start, _ := c.cues.Bounds(c.dict.index, c.tr.Length())
	return c.fatal(c.tr.Seek(start))
}

// ExitDictation returns to the mode dictation was entered from.
func (c *Controller) ExitDictation() error {
	if c.mode != Dictation {
		return nil
	}
	c.finalize()
	if err := c.tr.Pause(); err != nil {
		return c.fatal(err)
	}

	snap := c.dict
	if err := c.tr.Seek(snap.position); err != nil {
		return c.fatal(err)
	}

	switch snap.prevMode {
	case SentenceLoop:
		c.mode = SentenceLoop
		c.cueIdx = snap.loopCue
		c.loopPaused = snap.paused
		c.gen++
		c.wantOffset = snap.loopOffset
		c.requestSegment()
	default:
		c.mode = Normal
		c.cueIdx = c.cues.ActiveIndex(snap.position)
		if !snap.paused {
			if err := c.tr.Play(snap.position); err != nil {
				return c.fatal(err)
			}
			c.acc.StartSegment()
		}
	}
	return nil
}

// PlayDictationSentence plays the current sentence once, or pauses it.
// Playback resumes inside the sentence and restarts once it reached the end.
func (c *Controller) PlayDictationSentence() error {
	if c.mode != Dictation {
		return ErrWrongMode
	}
	if c.dict.done {
		return ErrFinished
	}

	if !c.tr.Paused() {
		c.finalize()
		return c.fatal(c.tr.Pause())
	}

	start, end := c.cues.Bounds(c.dict.index, c.tr.Length())
	from := c.tr.Position()
	if from < start || from >= end-c.tr.Epsilon {
		from = start
	}
	if err := c.tr.Play(from); err != nil {
		return c.fatal(err)
	}
	c.acc.StartSegment()
	return nil
}

func (c *Controller) tickDictation() {
	if c.tr.Paused() || c.dict.done {
		return
	}
	_, end := c.cues.Bounds(c.dict.index, c.tr.Length())
	if c.tr.Position() >= end || c.tr.Finished() {
		c.finalize()
		c.fatal(c.tr.Pause())
	}
}

// SubmitTranscript grades text against the current sentence and records it.
func (c *Controller) SubmitTranscript(text string) (dictation.Attempt, error) {
	if c.mode != Dictation {
		return dictation.Attempt{}, ErrWrongMode
	}
	if c.dict.done {
		return dictation.Attempt{}, ErrFinished
	}

	ref := c.cues.At(c.dict.index).Text
	a, err := dictation.NewAttempt(c.dict.index, ref, text, c.opts.CorrectThreshold, c.now())
	if err != nil {
		return dictation.Attempt{}, err
	}
	c.dict.log.Append(a)

	if c.opts.Attempts != nil {
		if err := c.opts.Attempts.RecordAttempt(c.tr.Path(), a); err != nil {
			log.Printf("player: save attempt: %v", err)
			c.notify("could not save dictation attempt", true)
		}
	}
	return a, nil
}

// NextDictationSentence moves on. Passing the last sentence finishes the run.
func (c *Controller) NextDictationSentence() error {
	return c.moveDictation(c.dict.index + 1)
}

func (c *Controller) prevDictationSentence() error {
	if c.dict.index == 0 {
		return nil
	}
	return c.moveDictation(c.dict.index - 1)
}

func (c *Controller) moveDictation(idx int) error {
	if c.mode != Dictation {
		return ErrWrongMode
	}
	c.finalize()
	if err := c.tr.Pause(); err != nil {
		return c.fatal(err)
	}
	if idx >= c.cues.Len() {
		c.dict.index = c.cues.Len()
		c.dict.done = true
		return nil
	}
	c.dict.index = idx
	c.dict.done = false
	start, _ := c.cues.Bounds(idx, c.tr.Length())
	return c.fatal(c.tr.Seek(start))
}

// ResetDictation clears the attempt log and restarts from the first sentence.
func (c *Controller) ResetDictation() error {
	if c.mode != Dictation {
		return ErrWrongMode
	}
	c.dict.log.Reset()
	return c.moveDictation(0)
}

// DictationStats returns totals for the current dictation run.
func (c *Controller) DictationStats() dictation.Stats { return c.dict.log.Stats() }

// DictationAttempts returns the current run's attempts in order.
func (c *Controller) DictationAttempts() []dictation.Attempt { return c.dict.log.Attempts() }
