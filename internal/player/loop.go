package player

import (
	"errors"
	"fmt"
	"log"

	"github.com/jssdwang06/listening-master/internal/resample"
	"github.com/jssdwang06/listening-master/internal/transport"
)

// ToggleLoop enters the sentence loop from normal playback, or leaves it.
func (c *Controller) ToggleLoop() error {
	switch c.mode {
	case Idle:
		return ErrNotLoaded
	case Normal:
		return c.enterLoop()
	case SentenceLoop:
		return c.exitLoop()
	}
	return ErrWrongMode
}

func (c *Controller) enterLoop() error {
	if c.tr.Paused() {
		return ErrNotPlaying
	}

	pos := c.tr.Position()
	idx := max(c.cues.ActiveIndex(pos), 0)
	start, _ := c.cues.Bounds(idx, c.tr.Length())

	c.finalize()
	if err := c.tr.Pause(); err != nil {
		return c.fatal(err)
	}

	c.mode = SentenceLoop
	c.cueIdx = idx
	c.loopPaused = false
	c.gen++
	c.wantOffset = max(pos-start, 0) / c.speed
	c.requestSegment()
	return nil
}

func (c *Controller) exitLoop() error {
	pos := c.loopTrackPosition()
	wasPlaying := !c.loopPaused

	c.abandonLoop()
	c.mode = Normal
	if err := c.tr.RestoreSource(); err != nil {
		return c.fatal(err)
	}
	if err := c.tr.Seek(pos); err != nil {
		return c.fatal(err)
	}
	if wasPlaying {
		if err := c.tr.Play(pos); err != nil {
			return c.fatal(err)
		}
		c.acc.StartSegment()
	}
	c.cueIdx = c.cues.ActiveIndex(pos)
	return nil
}

// abandonLoop drops any loop state. Results still in flight become stale.
func (c *Controller) abandonLoop() {
	if c.mode == SentenceLoop {
		c.finalize()
	}
	c.gen++
	c.pending = false
	c.dropSegment()
	c.wantOffset = 0
	c.loopPaused = false
}

// restartLoop asks for a fresh rendering of the loop sentence. A paused loop
// still renders; the segment is held until playback resumes.
func (c *Controller) restartLoop(offset float64) {
	c.finalize()
	c.gen++
	c.dropSegment()
	c.wantOffset = offset
	c.requestSegment()
}

func (c *Controller) toggleLoop() error {
	if c.seg == nil {
		if c.inFlight {
			c.loopPaused = !c.loopPaused
			return nil
		}
		// Nothing rendered: a failed job, or paused before it arrived.
		c.loopPaused = false
		c.requestSegment()
		return nil
	}

	if c.loopPaused {
		if err := c.tr.PlaySegment(c.seg.Path, c.segOffset); err != nil {
			return c.segmentFailure(err)
		}
		c.loopPaused = false
		c.segStarted = c.now()
		c.acc.StartSegment()
		return nil
	}

	c.segOffset = c.loopElapsed()
	c.loopPaused = true
	c.finalize()
	return c.fatal(c.tr.StopSegment())
}

// requestSegment applies the collapsing rule: with a job in flight only a
// pending flag is set, and the job's completion submits the current state.
func (c *Controller) requestSegment() {
	if c.inFlight {
		c.pending = true
		return
	}
	c.submit()
}

func (c *Controller) submit() {
	start, end := c.cues.Bounds(c.cueIdx, c.tr.Length())
	req := resample.Request{
		Source:     c.tr.Path(),
		Start:      start,
		End:        end,
		Speed:      c.speed,
		Cue:        c.cueIdx,
		Generation: c.gen,
	}
	if !c.rs.Submit(req) {
		c.notify("resampler is not running", true)
		return
	}
	c.inFlight = true
	log.Printf("resample: submit cue %d at %.2fx (gen %d)", req.Cue, req.Speed, req.Generation)
}

func (c *Controller) drainResults() {
	for {
		select {
		case res := <-c.rs.Results():
			c.handleResult(res)
		default:
			return
		}
	}
}

func (c *Controller) handleResult(res resample.Result) {
	c.inFlight = false

	if res.Request.Generation != c.gen || c.mode != SentenceLoop || c.pending {
		resample.Discard(res)
		log.Printf("resample: discard cue %d (gen %d, current %d)", res.Request.Cue, res.Request.Generation, c.gen)
		if c.pending {
			c.pending = false
			if c.mode == SentenceLoop {
				c.submit()
			}
		}
		return
	}

	if res.Err != nil {
		log.Printf("resample: cue %d failed: %v", res.Request.Cue, res.Err)
		c.notify(fmt.Sprintf("could not prepare sentence: %v", res.Err), true)
		return
	}

	seg := res.Segment
	c.seg = &seg
	c.segOffset = min(c.wantOffset, seg.Duration)
	c.wantOffset = 0
	log.Printf("resample: cue %d ready, %.2fs (gen %d)", seg.Cue, seg.Duration, seg.Generation)

	if c.loopPaused {
		return
	}
	if err := c.tr.PlaySegment(seg.Path, c.segOffset); err != nil {
		c.segmentFailure(err)
		return
	}
	c.segStarted = c.now()
	c.acc.StartSegment()
}

// segmentFailure reports a rendered file the backend could not play. Only
// backend load failures are recoverable; anything else ends the track.
func (c *Controller) segmentFailure(err error) error {
	if !errors.Is(err, transport.ErrMediaLoad) {
		return c.fatal(err)
	}
	c.notify(fmt.Sprintf("could not play sentence: %v", err), true)
	c.dropSegment()
	return err
}

func (c *Controller) tickLoop() {
	if c.seg == nil || c.loopPaused {
		return
	}
	if c.loopElapsed() >= c.seg.Duration-loopEndSlack {
		c.restartLoop(0)
	}
}

// loopElapsed is measured on the wall clock: the backend clock restarts with
// every rendered file.
func (c *Controller) loopElapsed() float64 {
	if c.seg == nil {
		return c.wantOffset
	}
	if c.loopPaused {
		return c.segOffset
	}
	return c.segOffset + c.now().Sub(c.segStarted).Seconds()
}

// loopTrackPosition maps loop progress back onto the original track.
func (c *Controller) loopTrackPosition() float64 {
	start, end := c.cues.Bounds(c.cueIdx, c.tr.Length())
	return start + min(c.loopElapsed()*c.speed, end-start)
}

func (c *Controller) dropSegment() {
	if c.seg == nil {
		return
	}
	if err := c.tr.StopSegment(); err != nil {
		log.Printf("player: stop segment: %v", err)
	}
	resample.Discard(resample.Result{Segment: *c.seg})
	c.seg = nil
	c.segOffset = 0
}
