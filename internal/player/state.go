package player

import (
	"fmt"
	"math"

	"github.com/jssdwang06/listening-master/internal/dictation"
)

// State is the read-only view published to the UI on each tick.
type State struct {
	Mode       Mode    `json:"mode"`
	AudioPath  string  `json:"audio_path,omitempty"`
	Position   float64 `json:"position"`
	Total      float64 `json:"total"`
	CueIndex   int     `json:"cue_index"`
	CueCount   int     `json:"cue_count"`
	Prev       string  `json:"prev,omitempty"`
	Current    string  `json:"current,omitempty"`
	Next       string  `json:"next,omitempty"`
	Speed      float64 `json:"speed"`
	Playing    bool    `json:"playing"`
	Processing bool    `json:"processing"`
	Listened   float64 `json:"listened"`

	Loop      LoopState      `json:"loop"`
	Dictation DictationState `json:"dictation"`
}

// LoopState describes the rendered segment being looped.
type LoopState struct {
	Elapsed  float64 `json:"elapsed"`
	Duration float64 `json:"duration"`
}

// DictationState describes the running dictation.
type DictationState struct {
	Index    int                `json:"index"`
	Total    int                `json:"total"`
	Done     bool               `json:"done"`
	Stats    dictation.Stats    `json:"stats"`
	Last     *dictation.Attempt `json:"-"`
	Previous Mode               `json:"previous_mode"`
}

// Snapshot computes the current state without advancing anything.
func (c *Controller) Snapshot() State {
	s := State{
		Mode:       c.mode,
		Speed:      c.speed,
		Playing:    c.playing(),
		Processing: c.inFlight,
		CueCount:   c.cues.Len(),
		CueIndex:   -1,
	}
	if c.mode == Idle {
		return s
	}

	s.AudioPath = c.tr.Path()
	s.Total = c.tr.Length()
	s.Listened = c.acc.Accumulated()

	switch c.mode {
	case Normal:
		s.Position = c.tr.Position()
		s.CueIndex = c.cueIdx
	case SentenceLoop:
		s.Position = c.loopTrackPosition()
		s.CueIndex = c.cueIdx
		s.Loop.Elapsed = c.loopElapsed()
		if c.seg != nil {
			s.Loop.Duration = c.seg.Duration
			s.Loop.Elapsed = min(s.Loop.Elapsed, c.seg.Duration)
		}
	case Dictation:
		s.Position = c.tr.Position()
		s.CueIndex = c.dict.index
		s.Dictation = DictationState{
			Index:    c.dict.index,
			Total:    c.cues.Len(),
			Done:     c.dict.done,
			Stats:    c.dict.log.Stats(),
			Previous: c.dict.prevMode,
		}
		if last, ok := c.dict.log.Last(); ok {
			s.Dictation.Last = &last
		}
	}
	s.Prev, s.Current, s.Next = c.cues.Neighbors(s.CueIndex)
	return s
}

// FormatClock renders seconds as M:SS, or M:SS.s when precise.
func FormatClock(seconds float64, precise bool) string {
	if seconds < 0 || math.IsNaN(seconds) {
		seconds = 0
	}
	if precise {
		tenths := int(math.Round(seconds * 10))
		return fmt.Sprintf("%d:%02d.%d", tenths/600, tenths/10%60, tenths%10)
	}
	whole := int(seconds)
	return fmt.Sprintf("%d:%02d", whole/60, whole%60)
}
