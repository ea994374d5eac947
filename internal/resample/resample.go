// Package resample renders time-stretched copies of audio ranges with ffmpeg
// on a bounded set of background workers.
package resample

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Bounds of a single atempo filter.
const (
	MinStep = 0.5
	MaxStep = 2.0
)

var (
	// ErrResampleFailure is matched by every rendering error.
	ErrResampleFailure = errors.New("resample failed")
	// ErrResampleTimeout marks an ffmpeg run that exceeded its time budget.
	ErrResampleTimeout = errors.New("resample timed out")
	// ErrEmptyOutput marks an ffmpeg run that exited cleanly but wrote nothing.
	ErrEmptyOutput = errors.New("resample produced no audio")
)

// Request describes one segment to render.
type Request struct {
	Source     string  // original audio file
	Start, End float64 // range in the original, seconds
	Speed      float64
	Cue        int    // cue index the segment belongs to
	Generation uint64 // player state version at submission
}

// Segment is a rendered, playable file for a Request. The receiver owns Path
// and must remove it once the segment is discarded.
type Segment struct {
	Request
	Path     string
	Duration float64 // rendered length in seconds
}

// Result is delivered by the pool for every submitted Request.
type Result struct {
	Request Request
	Segment Segment
	Err     error
}

// Steps splits speed into atempo factors that each lie within
// [MinStep, MaxStep] and multiply back to speed.
func Steps(speed float64) ([]float64, error) {
	if speed <= 0 || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return nil, fmt.Errorf("%w: invalid speed %v", ErrResampleFailure, speed)
	}

	var steps []float64
	for speed > MaxStep {
		steps = append(steps, MaxStep)
		speed /= MaxStep
	}
	for speed < MinStep {
		steps = append(steps, MinStep)
		speed /= MinStep
	}
	return append(steps, speed), nil
}

// FilterChain formats steps as an ffmpeg audio filter graph.
func FilterChain(steps []float64) string {
	parts := make([]string, len(steps))
	for i, s := range steps {
		parts[i] = "atempo=" + strconv.FormatFloat(s, 'f', -1, 64)
	}
	return strings.Join(parts, ",")
}
