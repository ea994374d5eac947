// Package media wraps the external ffmpeg tool family: a process runner,
// an ffprobe duration probe and an ffplay-backed playback device.
package media

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Backend is a raw playback device. PositionSincePlay is only meaningful
// between a Play call and the next Pause, Load or Switch.
type Backend interface {
	// Load measures path and makes it current, returning its length in seconds.
	Load(path string) (float64, error)
	// Switch makes an already measured file current. It must not run
	// external programs.
	Switch(path string) error
	// Play starts playback of the loaded file at start seconds.
	Play(start float64) error
	Pause() error
	// PositionSincePlay returns seconds played since the last Play call.
	PositionSincePlay() float64
	Busy() bool
}

// Runner runs an external program and returns its combined output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run executes name with args, killing it when ctx is done.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	return cmd.CombinedOutput()
}

// ProbeDuration asks ffprobe for the container duration of path in seconds.
func ProbeDuration(ctx context.Context, r Runner, ffprobe, path string) (float64, error) {
	out, err := r.Run(ctx, ffprobe,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w: %s", path, err, Tail(out, 200))
	}

	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "N/A" {
			continue
		}
		d, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return 0, fmt.Errorf("ffprobe %s: parse duration %q: %w", path, line, err)
		}
		if d <= 0 {
			return 0, fmt.Errorf("ffprobe %s: non-positive duration %v", path, d)
		}
		return d, nil
	}
	return 0, fmt.Errorf("ffprobe %s: no duration in output", path)
}

// Tail returns at most the last n bytes of out as a trimmed string.
func Tail(out []byte, n int) string {
	s := strings.TrimSpace(string(out))
	if len(s) > n {
		s = "..." + s[len(s)-n:]
	}
	return s
}
