package media

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"time"
)

// FFPlay plays audio by running one headless ffplay process per Play call.
// Pause kills the process; position is the wall-clock time the process ran.
type FFPlay struct {
	Bin          string // ffplay executable
	Probe        string // ffprobe executable
	ProbeTimeout time.Duration

	runner Runner
	now    func() time.Time

	mu      sync.Mutex
	path    string
	cmd     *exec.Cmd
	started time.Time
	exited  time.Time
	done    chan struct{}
}

// NewFFPlay returns a backend using the given ffplay and ffprobe binaries.
func NewFFPlay(ffplay, ffprobe string) *FFPlay {
	return &FFPlay{
		Bin:          ffplay,
		Probe:        ffprobe,
		ProbeTimeout: 10 * time.Second,
		runner:       ExecRunner{},
		now:          time.Now,
	}
}

// Load validates path with ffprobe and makes it the current file. Playback of
// the previous file stops only once the new one is known to be playable.
func (f *FFPlay) Load(path string) (float64, error) {
	length, err := f.Measure(path)
	if err != nil {
		return 0, err
	}
	return length, f.Switch(path)
}

// Measure runs ffprobe on path without touching playback. It is safe to call
// from any goroutine.
func (f *FFPlay) Measure(path string) (float64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), f.ProbeTimeout)
	defer cancel()
	return ProbeDuration(ctx, f.runner, f.Probe, path)
}

// Switch stops playback and makes path the current file.
func (f *FFPlay) Switch(path string) error {
	if path == "" {
		return fmt.Errorf("ffplay: empty path")
	}
	f.stop()
	f.mu.Lock()
	f.path = path
	f.mu.Unlock()
	return nil
}

// Play starts a new ffplay process at start seconds into the current file.
func (f *FFPlay) Play(start float64) error {
	f.stop()

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.path == "" {
		return fmt.Errorf("ffplay: nothing loaded")
	}

	cmd := exec.Command(f.Bin,
		"-nodisp", "-autoexit",
		"-loglevel", "quiet",
		"-ss", strconv.FormatFloat(start, 'f', 3, 64),
		f.path,
	)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffplay: %w", err)
	}

	done := make(chan struct{})
	f.cmd = cmd
	f.started = f.now()
	f.exited = time.Time{}
	f.done = done

	go func() {
		_ = cmd.Wait()
		f.mu.Lock()
		if f.cmd == cmd {
			f.exited = f.now()
		}
		f.mu.Unlock()
		close(done)
	}()
	return nil
}

// Pause stops the running process.
func (f *FFPlay) Pause() error {
	f.stop()
	return nil
}

// PositionSincePlay returns how long the last process played.
func (f *FFPlay) PositionSincePlay() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.started.IsZero() {
		return 0
	}
	end := f.exited
	if end.IsZero() {
		end = f.now()
	}
	return end.Sub(f.started).Seconds()
}

// Busy reports whether a process is still playing.
func (f *FFPlay) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cmd != nil && f.exited.IsZero()
}

// Close stops playback.
func (f *FFPlay) Close() error {
	f.stop()
	return nil
}

func (f *FFPlay) stop() {
	f.mu.Lock()
	cmd, done := f.cmd, f.done
	if cmd != nil && f.exited.IsZero() {
		f.exited = f.now()
	}
	f.mu.Unlock()

	if cmd == nil || cmd.Process == nil {
		return
	}
	_ = cmd.Process.Kill()
	<-done
}
