package resample

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/jssdwang06/listening-master/internal/media"
)

// DefaultTimeout bounds each ffmpeg invocation.
const DefaultTimeout = 30 * time.Second

// Renderer turns a Request into a playable Segment.
type Renderer interface {
	Render(ctx context.Context, req Request) (Segment, error)
}

// FFmpeg renders segments in two ffmpeg runs: extract the range to PCM, then
// apply the atempo chain.
type FFmpeg struct {
	Bin     string
	TempDir string
	Timeout time.Duration
	Runner  media.Runner
}

// NewFFmpeg returns a renderer using bin, writing into tempDir ("" for the OS default).
func NewFFmpeg(bin, tempDir string, timeout time.Duration) *FFmpeg {
	return &FFmpeg{Bin: bin, TempDir: tempDir, Timeout: timeout, Runner: media.ExecRunner{}}
}

// Render produces the stretched segment. The intermediate extract is always
// removed; the output is removed unless it is returned.
func (f *FFmpeg) Render(ctx context.Context, req Request) (seg Segment, err error) {
	if req.End <= req.Start {
		return Segment{}, fmt.Errorf("%w: empty range %.3f-%.3f", ErrResampleFailure, req.Start, req.End)
	}
	steps, err := Steps(req.Speed)
	if err != nil {
		return Segment{}, err
	}

	extract, err := f.tempFile("lm-extract-*.wav")
	if err != nil {
		return Segment{}, err
	}
	defer os.Remove(extract)

	out, err := f.tempFile("lm-segment-*.wav")
	if err != nil {
		return Segment{}, err
	}
	defer func() {
		if err != nil {
			os.Remove(out)
		}
	}()

	// ffmpeg -y -ss start -t length -i src -vn -acodec pcm_s16le extract.wav
	if err := f.run(ctx,
		"-y", "-loglevel", "error",
		"-ss", seconds(req.Start),
		"-t", seconds(req.End-req.Start),
		"-i", req.Source,
		"-vn", "-acodec", "pcm_s16le",
		extract,
	); err != nil {
		return Segment{}, fmt.Errorf("extract: %w", err)
	}

	// ffmpeg -y -i extract.wav -filter:a atempo=...,atempo=... out.wav
	if err := f.run(ctx,
		"-y", "-loglevel", "error",
		"-i", extract,
		"-filter:a", FilterChain(steps),
		out,
	); err != nil {
		return Segment{}, fmt.Errorf("stretch: %w", err)
	}

	info, err := os.Stat(out)
	if err != nil {
		return Segment{}, fmt.Errorf("%w: %v", ErrResampleFailure, err)
	}
	if info.Size() == 0 {
		return Segment{}, fmt.Errorf("%w: %w", ErrResampleFailure, ErrEmptyOutput)
	}

	dur, err := WAVDuration(out)
	if err != nil {
		return Segment{}, fmt.Errorf("%w: decode output: %v", ErrResampleFailure, err)
	}
	if dur <= 0 {
		return Segment{}, fmt.Errorf("%w: %w", ErrResampleFailure, ErrEmptyOutput)
	}

	return Segment{Request: req, Path: out, Duration: dur}, nil
}

func (f *FFmpeg) run(ctx context.Context, args ...string) error {
	timeout := f.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := f.Runner.Run(ctx, f.Bin, args...)
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w after %s", ErrResampleFailure, ErrResampleTimeout, timeout)
	}
	if err != nil {
		return fmt.Errorf("%w: ffmpeg: %v: %s", ErrResampleFailure, err, media.Tail(out, 300))
	}
	return nil
}

func (f *FFmpeg) tempFile(pattern string) (string, error) {
	tmp, err := os.CreateTemp(f.TempDir, pattern)
	if err != nil {
		return "", fmt.Errorf("%w: temp file: %v", ErrResampleFailure, err)
	}
	name := tmp.Name()
	tmp.Close()
	return name, nil
}

func seconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
