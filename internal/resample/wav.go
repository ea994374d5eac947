package resample

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-audio/wav"
)

// WAVDuration returns the length in seconds of a PCM wav file from its
// header. A data size that is unset or runs past the end of the file is
// replaced by the bytes actually present.
func WAVDuration(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	d := wav.NewDecoder(f)
	if !d.IsValidFile() {
		return 0, errors.New("wav header: not a PCM RIFF/WAVE file")
	}
	if d.AvgBytesPerSec == 0 {
		return 0, errors.New("wav header: zero byte rate")
	}
	if err := d.FwdToPCM(); err != nil {
		return 0, fmt.Errorf("wav data chunk: %w", err)
	}

	dataStart, err := f.Seek(0, io.SeekCurrent)
	if err != nil {
		return 0, err
	}
	size := int64(d.PCMSize)
	if remaining := info.Size() - dataStart; size <= 0 || size > remaining {
		size = remaining
	}
	return float64(size) / float64(d.AvgBytesPerSec), nil
}
