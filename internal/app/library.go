package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrNoSubtitle is returned when no .srt file exists for an audio file.
var ErrNoSubtitle = errors.New("subtitle not found")

// audioExts lists the extensions picked up from the audio directory.
var audioExts = map[string]bool{
	".mp3":  true,
	".wav":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
}

// LibraryEntry is an audio file in the audio directory with a subtitle.
type LibraryEntry struct {
	AudioPath    string
	SubtitlePath string
}

// Name returns the audio file name without its extension.
func (e LibraryEntry) Name() string {
	base := filepath.Base(e.AudioPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ResolveSubtitle finds the subtitle for audioPath: next to the audio
// first, then in subtitleDir.
func ResolveSubtitle(audioPath, subtitleDir string) (string, error) {
	base := strings.TrimSuffix(filepath.Base(audioPath), filepath.Ext(audioPath))

	candidates := []string{strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".srt"}
	if subtitleDir != "" {
		candidates = append(candidates, filepath.Join(subtitleDir, base+".srt"))
	}

	for _, c := range candidates {
		if info, err := os.Stat(c); err == nil && !info.IsDir() {
			return c, nil
		}
	}
	return "", fmt.Errorf("%w for %s (looked in %s)", ErrNoSubtitle, filepath.Base(audioPath), strings.Join(candidates, ", "))
}

// ScanLibrary lists the audio files in audioDir that have a subtitle.
// A missing audioDir yields an empty library.
func ScanLibrary(audioDir, subtitleDir string) ([]LibraryEntry, error) {
	if audioDir == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(audioDir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", audioDir, err)
	}

	var out []LibraryEntry
	for _, e := range entries {
		if e.IsDir() || !audioExts[strings.ToLower(filepath.Ext(e.Name()))] {
			continue
		}
		audio := filepath.Join(audioDir, e.Name())
		sub, err := ResolveSubtitle(audio, subtitleDir)
		if err != nil {
			continue
		}
		out = append(out, LibraryEntry{AudioPath: audio, SubtitlePath: sub})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].AudioPath < out[j].AudioPath })
	return out, nil
}
