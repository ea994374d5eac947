package app

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func touch(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestResolveSubtitleNextToAudio(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio", "talk.mp3")
	touch(t, audio)
	touch(t, filepath.Join(dir, "audio", "talk.srt"))
	touch(t, filepath.Join(dir, "subs", "talk.srt"))

	got, err := ResolveSubtitle(audio, filepath.Join(dir, "subs"))
	if err != nil {
		t.Fatalf("ResolveSubtitle: %v", err)
	}
	if want := filepath.Join(dir, "audio", "talk.srt"); got != want {
		t.Errorf("subtitle = %q, want %q", got, want)
	}
}

func TestResolveSubtitleInSubtitleDir(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "audio", "talk.mp3")
	touch(t, audio)
	touch(t, filepath.Join(dir, "subs", "talk.srt"))

	got, err := ResolveSubtitle(audio, filepath.Join(dir, "subs"))
	if err != nil {
		t.Fatalf("ResolveSubtitle: %v", err)
	}
	if want := filepath.Join(dir, "subs", "talk.srt"); got != want {
		t.Errorf("subtitle = %q, want %q", got, want)
	}
}

func TestResolveSubtitleMissing(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "talk.mp3")
	touch(t, audio)

	_, err := ResolveSubtitle(audio, "")
	if !errors.Is(err, ErrNoSubtitle) {
		t.Errorf("err = %v, want ErrNoSubtitle", err)
	}
}

func TestScanLibrary(t *testing.T) {
	dir := t.TempDir()
	audioDir := filepath.Join(dir, "audio")
	subDir := filepath.Join(dir, "subs")

	touch(t, filepath.Join(audioDir, "b.mp3"))
	touch(t, filepath.Join(audioDir, "A.WAV"))
	touch(t, filepath.Join(audioDir, "nosub.mp3"))
	touch(t, filepath.Join(audioDir, "notes.txt"))
	touch(t, filepath.Join(subDir, "b.srt"))
	touch(t, filepath.Join(audioDir, "A.srt"))

	lib, err := ScanLibrary(audioDir, subDir)
	if err != nil {
		t.Fatalf("ScanLibrary: %v", err)
	}
	if len(lib) != 2 {
		t.Fatalf("library = %+v, want 2 entries", lib)
	}
	if lib[0].Name() != "A" || lib[1].Name() != "b" {
		t.Errorf("names = %q, %q", lib[0].Name(), lib[1].Name())
	}
	if lib[1].SubtitlePath != filepath.Join(subDir, "b.srt") {
		t.Errorf("b subtitle = %q", lib[1].SubtitlePath)
	}
}

func TestScanLibraryMissingDir(t *testing.T) {
	lib, err := ScanLibrary(filepath.Join(t.TempDir(), "absent"), "")
	if err != nil || lib != nil {
		t.Errorf("ScanLibrary = %v, %v; want nil, nil", lib, err)
	}
}
