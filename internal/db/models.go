// Package db stores listening history and dictation attempts in SQLite.
package db

import (
	"path/filepath"
	"time"
)

// Session is the listening record of one audio file.
type Session struct {
	ID          int64
	AudioPath   string
	StartedAt   time.Time
	EndedAt     time.Time // last time listening was saved
	Duration    float64   // seconds listened, all runs combined
	TotalLength float64   // length of the audio in seconds
}

// Name returns the file name of the audio.
func (s Session) Name() string { return filepath.Base(s.AudioPath) }

// Attempt is a stored dictation submission.
type Attempt struct {
	ID            string
	AudioPath     string
	SentenceIndex int
	Reference     string
	Transcript    string
	Similarity    float64
	Matched       int
	Correct       bool
	CreatedAt     time.Time
}

// DictationTotals aggregates the attempts for one audio file.
type DictationTotals struct {
	Attempts       int
	Correct        int
	ReferenceChars int
	CorrectChars   int
}

// CharAccuracy is correct characters over reference characters.
func (d DictationTotals) CharAccuracy() float64 {
	if d.ReferenceChars == 0 {
		return 0
	}
	return float64(d.CorrectChars) / float64(d.ReferenceChars)
}

// SentenceAccuracy is correct sentences over attempts.
func (d DictationTotals) SentenceAccuracy() float64 {
	if d.Attempts == 0 {
		return 0
	}
	return float64(d.Correct) / float64(d.Attempts)
}
