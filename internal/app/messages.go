package app

import (
	"time"

	"github.com/jssdwang06/listening-master/internal/cue"
	"github.com/jssdwang06/listening-master/internal/db"
)

// TickMsg drives the controller clock.
type TickMsg time.Time

// HistoryLoadedMsg carries the home screen listing.
type HistoryLoadedMsg struct {
	Sessions []db.Session
	Library  []LibraryEntry
	Err      error
}

// OpenReadyMsg is sent once the subtitle for an audio file has been found
// and parsed. The controller opens the audio on the UI loop.
type OpenReadyMsg struct {
	AudioPath    string
	SubtitlePath string
	Cues         []cue.Cue
	Length       float64 // seconds; 0 when not measured yet
}

// OpenErrorMsg is sent when an audio file cannot be opened.
type OpenErrorMsg struct {
	AudioPath string
	Err       error
}

// HistoryChangedMsg reports the outcome of a delete or clear.
type HistoryChangedMsg struct {
	Err error
}

// ClearTransientErrorMsg clears a transient error after a timeout.
type ClearTransientErrorMsg struct{}
