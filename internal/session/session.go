// Package session accumulates listening time per audio file across runs.
package session

import (
	"fmt"
	"sync"
	"time"
)

// Store persists accumulated seconds keyed by audio identifier.
type Store interface {
	// GetAccumulated returns the stored total for audioID, 0 when unknown.
	GetAccumulated(audioID string) (float64, error)
	// UpsertSession replaces the stored total for audioID.
	UpsertSession(audioID string, accumulated, totalLength float64) error
}

// Accumulator tracks the open listening segment for one audio file at a
// time. All methods are called from the player loop.
type Accumulator struct {
	store Store
	now   func() time.Time

	audioID     string
	totalLength float64
	accumulated float64
	start       time.Time
	recording   bool
}

// New returns an Accumulator over store. now is time.Now when nil.
func New(store Store, now func() time.Time) *Accumulator {
	if now == nil {
		now = time.Now
	}
	return &Accumulator{store: store, now: now}
}

// Open switches to audioID, merging any total already stored for it. An
// open segment for the previous file is finalized first.
func (a *Accumulator) Open(audioID string, totalLength float64) error {
	if a.audioID != "" {
		if err := a.Finalize(); err != nil {
			return err
		}
	}

	prior, err := a.store.GetAccumulated(audioID)
	if err != nil {
		return fmt.Errorf("load listening time for %s: %w", audioID, err)
	}
	a.audioID = audioID
	a.totalLength = totalLength
	a.accumulated = prior
	a.recording = false
	return nil
}

// StartSegment begins timing. Calling it while already recording keeps the
// original start.
func (a *Accumulator) StartSegment() {
	if a.audioID == "" || a.recording {
		return
	}
	a.start = a.now()
	a.recording = true
}

// Finalize adds the open segment to the total and persists it. It is a
// no-op when nothing is recording.
func (a *Accumulator) Finalize() error {
	if !a.recording {
		return nil
	}
	a.recording = false

	elapsed := a.now().Sub(a.start).Seconds()
	if elapsed <= 0 {
		return nil
	}
	a.accumulated += elapsed
	if err := a.store.UpsertSession(a.audioID, a.accumulated, a.totalLength); err != nil {
		return fmt.Errorf("save listening time for %s: %w", a.audioID, err)
	}
	return nil
}

// Accumulated returns the persisted total plus the open segment.
func (a *Accumulator) Accumulated() float64 {
	if !a.recording {
		return a.accumulated
	}
	return a.accumulated + a.now().Sub(a.start).Seconds()
}

// Recording reports whether a segment is open.
func (a *Accumulator) Recording() bool { return a.recording }

// AudioID returns the file currently tracked.
func (a *Accumulator) AudioID() string { return a.audioID }

// Close finalizes and detaches from the current file.
func (a *Accumulator) Close() error {
	err := a.Finalize()
	a.audioID = ""
	a.accumulated = 0
	a.totalLength = 0
	return err
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu    sync.Mutex
	total map[string]float64
	saves int
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{total: make(map[string]float64)}
}

func (m *MemoryStore) GetAccumulated(audioID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total[audioID], nil
}

func (m *MemoryStore) UpsertSession(audioID string, accumulated, _ float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.total[audioID] = accumulated
	m.saves++
	return nil
}

// Saves returns the number of UpsertSession calls.
func (m *MemoryStore) Saves() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saves
}
