// Package cue holds the timestamped subtitle lines that drive sentence display,
// looping and dictation.
package cue

// Cue is one subtitle line. End of a cue is the start of the next one.
type Cue struct {
	Start float64 // seconds from the start of the track
	Text  string
}

// Index is an immutable, start-ordered list of cues.
type Index struct {
	cues []Cue
}

// NewIndex copies cues into a new Index. Callers must pass cues in
// non-decreasing start order (ParseSRT already guarantees this).
func NewIndex(cues []Cue) *Index {
	c := make([]Cue, len(cues))
	copy(c, cues)
	return &Index{cues: c}
}

// Len returns the number of cues. A nil Index is empty.
func (x *Index) Len() int {
	if x == nil {
		return 0
	}
	return len(x.cues)
}

// At returns cue i. i must be in range.
func (x *Index) At(i int) Cue {
	return x.cues[i]
}

// ActiveIndex returns the index of the last cue whose start is <= t, or -1.
// Ties resolve to the last of the equal starts.
func (x *Index) ActiveIndex(t float64) int {
	// Binary search for the first cue starting after t; runs every tick, so no closures.
	lo, hi := 0, x.Len()
	for lo < hi {
		mid := int(uint(lo+hi) >> 1)
		if x.cues[mid].Start > t {
			hi = mid
		} else {
			lo = mid + 1
		}
	}
	return lo - 1
}

// Neighbors returns the text of cues i-1, i and i+1, with "" for any that
// fall outside the index.
func (x *Index) Neighbors(i int) (prev, cur, next string) {
	n := x.Len()
	if i-1 >= 0 && i-1 < n {
		prev = x.cues[i-1].Text
	}
	if i >= 0 && i < n {
		cur = x.cues[i].Text
	}
	if i+1 >= 0 && i+1 < n {
		next = x.cues[i+1].Text
	}
	return prev, cur, next
}

// Bounds returns the time range of cue i: its start, and the next cue's start
// or total for the last cue.
func (x *Index) Bounds(i int, total float64) (start, end float64) {
	start = x.cues[i].Start
	if i+1 < len(x.cues) {
		end = x.cues[i+1].Start
	} else {
		end = total
	}
	if end < start {
		end = start
	}
	return start, end
}
