// Package dictation grades typed transcripts against reference sentences.
package dictation

import (
	"errors"
	"unicode"
)

// CorrectThreshold is the similarity a sentence must exceed to count as correct.
const CorrectThreshold = 0.8

// ErrTranscriptEmpty is returned when a submission holds no text.
var ErrTranscriptEmpty = errors.New("transcript is empty")

// ErrTranscriptTooLong is returned for submissions over MaxTranscriptRunes.
var ErrTranscriptTooLong = errors.New("transcript is too long")

// MaxTranscriptRunes bounds a submission; one sentence never comes close.
const MaxTranscriptRunes = 2000

// Kind classifies a span of the alignment.
type Kind int

const (
	Match      Kind = iota
	Substitute      // attempt text in place of reference text
	Delete          // reference text missing from the attempt
	Insert          // attempt text absent from the reference
)

func (k Kind) String() string {
	switch k {
	case Match:
		return "match"
	case Substitute:
		return "substitute"
	case Delete:
		return "delete"
	case Insert:
		return "insert"
	}
	return "unknown"
}

// Span is one run of the alignment. Reference and Attempt hold the original
// case characters from each side; Text is what to display.
type Span struct {
	Kind      Kind   `json:"kind"`
	Text      string `json:"text"`
	Reference string `json:"reference,omitempty"`
	Attempt   string `json:"attempt,omitempty"`
}

// Result is the graded alignment of one attempt.
type Result struct {
	Spans      []Span
	Matched    int     // characters aligned as matches
	RefLen     int     // reference length in characters
	Similarity float64 // Matched over the longer of the two inputs
}

// Correct reports whether the attempt clears threshold.
func (r Result) Correct(threshold float64) bool {
	return r.Similarity > threshold
}

// Grade aligns attempt against reference by case-insensitive longest common
// subsequence over characters.
func Grade(reference, attempt string) Result {
	ref := []rune(reference)
	att := []rune(attempt)
	n, m := len(ref), len(att)

	res := Result{RefLen: n}
	longest := max(n, m)
	if longest == 0 {
		res.Similarity = 1
		return res
	}

	// lcs.at(i, j) is the LCS length of ref[i:] and att[j:].
	lcs := lcsTable{cols: m + 1, cells: make([]int32, (n+1)*(m+1))}
	for i := n - 1; i >= 0; i-- {
		for j := m - 1; j >= 0; j-- {
			if fold(ref[i]) == fold(att[j]) {
				lcs.set(i, j, lcs.at(i+1, j+1)+1)
			} else {
				lcs.set(i, j, max(lcs.at(i+1, j), lcs.at(i, j+1)))
			}
		}
	}

	var b spanBuilder
	i, j := 0, 0
	for i < n || j < m {
		switch {
		case i < n && j < m && fold(ref[i]) == fold(att[j]) && lcs.at(i, j) == lcs.at(i+1, j+1)+1:
			b.match(ref[i], att[j])
			i++
			j++
		case j == m || (i < n && lcs.at(i+1, j) >= lcs.at(i, j+1)):
			b.ref = append(b.ref, ref[i])
			i++
		default:
			b.att = append(b.att, att[j])
			j++
		}
	}
	b.flush()

	res.Spans = b.spans
	res.Matched = int(lcs.at(0, 0))
	res.Similarity = float64(res.Matched) / float64(longest)
	return res
}

func fold(r rune) rune { return unicode.ToLower(r) }

// lcsTable is a dense (n+1)x(m+1) table in one allocation.
type lcsTable struct {
	cols  int
	cells []int32
}

func (t lcsTable) at(i, j int) int32     { return t.cells[i*t.cols+j] }
func (t lcsTable) set(i, j int, v int32) { t.cells[i*t.cols+j] = v }

// spanBuilder groups single-character edit operations into spans. Unmatched
// characters collect in ref and att until the next match.
type spanBuilder struct {
	spans    []Span
	ref, att []rune
	mref     []rune
	matt     []rune
}

func (b *spanBuilder) match(r, a rune) {
	b.flushEdits()
	b.mref = append(b.mref, r)
	b.matt = append(b.matt, a)
}

func (b *spanBuilder) flushMatch() {
	if len(b.mref) == 0 {
		return
	}
	ref := string(b.mref)
	b.spans = append(b.spans, Span{Kind: Match, Text: ref, Reference: ref, Attempt: string(b.matt)})
	b.mref, b.matt = nil, nil
}

func (b *spanBuilder) flushEdits() {
	if len(b.ref) == 0 && len(b.att) == 0 {
		return
	}
	b.flushMatch()
	ref, att := string(b.ref), string(b.att)
	switch {
	case ref != "" && att != "":
		b.spans = append(b.spans, Span{Kind: Substitute, Text: att, Reference: ref, Attempt: att})
	case ref != "":
		b.spans = append(b.spans, Span{Kind: Delete, Text: ref, Reference: ref})
	default:
		b.spans = append(b.spans, Span{Kind: Insert, Text: att, Attempt: att})
	}
	b.ref, b.att = nil, nil
}

func (b *spanBuilder) flush() {
	b.flushEdits()
	b.flushMatch()
}
