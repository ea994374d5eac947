package dictation

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Attempt is one graded submission. It is never modified after creation.
type Attempt struct {
	ID            string
	SentenceIndex int
	Reference     string
	Transcript    string
	Spans         []Span
	Matched       int
	Similarity    float64
	Correct       bool
	CreatedAt     time.Time
}

// NewAttempt grades transcript against reference for sentence index.
func NewAttempt(index int, reference, transcript string, threshold float64, now time.Time) (Attempt, error) {
	if strings.TrimSpace(transcript) == "" {
		return Attempt{}, ErrTranscriptEmpty
	}
	if utf8.RuneCountInString(transcript) > MaxTranscriptRunes {
		return Attempt{}, ErrTranscriptTooLong
	}
	res := Grade(reference, transcript)
	return Attempt{
		ID:            uuid.NewString(),
		SentenceIndex: index,
		Reference:     reference,
		Transcript:    transcript,
		Spans:         res.Spans,
		Matched:       res.Matched,
		Similarity:    res.Similarity,
		Correct:       res.Correct(threshold),
		CreatedAt:     now,
	}, nil
}

// Stats aggregates a run of attempts.
type Stats struct {
	Attempted        int
	CorrectSentences int
	ReferenceChars   int
	CorrectChars     int
}

// Add folds a into s.
func (s *Stats) Add(a Attempt) {
	s.Attempted++
	if a.Correct {
		s.CorrectSentences++
	}
	s.ReferenceChars += len([]rune(a.Reference))
	s.CorrectChars += a.Matched
}

// CharAccuracy is correct characters over reference characters, 0 when empty.
func (s Stats) CharAccuracy() float64 {
	if s.ReferenceChars == 0 {
		return 0
	}
	return float64(s.CorrectChars) / float64(s.ReferenceChars)
}

// SentenceAccuracy is correct sentences over attempted sentences.
func (s Stats) SentenceAccuracy() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.CorrectSentences) / float64(s.Attempted)
}

// Log is the ordered attempt history of one dictation run.
type Log struct {
	attempts []Attempt
	stats    Stats
}

// Append records a.
func (l *Log) Append(a Attempt) {
	l.attempts = append(l.attempts, a)
	l.stats.Add(a)
}

// Attempts returns a copy of the log in submission order.
func (l *Log) Attempts() []Attempt {
	out := make([]Attempt, len(l.attempts))
	copy(out, l.attempts)
	return out
}

// Last returns the most recent attempt.
func (l *Log) Last() (Attempt, bool) {
	if len(l.attempts) == 0 {
		return Attempt{}, false
	}
	return l.attempts[len(l.attempts)-1], true
}

// Stats returns the running totals.
func (l *Log) Stats() Stats { return l.stats }

// Reset clears the log.
func (l *Log) Reset() {
	l.attempts = nil
	l.stats = Stats{}
}
