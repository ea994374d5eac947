package cue

import (
	"math"
	"strings"
	"testing"
)

func sampleIndex() *Index {
	return NewIndex([]Cue{
		{Start: 0, Text: "A"},
		{Start: 2, Text: "B"},
		{Start: 5, Text: "C"},
	})
}

func TestActiveIndex(t *testing.T) {
	x := sampleIndex()

	cases := []struct {
		t    float64
		want int
	}{
		{1, 0},
		{2, 1},
		{4.999, 1},
		{5, 2},
		{-1, -1},
		{100, 2},
	}
	for _, c := range cases {
		if got := x.ActiveIndex(c.t); got != c.want {
			t.Errorf("ActiveIndex(%v) = %d, want %d", c.t, got, c.want)
		}
	}
}

func TestActiveIndexTiesResolveToLast(t *testing.T) {
	x := NewIndex([]Cue{
		{Start: 0, Text: "A"},
		{Start: 3, Text: "B"},
		{Start: 3, Text: "C"},
	})
	if got := x.ActiveIndex(3); got != 2 {
		t.Errorf("ActiveIndex(3) = %d, want 2", got)
	}
}

func TestActiveIndexEmpty(t *testing.T) {
	var x *Index
	if got := x.ActiveIndex(1); got != -1 {
		t.Errorf("nil index ActiveIndex = %d, want -1", got)
	}
	if got := NewIndex(nil).ActiveIndex(1); got != -1 {
		t.Errorf("empty index ActiveIndex = %d, want -1", got)
	}
}

func TestActiveIndexDoesNotAllocate(t *testing.T) {
	x := sampleIndex()
	allocs := testing.AllocsPerRun(100, func() {
		x.ActiveIndex(3.5)
	})
	if allocs != 0 {
		t.Errorf("ActiveIndex allocs = %v, want 0", allocs)
	}
}

func TestNeighbors(t *testing.T) {
	x := sampleIndex()

	prev, cur, next := x.Neighbors(0)
	if prev != "" || cur != "A" || next != "B" {
		t.Errorf("Neighbors(0) = %q %q %q", prev, cur, next)
	}

	prev, cur, next = x.Neighbors(2)
	if prev != "B" || cur != "C" || next != "" {
		t.Errorf("Neighbors(2) = %q %q %q", prev, cur, next)
	}

	prev, cur, next = x.Neighbors(-1)
	if prev != "" || cur != "" || next != "A" {
		t.Errorf("Neighbors(-1) = %q %q %q", prev, cur, next)
	}
}

func TestBounds(t *testing.T) {
	x := sampleIndex()

	start, end := x.Bounds(1, 9)
	if start != 2 || end != 5 {
		t.Errorf("Bounds(1) = %v-%v, want 2-5", start, end)
	}

	start, end = x.Bounds(2, 9)
	if start != 5 || end != 9 {
		t.Errorf("Bounds(2) = %v-%v, want 5-9 (track end)", start, end)
	}
}

func TestParseSRT(t *testing.T) {
	src := "\ufeff1\n" +
		"00:00:01,500 --> 00:00:03,000\n" +
		"Hello there,\n" +
		"general Kenobi.\n" +
		"\n" +
		"2\n" +
		"00:00:04.250 --> 00:00:06,000\n" +
		"42\n" +
		"\n" +
		"3\n" +
		"01:02:03,004 --> 01:02:05,000\n" +
		"Last line\n"

	cues, err := ParseSRT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(cues) != 3 {
		t.Fatalf("got %d cues, want 3", len(cues))
	}
	if cues[0].Start != 1.5 {
		t.Errorf("cues[0].Start = %v, want 1.5", cues[0].Start)
	}
	if cues[0].Text != "Hello there, general Kenobi." {
		t.Errorf("cues[0].Text = %q", cues[0].Text)
	}
	if cues[1].Text != "42" {
		t.Errorf("digit-only body should be kept, got %q", cues[1].Text)
	}
	if math.Abs(cues[2].Start-3723.004) > 1e-9 {
		t.Errorf("cues[2].Start = %v, want 3723.004", cues[2].Start)
	}
}

func TestParseSRTDropsBadTimestamp(t *testing.T) {
	src := "1\n00:00:01,000 --> 00:00:02,000\nGood\n\n" +
		"2\nxx:00:03,000 --> 00:00:04,000\nBroken\n\n" +
		"3\n00:00:05,000 --> 00:00:06,000\nAlso good\n"

	cues, err := ParseSRT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(cues) != 2 {
		t.Fatalf("got %d cues, want 2", len(cues))
	}
	if cues[1].Text != "Also good" {
		t.Errorf("cues[1].Text = %q", cues[1].Text)
	}
}

func TestParseSRTSortsByStart(t *testing.T) {
	src := "1\n00:00:05,000 --> 00:00:06,000\nLater\n\n" +
		"2\n00:00:01,000 --> 00:00:02,000\nEarlier\n"

	cues, err := ParseSRT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(cues) != 2 || cues[0].Text != "Earlier" {
		t.Errorf("cues = %+v, want Earlier first", cues)
	}
}

func TestParseSRTEmpty(t *testing.T) {
	cues, err := ParseSRT(strings.NewReader(""))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(cues) != 0 {
		t.Errorf("got %d cues, want 0", len(cues))
	}
}

func TestParseTimestamp(t *testing.T) {
	got, err := ParseTimestamp("00:01:02,500")
	if err != nil || got != 62.5 {
		t.Errorf("ParseTimestamp = %v, %v; want 62.5", got, err)
	}
	got, err = ParseTimestamp("01:02.25")
	if err != nil || got != 62.25 {
		t.Errorf("ParseTimestamp MM:SS = %v, %v; want 62.25", got, err)
	}
	if _, err := ParseTimestamp("garbage"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
}

func TestParseTimestampRejectsNonDigits(t *testing.T) {
	for _, s := range []string{
		"00:00:NaN",
		"00:00:Inf",
		"00:00:+Inf",
		"00:00:1e3",
		"00:00:0x10",
		"00:+1:02,000",
		"00:01:-2,000",
		"00:01:02,",
		"00:01:02_5",
		"1:2:3:4",
	} {
		if got, err := ParseTimestamp(s); err == nil {
			t.Errorf("ParseTimestamp(%q) = %v, want error", s, got)
		}
	}
}

func TestParseSRTDropsNonFiniteStarts(t *testing.T) {
	src := "1\n00:00:01,000 --> 00:00:02,000\nA\n\n" +
		"2\n00:00:NaN --> 00:00:04,000\nB\n\n" +
		"3\n00:00:05,000 --> 00:00:06,000\nC\n\n" +
		"4\n00:00:Inf --> 00:00:08,000\nD\n"

	cues, err := ParseSRT(strings.NewReader(src))
	if err != nil {
		t.Fatalf("ParseSRT: %v", err)
	}
	if len(cues) != 2 || cues[0].Text != "A" || cues[1].Text != "C" {
		t.Fatalf("cues = %+v, want A and C", cues)
	}
	if i := NewIndex(cues).ActiveIndex(1.5); i != 0 {
		t.Errorf("ActiveIndex(1.5) = %d, want 0", i)
	}
}
