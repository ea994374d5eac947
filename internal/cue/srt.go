package cue

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ParseSRT extracts cues from SRT text. Only the start timestamp and the
// joined body lines are kept. Blocks with an unparsable start are dropped.
func ParseSRT(r io.Reader) ([]Cue, error) {
	//	1								sequence number (optional)
	//	00:00:01,500 --> 00:00:03,000	start --> end (end ignored)
	//	first body line
	//	second body line
	//	(blank)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)

	var (
		cues    []Cue
		inBlock bool
		bad     bool
		start   float64
		body    []string
		first   = true
	)

	flush := func() {
		if inBlock && !bad {
			cues = append(cues, Cue{Start: start, Text: strings.Join(body, " ")})
		}
		inBlock, bad, body = false, false, nil
	}

	for scanner.Scan() {
		line := scanner.Text()
		if first {
			line = strings.TrimPrefix(line, "\ufeff")
			first = false
		}
		line = strings.TrimSpace(line)

		if line == "" {
			flush()
			continue
		}

		if strings.Contains(line, "-->") {
			flush()
			inBlock = true
			ts := strings.TrimSpace(strings.SplitN(line, "-->", 2)[0])
			sec, err := ParseTimestamp(ts)
			if err != nil {
				bad = true
				continue
			}
			start = sec
			continue
		}

		if !inBlock {
			// Sequence numbers and stray text between blocks.
			continue
		}
		body = append(body, line)
	}
	flush()

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read subtitles: %w", err)
	}

	sort.SliceStable(cues, func(i, j int) bool { return cues[i].Start < cues[j].Start })
	return cues, nil
}

var timestampRE = regexp.MustCompile(`^(?:(\d+):)?(\d+):(\d+(?:[.,]\d+)?)$`)

// ParseTimestamp converts "HH:MM:SS,mmm" (or "." before the milliseconds,
// or "MM:SS,mmm") to seconds. Only plain digits are accepted.
func ParseTimestamp(s string) (float64, error) {
	m := timestampRE.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("timestamp %q: want HH:MM:SS,mmm", s)
	}

	var hours, minutes int
	var err error
	if m[1] != "" {
		if hours, err = strconv.Atoi(m[1]); err != nil {
			return 0, fmt.Errorf("timestamp %q: hours: %w", s, err)
		}
	}
	if minutes, err = strconv.Atoi(m[2]); err != nil {
		return 0, fmt.Errorf("timestamp %q: minutes: %w", s, err)
	}
	seconds, err := strconv.ParseFloat(strings.Replace(m[3], ",", ".", 1), 64)
	if err != nil {
		return 0, fmt.Errorf("timestamp %q: seconds: %w", s, err)
	}

	total := float64(hours)*3600 + float64(minutes)*60 + seconds
	if math.IsInf(total, 0) || math.IsNaN(total) {
		return 0, fmt.Errorf("timestamp %q: out of range", s)
	}
	return total, nil
}
