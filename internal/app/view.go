package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jssdwang06/listening-master/internal/dictation"
	"github.com/jssdwang06/listening-master/internal/player"
	"github.com/jssdwang06/listening-master/internal/ui"
)

// View renders the full TUI.
func (m Model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, m.renderHeader())
	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))

	switch m.state.Mode {
	case player.Idle:
		sections = append(sections, m.renderHome())
	case player.Dictation:
		sections = append(sections, m.renderDictation())
	default:
		sections = append(sections, m.renderPlayer())
	}

	sections = append(sections, ui.DividerStyle.Render(strings.Repeat("─", m.width)))
	if m.errorMessage != "" {
		sections = append(sections, m.renderErrorBar())
	}
	sections = append(sections, m.renderFooter())

	return strings.Join(sections, "\n")
}

func (m Model) renderHeader() string {
	title := ui.TitleStyle.Render("LISTENING MASTER")
	if m.state.Mode == player.Idle {
		return title
	}

	st := m.state
	name := ui.DimStyle.Render(" · " + LibraryEntry{AudioPath: st.AudioPath}.Name())
	badge := "  " + modeBadge(st.Mode)
	if st.Mode == player.SentenceLoop {
		badge += ui.DimStyle.Render(fmt.Sprintf(" %gx", st.Speed))
	}
	if st.Processing {
		badge += "  " + ui.SpinnerStyle.Render("⟳ rendering")
	}
	return title + name + badge
}

func modeBadge(mode player.Mode) string {
	switch mode {
	case player.SentenceLoop:
		return ui.LoopBadgeStyle.Render("LOOP")
	case player.Dictation:
		return ui.DictationBadgeStyle.Render("DICTATION")
	}
	return ui.NormalBadgeStyle.Render("NORMAL")
}

func (m Model) renderHome() string {
	var lines []string
	lines = append(lines, ui.PanelTitleStyle.Render(fmt.Sprintf("HISTORY (%d)", len(m.entries))))

	if len(m.entries) == 0 {
		lines = append(lines, ui.DimStyle.Render("  Nothing here yet."))
		lines = append(lines, ui.DimStyle.Render("  Put audio files and matching .srt subtitles in the audio folder,"))
		lines = append(lines, ui.DimStyle.Render("  or start with: listening-master run <audio> [subtitle]"))
		return strings.Join(lines, "\n")
	}

	for i, e := range m.entries {
		var detail string
		if s := e.Session; s != nil {
			detail = fmt.Sprintf("listened %s / %s, %s",
				player.FormatClock(s.Duration, false),
				player.FormatClock(s.TotalLength, false),
				humanize.Time(s.EndedAt))
		} else {
			detail = "new"
		}

		name := e.Name()
		if e.AudioPath == m.opening {
			name += " …"
		}
		line := "  " + name + "  " + ui.DimStyle.Render(detail)
		if i == m.selected {
			line = ui.SelectedStyle.Render("> "+name) + "  " + ui.DimStyle.Render(detail)
		}
		lines = append(lines, truncateToWidth(line, m.width))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderPlayer() string {
	st := m.state
	width := max(20, m.width-4)

	var lines []string
	lines = append(lines, "")
	if m.hideSubtitles {
		lines = append(lines, "", "  "+ui.DimStyle.Render("subtitles hidden (s to show)"), "")
	} else {
		lines = append(lines, "  "+ui.NeighborCueStyle.Render(wrapFirst(st.Prev, width)))
		for _, l := range wrapText(st.Current, width) {
			lines = append(lines, "  "+ui.CurrentCueStyle.Render(l))
		}
		lines = append(lines, "  "+ui.NeighborCueStyle.Render(wrapFirst(st.Next, width)))
	}
	lines = append(lines, "")

	state := ui.PausedStyle.Render("❚❚ paused")
	if st.Playing {
		state = ui.PlayingStyle.Render("▶ playing")
	}

	if st.Mode == player.SentenceLoop {
		clock := ui.ClockStyle.Render(fmt.Sprintf("%s / %s",
			player.FormatClock(st.Loop.Elapsed, true), player.FormatClock(st.Loop.Duration, true)))
		lines = append(lines, "  "+state+"  "+clock+"  "+renderBar(st.Loop.Elapsed, st.Loop.Duration, width/2))
	} else {
		clock := ui.ClockStyle.Render(fmt.Sprintf("%s / %s",
			player.FormatClock(st.Position, false), player.FormatClock(st.Total, false)))
		lines = append(lines, "  "+state+"  "+clock+"  "+renderBar(st.Position, st.Total, width/2))
	}

	lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("  sentence %d/%d  listened %s",
		st.CueIndex+1, st.CueCount, player.FormatClock(st.Listened, false))))
	return strings.Join(lines, "\n")
}

func (m Model) renderDictation() string {
	st := m.state
	d := st.Dictation
	width := max(20, m.width-4)

	var lines []string
	lines = append(lines, "")
	if d.Done {
		lines = append(lines, "  "+ui.CurrentCueStyle.Render("All sentences done."))
	} else {
		lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("  sentence %d/%d", d.Index+1, d.Total)))
		lines = append(lines, "")
		input := ui.InputStyle.Render(string(m.input)) + ui.CursorStyle.Render("▌")
		lines = append(lines, "  > "+input)
	}

	if d.Last != nil {
		lines = append(lines, "")
		mark := ui.ErrorTextStyle.Render("✗")
		if d.Last.Correct {
			mark = ui.MatchStyle.Render("✓")
		}
		lines = append(lines, fmt.Sprintf("  %s #%d %.0f%%", mark, d.Last.SentenceIndex+1, d.Last.Similarity*100))
		for _, l := range wrapStyled(renderSpans(d.Last.Spans), width) {
			lines = append(lines, "  "+l)
		}
		lines = append(lines, "  "+ui.DimStyle.Render(wrapFirst(d.Last.Reference, width)))
	}

	lines = append(lines, "")
	lines = append(lines, ui.DimStyle.Render(fmt.Sprintf("  %d attempted, %d correct, %.0f%% characters",
		d.Stats.Attempted, d.Stats.CorrectSentences, d.Stats.CharAccuracy()*100)))
	return strings.Join(lines, "\n")
}

// renderSpans colours a graded attempt: matches green, wrong or extra text
// red, missing reference text yellow.
func renderSpans(spans []dictation.Span) string {
	var b strings.Builder
	for _, sp := range spans {
		switch sp.Kind {
		case dictation.Match:
			b.WriteString(ui.MatchStyle.Render(sp.Text))
		case dictation.Substitute:
			b.WriteString(ui.WrongStyle.Render(sp.Attempt))
		case dictation.Insert:
			b.WriteString(ui.WrongStyle.Render(sp.Attempt))
		case dictation.Delete:
			b.WriteString(ui.MissingStyle.Render(sp.Reference))
		}
	}
	return b.String()
}

func renderBar(pos, total float64, width int) string {
	if width <= 0 {
		return ""
	}
	filled := 0
	if total > 0 {
		filled = int(pos / total * float64(width))
	}
	filled = min(max(filled, 0), width)
	return ui.ProgressFullStyle.Render(strings.Repeat("█", filled)) +
		ui.ProgressEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func (m Model) renderErrorBar() string {
	return ui.ErrorStyle.Render("Error: ") + ui.ErrorTextStyle.Render(m.errorMessage)
}

func footerKey(key, desc string) string {
	return ui.FooterKeyStyle.Render(key) + ui.FooterDescStyle.Render(" "+desc)
}

func (m Model) renderFooter() string {
	var parts []string

	switch m.state.Mode {
	case player.Idle:
		parts = append(parts, footerKey("Enter", "Open"), footerKey("j/k", "Select"))
		if m.store != nil {
			parts = append(parts, footerKey("d", "Delete"), footerKey("C", "Clear all"))
		}
		parts = append(parts, footerKey("r", "Refresh"), footerKey("q", "Quit"))
	case player.Dictation:
		parts = append(parts,
			footerKey("Enter", "Submit"),
			footerKey("^P", "Play"),
			footerKey("^N/^B", "Next/Prev"),
			footerKey("^R", "Restart"),
			footerKey("Esc", "Back"))
	default:
		parts = append(parts,
			footerKey("Space", "Play"),
			footerKey("←→", "Jump"),
			footerKey("↑↓", "Sentence"),
			footerKey("l", "Loop"),
			footerKey("[ ]", "Speed"),
			footerKey("t", "Dictation"),
			footerKey("h", "Home"),
			footerKey("q", "Quit"))
	}

	return strings.Join(parts, "  ")
}

// Helpers

func truncateToWidth(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	// Simple truncation for non-styled strings
	runes := []rune(s)
	if len(runes) > width-1 {
		return string(runes[:width-1]) + "…"
	}
	return s
}

func wrapFirst(text string, width int) string {
	return wrapText(text, width)[0]
}

func wrapText(text string, width int) []string {
	if width <= 0 {
		return []string{text}
	}

	var lines []string
	for _, paragraph := range strings.Split(text, "\n") {
		var current string
		for _, word := range strings.Fields(paragraph) {
			if current == "" {
				current = word
			} else if lipgloss.Width(current)+1+lipgloss.Width(word) <= width {
				current += " " + word
			} else {
				lines = append(lines, current)
				current = word
			}
		}
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		return []string{""}
	}
	return lines
}

// wrapStyled wraps an already styled line with lipgloss so escape codes are
// not split.
func wrapStyled(s string, width int) []string {
	return strings.Split(lipgloss.NewStyle().Width(width).Render(s), "\n")
}
