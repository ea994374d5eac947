package app

import (
	"log"
	"os"
	"time"

	"github.com/jssdwang06/listening-master/internal/cue"
	"github.com/jssdwang06/listening-master/internal/db"
	"github.com/jssdwang06/listening-master/internal/player"
	"github.com/jssdwang06/listening-master/internal/remote"

	tea "github.com/charmbracelet/bubbletea"
)

// History is the part of the history store the home screen uses.
type History interface {
	Sessions() ([]db.Session, error)
	DeleteSession(id int64) error
	ClearSessions() error
}

// Options configures a Model.
type Options struct {
	Controller   *player.Controller
	History      History        // nil disables the history listing
	Remote       *remote.Server // nil disables remote control
	TickInterval time.Duration
	AudioDir     string
	SubtitleDir  string

	// Measure returns the length of an audio file. It runs off the UI loop;
	// when nil the controller measures on open.
	Measure func(path string) (float64, error)

	// Opened on startup when set. SubtitlePath is resolved when empty.
	AudioPath    string
	SubtitlePath string
}

// HomeEntry is one line of the home screen.
type HomeEntry struct {
	AudioPath    string
	SubtitlePath string      // empty until resolved
	Session      *db.Session // nil for library files never played
}

// Name returns the display name of the entry.
func (e HomeEntry) Name() string {
	if e.Session != nil {
		return e.Session.Name()
	}
	return LibraryEntry{AudioPath: e.AudioPath}.Name()
}

// Model is the root bubbletea model for the trainer.
type Model struct {
	ctrl   *player.Controller
	store  History
	remote *remote.Server
	opts   Options

	// Published controller state, refreshed on every tick and action.
	state player.State

	// Home
	entries  []HomeEntry
	selected int
	opening  string

	// Dictation input
	input []rune

	// Player view; kept across files
	hideSubtitles bool

	// UI state
	width  int
	height int

	// Errors
	errorMessage   string
	errorTransient bool
}

// New creates a Model around an idle controller.
func New(opts Options) Model {
	if opts.TickInterval <= 0 {
		opts.TickInterval = 100 * time.Millisecond
	}
	m := Model{
		ctrl:   opts.Controller,
		store:  opts.History,
		remote: opts.Remote,
		opts:   opts,
	}
	m.state = m.ctrl.Snapshot()
	return m
}

// Init starts the clock, loads the home listing and opens the startup file.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tickCmd(m.opts.TickInterval),
		loadHistoryCmd(m.store, m.opts.AudioDir, m.opts.SubtitleDir),
	}
	if m.opts.AudioPath != "" {
		cmds = append(cmds, openCmd(m.opts.AudioPath, m.opts.SubtitlePath, m.opts.SubtitleDir, m.opts.Measure))
	}
	return tea.Batch(cmds...)
}

// tickCmd schedules the next controller tick.
func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// clearTransientErrorCmd fires after a delay to clear transient errors.
func clearTransientErrorCmd() tea.Cmd {
	return tea.Tick(5*time.Second, func(time.Time) tea.Msg {
		return ClearTransientErrorMsg{}
	})
}

// loadHistoryCmd reads the history and scans the audio directory.
func loadHistoryCmd(store History, audioDir, subtitleDir string) tea.Cmd {
	return func() tea.Msg {
		var msg HistoryLoadedMsg
		if store != nil {
			msg.Sessions, msg.Err = store.Sessions()
		}
		lib, err := ScanLibrary(audioDir, subtitleDir)
		if err != nil && msg.Err == nil {
			msg.Err = err
		}
		msg.Library = lib
		return msg
	}
}

// openCmd resolves and parses the subtitle and measures the audio off the
// UI loop.
func openCmd(audioPath, subtitlePath, subtitleDir string, measure func(string) (float64, error)) tea.Cmd {
	return func() tea.Msg {
		if _, err := os.Stat(audioPath); err != nil {
			return OpenErrorMsg{AudioPath: audioPath, Err: err}
		}
		if subtitlePath == "" {
			p, err := ResolveSubtitle(audioPath, subtitleDir)
			if err != nil {
				return OpenErrorMsg{AudioPath: audioPath, Err: err}
			}
			subtitlePath = p
		}

		f, err := os.Open(subtitlePath)
		if err != nil {
			return OpenErrorMsg{AudioPath: audioPath, Err: err}
		}
		defer f.Close()
		cues, err := cue.ParseSRT(f)
		if err != nil {
			return OpenErrorMsg{AudioPath: audioPath, Err: err}
		}
		msg := OpenReadyMsg{AudioPath: audioPath, SubtitlePath: subtitlePath, Cues: cues}
		if measure != nil {
			if msg.Length, err = measure(audioPath); err != nil {
				return OpenErrorMsg{AudioPath: audioPath, Err: err}
			}
		}
		return msg
	}
}

// deleteCmd removes one history entry, or all of them when id is 0.
func deleteCmd(store History, id int64) tea.Cmd {
	return func() tea.Msg {
		if id == 0 {
			return HistoryChangedMsg{Err: store.ClearSessions()}
		}
		return HistoryChangedMsg{Err: store.DeleteSession(id)}
	}
}

// Update processes messages and returns the updated model and any commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case TickMsg:
		wasIdle := m.state.Mode == player.Idle
		m.drainRemote()
		m.state = m.ctrl.Tick()
		if m.remote != nil {
			m.remote.Publish(remote.StatusFrom(m.state))
		}
		cmds := []tea.Cmd{tickCmd(m.opts.TickInterval), m.absorbNotices()}
		if !wasIdle && m.state.Mode == player.Idle {
			// The track closed without a key press.
			cmds = append(cmds, m.reloadHistory())
		}
		return m, tea.Batch(cmds...)

	case HistoryLoadedMsg:
		m.entries = mergeEntries(msg.Sessions, msg.Library)
		if m.selected >= len(m.entries) {
			m.selected = max(0, len(m.entries)-1)
		}
		var cmd tea.Cmd
		if msg.Err != nil {
			cmd = m.showError(msg.Err.Error(), true)
		}
		return m, cmd

	case OpenReadyMsg:
		m.opening = ""
		var err error
		if msg.Length > 0 {
			err = m.ctrl.OpenMeasured(msg.AudioPath, msg.Length, msg.Cues)
		} else {
			err = m.ctrl.Open(msg.AudioPath, msg.Cues)
		}
		if err != nil {
			log.Printf("app: open %s: %v", msg.AudioPath, err)
			cmd := m.showError(err.Error(), true)
			return m, cmd
		}
		m.input = m.input[:0]
		m.errorMessage, m.errorTransient = "", false
		cmd := m.refresh()
		return m, cmd

	case OpenErrorMsg:
		m.opening = ""
		log.Printf("app: open %s: %v", msg.AudioPath, msg.Err)
		cmd := m.showError(msg.Err.Error(), true)
		return m, cmd

	case HistoryChangedMsg:
		var cmd tea.Cmd
		if msg.Err != nil {
			cmd = m.showError(msg.Err.Error(), true)
		}
		return m, tea.Batch(cmd, m.reloadHistory())

	case ClearTransientErrorMsg:
		if m.errorTransient {
			m.errorMessage = ""
			m.errorTransient = false
		}
		return m, nil
	}

	return m, nil
}

// drainRemote applies every queued remote command. Commands run here so the
// controller is only touched from the UI loop.
func (m *Model) drainRemote() {
	if m.remote == nil {
		return
	}
	for {
		select {
		case req := <-m.remote.Requests():
			req.Reply(remote.Apply(m.ctrl, req.Command))
		default:
			return
		}
	}
}

// absorbNotices moves controller notices into the error bar.
func (m *Model) absorbNotices() tea.Cmd {
	var cmd tea.Cmd
	for _, n := range m.ctrl.Notices() {
		cmd = m.showError(n.Text, n.Transient)
	}
	return cmd
}

func (m *Model) showError(text string, transient bool) tea.Cmd {
	// A sticky message is not replaced by a transient one.
	if m.errorMessage != "" && !m.errorTransient && transient {
		return nil
	}
	m.errorMessage = text
	m.errorTransient = transient
	if transient {
		return clearTransientErrorCmd()
	}
	return nil
}

// refresh republishes state after a key press changed it.
func (m *Model) refresh() tea.Cmd {
	m.state = m.ctrl.Snapshot()
	return m.absorbNotices()
}

func (m *Model) reloadHistory() tea.Cmd {
	return loadHistoryCmd(m.store, m.opts.AudioDir, m.opts.SubtitleDir)
}

// act runs a controller action and reports its error.
func (m Model) act(err error) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{m.refresh()}
	if err != nil {
		cmds = append(cmds, m.showError(err.Error(), true))
	}
	return m, tea.Batch(cmds...)
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	if err := m.ctrl.Shutdown(); err != nil {
		log.Printf("app: shutdown: %v", err)
	}
	if m.remote != nil {
		m.remote.Close()
	}
	return m, tea.Quit
}

// handleKey dispatches on the current screen.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == KeyCtrlC {
		return m.quit()
	}
	switch m.state.Mode {
	case player.Idle:
		return m.handleHomeKey(msg)
	case player.Dictation:
		return m.handleDictationKey(msg)
	}
	return m.handlePlayerKey(msg)
}

func (m Model) handleHomeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper:
		return m.quit()

	case KeyUp, KeyK:
		if m.selected > 0 {
			m.selected--
		}
		return m, nil

	case KeyDown, KeyJ:
		if m.selected < len(m.entries)-1 {
			m.selected++
		}
		return m, nil

	case KeyEnter:
		if m.selected >= len(m.entries) || m.opening != "" {
			return m, nil
		}
		e := m.entries[m.selected]
		m.opening = e.AudioPath
		return m, openCmd(e.AudioPath, e.SubtitlePath, m.opts.SubtitleDir, m.opts.Measure)

	case KeyDelete:
		if m.store == nil || m.selected >= len(m.entries) || m.entries[m.selected].Session == nil {
			return m, nil
		}
		return m, deleteCmd(m.store, m.entries[m.selected].Session.ID)

	case KeyClearAll:
		if m.store == nil {
			return m, nil
		}
		return m, deleteCmd(m.store, 0)

	case KeyRefresh:
		return m, m.reloadHistory()
	}
	return m, nil
}

func (m Model) handlePlayerKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyQuit, KeyQuitUpper:
		return m.quit()
	case KeySpace:
		return m.act(m.ctrl.TogglePlay())
	case KeyLeft:
		return m.act(m.ctrl.Jump(-m.ctrl.JumpSeconds()))
	case KeyRight:
		return m.act(m.ctrl.Jump(m.ctrl.JumpSeconds()))
	case KeyUp, KeyK:
		return m.act(m.ctrl.Prev())
	case KeyDown, KeyJ:
		return m.act(m.ctrl.Next())
	case KeyLoop:
		return m.act(m.ctrl.ToggleLoop())
	case KeySlower:
		return m.act(m.ctrl.CycleSpeed(-1))
	case KeyFaster:
		return m.act(m.ctrl.CycleSpeed(1))
	case KeyDictation:
		m.input = m.input[:0]
		return m.act(m.ctrl.EnterDictation())
	case KeySubtitles:
		m.hideSubtitles = !m.hideSubtitles
		return m, nil
	case KeyHome:
		err := m.ctrl.Home()
		model, cmd := m.act(err)
		return model, tea.Batch(cmd, m.reloadHistory())
	}
	return m, nil
}

func (m Model) handleDictationKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case KeyEsc:
		m.input = m.input[:0]
		return m.act(m.ctrl.ExitDictation())
	case KeyEnter:
		if m.state.Dictation.Done {
			return m, nil
		}
		_, err := m.ctrl.SubmitTranscript(string(m.input))
		if err == nil {
			m.input = m.input[:0]
		}
		return m.act(err)
	case KeyDictPlay:
		return m.act(m.ctrl.PlayDictationSentence())
	case KeyDictNext:
		m.input = m.input[:0]
		return m.act(m.ctrl.NextDictationSentence())
	case KeyDictPrev:
		m.input = m.input[:0]
		return m.act(m.ctrl.Prev())
	case KeyDictReset:
		m.input = m.input[:0]
		return m.act(m.ctrl.ResetDictation())
	case KeyBackspace:
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
		return m, nil
	}

	switch msg.Type {
	case tea.KeyRunes:
		m.input = append(m.input, msg.Runes...)
	case tea.KeySpace:
		m.input = append(m.input, ' ')
	}
	return m, nil
}

// mergeEntries lists played files first (most recent first) followed by
// library files that have never been played.
func mergeEntries(sessions []db.Session, library []LibraryEntry) []HomeEntry {
	seen := make(map[string]bool, len(sessions))
	out := make([]HomeEntry, 0, len(sessions)+len(library))
	subs := make(map[string]string, len(library))
	for _, l := range library {
		subs[l.AudioPath] = l.SubtitlePath
	}

	for i := range sessions {
		s := sessions[i]
		seen[s.AudioPath] = true
		out = append(out, HomeEntry{AudioPath: s.AudioPath, SubtitlePath: subs[s.AudioPath], Session: &s})
	}
	for _, l := range library {
		if seen[l.AudioPath] {
			continue
		}
		out = append(out, HomeEntry{AudioPath: l.AudioPath, SubtitlePath: l.SubtitlePath})
	}
	return out
}

// Input returns the typed dictation transcript.
func (m Model) Input() string { return string(m.input) }
