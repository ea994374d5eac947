package app

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jssdwang06/listening-master/internal/cue"
	"github.com/jssdwang06/listening-master/internal/db"
	"github.com/jssdwang06/listening-master/internal/player"
	"github.com/jssdwang06/listening-master/internal/remote"
	"github.com/jssdwang06/listening-master/internal/resample"
	"github.com/jssdwang06/listening-master/internal/session"
	"github.com/jssdwang06/listening-master/internal/transport"
)

// stubBackend plays anything ending in .mp3 as a 20 second track.
type stubBackend struct {
	busy bool
}

func (b *stubBackend) Load(path string) (float64, error) {
	if !strings.HasSuffix(path, ".mp3") {
		return 0, errors.New("unsupported")
	}
	return 20, nil
}

func (b *stubBackend) Switch(string) error        { return nil }
func (b *stubBackend) Play(float64) error         { b.busy = true; return nil }
func (b *stubBackend) Pause() error               { b.busy = false; return nil }
func (b *stubBackend) PositionSincePlay() float64 { return 0 }
func (b *stubBackend) Busy() bool                 { return b.busy }

// idleResampler accepts requests and never answers.
type idleResampler struct {
	submitted []resample.Request
	results   chan resample.Result
}

func (r *idleResampler) Submit(req resample.Request) bool {
	r.submitted = append(r.submitted, req)
	return true
}
func (r *idleResampler) Results() <-chan resample.Result { return r.results }
func (r *idleResampler) Close()                          {}

// fakeHistory is an in-memory History.
type fakeHistory struct {
	sessions []db.Session
	deleted  []int64
	cleared  bool
}

func (h *fakeHistory) Sessions() ([]db.Session, error) { return h.sessions, nil }
func (h *fakeHistory) DeleteSession(id int64) error {
	h.deleted = append(h.deleted, id)
	return nil
}
func (h *fakeHistory) ClearSessions() error {
	h.cleared = true
	return nil
}

var testCues = []cue.Cue{
	{Start: 0, Text: "First."},
	{Start: 2, Text: "Second sentence."},
	{Start: 5, Text: "Third."},
}

func newTestModel(t *testing.T, opts Options) Model {
	t.Helper()
	tr := transport.New(&stubBackend{})
	ctrl := player.New(tr, &idleResampler{results: make(chan resample.Result, 4)},
		session.New(session.NewMemoryStore(), nil), player.Options{})
	opts.Controller = ctrl
	m := New(opts)
	m.width = 100
	m.height = 30
	return m
}

func openedModel(t *testing.T) Model {
	t.Helper()
	m := newTestModel(t, Options{})
	m, _ = applyUpdate(m, OpenReadyMsg{AudioPath: "talk.mp3", Cues: testCues})
	if m.state.Mode != player.Normal {
		t.Fatalf("mode after open = %v, want normal", m.state.Mode)
	}
	return m
}

func key(s string) tea.KeyMsg {
	switch s {
	case KeySpace:
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	case KeyEnter:
		return tea.KeyMsg{Type: tea.KeyEnter}
	case KeyEsc:
		return tea.KeyMsg{Type: tea.KeyEsc}
	case KeyUp:
		return tea.KeyMsg{Type: tea.KeyUp}
	case KeyDown:
		return tea.KeyMsg{Type: tea.KeyDown}
	case KeyBackspace:
		return tea.KeyMsg{Type: tea.KeyBackspace}
	case KeyDictNext:
		return tea.KeyMsg{Type: tea.KeyCtrlN}
	case KeyDictReset:
		return tea.KeyMsg{Type: tea.KeyCtrlR}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		if r == ' ' {
			m, _ = applyUpdate(m, key(KeySpace))
			continue
		}
		m, _ = applyUpdate(m, key(string(r)))
	}
	return m
}

func TestNewModel(t *testing.T) {
	m := newTestModel(t, Options{})
	if m.state.Mode != player.Idle {
		t.Errorf("mode = %v, want idle", m.state.Mode)
	}
	if m.opts.TickInterval != 100*time.Millisecond {
		t.Errorf("tick interval = %v, want 100ms", m.opts.TickInterval)
	}
}

func TestViewWithoutSize(t *testing.T) {
	m := newTestModel(t, Options{})
	m.width = 0
	if got := m.View(); got != "Initializing..." {
		t.Errorf("View() = %q, want Initializing...", got)
	}
}

func TestOpenReady(t *testing.T) {
	m := openedModel(t)

	view := m.View()
	if !strings.Contains(view, "NORMAL") || !strings.Contains(view, "First.") {
		t.Errorf("player view missing mode or cue:\n%s", view)
	}
	if m.state.CueCount != 3 {
		t.Errorf("cue count = %d, want 3", m.state.CueCount)
	}
}

func TestOpenError(t *testing.T) {
	m := newTestModel(t, Options{})
	m, _ = applyUpdate(m, OpenErrorMsg{AudioPath: "x.mp3", Err: ErrNoSubtitle})

	if !strings.Contains(m.errorMessage, "subtitle not found") || !m.errorTransient {
		t.Errorf("error = %q transient=%v", m.errorMessage, m.errorTransient)
	}
	if m.state.Mode != player.Idle {
		t.Errorf("mode = %v, want idle", m.state.Mode)
	}
}

func TestSpaceTogglesPlayback(t *testing.T) {
	m := openedModel(t)

	m, _ = applyUpdate(m, key(KeySpace))
	if !m.state.Playing {
		t.Error("space should start playback")
	}
	m, _ = applyUpdate(m, key(KeySpace))
	if m.state.Playing {
		t.Error("second space should pause")
	}
}

func TestDownMovesSentence(t *testing.T) {
	m := openedModel(t)

	m, _ = applyUpdate(m, key(KeyDown))
	if m.state.CueIndex != 1 {
		t.Errorf("cue index = %d, want 1", m.state.CueIndex)
	}
	if m.state.Current != "Second sentence." {
		t.Errorf("current = %q", m.state.Current)
	}
}

func TestLoopWhilePausedShowsError(t *testing.T) {
	m := openedModel(t)

	m, cmd := applyUpdate(m, key(KeyLoop))
	if m.state.Mode != player.Normal {
		t.Errorf("mode = %v, want normal", m.state.Mode)
	}
	if m.errorMessage == "" || !m.errorTransient {
		t.Errorf("error = %q transient=%v, want a transient error", m.errorMessage, m.errorTransient)
	}
	if cmd == nil {
		t.Error("expected a clear-error command")
	}
}

func TestLoopShowsProcessing(t *testing.T) {
	m := openedModel(t)
	m, _ = applyUpdate(m, key(KeySpace))

	m, _ = applyUpdate(m, key(KeyLoop))
	if m.state.Mode != player.SentenceLoop {
		t.Fatalf("mode = %v, want loop", m.state.Mode)
	}
	if !m.state.Processing {
		t.Error("loop should be rendering its first segment")
	}
	if !strings.Contains(m.View(), "LOOP") {
		t.Error("view should show the loop badge")
	}

	m, _ = applyUpdate(m, key(KeyFaster))
	if m.state.Speed != 1.25 {
		t.Errorf("speed = %v, want 1.25", m.state.Speed)
	}
}

func TestDictationFlow(t *testing.T) {
	m := openedModel(t)

	m, _ = applyUpdate(m, key(KeyDictation))
	if m.state.Mode != player.Dictation {
		t.Fatalf("mode = %v, want dictation", m.state.Mode)
	}

	// Keys that mean something in the player are typed here.
	m = typeText(m, "firsq")
	m, _ = applyUpdate(m, key(KeyBackspace))
	m = typeText(m, "t.")
	if m.Input() != "first." {
		t.Fatalf("input = %q, want %q", m.Input(), "first.")
	}

	m, _ = applyUpdate(m, key(KeyEnter))
	if m.Input() != "" {
		t.Errorf("input after submit = %q, want empty", m.Input())
	}
	last := m.state.Dictation.Last
	if last == nil || !last.Correct || last.SentenceIndex != 0 {
		t.Fatalf("last attempt = %+v", last)
	}
	if !strings.Contains(m.View(), "1 attempted, 1 correct") {
		t.Errorf("dictation view missing stats:\n%s", m.View())
	}

	m, _ = applyUpdate(m, key(KeyDictNext))
	if m.state.Dictation.Index != 1 {
		t.Errorf("index = %d, want 1", m.state.Dictation.Index)
	}

	m, _ = applyUpdate(m, key(KeyEsc))
	if m.state.Mode != player.Normal {
		t.Errorf("mode after esc = %v, want normal", m.state.Mode)
	}
}

func TestEmptySubmitShowsError(t *testing.T) {
	m := openedModel(t)
	m, _ = applyUpdate(m, key(KeyDictation))

	m, _ = applyUpdate(m, key(KeyEnter))
	if !strings.Contains(m.errorMessage, "empty") {
		t.Errorf("error = %q, want empty transcript error", m.errorMessage)
	}
	if m.state.Dictation.Last != nil {
		t.Error("empty submission should not be recorded")
	}
}

func TestHomeKey(t *testing.T) {
	m := openedModel(t)

	m, cmd := applyUpdate(m, key(KeyHome))
	if m.state.Mode != player.Idle {
		t.Errorf("mode = %v, want idle", m.state.Mode)
	}
	if cmd == nil {
		t.Error("home should reload history")
	}
}

func TestHistoryLoaded(t *testing.T) {
	m := newTestModel(t, Options{})
	m.selected = 5

	played := db.Session{ID: 7, AudioPath: "/a/talk.mp3", Duration: 65, TotalLength: 600, EndedAt: time.Now()}
	m, _ = applyUpdate(m, HistoryLoadedMsg{
		Sessions: []db.Session{played},
		Library: []LibraryEntry{
			{AudioPath: "/a/talk.mp3", SubtitlePath: "/a/talk.srt"},
			{AudioPath: "/a/news.mp3", SubtitlePath: "/s/news.srt"},
		},
	})

	if len(m.entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(m.entries))
	}
	if m.entries[0].Session == nil || m.entries[0].SubtitlePath != "/a/talk.srt" {
		t.Errorf("entries[0] = %+v", m.entries[0])
	}
	if m.entries[1].Session != nil || m.entries[1].Name() != "news" {
		t.Errorf("entries[1] = %+v", m.entries[1])
	}
	if m.selected != 1 {
		t.Errorf("selected = %d, want clamped to 1", m.selected)
	}

	view := m.View()
	if !strings.Contains(view, "talk.mp3") || !strings.Contains(view, "1:05 / 10:00") {
		t.Errorf("home view:\n%s", view)
	}
}

func TestHomeDelete(t *testing.T) {
	hist := &fakeHistory{}
	m := newTestModel(t, Options{History: hist})
	m, _ = applyUpdate(m, HistoryLoadedMsg{Sessions: []db.Session{{ID: 3, AudioPath: "/a/x.mp3"}}})

	_, cmd := applyUpdate(m, key(KeyDelete))
	if cmd == nil {
		t.Fatal("expected delete command")
	}
	msg := cmd()
	if changed, ok := msg.(HistoryChangedMsg); !ok || changed.Err != nil {
		t.Errorf("msg = %#v", msg)
	}
	if len(hist.deleted) != 1 || hist.deleted[0] != 3 {
		t.Errorf("deleted = %v, want [3]", hist.deleted)
	}

	_, cmd = applyUpdate(m, key(KeyClearAll))
	cmd()
	if !hist.cleared {
		t.Error("C should clear all history")
	}
}

func TestTransientErrorClears(t *testing.T) {
	m := newTestModel(t, Options{})
	m.errorMessage = "oops"
	m.errorTransient = true

	m, _ = applyUpdate(m, ClearTransientErrorMsg{})
	if m.errorMessage != "" {
		t.Errorf("error = %q, want cleared", m.errorMessage)
	}
}

func TestStickyErrorSurvivesTransient(t *testing.T) {
	m := newTestModel(t, Options{})
	m.showError("playback stopped", false)
	m.showError("minor", true)

	if m.errorMessage != "playback stopped" {
		t.Errorf("error = %q, want sticky message kept", m.errorMessage)
	}
}

func TestTickServesRemote(t *testing.T) {
	srv, err := remote.Listen(filepath.Join(t.TempDir(), "ctl.sock"))
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer srv.Close()

	m := newTestModel(t, Options{Remote: srv})
	m, _ = applyUpdate(m, OpenReadyMsg{AudioPath: "talk.mp3", Cues: testCues})

	client, err := remote.Connect(srv.Path())
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	defer client.Close()

	type result struct {
		resp remote.Response
		err  error
	}
	done := make(chan result, 1)
	go func() {
		resp, err := client.Call(remote.Command{Cmd: remote.CmdNext})
		done <- result{resp, err}
	}()

	var res result
	deadline := time.After(2 * time.Second)
loop:
	for {
		m, _ = applyUpdate(m, TickMsg(time.Now()))
		select {
		case res = <-done:
			break loop
		case <-deadline:
			t.Fatal("remote command never answered")
		case <-time.After(10 * time.Millisecond):
		}
	}

	if res.err != nil {
		t.Fatalf("next: %v", res.err)
	}
	if res.resp.Status == nil || res.resp.Status.CueIndex != 1 {
		t.Errorf("status = %+v", res.resp.Status)
	}

	m, _ = applyUpdate(m, TickMsg(time.Now()))
	if st := srv.Status(); st.Mode != "normal" || st.CueIndex != 1 {
		t.Errorf("published status = %+v", st)
	}
}

func TestSubtitleToggle(t *testing.T) {
	m := openedModel(t)
	if !strings.Contains(m.View(), "First.") {
		t.Fatal("current sentence should be shown")
	}

	m, _ = applyUpdate(m, key(KeySubtitles))
	view := m.View()
	if strings.Contains(view, "First.") || strings.Contains(view, "Second sentence.") {
		t.Error("hidden subtitles should not show cue text")
	}
	if !strings.Contains(view, "subtitles hidden") {
		t.Error("view should say subtitles are hidden")
	}

	// Navigation still works while hidden.
	m, _ = applyUpdate(m, key(KeyDown))
	if m.state.CueIndex != 1 {
		t.Errorf("cue index = %d, want 1", m.state.CueIndex)
	}

	m, _ = applyUpdate(m, key(KeySubtitles))
	if !strings.Contains(m.View(), "Second sentence.") {
		t.Error("subtitles should be shown again")
	}
}

func TestOpenMeasuresOffLoop(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "talk.mp3")
	sub := filepath.Join(dir, "talk.srt")
	if err := os.WriteFile(audio, []byte("ID3"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(sub, []byte("1\n00:00:01,000 --> 00:00:02,000\nHello.\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	var measured []string
	measure := func(path string) (float64, error) {
		measured = append(measured, path)
		return 33, nil
	}
	msg := openCmd(audio, "", "", measure)()
	ready, ok := msg.(OpenReadyMsg)
	if !ok {
		t.Fatalf("msg = %#v, want OpenReadyMsg", msg)
	}
	if ready.Length != 33 || len(measured) != 1 || ready.SubtitlePath != sub {
		t.Errorf("ready = %+v, measured %v", ready, measured)
	}

	m := newTestModel(t, Options{})
	m, _ = applyUpdate(m, ready)
	if m.state.Mode != player.Normal || m.state.Total != 33 {
		t.Errorf("mode=%v total=%v, want normal and the measured 33", m.state.Mode, m.state.Total)
	}

	failing := func(string) (float64, error) { return 0, errors.New("ffprobe: invalid data") }
	if msg, ok := openCmd(audio, sub, "", failing)().(OpenErrorMsg); !ok {
		t.Errorf("msg = %#v, want OpenErrorMsg", msg)
	}
}

func applyUpdate(m Model, msg tea.Msg) (Model, tea.Cmd) {
	newModel, cmd := m.Update(msg)
	return newModel.(Model), cmd
}
