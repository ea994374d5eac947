// Package remote lets other processes drive a running player over a Unix
// socket using NDJSON: one Command per line in, one Response per line out.
package remote

import "github.com/jssdwang06/listening-master/internal/player"

// Command names.
const (
	CmdPlay          = "play"
	CmdPause         = "pause"
	CmdToggle        = "toggle"
	CmdSeek          = "seek"
	CmdJump          = "jump"
	CmdNext          = "next"
	CmdPrev          = "prev"
	CmdLoop          = "loop"
	CmdSpeed         = "speed"
	CmdDictation     = "dictation"
	CmdExitDictation = "exit_dictation"
	CmdSubmit        = "submit"
	CmdStatus        = "status"
	CmdSubscribe     = "subscribe"
)

// Command is sent from a client to the player.
type Command struct {
	Cmd     string   `json:"cmd"`
	Seconds *float64 `json:"seconds,omitempty"`
	Speed   *float64 `json:"speed,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// Response is returned by the player after processing a command.
type Response struct {
	OK      bool     `json:"ok"`
	Error   string   `json:"error,omitempty"`
	Status  *Status  `json:"status,omitempty"`
	Attempt *Attempt `json:"attempt,omitempty"`
}

// Status is the published player state.
type Status struct {
	Mode       string  `json:"mode"`
	AudioPath  string  `json:"audioPath,omitempty"`
	Position   float64 `json:"position"`
	Total      float64 `json:"total"`
	CueIndex   int     `json:"cueIndex"`
	Current    string  `json:"current,omitempty"`
	Speed      float64 `json:"speed"`
	Playing    bool    `json:"playing"`
	Processing bool    `json:"processing"`
	Listened   float64 `json:"listened"`
}

// Attempt is the graded result of a submit command.
type Attempt struct {
	SentenceIndex int     `json:"sentenceIndex"`
	Similarity    float64 `json:"similarity"`
	Correct       bool    `json:"correct"`
	Reference     string  `json:"reference"`
}

// Event is streamed to subscribed clients each time the state is published.
type Event struct {
	Event  string  `json:"event"`
	Status *Status `json:"status,omitempty"`
}

// StatusFrom converts controller state to its wire form.
func StatusFrom(st player.State) Status {
	return Status{
		Mode:       st.Mode.String(),
		AudioPath:  st.AudioPath,
		Position:   st.Position,
		Total:      st.Total,
		CueIndex:   st.CueIndex,
		Current:    st.Current,
		Speed:      st.Speed,
		Playing:    st.Playing,
		Processing: st.Processing,
		Listened:   st.Listened,
	}
}

// Float64Ptr returns a pointer to f. Convenience for building commands.
func Float64Ptr(f float64) *float64 { return &f }
