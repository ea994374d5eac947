package remote

import (
	"fmt"

	"github.com/jssdwang06/listening-master/internal/dictation"
	"github.com/jssdwang06/listening-master/internal/player"
)

// Target is the part of the controller remote commands can drive.
type Target interface {
	Play() error
	Pause() error
	TogglePlay() error
	Seek(to float64) error
	Jump(delta float64) error
	Next() error
	Prev() error
	ToggleLoop() error
	SetSpeed(f float64) error
	EnterDictation() error
	ExitDictation() error
	SubmitTranscript(text string) (dictation.Attempt, error)
	Snapshot() player.State
}

// Apply runs cmd against t. It must be called from the goroutine that owns t.
func Apply(t Target, cmd Command) Response {
	var err error
	var attempt *Attempt

	switch cmd.Cmd {
	case CmdPlay:
		err = t.Play()
	case CmdPause:
		err = t.Pause()
	case CmdToggle:
		err = t.TogglePlay()
	case CmdSeek:
		if cmd.Seconds == nil {
			return Response{Error: "seek needs seconds"}
		}
		err = t.Seek(*cmd.Seconds)
	case CmdJump:
		var d float64
		if cmd.Seconds != nil {
			d = *cmd.Seconds
		}
		err = t.Jump(d)
	case CmdNext:
		err = t.Next()
	case CmdPrev:
		err = t.Prev()
	case CmdLoop:
		err = t.ToggleLoop()
	case CmdSpeed:
		if cmd.Speed == nil {
			return Response{Error: "speed needs a value"}
		}
		err = t.SetSpeed(*cmd.Speed)
	case CmdDictation:
		err = t.EnterDictation()
	case CmdExitDictation:
		err = t.ExitDictation()
	case CmdSubmit:
		var a dictation.Attempt
		a, err = t.SubmitTranscript(cmd.Text)
		if err == nil {
			attempt = &Attempt{
				SentenceIndex: a.SentenceIndex,
				Similarity:    a.Similarity,
				Correct:       a.Correct,
				Reference:     a.Reference,
			}
		}
	case CmdStatus:
	default:
		return Response{Error: fmt.Sprintf("unknown command %q", cmd.Cmd)}
	}

	st := StatusFrom(t.Snapshot())
	if err != nil {
		return Response{Error: err.Error(), Status: &st}
	}
	return Response{OK: true, Status: &st, Attempt: attempt}
}
