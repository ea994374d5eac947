// Package mcpserver exposes listening history and dictation results to MCP
// clients over stdio.
package mcpserver

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/jssdwang06/listening-master/internal/db"
)

// Store is the read side of the history database.
type Store interface {
	Sessions() ([]db.Session, error)
	Session(audioPath string) (*db.Session, error)
	AttemptsFor(audioPath string) ([]db.Attempt, error)
	DictationTotals(audioPath string) (db.DictationTotals, error)
}

// New builds an MCP server with the history tools registered.
func New(store Store, version string) *server.MCPServer {
	s := server.NewMCPServer("listening-master", version,
		server.WithToolCapabilities(false),
	)
	h := &handlers{store: store}

	s.AddTool(mcp.NewTool("list_sessions",
		mcp.WithDescription("List every audio file with listening history, most recently played first."),
	), h.listSessions)

	s.AddTool(mcp.NewTool("session_detail",
		mcp.WithDescription("Show listening time and dictation attempts for one audio file."),
		mcp.WithString("audio_path",
			mcp.Required(),
			mcp.Description("Path of the audio file as stored in the history"),
		),
	), h.sessionDetail)

	s.AddTool(mcp.NewTool("dictation_stats",
		mcp.WithDescription("Summarize dictation accuracy for one audio file."),
		mcp.WithString("audio_path",
			mcp.Required(),
			mcp.Description("Path of the audio file as stored in the history"),
		),
	), h.dictationStats)

	return s
}

// Serve runs the server on stdin/stdout until the client disconnects.
func Serve(store Store, version string) error {
	return server.ServeStdio(New(store, version))
}

type handlers struct {
	store Store
}

func (h *handlers) listSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.store.Sessions()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load sessions: %v", err)), nil
	}
	if len(sessions) == 0 {
		return mcp.NewToolResultText("No listening history yet."), nil
	}

	var b strings.Builder
	for i, s := range sessions {
		fmt.Fprintf(&b, "%d. %s\n   path: %s\n   listened %s of %s, last played %s\n",
			i+1, s.Name(), s.AudioPath,
			seconds(s.Duration), seconds(s.TotalLength), humanize.Time(s.EndedAt))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (h *handlers) sessionDetail(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("audio_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	sess, err := h.store.Session(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load session: %v", err)), nil
	}
	if sess == nil {
		return mcp.NewToolResultError(fmt.Sprintf("no history for %s", path)), nil
	}
	attempts, err := h.store.AttemptsFor(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load attempts: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", sess.Name())
	fmt.Fprintf(&b, "first played: %s\n", sess.StartedAt.Format(time.DateTime))
	fmt.Fprintf(&b, "last played:  %s (%s)\n", sess.EndedAt.Format(time.DateTime), humanize.Time(sess.EndedAt))
	fmt.Fprintf(&b, "listened:     %s of %s\n", seconds(sess.Duration), seconds(sess.TotalLength))

	if len(attempts) == 0 {
		b.WriteString("\nNo dictation attempts.\n")
		return mcp.NewToolResultText(b.String()), nil
	}

	fmt.Fprintf(&b, "\nDictation attempts (%d):\n", len(attempts))
	for _, a := range attempts {
		mark := "x"
		if a.Correct {
			mark = "ok"
		}
		fmt.Fprintf(&b, "  [%s] #%d %.0f%%  %q -> %q\n",
			mark, a.SentenceIndex+1, a.Similarity*100, a.Reference, a.Transcript)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (h *handlers) dictationStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := req.RequireString("audio_path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	totals, err := h.store.DictationTotals(path)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("load totals: %v", err)), nil
	}
	if totals.Attempts == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No dictation attempts for %s.", path)), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf(
		"attempts: %d\ncorrect sentences: %d (%.1f%%)\ncharacters: %s of %s correct (%.1f%%)\n",
		totals.Attempts,
		totals.Correct, totals.SentenceAccuracy()*100,
		humanize.Comma(int64(totals.CorrectChars)), humanize.Comma(int64(totals.ReferenceChars)),
		totals.CharAccuracy()*100,
	)), nil
}

func seconds(s float64) string {
	return (time.Duration(s) * time.Second).String()
}
