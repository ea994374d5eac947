package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jssdwang06/listening-master/internal/app"
	"github.com/jssdwang06/listening-master/internal/config"
	"github.com/jssdwang06/listening-master/internal/db"
	"github.com/jssdwang06/listening-master/internal/mcpserver"
	"github.com/jssdwang06/listening-master/internal/media"
	"github.com/jssdwang06/listening-master/internal/player"
	"github.com/jssdwang06/listening-master/internal/remote"
	"github.com/jssdwang06/listening-master/internal/resample"
	"github.com/jssdwang06/listening-master/internal/session"
	"github.com/jssdwang06/listening-master/internal/transport"
)

const version = "0.3.0"

const (
	colorReset  = "\033[0m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
)

func warn(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[warn] "+colorReset+msg+"\n", a...)
}

func fail(msg string, a ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[error] "+colorReset+msg+"\n", a...)
}

func usage() {
	fmt.Fprintf(os.Stderr, `listening-master %s

Usage:
  listening-master [run] [-config path] [audio [subtitle]]
  listening-master ctl [-socket path] <command> [argument]
  listening-master mcp [-config path] [-db path]

ctl commands: play pause toggle seek <s> jump <s> next prev loop speed <f>
              dictation exit_dictation submit <text> status subscribe
`, version)
}

func main() {
	args := os.Args[1:]
	sub := "run"
	if len(args) > 0 {
		switch args[0] {
		case "run", "ctl", "mcp":
			sub, args = args[0], args[1:]
		case "help", "-h", "--help":
			usage()
			return
		case "version":
			fmt.Println(version)
			return
		}
	}

	var err error
	switch sub {
	case "run":
		err = runPlayer(args)
	case "ctl":
		err = runCtl(args)
	case "mcp":
		err = runMCP(args)
	}
	if err != nil {
		fail("%v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	warnings, err := cfg.Validate()
	for _, w := range warnings {
		warn("%s", w)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfg.Path(), err)
	}
	return cfg, nil
}

func dbPath(cfg *config.Config) string {
	if cfg.DatabasePath != "" {
		return cfg.DatabasePath
	}
	return db.DefaultDBPath()
}

func socketPath(cfg *config.Config) string {
	if cfg.SocketPath != "" {
		return cfg.SocketPath
	}
	return remote.SocketPath()
}

func logPath(cfg *config.Config) string {
	if cfg.LogFile != "" {
		return cfg.LogFile
	}
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "listening-master", "player.log")
}

func runPlayer(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	configPath := fs.String("config", "", "config file (default "+config.DefaultPath()+")")
	subtitle := fs.String("subtitle", "", "subtitle file for the audio argument")
	fs.Usage = usage
	fs.Parse(args)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	audio := fs.Arg(0)
	if fs.NArg() > 1 && *subtitle == "" {
		*subtitle = fs.Arg(1)
	}
	if audio != "" {
		if audio, err = filepath.Abs(audio); err != nil {
			return err
		}
	}

	// The terminal belongs to the TUI; logs go to a file.
	lp := logPath(cfg)
	if err := os.MkdirAll(filepath.Dir(lp), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile, err := tea.LogToFile(lp, "listening-master")
	if err != nil {
		return fmt.Errorf("open log %s: %w", lp, err)
	}
	defer logFile.Close()
	log.Printf("starting %s, config %s", version, cfg.Path())

	opts := app.Options{
		TickInterval: cfg.TickInterval,
		AudioDir:     cfg.AudioDir,
		SubtitleDir:  cfg.SubtitleDir,
		AudioPath:    audio,
		SubtitlePath: *subtitle,
	}
	popts := player.Options{
		Speeds:           cfg.Speeds,
		DefaultSpeed:     cfg.DefaultSpeed,
		JumpSeconds:      cfg.JumpSeconds,
		CorrectThreshold: cfg.CorrectThreshold,
	}

	// Without the database the player still runs; history is kept in memory
	// for this run only.
	var sessions session.Store
	store, err := db.Open(dbPath(cfg))
	if err != nil {
		warn("history disabled: %v", err)
		log.Printf("history disabled: %v", err)
		sessions = session.NewMemoryStore()
	} else {
		defer store.Close()
		sessions = store
		opts.History = store
		popts.Attempts = store
	}

	backend := media.NewFFPlay(cfg.FFplayPath, cfg.FFprobePath)
	defer backend.Close()
	opts.Measure = backend.Measure

	tr := transport.New(backend)
	tr.Epsilon = cfg.FinishEpsilon.Seconds()

	pool := resample.NewPool(resample.NewFFmpeg(cfg.FFmpegPath, "", cfg.ResampleTimeout), cfg.ResampleWorkers)
	ctrl := player.New(tr, pool, session.New(sessions, nil), popts)
	opts.Controller = ctrl

	srv, err := remote.Listen(socketPath(cfg))
	if err != nil {
		warn("remote control disabled: %v", err)
		log.Printf("remote control disabled: %v", err)
	} else {
		opts.Remote = srv
	}

	p := tea.NewProgram(app.New(opts), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		// The model did not get to shut down itself.
		ctrl.Shutdown()
		if srv != nil {
			srv.Close()
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}

func runCtl(args []string) error {
	fs := flag.NewFlagSet("ctl", flag.ExitOnError)
	configPath := fs.String("config", "", "config file")
	sock := fs.String("socket", "", "control socket (default from config)")
	fs.Usage = usage
	fs.Parse(args)

	if fs.NArg() == 0 {
		usage()
		return errors.New("ctl needs a command")
	}

	path := *sock
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		path = socketPath(cfg)
	}

	cmd, err := buildCommand(fs.Arg(0), fs.Args()[1:])
	if err != nil {
		return err
	}

	client, err := remote.Connect(path)
	if err != nil {
		return fmt.Errorf("%w (is the player running?)", err)
	}
	defer client.Close()

	resp, err := client.Call(cmd)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	if cmd.Cmd != remote.CmdSubscribe {
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	client.Timeout = 0
	for {
		ev, err := client.ReadEvent()
		if err != nil {
			return err
		}
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
}

// buildCommand turns ctl arguments into a remote command.
func buildCommand(name string, rest []string) (remote.Command, error) {
	cmd := remote.Command{Cmd: name}

	number := func() (*float64, error) {
		if len(rest) == 0 {
			return nil, fmt.Errorf("%s needs a number", name)
		}
		f, err := strconv.ParseFloat(rest[0], 64)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		return &f, nil
	}

	var err error
	switch name {
	case remote.CmdSeek:
		cmd.Seconds, err = number()
	case remote.CmdJump:
		if len(rest) > 0 {
			cmd.Seconds, err = number()
		}
	case remote.CmdSpeed:
		cmd.Speed, err = number()
	case remote.CmdSubmit:
		cmd.Text = strings.Join(rest, " ")
		if strings.TrimSpace(cmd.Text) == "" {
			err = errors.New("submit needs text")
		}
	}
	return cmd, err
}

func runMCP(args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	configPath := fs.String("config", "", "config file")
	dbFlag := fs.String("db", "", "history database (default from config)")
	fs.Usage = usage
	fs.Parse(args)

	path := *dbFlag
	if path == "" {
		cfg, err := config.Load(*configPath)
		if err != nil {
			return err
		}
		path = dbPath(cfg)
	}

	// Read-only so a running player keeps writing undisturbed.
	var store *db.Store
	var err error
	if _, statErr := os.Stat(path); statErr == nil {
		store, err = db.OpenReadOnly(path)
	} else {
		store, err = db.Open(path)
	}
	if err != nil {
		return err
	}
	defer store.Close()

	return mcpserver.Serve(store, version)
}
