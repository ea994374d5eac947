package app

// Key binding constants used in the key handlers.
const (
	KeyQuit      = "q"
	KeyQuitUpper = "Q"
	KeyCtrlC     = "ctrl+c"
	KeySpace     = " "
	KeyEnter     = "enter"
	KeyEsc       = "esc"
	KeyUp        = "up"
	KeyDown      = "down"
	KeyLeft      = "left"
	KeyRight     = "right"
	KeyJ         = "j"
	KeyK         = "k"

	// Home
	KeyDelete   = "d"
	KeyClearAll = "C"
	KeyRefresh  = "r"

	// Player
	KeyLoop      = "l"
	KeySlower    = "["
	KeyFaster    = "]"
	KeyDictation = "t"
	KeyHome      = "h"
	KeySubtitles = "s"

	// Dictation
	KeyDictPlay  = "ctrl+p"
	KeyDictNext  = "ctrl+n"
	KeyDictPrev  = "ctrl+b"
	KeyDictReset = "ctrl+r"
	KeyBackspace = "backspace"
)
