package theme

import "os"

// Nerd Font icons
const (
	nerdIconFolder       = "" // oct-file_directory (U+F413)
	nerdIconFolderOpen   = "" // oct-file_directory_open_fill (U+F42C)
	nerdIconFile         = "" // oct-file (U+F4A5)
	nerdIconSuccess      = "󰄬" // md-check (U+F012C)
	nerdIconError        = "" // cod-error (U+EA87)
	nerdIconWarning      = "" // fa-warning (U+F071)
	nerdIconDisconnected = "󰌙" // md-lan_disconnect (U+F0319)
)

// ASCII fallbacks
const (
	asciiIconFolder       = "+"
	asciiIconFolderOpen   = "-"
	asciiIconFile         = " "
	asciiIconSuccess      = "✓"
	asciiIconError        = "✗"
	asciiIconWarning      = "⚠"
	asciiIconDisconnected = "!"
)

// Public icon variables, selected at startup.
var (
	IconFolder       string
	IconFolderOpen   string
	IconFile         string
	IconSuccess      string
	IconError        string
	IconWarning      string
	IconDisconnected string
)

func init() {
	// TREESCOPE_ICONS=ascii opts out of Nerd Font glyphs.
	useASCII := os.Getenv("TREESCOPE_ICONS") == "ascii"

	if useASCII {
		IconFolder = asciiIconFolder
		IconFolderOpen = asciiIconFolderOpen
		IconFile = asciiIconFile
		IconSuccess = asciiIconSuccess
		IconError = asciiIconError
		IconWarning = asciiIconWarning
		IconDisconnected = asciiIconDisconnected
	} else {
		IconFolder = nerdIconFolder
		IconFolderOpen = nerdIconFolderOpen
		IconFile = nerdIconFile
		IconSuccess = nerdIconSuccess
		IconError = nerdIconError
		IconWarning = nerdIconWarning
		IconDisconnected = nerdIconDisconnected
	}
}
