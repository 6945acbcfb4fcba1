package pipeline

import (
	"fmt"
	"strings"
)

// Mode selects the conversion strategy of an invocation.
type Mode int

const (
	// ModeRemote sends the image to the recognition service for LaTeX markup.
	// It is the zero value and therefore the initial mode.
	ModeRemote Mode = iota
	// ModeLocal runs the local OCR engine.
	ModeLocal
	// ModeEncode base64-encodes the image file.
	ModeEncode
)

// Modes lists every mode in display order.
func Modes() []Mode {
	return []Mode{ModeRemote, ModeLocal, ModeEncode}
}

// String returns the command-line name of the mode.
func (m Mode) String() string {
	switch m {
	case ModeRemote:
		return "latex"
	case ModeLocal:
		return "ocr"
	case ModeEncode:
		return "base64"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Label returns the user-facing name of the mode.
func (m Mode) Label() string {
	switch m {
	case ModeRemote:
		return "LaTeX"
	case ModeLocal:
		return "OCR"
	case ModeEncode:
		return "Base64"
	default:
		return m.String()
	}
}

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m >= ModeRemote && m <= ModeEncode
}

// ParseMode accepts the mode names and their aliases, case-insensitively.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "latex", "remote", "":
		return ModeRemote, nil
	case "ocr", "local":
		return ModeLocal, nil
	case "base64", "encode":
		return ModeEncode, nil
	default:
		return ModeRemote, fmt.Errorf("unknown mode %q (want latex, ocr or base64)", s)
	}
}
