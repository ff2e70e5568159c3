// Package detector picks the renderer for the current terminal.
package detector

import (
	"os"
	"strings"

	"go.trai.ch/strata/internal/core/domain"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// OutputMode represents the rendering mode for the application.
type OutputMode int

const (
	// ModeAuto automatically detects the appropriate mode.
	ModeAuto OutputMode = iota
	// ModeTUI forces the interactive TUI renderer.
	ModeTUI
	// ModeLinear forces the linear CI renderer.
	ModeLinear
)

// EnvOutput overrides auto-detection when set to one of the ParseMode values.
const EnvOutput = "STRATA_OUTPUT"

func (m OutputMode) String() string {
	switch m {
	case ModeTUI:
		return "tui"
	case ModeLinear:
		return "linear"
	default:
		return "auto"
	}
}

// DetectEnvironment returns the recommended output mode based on the environment.
// Output that is not a terminal, a CI run, and TERM=dumb all select the linear renderer.
func DetectEnvironment() OutputMode {
	if mode, err := ParseMode(os.Getenv(EnvOutput)); err == nil && mode != ModeAuto {
		return mode
	}

	isTTY := term.IsTerminal(int(os.Stdout.Fd()))

	ci := os.Getenv("CI")
	isCI := ci == "true" || ci == "1"

	if !isTTY || isCI || os.Getenv("TERM") == "dumb" {
		return ModeLinear
	}
	return ModeTUI
}

// ParseMode parses a user supplied mode: auto, tui, linear or ci.
func ParseMode(s string) (OutputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ModeAuto, nil
	case "tui":
		return ModeTUI, nil
	case "linear", "ci":
		return ModeLinear, nil
	default:
		return ModeAuto, zerr.With(domain.ErrInvalidOutputMode, "mode", s)
	}
}

// ResolveMode applies the user's flag to the detected mode.
func ResolveMode(autoDetected OutputMode, userFlag string) (OutputMode, error) {
	mode, err := ParseMode(userFlag)
	if err != nil {
		return ModeAuto, err
	}
	if mode == ModeAuto {
		return autoDetected, nil
	}
	return mode, nil
}
