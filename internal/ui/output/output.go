// Package output picks the terminal color profile for everything strata prints.
package output

import (
	"io"
	"os"

	"github.com/muesli/termenv"
)

// Profile returns the color profile for output. NO_COLOR always wins. Line-oriented
// output gets plain ANSI so CI log viewers render it; interactive output uses
// whatever the terminal supports.
func Profile(interactive bool) termenv.Profile {
	if os.Getenv("NO_COLOR") != "" {
		return termenv.Ascii
	}
	if !interactive {
		return termenv.ANSI
	}
	return termenv.EnvColorProfile()
}

// New returns an output on w for the interactive views. A nil w writes to stderr.
func New(w io.Writer) *termenv.Output {
	return newOutput(w, true)
}

// Linear returns an output on w for line-oriented build logs. A nil w writes to stderr.
func Linear(w io.Writer) *termenv.Output {
	return newOutput(w, false)
}

func newOutput(w io.Writer, interactive bool) *termenv.Output {
	if w == nil {
		w = os.Stderr
	}
	return termenv.NewOutput(w,
		termenv.WithProfile(Profile(interactive)),
		termenv.WithTTY(interactive),
	)
}
