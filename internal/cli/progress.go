package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Progress shows a spinner while a command works. A quiet progress does
// nothing. The spinner only animates on a terminal; the final line is
// always written.
type Progress struct {
	w io.Writer
	s *spinner.Spinner
}

// StartProgress starts a spinner on w with message as its suffix.
func StartProgress(w io.Writer, message string, quiet bool) *Progress {
	if quiet {
		return &Progress{}
	}
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(w))
	s.Suffix = " " + message
	s.Start()
	return &Progress{w: w, s: s}
}

// Done stops the spinner and prints a success or failure line.
func (p *Progress) Done(ok bool, message string) {
	if p.s == nil {
		return
	}
	p.s.Stop()
	if ok {
		fmt.Fprintln(p.w, FormatSuccess(message))
	} else {
		fmt.Fprintf(p.w, "%s %s\n", text.FgRed.Sprint("❌"), message)
	}
}
