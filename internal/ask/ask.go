// Package ask implements the interactive yes/no confirmation primitive with
// a non-interactive auto-confirm override.
package ask

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// Interactor prompts the user on the terminal and reads a y/n answer.
// Anything other than an explicit yes counts as no.
type Interactor struct {
	In  io.Reader
	Out io.Writer
}

// NewInteractor returns an Interactor bound to stdin/stderr.
func NewInteractor() *Interactor {
	return &Interactor{In: os.Stdin, Out: os.Stderr}
}

// Confirm asks the question and returns true only on y/yes.
func (i *Interactor) Confirm(prompt string) bool {
	fmt.Fprintf(i.Out, "%s [y/N]: ", prompt)
	reader := bufio.NewReader(i.In)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// AutoConfirm answers every question with a fixed value. Used for
// non-interactive runs and tests.
type AutoConfirm bool

// Confirm returns the pre-set answer.
func (a AutoConfirm) Confirm(string) bool { return bool(a) }
