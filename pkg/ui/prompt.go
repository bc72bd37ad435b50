package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirm asks a yes/no question on out and reads the answer from in.
// Anything but y/yes declines.
func Confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s %s ", Yellow(question), Dim("[y/N]"))

	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		fmt.Fprintln(out)
		return false
	}

	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// ConfirmTerminal asks on stdin only when it is an interactive terminal; a
// piped or closed stdin declines without prompting
func ConfirmTerminal(question string) bool {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false
	}
	return Confirm(os.Stdin, os.Stderr, question)
}
