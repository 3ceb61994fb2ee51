package output

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Toaster prints store notifications: successes to out unless quiet,
// failures to errOut as "error: " lines.
type Toaster struct {
	Out    io.Writer
	ErrOut io.Writer
	Quiet  bool
}

// Success implements store.Notifier.
func (t Toaster) Success(msg string) {
	if !t.Quiet {
		fmt.Fprintln(t.Out, msg)
	}
}

// Error implements store.Notifier.
func (t Toaster) Error(msg string) {
	fmt.Fprintf(t.ErrOut, "error: %s\n", msg)
}

// Confirm asks question on out and reads one answer line from in.
// Only "y" and "yes" (any case) confirm. Pass a *bufio.Reader when in is
// read again afterwards; it is reused instead of wrapped.
func Confirm(in io.Reader, out io.Writer, question string) (bool, error) {
	fmt.Fprintf(out, "%s [y/N]: ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
