package backfill

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"
)

// Confirmer asks the operator to approve an irreversible step.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// AutoConfirm approves without asking, for -yes.
type AutoConfirm struct{}

func (AutoConfirm) Confirm(context.Context, string) (bool, error) { return true, nil }

// ErrNoTerminal is returned when confirmation is required but stdin is not
// interactive.
var ErrNoTerminal = errors.New("confirmation required: stdin is not a terminal (pass -yes)")

// TerminalConfirmer prompts on out and reads the answer from in. Only the
// literal answer "yes" approves.
type TerminalConfirmer struct {
	in         io.Reader
	out        io.Writer
	isTerminal func() bool
}

func NewTerminalConfirmer(in *os.File, out io.Writer) *TerminalConfirmer {
	return &TerminalConfirmer{
		in:         in,
		out:        out,
		isTerminal: func() bool { return term.IsTerminal(int(in.Fd())) },
	}
}

func (c *TerminalConfirmer) Confirm(_ context.Context, prompt string) (bool, error) {
	if !c.isTerminal() {
		return false, ErrNoTerminal
	}

	fmt.Fprintf(c.out, "%s Type 'yes' to continue: ", prompt)

	line, err := bufio.NewReader(c.in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	return strings.TrimSpace(line) == "yes", nil
}
