package backfill

import (
	"flag"
	"io"

	"github.com/dmitrijs2005/itemkeeper/internal/flagx"
)

// Options are the command-line switches of the backfill command.
type Options struct {
	Phase Phase
	Yes   bool
}

var (
	backfillFlags     = []string{"-phase", "--phase", "-yes", "--yes"}
	backfillBoolFlags = []string{"-yes", "--yes"}
)

// ParseFlags reads -phase and -yes from args, ignoring the shared
// configuration flags so both can be given on one command line.
func ParseFlags(args []string) (Options, error) {
	var (
		phase string
		opts  Options
	)

	fs := flag.NewFlagSet("backfill", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&phase, "phase", string(PhaseBackfill), "phase to run: 1, 2 or full")
	fs.BoolVar(&opts.Yes, "yes", false, "skip the interactive confirmation before phase 2")

	if err := fs.Parse(flagx.FilterArgsBool(args, backfillFlags, backfillBoolFlags)); err != nil {
		return Options{}, err
	}

	p, err := ParsePhase(phase)
	if err != nil {
		return Options{}, err
	}
	opts.Phase = p
	return opts, nil
}
