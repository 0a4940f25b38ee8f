// Package cli implements the kiauh command line.
package cli

import (
	"io"
	"os"

	ghapi "github.com/google/go-github/v72/github"
	"github.com/spf13/cobra"

	"github.com/R3dM0nk3y360/kiauh/internal/runner"
)

// Args contains the configuration for a new kiauh CLI instance.
type Args struct {
	DefaultListFormat string

	Runner runner.Runner
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// GitHub is used for upstream lookups, an anonymous client when nil.
	GitHub *ghapi.Client

	// SetLogger installs the terminal slog handler as the default logger.
	SetLogger bool
}

// NewCommand returns the root cobra Command.
func NewCommand(args *Args) *cobra.Command {
	if args.DefaultListFormat == "" {
		args.DefaultListFormat = "table"
	}

	if args.Runner == nil {
		args.Runner = runner.NewSystem()
	}

	if args.Stdin == nil {
		args.Stdin = os.Stdin
	}

	if args.Stdout == nil {
		args.Stdout = os.Stdout
	}

	if args.Stderr == nil {
		args.Stderr = os.Stderr
	}

	cmd := cmdGlobal{
		args: args,
	}

	return cmd.command()
}
