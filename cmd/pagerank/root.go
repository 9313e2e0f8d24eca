// Package main provides the entry point for the pagerank CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagerank/internal/config"
)

// NewRootCmd creates the root command for pagerank.
// The root command itself ranks a corpus; the subcommands study and
// inspect rankings.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pagerank <corpus>",
		Short: "Rank the pages of an HTML corpus",
		Long: `pagerank ranks the pages of a directory of HTML files.

Every *.html file directly inside the directory is a page, and every
<a href> to another page of the directory is a link. A page's rank is the
probability that a random surfer is on it: the surfer follows a link with
probability --damping and otherwise jumps to any page.

The ranks are computed twice: by sampling random walks and with an
iterative solver. Both results are printed, sorted by page name.

Examples:
  # Rank a corpus with the default settings
  pagerank corpus

  # Reproducible sampling with more samples
  pagerank -n 100000 -s 42 corpus

  # Markdown report written to a file
  pagerank --markdown -o report/ranks.md corpus

A corpus directory named like a subcommand (converge, history, init,
version) runs that subcommand. Give such a directory as a path instead:
  pagerank ./history`,
		Version:       getVersion(),
		Args:          cobra.ExactArgs(1),
		RunE:          runRankCmd,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().String("log-format", config.LogFormatText,
		"Log format on standard error (text or json)")

	addRankFlags(cmd)

	// Add subcommands
	cmd.AddCommand(NewConvergeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
