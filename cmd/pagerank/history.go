package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/pagerank/internal/config"
	"github.com/nao1215/pagerank/internal/database"
	"github.com/nao1215/pagerank/internal/report"
)

// historyDateFormat is the timestamp layout of history listings.
const historyDateFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command shows ranking runs stored in the database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [corpus]",
		Short: "Show stored ranking runs",
		Long: `History displays ranking runs stored in the database.

Every run of 'pagerank <corpus>' is stored unless --no-save is given.

Examples:
  # List all ranked corpora
  pagerank history --list-corpora

  # List the runs of a corpus
  pagerank history corpus

  # Follow one page across the runs of a corpus
  pagerank history --page 2.html corpus

  # Show a stored run in full
  pagerank history --id 3

  # Show a stored run as JSON
  pagerank history --id 3 --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().BoolP("list-corpora", "L", false,
		"List all corpora in the database")
	cmd.Flags().Int64P("id", "i", 0,
		"Show the stored run with this ID")
	cmd.Flags().StringP("page", "p", "",
		"Show the ranks of one page across the runs of the corpus")
	cmd.Flags().BoolP("json", "j", false,
		"Output a stored run as JSON (with --id)")
	cmd.Flags().String("db-dir", config.XDGDataDir(),
		"Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	listCorpora, err := cmd.Flags().GetBool("list-corpora")
	if err != nil {
		return err
	}
	runID, err := cmd.Flags().GetInt64("id")
	if err != nil {
		return err
	}
	page, err := cmd.Flags().GetString("page")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}

	// Validate arguments before opening the database
	var corpus string
	if !listCorpora && runID == 0 {
		if len(args) == 0 {
			return errors.New("corpus is required (use --list-corpora to see available corpora)")
		}
		corpus, err = filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("invalid corpus path %q: %w", args[0], err)
		}
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	out := cmd.OutOrStdout()

	switch {
	case listCorpora:
		return listRankedCorpora(ctx, out, db)
	case runID != 0:
		return showRun(ctx, out, db, runID, jsonOutput, getVerboseFlag(cmd))
	case page != "":
		return listPageHistory(ctx, out, db, corpus, page)
	default:
		return listRunHistory(ctx, out, db, corpus)
	}
}

// listRankedCorpora lists all corpora that have runs in the database.
func listRankedCorpora(ctx context.Context, out io.Writer, db *database.RankDB) error {
	corpora, err := db.ListCorpora(ctx)
	if err != nil {
		return fmt.Errorf("failed to list corpora: %w", err)
	}

	if len(corpora) == 0 {
		fmt.Fprintln(out, "No ranked corpora found in the database.")
		fmt.Fprintln(out, "\nUse 'pagerank <corpus>' to rank a corpus.")
		return nil
	}

	fmt.Fprintf(out, "Ranked corpora (%d):\n\n", len(corpora))
	for _, corpus := range corpora {
		fmt.Fprintf(out, "  • %s\n", corpus)
	}
	fmt.Fprintln(out, "\nUse 'pagerank history <corpus>' to see the runs of a corpus.")

	return nil
}

// listRunHistory lists all runs of a corpus.
func listRunHistory(ctx context.Context, out io.Writer, db *database.RankDB, corpus string) error {
	runs, err := db.GetHistoryWithMetadata(ctx, corpus)
	if err != nil {
		return fmt.Errorf("failed to get run history: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintf(out, "No run history found for %s\n", corpus)
		return nil
	}

	fmt.Fprintf(out, "Run history for %s (%d runs):\n\n", corpus, len(runs))
	fmt.Fprintf(out, "  %-6s  %-19s  %-7s  %-8s  %-20s  %-8s  %s\n",
		"ID", "Date", "Damping", "Samples", "Seed", "Passes", "Distance")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 88))

	for _, run := range runs {
		passes := fmt.Sprintf("%d", run.Passes)
		if !run.Converged && run.Passes > 0 {
			passes += "*"
		}
		fmt.Fprintf(out, "  %-6d  %-19s  %-7.2f  %-8d  %-20d  %-8s  %.4f\n",
			run.ID,
			run.Timestamp.Format(historyDateFormat),
			run.Damping,
			run.Samples,
			run.Seed,
			passes,
			run.Distance,
		)
	}

	fmt.Fprintln(out, "\n* stopped at the pass limit")
	fmt.Fprintln(out, "Use 'pagerank history --id <id>' to show a run in full.")

	return nil
}

// listPageHistory lists the ranks of one page across the runs of a corpus.
func listPageHistory(ctx context.Context, out io.Writer, db *database.RankDB, corpus, page string) error {
	records, err := db.GetPageHistory(ctx, corpus, page)
	if err != nil {
		return fmt.Errorf("failed to get page history: %w", err)
	}

	if len(records) == 0 {
		fmt.Fprintf(out, "No ranks found for %s in %s\n", page, corpus)
		return nil
	}

	fmt.Fprintf(out, "Ranks of %s in %s (%d runs):\n\n", page, corpus, len(records))
	fmt.Fprintf(out, "  %-6s  %-19s  %-8s  %s\n", "ID", "Date", "Sampling", "Iteration")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 48))

	for _, r := range records {
		fmt.Fprintf(out, "  %-6d  %-19s  %-8s  %s\n",
			r.ID,
			r.Timestamp.Format(historyDateFormat),
			formatNullRank(r.Sampled),
			formatNullRank(r.Iterated),
		)
	}

	return nil
}

// showRun prints a stored run in full.
func showRun(ctx context.Context, out io.Writer, db *database.RankDB, id int64, jsonOutput, verbose bool) error {
	rankReport, err := db.GetReportByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get run %d: %w", id, err)
	}
	if rankReport == nil {
		return fmt.Errorf("run %d not found (use 'pagerank history <corpus>' to see run IDs)", id)
	}

	var w report.Writer
	if jsonOutput {
		w = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	} else {
		w = report.NewSimpleWriter(out, report.WithVerbose(verbose))
	}
	_, err = w.Write(rankReport)
	return err
}

// formatNullRank formats a rank that may be missing.
func formatNullRank(r sql.NullFloat64) string {
	if !r.Valid {
		return "-"
	}
	return fmt.Sprintf("%.4f", r.Float64)
}
