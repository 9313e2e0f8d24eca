package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pagerank/internal/model"
	"github.com/nao1215/pagerank/internal/rank"
)

// rankFormat prints a single rank: two-space indent, page, four decimals.
const rankFormat = "  %s: %.4f\n"

// SimpleWriter outputs plain text reports.
// Without options the output is exactly the two rank listings, sampled
// first, each sorted by page name.
type SimpleWriter struct {
	baseWriter

	// verbose adds run details after the rank listings.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the ranks of the report in plain text.
func (w *SimpleWriter) Write(report *model.RankReport) (int, error) {
	var sb strings.Builder

	if report.HasSampled() {
		sb.WriteString(fmt.Sprintf("PageRank Results from Sampling (n = %d)\n", report.Samples))
		writeRanks(&sb, report.Sampled)
	}
	if report.HasIterated() {
		sb.WriteString("PageRank Results from Iteration\n")
		writeRanks(&sb, report.Iterated)
	}

	if w.verbose {
		w.writeDetails(&sb, report)
	}
	if report.ErrorMessage != "" {
		sb.WriteString(fmt.Sprintf("Error: %s\n", report.ErrorMessage))
	}

	return w.output.Write([]byte(sb.String()))
}

// WriteConvergence outputs the sampler's distance to the iterative result
// for each sample count.
func (w *SimpleWriter) WriteConvergence(report *model.ConvergenceReport) (int, error) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Sampling Convergence (corpus = %s, damping = %.2f, seed = %d)\n",
		report.Corpus, report.Damping, report.Seed))
	for _, p := range report.Points {
		sb.WriteString(fmt.Sprintf("  n = %d: distance %.4f, max diff %.4f\n", p.Samples, p.Distance, p.MaxDiff))
	}
	sb.WriteString("PageRank Results from Iteration\n")
	writeRanks(&sb, report.Iterated)

	return w.output.Write([]byte(sb.String()))
}

// writeDetails writes the run parameters and solver state.
func (w *SimpleWriter) writeDetails(sb *strings.Builder, report *model.RankReport) {
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Run:        %s\n", report.ID))
	sb.WriteString(fmt.Sprintf("Corpus:     %s (%d pages, %d links, %d dangling)\n",
		report.Corpus, report.Pages, report.Links, report.Dangling))
	sb.WriteString(fmt.Sprintf("Date:       %s\n", report.DateComputed.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Damping:    %.2f\n", report.Damping))
	sb.WriteString(fmt.Sprintf("Seed:       %d\n", report.Seed))

	if report.HasIterated() {
		status := "converged"
		if !report.Converged {
			status = "stopped at pass limit"
		}
		sb.WriteString(fmt.Sprintf("Iteration:  %d passes, %s (delta %.6f)\n", report.Passes, status, report.Delta))
	}
	if report.HasSampled() && report.HasIterated() {
		sb.WriteString(fmt.Sprintf("Distance:   %.4f (max diff %.4f)\n", report.Distance, report.MaxDiff))
	}
}

// writeRanks writes one line per page in page order.
func writeRanks(sb *strings.Builder, ranks rank.Vector) {
	for _, e := range ranks.Sorted() {
		sb.WriteString(fmt.Sprintf(rankFormat, e.Page, e.Rank))
	}
}
