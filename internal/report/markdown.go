package report

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/pagerank/internal/model"
	"github.com/nao1215/pagerank/internal/rank"
)

// pieChartPages is the number of top-ranked pages shown in the pie chart.
// The remaining pages are grouped into a single slice.
const pieChartPages = 8

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for documentation and sharing.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the ranking run in Markdown format.
func (w *MarkdownWriter) Write(report *model.RankReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeRanks(md, report)
	w.writePieChart(md, report)
	w.writeAlert(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// WriteConvergence outputs the convergence study in Markdown format.
func (w *MarkdownWriter) WriteConvergence(report *model.ConvergenceReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	md.H1("PageRank Sampling Convergence")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Corpus", "`" + report.Corpus + "`"},
			{"Damping", formatFloat(report.Damping, 2)},
			{"Seed", strconv.FormatUint(report.Seed, 10)},
		},
	})
	md.PlainText("")

	md.H2("Distance to Iteration")
	md.PlainText("")
	rows := make([][]string, len(report.Points))
	for i, p := range report.Points {
		rows[i] = []string{strconv.Itoa(p.Samples), formatFloat(p.Distance, 4), formatFloat(p.MaxDiff, 4)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Samples", "L1 Distance", "Max Difference"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.RankReport) {
	md.H1("PageRank Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run", "`" + report.ID + "`"},
			{"Corpus", "`" + report.Corpus + "`"},
			{"Date", report.DateComputed.Format("2006-01-02 15:04:05 MST")},
			{"Pages", strconv.Itoa(report.Pages)},
			{"Links", strconv.Itoa(report.Links)},
			{"Dangling Pages", strconv.Itoa(report.Dangling)},
			{"Damping", formatFloat(report.Damping, 2)},
			{"Samples", strconv.Itoa(report.Samples)},
			{"Seed", strconv.FormatUint(report.Seed, 10)},
			{"Passes", strconv.Itoa(report.Passes)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.RankReport) string {
	if report.ErrorMessage != "" {
		return "❌ Error - " + report.ErrorMessage
	}
	if report.HasIterated() && !report.Converged {
		return "⚠️ Stopped at pass limit"
	}
	return "✅ Complete"
}

// writeRanks writes one table row per page with both estimates.
func (w *MarkdownWriter) writeRanks(md *markdown.Markdown, report *model.RankReport) {
	md.H2("Ranks")
	md.PlainText("")

	pages := unionPages(report.Sampled, report.Iterated)
	if len(pages) == 0 {
		md.PlainText("No ranks computed.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(pages))
	for i, page := range pages {
		rows[i] = []string{
			"`" + page + "`",
			truncateString(report.Title(page), 40),
			w.cell(report.Sampled, page),
			w.cell(report.Iterated, page),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Page", "Title", fmt.Sprintf("Sampling (n = %d)", report.Samples), "Iteration"},
		Rows:   rows,
	})
	md.PlainText("")
}

// cell formats a rank for a table, or "-" when the vector has none.
func (w *MarkdownWriter) cell(ranks rank.Vector, page string) string {
	value, ok := ranks[page]
	if !ok {
		return "-"
	}
	return formatFloat(value, 4)
}

// writePieChart writes a mermaid pie chart of the iterated ranks.
// Values are in basis points since the chart takes integer values.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.RankReport) {
	ranks := report.Iterated
	if !report.HasIterated() {
		ranks = report.Sampled
	}
	if len(ranks) == 0 {
		return
	}

	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Rank Distribution"),
		piechart.WithShowData(true),
	)

	top := ranks.Top(pieChartPages)
	var shown float64
	for _, e := range top {
		chart.LabelAndIntValue(e.Page, basisPoints(e.Rank))
		shown += e.Rank
	}
	if len(ranks) > len(top) {
		chart.LabelAndIntValue("others", basisPoints(ranks.Sum()-shown))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes a note about how well the two estimates agree.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.RankReport) {
	switch {
	case report.ErrorMessage != "":
		md.Cautionf("The run failed: %s", report.ErrorMessage)
	case report.HasIterated() && !report.Converged:
		md.Warningf(
			"The iterative solver stopped after %d passes without converging (last change %s).",
			report.Passes, formatFloat(report.Delta, 6),
		)
	case report.HasSampled() && report.HasIterated():
		md.Note(fmt.Sprintf(
			"Sampling and iteration differ by %s in total (L1), at most %s for a single page.",
			formatFloat(report.Distance, 4), formatFloat(report.MaxDiff, 4),
		))
	default:
		md.Tip("Only one estimator ran.")
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagerank](https://github.com/nao1215/pagerank)*")
}

// basisPoints converts a probability to hundredths of a percent.
func basisPoints(p float64) uint64 {
	if p <= 0 {
		return 0
	}
	return uint64(math.Round(p * 10000))
}

// formatFloat formats f with a fixed number of decimals.
func formatFloat(f float64, decimals int) string {
	return strconv.FormatFloat(f, 'f', decimals, 64)
}

// truncateString truncates a string to maxLen characters with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
