package report

import (
	"io"
	"maps"
	"slices"

	"github.com/nao1215/pagerank/internal/model"
	"github.com/nao1215/pagerank/internal/rank"
)

// Writer defines the interface for report output.
// Implementations write ranking results in various formats.
type Writer interface {
	// Write outputs the result of one ranking run.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.RankReport) (int, error)

	// WriteConvergence outputs a convergence study.
	WriteConvergence(report *model.ConvergenceReport) (int, error)
}

// MultiWriter writes to multiple Writers simultaneously.
// This is useful for outputting to both terminal and file.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.RankReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// WriteConvergence outputs the convergence study to all configured Writers.
func (m *MultiWriter) WriteConvergence(report *model.ConvergenceReport) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.WriteConvergence(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// unionPages returns the pages of all vectors in sorted order.
func unionPages(vectors ...rank.Vector) []string {
	merged := make(map[string]bool)
	for _, v := range vectors {
		for page := range v {
			merged[page] = true
		}
	}
	return slices.Sorted(maps.Keys(merged))
}
