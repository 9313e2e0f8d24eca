// Package report provides report generation and output functionality.
//
// This package contains writers for different output formats:
//   - SimpleWriter: plain text rank listings for terminal display
//   - JSONWriter: structured JSON output for tool integration
//   - MarkdownWriter: tables and a mermaid pie chart for sharing
//
// Report data structures live in the model package; this package only
// renders them. Writers implement the Writer interface, so they can be used
// interchangeably and composed with MultiWriter.
package report
