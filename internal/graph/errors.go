package graph

import "errors"

// Graph errors. Callers match them with errors.Is; the returned errors wrap
// these values with the offending page names.
var (
	// ErrInvalidGraph is returned when a link graph cannot describe a corpus:
	// it has no pages, a page links to itself, or a link leaves the corpus.
	ErrInvalidGraph = errors.New("invalid graph")

	// ErrInvalidPage is returned when a page is not part of the corpus.
	ErrInvalidPage = errors.New("invalid page")
)
