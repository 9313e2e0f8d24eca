package graph

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"slices"

	"golang.org/x/crypto/sha3"
)

// Graph is an immutable link graph over a closed corpus of pages.
// Each page maps to the set of other corpus pages it links to.
//
// A Graph is only created through New, which copies and validates its input,
// so estimators can share one Graph without coordinating access.
type Graph struct {
	// pages holds every page identifier in ascending order.
	pages []string

	// links maps each page to its sorted, de-duplicated outbound links.
	links map[string][]string

	// linkCount is the total number of edges in the graph.
	linkCount int
}

// New builds a Graph from a page → outbound links mapping.
//
// The mapping is copied; the caller keeps ownership of it and New never
// modifies it. Duplicate links are collapsed. New returns ErrInvalidGraph
// when the mapping is empty, when a page links to itself, or when a link
// points at a page that is not a key of the mapping.
func New(links map[string][]string) (*Graph, error) {
	if len(links) == 0 {
		return nil, fmt.Errorf("%w: corpus has no pages", ErrInvalidGraph)
	}

	g := &Graph{
		pages: make([]string, 0, len(links)),
		links: make(map[string][]string, len(links)),
	}
	for page := range links {
		g.pages = append(g.pages, page)
	}
	slices.Sort(g.pages)

	for _, page := range g.pages {
		out := make([]string, 0, len(links[page]))
		for _, target := range links[page] {
			if target == page {
				return nil, fmt.Errorf("%w: page %q links to itself", ErrInvalidGraph, page)
			}
			if _, ok := links[target]; !ok {
				return nil, fmt.Errorf("%w: page %q links to %q outside the corpus", ErrInvalidGraph, page, target)
			}
			out = append(out, target)
		}
		slices.Sort(out)
		out = slices.Compact(out)
		g.links[page] = out
		g.linkCount += len(out)
	}

	return g, nil
}

// Len returns the number of pages in the corpus.
func (g *Graph) Len() int {
	return len(g.pages)
}

// LinkCount returns the number of distinct links in the graph.
func (g *Graph) LinkCount() int {
	return g.linkCount
}

// Pages returns every page identifier in ascending order.
func (g *Graph) Pages() []string {
	return slices.Clone(g.pages)
}

// Has reports whether page belongs to the corpus.
func (g *Graph) Has(page string) bool {
	_, ok := g.links[page]
	return ok
}

// Links returns the outbound links of page in ascending order.
// It returns nil for pages outside the corpus.
func (g *Graph) Links(page string) []string {
	out, ok := g.links[page]
	if !ok {
		return nil
	}
	return slices.Clone(out)
}

// OutDegree returns the number of outbound links of page.
func (g *Graph) OutDegree(page string) int {
	return len(g.links[page])
}

// IsDangling reports whether page is in the corpus and has no outbound links.
func (g *Graph) IsDangling(page string) bool {
	out, ok := g.links[page]
	return ok && len(out) == 0
}

// Map returns a copy of the graph as a page → links mapping.
func (g *Graph) Map() map[string][]string {
	m := make(map[string][]string, len(g.links))
	for page, out := range g.links {
		m[page] = slices.Clone(out)
	}
	return m
}

// Digest returns a SHA3-256 fingerprint of the graph structure.
// Two graphs with the same pages and links always share a digest,
// regardless of the order in which they were built. Every name and link
// list is length-prefixed, so page names may contain any byte.
func (g *Graph) Digest() string {
	h := sha3.New256()
	var buf []byte
	for _, page := range g.pages {
		buf = appendString(buf[:0], page)
		buf = binary.BigEndian.AppendUint64(buf, uint64(len(g.links[page])))
		for _, target := range g.links[page] {
			buf = appendString(buf, target)
		}
		h.Write(buf)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func appendString(buf []byte, s string) []byte {
	buf = binary.BigEndian.AppendUint64(buf, uint64(len(s)))
	return append(buf, s...)
}
