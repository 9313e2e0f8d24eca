package rank

import (
	"math"
	"slices"
)

// Vector maps each page of a corpus to a probability.
// Rank vectors produced by the estimators cover every page and sum to 1.
type Vector map[string]float64

// Distribution is a probability distribution over the next page to visit.
type Distribution = Vector

// Entry is a single page and its value.
type Entry struct {
	Page string  `json:"page"`
	Rank float64 `json:"rank"`
}

// Sum returns the total probability mass of the vector.
func (v Vector) Sum() float64 {
	var sum float64
	for _, page := range v.Pages() {
		sum += v[page]
	}
	return sum
}

// Pages returns the pages of the vector in ascending order.
func (v Vector) Pages() []string {
	pages := make([]string, 0, len(v))
	for page := range v {
		pages = append(pages, page)
	}
	slices.Sort(pages)
	return pages
}

// Sorted returns the entries of the vector ordered by page identifier.
func (v Vector) Sorted() []Entry {
	entries := make([]Entry, 0, len(v))
	for _, page := range v.Pages() {
		entries = append(entries, Entry{Page: page, Rank: v[page]})
	}
	return entries
}

// Top returns the k highest ranked entries, ties broken by page identifier.
// k <= 0 or k > len(v) returns every entry.
func (v Vector) Top(k int) []Entry {
	entries := v.Sorted()
	slices.SortStableFunc(entries, func(a, b Entry) int {
		switch {
		case a.Rank > b.Rank:
			return -1
		case a.Rank < b.Rank:
			return 1
		default:
			return 0
		}
	})
	if k <= 0 || k > len(entries) {
		return entries
	}
	return entries[:k]
}

// Clone returns an independent copy of the vector.
func (v Vector) Clone() Vector {
	c := make(Vector, len(v))
	for page, value := range v {
		c[page] = value
	}
	return c
}

// Distance returns the L1 distance between two vectors.
// Pages missing from one side count as 0.
func Distance(a, b Vector) float64 {
	var d float64
	for page, value := range a {
		d += math.Abs(value - b[page])
	}
	for page, value := range b {
		if _, ok := a[page]; !ok {
			d += math.Abs(value)
		}
	}
	return d
}

// MaxDiff returns the largest absolute per-page difference between two vectors.
func MaxDiff(a, b Vector) float64 {
	var m float64
	for page, value := range a {
		m = math.Max(m, math.Abs(value-b[page]))
	}
	for page, value := range b {
		if _, ok := a[page]; !ok {
			m = math.Max(m, math.Abs(value))
		}
	}
	return m
}
