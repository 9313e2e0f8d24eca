package rank

import (
	"fmt"
	"math/rand/v2"
	"sort"

	"github.com/nao1215/pagerank/internal/graph"
)

// Source is the random number generator behind the random-walk estimator.
// *rand.Rand from math/rand/v2 satisfies it.
type Source interface {
	// IntN returns a uniform integer in [0, n).
	IntN(n int) int

	// Float64 returns a uniform float in [0.0, 1.0).
	Float64() float64
}

// NewSource returns a PCG generator seeded with seed.
// Equal seeds produce equal random walks.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// SampleRank estimates PageRank by a random walk of numSamples page visits.
//
// The walk starts on a page chosen uniformly from the corpus, then draws each
// following page from the Transition distribution of the current one. A page's
// rank is the share of visits it received.
func SampleRank(g *graph.Graph, damping float64, numSamples int, src Source) (Vector, error) {
	if err := checkGraph(g); err != nil {
		return nil, err
	}
	if err := checkDamping(damping); err != nil {
		return nil, err
	}
	if numSamples < 1 {
		return nil, fmt.Errorf("%w: sample count %d must be at least 1", ErrInvalidParameter, numSamples)
	}
	if src == nil {
		return nil, fmt.Errorf("%w: random source is nil", ErrInvalidParameter)
	}

	pages := g.Pages()
	visits := make([]int, len(pages))

	current := src.IntN(len(pages))
	visits[current]++

	// Transition is pure, so each page's cumulative weights are built once per walk.
	tables := make(map[int][]float64)
	for i := 1; i < numSamples; i++ {
		cum, ok := tables[current]
		if !ok {
			dist, err := Transition(g, pages[current], damping)
			if err != nil {
				return nil, err
			}
			cum = cumulative(pages, dist)
			tables[current] = cum
		}
		current = choose(cum, src.Float64())
		visits[current]++
	}

	ranks := make(Vector, len(pages))
	for i, page := range pages {
		ranks[page] = float64(visits[i]) / float64(numSamples)
	}
	return ranks, nil
}

// cumulative returns running totals of dist in pages order.
func cumulative(pages []string, dist Distribution) []float64 {
	cum := make([]float64, len(pages))
	var total float64
	for i, page := range pages {
		total += dist[page]
		cum[i] = total
	}
	return cum
}

// choose maps a uniform draw u in [0, 1) onto an index of the cumulative
// weights cum. Zero-weight entries are never selected.
func choose(cum []float64, u float64) int {
	target := u * cum[len(cum)-1]
	i := sort.Search(len(cum), func(i int) bool { return cum[i] > target })
	if i == len(cum) {
		i = len(cum) - 1
	}
	return i
}
