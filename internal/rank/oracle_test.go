package rank

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"gonum.org/v1/gonum/graph/network"
	"gonum.org/v1/gonum/graph/simple"
)

// TestIterateRankMatchesGonum compares the solver with gonum's PageRank,
// which also spreads dangling nodes uniformly over the whole graph.
func TestIterateRankMatchesGonum(t *testing.T) {
	t.Parallel()

	r := rand.New(rand.NewPCG(11, 12))
	for trial := range 5 {
		links := randomLinks(r, 5+r.IntN(25))
		g := mustGraph(t, links)
		pages := g.Pages()

		id := make(map[string]int64, len(pages))
		dg := simple.NewDirectedGraph()
		for i, page := range pages {
			id[page] = int64(i)
			dg.AddNode(simple.Node(i))
		}
		for _, page := range pages {
			for _, target := range g.Links(page) {
				dg.SetEdge(simple.Edge{F: simple.Node(id[page]), T: simple.Node(id[target])})
			}
		}

		want := network.PageRank(dg, damping, 1e-12)

		got, err := IterateRank(g, damping, WithThreshold(1e-12))
		if err != nil {
			t.Fatalf("trial %d: unexpected error: %v", trial, err)
		}
		if !got.Converged {
			t.Fatalf("trial %d: expected convergence", trial)
		}

		for _, page := range pages {
			checkClose(t, fmt.Sprintf("trial %d page %s", trial, page), want[id[page]], got.Ranks[page], 1e-6)
		}
	}
}
