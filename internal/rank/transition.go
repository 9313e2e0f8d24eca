package rank

import (
	"fmt"

	"github.com/nao1215/pagerank/internal/graph"
)

// Transition returns the probability distribution over the page a random
// surfer visits after page.
//
// With probability damping the surfer follows one of page's links chosen
// uniformly; otherwise it jumps to any page of the corpus. A dangling page
// links to every page through EffectiveLinks, which yields the uniform
// distribution 1/n. The result covers every page and sums to 1.
func Transition(g *graph.Graph, page string, damping float64) (Distribution, error) {
	if err := checkGraph(g); err != nil {
		return nil, err
	}
	if err := checkDamping(damping); err != nil {
		return nil, err
	}
	if !g.Has(page) {
		return nil, fmt.Errorf("%w: %q is not in the corpus", graph.ErrInvalidPage, page)
	}

	pages := g.Pages()
	n := float64(len(pages))
	dist := make(Distribution, len(pages))

	jump := (1 - damping) / n
	for _, p := range pages {
		dist[p] = jump
	}

	links := g.EffectiveLinks(page)
	follow := damping / float64(len(links))
	for _, target := range links {
		dist[target] += follow
	}

	return dist, nil
}
