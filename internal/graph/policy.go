package graph

import "slices"

// EffectiveLinks returns the pages a random surfer on page follows links to.
//
// A dangling page (no outbound links) is treated as linking to every page in
// the corpus, itself included, so its effective out-degree is Len(). Pages
// with links return their real outbound set. This is the single dangling-node
// policy shared by the transition model and the iterative solver.
//
// It returns nil for pages outside the corpus.
func (g *Graph) EffectiveLinks(page string) []string {
	out, ok := g.links[page]
	if !ok {
		return nil
	}
	if len(out) == 0 {
		return slices.Clone(g.pages)
	}
	return slices.Clone(out)
}

// Inbound returns, for every page, the pages whose effective links contain it.
// Dangling pages therefore appear as linkers of every page.
// Linker lists are in ascending order.
func (g *Graph) Inbound() map[string][]string {
	in := make(map[string][]string, len(g.pages))
	for _, page := range g.pages {
		in[page] = nil
	}
	for _, linker := range g.pages {
		for _, target := range g.EffectiveLinks(linker) {
			in[target] = append(in[target], linker)
		}
	}
	return in
}
