// Package graph provides the link graph that PageRank estimators consume.
//
// A Graph maps every page of a closed corpus to the set of other corpus pages
// it links to. Graphs are validated and copied on construction and are
// read-only afterwards.
//
// # Dangling pages
//
// A page without outbound links is a dangling page. EffectiveLinks treats it
// as linking to every page of the corpus. Both the transition model and the
// iterative solver in package rank go through EffectiveLinks, so the two
// estimators always agree on how dangling pages distribute their rank.
//
// # Usage
//
//	g, err := graph.New(map[string][]string{
//	    "1.html": {"2.html"},
//	    "2.html": {"1.html", "3.html"},
//	    "3.html": {},
//	})
//	if err != nil {
//	    return err
//	}
//	for _, page := range g.Pages() {
//	    fmt.Println(page, g.EffectiveLinks(page))
//	}
package graph
