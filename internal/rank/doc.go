// Package rank estimates PageRank over a graph.Graph.
//
// It provides two independent estimators built on the same transition model:
//
//   - SampleRank walks the graph at random and counts visits (Monte Carlo).
//   - IterateRank applies the PageRank equation until the ranks stop moving.
//
// Both treat a dangling page as linking to every page of the corpus, through
// graph.(*Graph).EffectiveLinks. Randomness only enters through the Source
// passed to SampleRank, so a seeded Source makes every result reproducible.
//
// # Usage
//
//	sampled, err := rank.SampleRank(g, 0.85, 10000, rank.NewSource(42))
//	if err != nil {
//	    return err
//	}
//	iterated, err := rank.IterateRank(g, 0.85, rank.WithThreshold(0.001))
//	if err != nil {
//	    return err
//	}
//	fmt.Println(rank.Distance(sampled, iterated.Ranks))
package rank
