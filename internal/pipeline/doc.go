// Package pipeline runs a ranking as a sequence of steps over one report.
//
// The default pipeline loads a corpus directory into a link graph, estimates
// ranks with random walks, computes them with the iterative solver and
// records how far apart the two results are. Each stage is a Step that
// receives the current report and fills in its part.
//
// BatchProcessor runs several samplers concurrently on one graph, using
// errgroup for the concurrency limit. The converge command uses it to show
// how the sampled estimate approaches the iterative result.
package pipeline
