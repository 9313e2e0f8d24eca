package model

import (
	"slices"

	"github.com/nao1215/pagerank/internal/rank"
)

// ConvergencePoint is the sampler's accuracy at one sample count.
type ConvergencePoint struct {
	// Samples is the number of random-walk samples.
	Samples int `json:"samples"`

	// Distance is the L1 distance to the iterative result.
	Distance float64 `json:"distance"`

	// MaxDiff is the largest single-page difference to the iterative result.
	MaxDiff float64 `json:"max_diff"`
}

// ConvergenceReport shows how the random-walk estimate approaches the
// iterative one as the number of samples grows.
type ConvergenceReport struct {
	// Corpus is the directory the link graph was loaded from.
	Corpus string `json:"corpus"`

	// Damping is the damping factor used by both estimators.
	Damping float64 `json:"damping"`

	// Seed is the seed shared by every sampler run.
	Seed uint64 `json:"seed"`

	// Iterated is the reference vector from the iterative solver.
	Iterated rank.Vector `json:"iterated"`

	// Points holds one entry per sample count, in ascending order.
	Points []ConvergencePoint `json:"points"`
}

// AddPoint records the sampled vector for a sample count.
func (c *ConvergenceReport) AddPoint(samples int, sampled rank.Vector) {
	c.Points = append(c.Points, ConvergencePoint{
		Samples:  samples,
		Distance: rank.Distance(sampled, c.Iterated),
		MaxDiff:  rank.MaxDiff(sampled, c.Iterated),
	})
}

// Sort orders the points by sample count.
func (c *ConvergenceReport) Sort() {
	slices.SortFunc(c.Points, func(a, b ConvergencePoint) int {
		return a.Samples - b.Samples
	})
}
