package rank

import (
	"fmt"
	"math"

	"github.com/nao1215/pagerank/internal/graph"
)

// Default solver settings.
const (
	// DefaultThreshold is the largest change of any single page's rank a pass
	// may produce for the solver to consider the ranks converged.
	DefaultThreshold = 0.001

	// DefaultMaxPasses caps the number of passes when ranks do not converge.
	DefaultMaxPasses = 10000
)

// sumTolerance bounds how far a warm-start vector may stray from a total of 1.
const sumTolerance = 1e-6

// Iteration is the result of IterateRank.
type Iteration struct {
	// Ranks is the final rank vector.
	Ranks Vector `json:"ranks"`

	// Passes is the number of synchronous update passes performed.
	Passes int `json:"passes"`

	// Converged is false when the pass cap stopped the solver first.
	Converged bool `json:"converged"`

	// Delta is the largest absolute change of a single page in the last pass.
	Delta float64 `json:"delta"`
}

// IterateOption configures IterateRank.
type IterateOption func(*iterateOptions)

type iterateOptions struct {
	threshold float64
	maxPasses int
	initial   Vector
}

// WithThreshold sets the convergence threshold.
func WithThreshold(threshold float64) IterateOption {
	return func(o *iterateOptions) {
		o.threshold = threshold
	}
}

// WithMaxPasses sets the safety cap on the number of passes.
func WithMaxPasses(n int) IterateOption {
	return func(o *iterateOptions) {
		o.maxPasses = n
	}
}

// WithInitial starts the solver from ranks instead of the uniform vector.
// ranks must cover the corpus, be non-negative and sum to 1.
func WithInitial(ranks Vector) IterateOption {
	return func(o *iterateOptions) {
		o.initial = ranks
	}
}

// IterateRank computes PageRank by repeatedly applying
//
//	rank(p) = (1-d)/n + d * Σ rank(l) / |EffectiveLinks(l)|
//
// over every linker l of p. Every pass reads only the ranks of the previous
// pass. The solver stops at the first pass in which no page's rank changes by
// more than the threshold.
func IterateRank(g *graph.Graph, damping float64, opts ...IterateOption) (*Iteration, error) {
	if err := checkGraph(g); err != nil {
		return nil, err
	}
	if err := checkDamping(damping); err != nil {
		return nil, err
	}

	o := iterateOptions{
		threshold: DefaultThreshold,
		maxPasses: DefaultMaxPasses,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !(o.threshold > 0) {
		return nil, fmt.Errorf("%w: threshold %v must be positive", ErrInvalidParameter, o.threshold)
	}
	if o.maxPasses < 1 {
		return nil, fmt.Errorf("%w: max passes %d must be at least 1", ErrInvalidParameter, o.maxPasses)
	}

	s := newSolver(g, damping)

	ranks := s.uniform()
	if o.initial != nil {
		if err := s.checkVector(o.initial); err != nil {
			return nil, err
		}
		ranks = o.initial.Clone()
	}

	result := &Iteration{Ranks: ranks}
	for result.Passes < o.maxPasses {
		result.Ranks, result.Delta = s.pass(result.Ranks)
		result.Passes++
		if result.Delta <= o.threshold {
			result.Converged = true
			break
		}
	}

	return result, nil
}

// Pass applies one synchronous update to ranks and returns the new vector
// together with the largest change of a single page. ranks is left untouched.
func Pass(g *graph.Graph, ranks Vector, damping float64) (Vector, float64, error) {
	if err := checkGraph(g); err != nil {
		return nil, 0, err
	}
	if err := checkDamping(damping); err != nil {
		return nil, 0, err
	}

	s := newSolver(g, damping)
	if err := s.checkVector(ranks); err != nil {
		return nil, 0, err
	}

	next, delta := s.pass(ranks)
	return next, delta, nil
}

// solver holds the per-graph state shared by all passes.
type solver struct {
	pages   []string
	inbound map[string][]string
	degree  map[string]float64
	damping float64
}

func newSolver(g *graph.Graph, damping float64) *solver {
	s := &solver{
		pages:   g.Pages(),
		inbound: g.Inbound(),
		degree:  make(map[string]float64, g.Len()),
		damping: damping,
	}
	for _, page := range s.pages {
		s.degree[page] = float64(len(g.EffectiveLinks(page)))
	}
	return s
}

func (s *solver) uniform() Vector {
	ranks := make(Vector, len(s.pages))
	for _, page := range s.pages {
		ranks[page] = 1 / float64(len(s.pages))
	}
	return ranks
}

// sigma accumulates the rank flowing into page from its linkers.
func (s *solver) sigma(page string, ranks Vector) float64 {
	var sum float64
	for _, linker := range s.inbound[page] {
		sum += ranks[linker] / s.degree[linker]
	}
	return sum
}

func (s *solver) pass(ranks Vector) (Vector, float64) {
	n := float64(len(s.pages))
	next := make(Vector, len(s.pages))
	var delta float64
	for _, page := range s.pages {
		next[page] = (1-s.damping)/n + s.damping*s.sigma(page, ranks)
		delta = max(delta, math.Abs(next[page]-ranks[page]))
	}
	return next, delta
}

// checkVector verifies that ranks is a probability vector over the corpus.
func (s *solver) checkVector(ranks Vector) error {
	if len(ranks) != len(s.pages) {
		return fmt.Errorf("%w: rank vector has %d pages, corpus has %d", ErrInvalidParameter, len(ranks), len(s.pages))
	}
	for _, page := range s.pages {
		value, ok := ranks[page]
		if !ok {
			return fmt.Errorf("%w: rank vector is missing page %q", ErrInvalidParameter, page)
		}
		if !(value >= 0) {
			return fmt.Errorf("%w: rank of %q is %v", ErrInvalidParameter, page, value)
		}
	}
	if sum := ranks.Sum(); math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("%w: rank vector sums to %v", ErrInvalidParameter, sum)
	}
	return nil
}
