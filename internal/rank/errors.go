package rank

import (
	"errors"
	"fmt"

	"github.com/nao1215/pagerank/internal/graph"
)

// ErrInvalidParameter is returned when an estimator parameter is out of range:
// a damping factor outside (0, 1), a sample count below 1, a non-positive
// convergence threshold, a pass cap below 1, or a missing random source.
var ErrInvalidParameter = errors.New("invalid parameter")

// checkDamping validates the damping factor. NaN is rejected as well.
func checkDamping(damping float64) error {
	if !(damping > 0 && damping < 1) {
		return fmt.Errorf("%w: damping factor %v must be in (0, 1)", ErrInvalidParameter, damping)
	}
	return nil
}

// checkGraph rejects a nil graph. Empty graphs cannot be built by graph.New.
func checkGraph(g *graph.Graph) error {
	if g == nil || g.Len() == 0 {
		return fmt.Errorf("%w: corpus has no pages", graph.ErrInvalidGraph)
	}
	return nil
}
