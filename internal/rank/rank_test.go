package rank

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/nao1215/pagerank/internal/graph"
)

const damping = 0.85

// mustGraph builds a graph or fails the test.
func mustGraph(t *testing.T, links map[string][]string) *graph.Graph {
	t.Helper()

	g, err := graph.New(links)
	if err != nil {
		t.Fatalf("failed to build graph: %v", err)
	}
	return g
}

// checkClose reports an error when got is further than tol from want.
func checkClose(t *testing.T, name string, want, got, tol float64) {
	t.Helper()

	if math.Abs(want-got) > tol {
		t.Errorf("%s: expected %v (±%g), got %v", name, want, tol, got)
	}
}

// randomLinks builds a valid random link mapping with n pages.
// Roughly one page in five is dangling.
func randomLinks(r *rand.Rand, n int) map[string][]string {
	pages := make([]string, n)
	for i := range pages {
		pages[i] = fmt.Sprintf("p%02d", i)
	}

	links := make(map[string][]string, n)
	for i, page := range pages {
		links[page] = []string{}
		if r.IntN(5) == 0 {
			continue
		}
		for range 1 + r.IntN(4) {
			j := r.IntN(n)
			if j != i {
				links[page] = append(links[page], pages[j])
			}
		}
	}
	return links
}

// stubSource replays fixed draws.
type stubSource struct {
	ints   []int
	floats []float64
}

func (s *stubSource) IntN(int) int {
	v := s.ints[0]
	s.ints = s.ints[1:]
	return v
}

func (s *stubSource) Float64() float64 {
	v := s.floats[0]
	s.floats = s.floats[1:]
	return v
}

func threePageLoop(t *testing.T) *graph.Graph {
	t.Helper()
	return mustGraph(t, map[string][]string{
		"A": {"B", "C"},
		"B": {"C"},
		"C": {"B"},
	})
}

func chain(t *testing.T) *graph.Graph {
	t.Helper()
	return mustGraph(t, map[string][]string{
		"A": {"B"},
		"B": {"C"},
		"C": {},
	})
}

func TestTransition(t *testing.T) {
	t.Parallel()

	t.Run("linked page splits damping over its links", func(t *testing.T) {
		t.Parallel()

		dist, err := Transition(threePageLoop(t), "A", damping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(dist) != 3 {
			t.Fatalf("expected 3 pages, got %d", len(dist))
		}
		checkClose(t, "A", 0.05, dist["A"], 1e-12)
		checkClose(t, "B", 0.425+0.05, dist["B"], 1e-12)
		checkClose(t, "C", 0.425+0.05, dist["C"], 1e-12)
	})

	t.Run("dangling page is uniform", func(t *testing.T) {
		t.Parallel()

		dist, err := Transition(chain(t), "C", damping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		for _, page := range []string{"A", "B", "C"} {
			checkClose(t, page, 1.0/3.0, dist[page], 1e-15)
		}
	})

	t.Run("sums to one and is non-negative on random graphs", func(t *testing.T) {
		t.Parallel()

		r := rand.New(rand.NewPCG(1, 2))
		for trial := range 20 {
			g := mustGraph(t, randomLinks(r, 2+r.IntN(30)))
			d := 0.05 + 0.9*r.Float64()

			for _, page := range g.Pages() {
				dist, err := Transition(g, page, d)
				if err != nil {
					t.Fatalf("trial %d page %s: unexpected error: %v", trial, page, err)
				}
				if len(dist) != g.Len() {
					t.Fatalf("trial %d page %s: expected %d entries, got %d", trial, page, g.Len(), len(dist))
				}

				for target, p := range dist {
					if p < 0 {
						t.Errorf("trial %d page %s: negative probability %v for %s", trial, page, p, target)
					}
				}
				checkClose(t, fmt.Sprintf("trial %d page %s sum", trial, page), 1.0, dist.Sum(), 1e-9)
			}
		}
	})

	t.Run("unknown page returns ErrInvalidPage", func(t *testing.T) {
		t.Parallel()

		_, err := Transition(chain(t), "Z", damping)
		if !errors.Is(err, graph.ErrInvalidPage) {
			t.Errorf("expected ErrInvalidPage, got %v", err)
		}
	})

	t.Run("nil graph returns ErrInvalidGraph", func(t *testing.T) {
		t.Parallel()

		_, err := Transition(nil, "A", damping)
		if !errors.Is(err, graph.ErrInvalidGraph) {
			t.Errorf("expected ErrInvalidGraph, got %v", err)
		}
	})

	t.Run("damping out of range returns ErrInvalidParameter", func(t *testing.T) {
		t.Parallel()

		for _, d := range []float64{0, 1, -0.5, 1.5, math.NaN()} {
			_, err := Transition(chain(t), "A", d)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Errorf("damping %v: expected ErrInvalidParameter, got %v", d, err)
			}
		}
	})
}

func TestSampleRank(t *testing.T) {
	t.Parallel()

	t.Run("sums to one", func(t *testing.T) {
		t.Parallel()

		r := rand.New(rand.NewPCG(3, 4))
		for range 5 {
			g := mustGraph(t, randomLinks(r, 2+r.IntN(20)))
			ranks, err := SampleRank(g, damping, 5000, NewSource(r.Uint64()))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if len(ranks) != g.Len() {
				t.Errorf("expected %d pages, got %d", g.Len(), len(ranks))
			}
			checkClose(t, "sum", 1.0, ranks.Sum(), 1e-3)
		}
	})

	t.Run("single page corpus", func(t *testing.T) {
		t.Parallel()

		g := mustGraph(t, map[string][]string{"A": {}})
		ranks, err := SampleRank(g, damping, 1000, NewSource(7))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !maps.Equal(ranks, Vector{"A": 1.0}) {
			t.Errorf("expected {A: 1}, got %v", ranks)
		}
	})

	t.Run("one sample ranks only the start page", func(t *testing.T) {
		t.Parallel()

		src := &stubSource{ints: []int{2}}
		ranks, err := SampleRank(threePageLoop(t), damping, 1, src)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if want := (Vector{"A": 0, "B": 0, "C": 1}); !maps.Equal(ranks, want) {
			t.Errorf("expected %v, got %v", want, ranks)
		}
	})

	t.Run("follows the drawn transitions", func(t *testing.T) {
		t.Parallel()

		// Cumulative weights: A [0.05 0.525 1], B [0.05 0.1 1], C [0.05 0.95 1].
		src := &stubSource{
			ints:   []int{0},
			floats: []float64{0.5, 0.99, 0.01},
		}
		ranks, err := SampleRank(threePageLoop(t), damping, 4, src)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// A → B → C → A
		if want := (Vector{"A": 0.5, "B": 0.25, "C": 0.25}); !maps.Equal(ranks, want) {
			t.Errorf("expected %v, got %v", want, ranks)
		}
	})

	t.Run("equal seeds give equal results", func(t *testing.T) {
		t.Parallel()

		g := chain(t)
		a, err := SampleRank(g, damping, 2000, NewSource(99))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		b, err := SampleRank(g, damping, 2000, NewSource(99))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !maps.Equal(a, b) {
			t.Errorf("expected equal results, got %v and %v", a, b)
		}
	})

	t.Run("invalid parameters", func(t *testing.T) {
		t.Parallel()

		g := chain(t)
		tests := []struct {
			name    string
			g       *graph.Graph
			d       float64
			n       int
			src     Source
			wantErr error
		}{
			{name: "zero samples", g: g, d: damping, n: 0, src: NewSource(1), wantErr: ErrInvalidParameter},
			{name: "negative samples", g: g, d: damping, n: -5, src: NewSource(1), wantErr: ErrInvalidParameter},
			{name: "damping of one", g: g, d: 1, n: 10, src: NewSource(1), wantErr: ErrInvalidParameter},
			{name: "nil source", g: g, d: damping, n: 10, src: nil, wantErr: ErrInvalidParameter},
			{name: "nil graph", g: nil, d: damping, n: 10, src: NewSource(1), wantErr: graph.ErrInvalidGraph},
		}

		for _, tt := range tests {
			_, err := SampleRank(tt.g, tt.d, tt.n, tt.src)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
			}
		}
	})
}

func TestChoose(t *testing.T) {
	t.Parallel()

	cum := []float64{0.1, 0.1, 0.6, 1.0}

	tests := []struct {
		name string
		u    float64
		want int
	}{
		{name: "zero draw picks first page", u: 0, want: 0},
		{name: "skips zero weight page", u: 0.1, want: 2},
		{name: "middle of third bucket", u: 0.3, want: 2},
		{name: "upper end picks last page", u: 0.999, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := choose(cum, tt.u); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestIterateRank(t *testing.T) {
	t.Parallel()

	t.Run("pages with inbound links outrank a page without", func(t *testing.T) {
		t.Parallel()

		result, err := IterateRank(threePageLoop(t), damping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		r := result.Ranks
		if !result.Converged {
			t.Error("expected convergence")
		}
		if r["B"] <= r["A"] || r["C"] <= r["A"] {
			t.Errorf("expected B and C above A, got %v", r)
		}
		checkClose(t, "A", 0.05, r["A"], 1e-9)
		checkClose(t, "B", 0.475, r["B"], DefaultThreshold)
		checkClose(t, "C", 0.475, r["C"], DefaultThreshold)
		checkClose(t, "sum", 1.0, r.Sum(), 1e-6)
	})

	t.Run("single page corpus", func(t *testing.T) {
		t.Parallel()

		result, err := IterateRank(mustGraph(t, map[string][]string{"A": {}}), damping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !result.Converged || result.Passes != 1 {
			t.Errorf("expected convergence after 1 pass, got %d passes (converged %v)", result.Passes, result.Converged)
		}
		checkClose(t, "A", 1.0, result.Ranks["A"], 1e-12)
	})

	t.Run("dangling page in a chain redistributes to everyone", func(t *testing.T) {
		t.Parallel()

		result, err := IterateRank(chain(t), damping, WithThreshold(1e-12))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		r := result.Ranks
		if r["C"] <= r["B"] || r["B"] <= r["A"] {
			t.Errorf("expected C > B > A, got %v", r)
		}

		// C receives from B directly and a third of its own rank back.
		checkClose(t, "C", 0.05+damping*(r["B"]+r["C"]/3), r["C"], 1e-9)
		checkClose(t, "B", 0.05+damping*(r["A"]+r["C"]/3), r["B"], 1e-9)
		checkClose(t, "A", 0.05+damping*(r["C"]/3), r["A"], 1e-9)
	})

	t.Run("sums to one on random graphs", func(t *testing.T) {
		t.Parallel()

		r := rand.New(rand.NewPCG(5, 6))
		for trial := range 20 {
			g := mustGraph(t, randomLinks(r, 1+r.IntN(40)))
			result, err := IterateRank(g, 0.05+0.9*r.Float64())
			if err != nil {
				t.Fatalf("trial %d: unexpected error: %v", trial, err)
			}

			if !result.Converged {
				t.Errorf("trial %d: expected convergence", trial)
			}
			checkClose(t, fmt.Sprintf("trial %d sum", trial), 1.0, result.Ranks.Sum(), 1e-6)
		}
	})

	t.Run("stops at the first pass that moves no page beyond the threshold", func(t *testing.T) {
		t.Parallel()

		g := mustGraph(t, randomLinks(rand.New(rand.NewPCG(80, 80)), 80))

		// Replay the passes one by one from the uniform start.
		prev := make(Vector, g.Len())
		for _, page := range g.Pages() {
			prev[page] = 1 / float64(g.Len())
		}
		want := 0
		for want < DefaultMaxPasses {
			next, _, err := Pass(g, prev, damping)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			want++
			if MaxDiff(next, prev) <= DefaultThreshold {
				break
			}
			prev = next
		}

		result, err := IterateRank(g, damping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Passes != want {
			t.Errorf("expected %d passes, got %d", want, result.Passes)
		}
		if result.Delta > DefaultThreshold {
			t.Errorf("expected last change at most %v, got %v", DefaultThreshold, result.Delta)
		}

		capped, err := IterateRank(g, damping, WithMaxPasses(want))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !capped.Converged {
			t.Errorf("expected convergence with a cap of %d passes", want)
		}
	})

	t.Run("one more pass stays within the threshold", func(t *testing.T) {
		t.Parallel()

		r := rand.New(rand.NewPCG(7, 8))
		graphs := []*graph.Graph{threePageLoop(t), chain(t), mustGraph(t, randomLinks(r, 30))}
		for i, g := range graphs {
			result, err := IterateRank(g, damping)
			if err != nil {
				t.Fatalf("graph %d: unexpected error: %v", i, err)
			}

			next, delta, err := Pass(g, result.Ranks, damping)
			if err != nil {
				t.Fatalf("graph %d: unexpected error: %v", i, err)
			}

			if delta > DefaultThreshold {
				t.Errorf("graph %d: expected change at most %v, got %v", i, DefaultThreshold, delta)
			}
			if diff := MaxDiff(next, result.Ranks); diff > DefaultThreshold {
				t.Errorf("graph %d: expected max difference at most %v, got %v", i, DefaultThreshold, diff)
			}
		}
	})

	t.Run("pass cap stops without convergence", func(t *testing.T) {
		t.Parallel()

		result, err := IterateRank(chain(t), damping, WithThreshold(1e-15), WithMaxPasses(2))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if result.Converged {
			t.Error("expected no convergence")
		}
		if result.Passes != 2 {
			t.Errorf("expected 2 passes, got %d", result.Passes)
		}
		checkClose(t, "sum", 1.0, result.Ranks.Sum(), 1e-9)
	})

	t.Run("warm start from a converged vector needs one pass", func(t *testing.T) {
		t.Parallel()

		g := threePageLoop(t)
		first, err := IterateRank(g, damping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		second, err := IterateRank(g, damping, WithInitial(first.Ranks))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !second.Converged || second.Passes != 1 {
			t.Errorf("expected convergence after 1 pass, got %d passes (converged %v)", second.Passes, second.Converged)
		}
	})

	t.Run("does not modify the initial vector", func(t *testing.T) {
		t.Parallel()

		initial := Vector{"A": 0.2, "B": 0.3, "C": 0.5}
		if _, err := IterateRank(chain(t), damping, WithInitial(initial)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if want := (Vector{"A": 0.2, "B": 0.3, "C": 0.5}); !maps.Equal(initial, want) {
			t.Errorf("initial vector changed: %v", initial)
		}
	})

	t.Run("invalid parameters", func(t *testing.T) {
		t.Parallel()

		g := chain(t)
		tests := []struct {
			name    string
			g       *graph.Graph
			d       float64
			opts    []IterateOption
			wantErr error
		}{
			{name: "zero damping", g: g, d: 0, wantErr: ErrInvalidParameter},
			{name: "zero threshold", g: g, d: damping, opts: []IterateOption{WithThreshold(0)}, wantErr: ErrInvalidParameter},
			{name: "zero passes", g: g, d: damping, opts: []IterateOption{WithMaxPasses(0)}, wantErr: ErrInvalidParameter},
			{name: "short initial vector", g: g, d: damping, opts: []IterateOption{WithInitial(Vector{"A": 1})}, wantErr: ErrInvalidParameter},
			{name: "initial vector above one", g: g, d: damping, opts: []IterateOption{WithInitial(Vector{"A": 0.5, "B": 0.5, "C": 0.5})}, wantErr: ErrInvalidParameter},
			{name: "initial vector with unknown page", g: g, d: damping, opts: []IterateOption{WithInitial(Vector{"A": -0.5, "B": 0.5, "Z": 1})}, wantErr: ErrInvalidParameter},
			{name: "nil graph", g: nil, d: damping, wantErr: graph.ErrInvalidGraph},
		}

		for _, tt := range tests {
			_, err := IterateRank(tt.g, tt.d, tt.opts...)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("%s: expected %v, got %v", tt.name, tt.wantErr, err)
			}
		}
	})
}

func TestPass(t *testing.T) {
	t.Parallel()

	t.Run("updates synchronously", func(t *testing.T) {
		t.Parallel()

		start := Vector{"A": 1.0 / 3, "B": 1.0 / 3, "C": 1.0 / 3}
		next, delta, err := Pass(threePageLoop(t), start, damping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		// Every page reads the uniform start, not values updated earlier in the pass.
		checkClose(t, "A", 0.05, next["A"], 1e-12)
		checkClose(t, "B", 0.05+damping*(1.0/6+1.0/3), next["B"], 1e-12)
		checkClose(t, "C", 0.05+damping*(1.0/6+1.0/3), next["C"], 1e-12)
		checkClose(t, "delta", MaxDiff(start, next), delta, 1e-12)
		if start["A"] != 1.0/3 {
			t.Errorf("start vector changed: %v", start)
		}
	})

	t.Run("reports the largest single-page change", func(t *testing.T) {
		t.Parallel()

		start := Vector{"A": 0.2, "B": 0.3, "C": 0.5}
		next, delta, err := Pass(chain(t), start, damping)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if delta >= Distance(start, next) {
			t.Errorf("expected max change %v below the summed change %v", delta, Distance(start, next))
		}
		checkClose(t, "delta", MaxDiff(start, next), delta, 1e-12)
	})

	t.Run("rejects a vector that does not cover the corpus", func(t *testing.T) {
		t.Parallel()

		_, _, err := Pass(chain(t), Vector{"A": 1}, damping)
		if !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("expected ErrInvalidParameter, got %v", err)
		}
	})
}

func TestSampleRankApproachesIterateRank(t *testing.T) {
	t.Parallel()

	g := mustGraph(t, map[string][]string{
		"1.html": {"2.html"},
		"2.html": {"1.html", "3.html"},
		"3.html": {"2.html", "4.html"},
		"4.html": {"2.html"},
		"5.html": {},
	})

	exact, err := IterateRank(g, damping, WithThreshold(1e-12))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	distance := func(n int) float64 {
		sampled, err := SampleRank(g, damping, n, NewSource(2024))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		return Distance(sampled, exact.Ranks)
	}

	small := distance(100)
	large := distance(100000)

	if large >= small {
		t.Errorf("expected distance to shrink, got %v at 100 and %v at 100000", small, large)
	}
	if large >= 0.03 {
		t.Errorf("expected distance below 0.03 at 100000 samples, got %v", large)
	}
}

func TestVector(t *testing.T) {
	t.Parallel()

	v := Vector{"b": 0.25, "a": 0.25, "c": 0.5}

	if got := v.Pages(); !slices.Equal(got, []string{"a", "b", "c"}) {
		t.Errorf("unexpected pages: %v", got)
	}
	if got := v.Sorted(); !slices.Equal(got, []Entry{{"a", 0.25}, {"b", 0.25}, {"c", 0.5}}) {
		t.Errorf("unexpected sorted entries: %v", got)
	}
	if got := v.Top(2); !slices.Equal(got, []Entry{{"c", 0.5}, {"a", 0.25}}) {
		t.Errorf("unexpected top entries: %v", got)
	}
	if got := v.Top(0); len(got) != 3 {
		t.Errorf("expected Top(0) to return every entry, got %v", got)
	}
	checkClose(t, "sum", 1.0, v.Sum(), 1e-12)

	w := v.Clone()
	w["a"] = 0
	if v["a"] != 0.25 {
		t.Error("Clone shares storage with the original")
	}

	checkClose(t, "distance", 0.5, Distance(v, Vector{"a": 0.25, "b": 0.25, "c": 0.5, "d": 0.5}), 1e-12)
	checkClose(t, "max diff", 0.25, MaxDiff(v, w), 1e-12)
}
