package graph

import (
	"errors"
	"slices"
	"testing"
)

// TestNew tests graph construction and validation.
func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("builds sorted pages and links", func(t *testing.T) {
		t.Parallel()

		g, err := New(map[string][]string{
			"c": {"a"},
			"a": {"c", "b"},
			"b": {},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if got := g.Pages(); !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Errorf("expected pages [a b c], got %v", got)
		}
		if got := g.Links("a"); !slices.Equal(got, []string{"b", "c"}) {
			t.Errorf("expected links [b c], got %v", got)
		}
		if g.Len() != 3 {
			t.Errorf("expected 3 pages, got %d", g.Len())
		}
		if g.LinkCount() != 3 {
			t.Errorf("expected 3 links, got %d", g.LinkCount())
		}
	})

	t.Run("collapses duplicate links", func(t *testing.T) {
		t.Parallel()

		g, err := New(map[string][]string{
			"a": {"b", "b", "b"},
			"b": {"a"},
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if g.OutDegree("a") != 1 {
			t.Errorf("expected out-degree 1, got %d", g.OutDegree("a"))
		}
	})

	t.Run("empty corpus returns ErrInvalidGraph", func(t *testing.T) {
		t.Parallel()

		_, err := New(map[string][]string{})
		if !errors.Is(err, ErrInvalidGraph) {
			t.Errorf("expected ErrInvalidGraph, got %v", err)
		}
	})

	t.Run("nil corpus returns ErrInvalidGraph", func(t *testing.T) {
		t.Parallel()

		_, err := New(nil)
		if !errors.Is(err, ErrInvalidGraph) {
			t.Errorf("expected ErrInvalidGraph, got %v", err)
		}
	})

	t.Run("self link returns ErrInvalidGraph", func(t *testing.T) {
		t.Parallel()

		_, err := New(map[string][]string{"a": {"a"}})
		if !errors.Is(err, ErrInvalidGraph) {
			t.Errorf("expected ErrInvalidGraph, got %v", err)
		}
	})

	t.Run("link outside corpus returns ErrInvalidGraph", func(t *testing.T) {
		t.Parallel()

		_, err := New(map[string][]string{"a": {"elsewhere"}})
		if !errors.Is(err, ErrInvalidGraph) {
			t.Errorf("expected ErrInvalidGraph, got %v", err)
		}
	})

	t.Run("does not retain the caller's map", func(t *testing.T) {
		t.Parallel()

		input := map[string][]string{
			"a": {"b"},
			"b": {},
		}
		g, err := New(input)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		input["a"][0] = "zzz"
		input["b"] = append(input["b"], "a")

		if got := g.Links("a"); !slices.Equal(got, []string{"b"}) {
			t.Errorf("graph changed with caller's map: %v", got)
		}
		if !g.IsDangling("b") {
			t.Error("expected b to stay dangling")
		}
	})

	t.Run("returned slices are copies", func(t *testing.T) {
		t.Parallel()

		g, err := New(map[string][]string{"a": {"b"}, "b": {}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		g.Pages()[0] = "mutated"
		g.Links("a")[0] = "mutated"
		g.EffectiveLinks("b")[0] = "mutated"

		if g.Pages()[0] != "a" || g.Links("a")[0] != "b" || g.EffectiveLinks("b")[0] != "a" {
			t.Error("graph state changed through a returned slice")
		}
	})
}

// TestGraphQueries tests membership and degree helpers.
func TestGraphQueries(t *testing.T) {
	t.Parallel()

	g, err := New(map[string][]string{
		"a": {"b"},
		"b": {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !g.Has("a") || g.Has("x") {
		t.Error("Has returned wrong membership")
	}
	if g.Links("x") != nil {
		t.Error("expected nil links for unknown page")
	}
	if !g.IsDangling("b") || g.IsDangling("a") || g.IsDangling("x") {
		t.Error("IsDangling returned wrong result")
	}

	m := g.Map()
	m["a"] = nil
	if g.OutDegree("a") != 1 {
		t.Error("Map returned shared state")
	}
}

// TestEffectiveLinks tests the shared dangling-node policy.
func TestEffectiveLinks(t *testing.T) {
	t.Parallel()

	g, err := New(map[string][]string{
		"a": {"b"},
		"b": {"c"},
		"c": {},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	t.Run("linked page keeps its links", func(t *testing.T) {
		t.Parallel()
		if got := g.EffectiveLinks("a"); !slices.Equal(got, []string{"b"}) {
			t.Errorf("expected [b], got %v", got)
		}
	})

	t.Run("dangling page links to every page including itself", func(t *testing.T) {
		t.Parallel()
		if got := g.EffectiveLinks("c"); !slices.Equal(got, []string{"a", "b", "c"}) {
			t.Errorf("expected [a b c], got %v", got)
		}
	})

	t.Run("unknown page has no links", func(t *testing.T) {
		t.Parallel()
		if got := g.EffectiveLinks("x"); got != nil {
			t.Errorf("expected nil, got %v", got)
		}
	})

	t.Run("inbound includes dangling linkers everywhere", func(t *testing.T) {
		t.Parallel()

		in := g.Inbound()
		want := map[string][]string{
			"a": {"c"},
			"b": {"a", "c"},
			"c": {"b", "c"},
		}
		for page, linkers := range want {
			if !slices.Equal(in[page], linkers) {
				t.Errorf("inbound[%s]: expected %v, got %v", page, linkers, in[page])
			}
		}
	})
}

// TestDigest tests the structural fingerprint.
func TestDigest(t *testing.T) {
	t.Parallel()

	g1, err := New(map[string][]string{"a": {"b", "c"}, "b": {}, "c": {"a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g2, err := New(map[string][]string{"c": {"a"}, "b": {}, "a": {"c", "b", "b"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	g3, err := New(map[string][]string{"a": {"b"}, "b": {}, "c": {"a"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if g1.Digest() != g2.Digest() {
		t.Error("expected equal graphs to share a digest")
	}
	if g1.Digest() == g3.Digest() {
		t.Error("expected different graphs to have different digests")
	}
	if len(g1.Digest()) != 64 {
		t.Errorf("expected 64 hex characters, got %d", len(g1.Digest()))
	}

	t.Run("separator bytes in page names do not collide", func(t *testing.T) {
		t.Parallel()

		// Joined with NUL and newline separators both graphs read
		// "a\x00\x00\nb\x00a\x00\n".
		linked, err := New(map[string][]string{"a\x00": {}, "b": {"a\x00"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		unlinked, err := New(map[string][]string{"a\x00": {}, "b\x00a": {}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if linked.Digest() == unlinked.Digest() {
			t.Error("expected different digests")
		}
	})
}
