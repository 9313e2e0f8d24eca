package model

import (
	"time"

	"github.com/google/uuid"

	"github.com/nao1215/pagerank/internal/graph"
	"github.com/nao1215/pagerank/internal/rank"
)

// RankReport is the result of one ranking run over a corpus.
// It holds both estimates together with the parameters that produced them,
// so a stored report can be reproduced and compared later.
type RankReport struct {
	// === Run Information ===

	// ID uniquely identifies the run. It is a random UUID.
	ID string `json:"id"`

	// Corpus is the directory the link graph was loaded from.
	Corpus string `json:"corpus"`

	// DateComputed is the timestamp when the run started.
	DateComputed time.Time `json:"date_computed"`

	// === Parameters ===

	// Damping is the probability of following a link rather than jumping.
	Damping float64 `json:"damping"`

	// Samples is the number of random-walk samples.
	Samples int `json:"samples"`

	// Seed is the seed of the random source used by the sampler.
	Seed uint64 `json:"seed"`

	// Threshold is the convergence threshold of the iterative solver.
	Threshold float64 `json:"threshold"`

	// MaxPasses caps the number of solver passes.
	MaxPasses int `json:"max_passes"`

	// === Corpus ===

	// Pages is the number of pages in the corpus.
	Pages int `json:"pages"`

	// Links is the number of links between distinct pages.
	Links int `json:"links"`

	// Dangling is the number of pages without outbound links.
	Dangling int `json:"dangling"`

	// Digest is the SHA3-256 digest of the link graph.
	// Two runs with the same digest ranked the same graph.
	Digest string `json:"digest,omitempty"`

	// Titles maps page names to their HTML titles.
	Titles map[string]string `json:"titles,omitempty"`

	// === Results ===

	// Sampled is the rank vector estimated by random walks.
	Sampled rank.Vector `json:"sampled,omitempty"`

	// Iterated is the rank vector computed by the iterative solver.
	Iterated rank.Vector `json:"iterated,omitempty"`

	// Passes is the number of solver passes performed.
	Passes int `json:"passes"`

	// Converged is false when the solver hit MaxPasses first.
	Converged bool `json:"converged"`

	// Delta is the largest single-page change of the solver's last pass.
	Delta float64 `json:"delta"`

	// Distance is the L1 distance between Sampled and Iterated.
	// It is only meaningful when both vectors are present.
	Distance float64 `json:"distance"`

	// MaxDiff is the largest single-page difference between Sampled and Iterated.
	MaxDiff float64 `json:"max_diff"`

	// === Run State ===

	// Graph is the link graph loaded by the first pipeline step.
	// Later steps rank it. It is not serialized.
	Graph *graph.Graph `json:"-"`

	// PerformedSteps lists the pipeline steps that ran.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// Error contains any error that stopped the run.
	Error error `json:"-"`

	// ErrorMessage is the string representation of Error for serialization.
	ErrorMessage string `json:"error,omitempty"` //nolint:tagliatelle // error is conventional
}

// NewRankReport creates a RankReport for the given corpus with a fresh
// run ID and the current time.
func NewRankReport(corpus string) *RankReport {
	return &RankReport{
		ID:             uuid.NewString(),
		Corpus:         corpus,
		DateComputed:   time.Now(),
		Titles:         make(map[string]string),
		PerformedSteps: make([]string, 0),
	}
}

// AddStep records that a pipeline step ran.
func (r *RankReport) AddStep(name string) {
	r.PerformedSteps = append(r.PerformedSteps, name)
}

// SetError records the error that stopped the run.
func (r *RankReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// HasSampled reports whether the sampler produced a vector.
func (r *RankReport) HasSampled() bool {
	return len(r.Sampled) > 0
}

// HasIterated reports whether the solver produced a vector.
func (r *RankReport) HasIterated() bool {
	return len(r.Iterated) > 0
}

// Compare fills Distance and MaxDiff from the two vectors.
// It does nothing unless both are present.
func (r *RankReport) Compare() {
	if !r.HasSampled() || !r.HasIterated() {
		return
	}
	r.Distance = rank.Distance(r.Sampled, r.Iterated)
	r.MaxDiff = rank.MaxDiff(r.Sampled, r.Iterated)
}

// Title returns the HTML title of page, or the page name when it has none.
func (r *RankReport) Title(page string) string {
	if title, ok := r.Titles[page]; ok && title != "" {
		return title
	}
	return page
}
