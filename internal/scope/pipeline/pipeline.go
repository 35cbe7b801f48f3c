// Package pipeline runs search, filtering and selection for a query context.
package pipeline

import (
	"time"

	"github.com/dsjohal14/studybank/internal/libs/obs"
	"github.com/dsjohal14/studybank/internal/scope/bank"
	"github.com/dsjohal14/studybank/internal/scope/filter"
	"github.com/dsjohal14/studybank/internal/scope/search"
	"github.com/dsjohal14/studybank/internal/scope/selection"
	"github.com/rs/zerolog"
)

// Context is the complete query state of one session.
// ActiveID is "" when nothing is selected.
type Context struct {
	Query    string    `json:"query"`
	Type     bank.Type `json:"type,omitempty"`
	Module   string    `json:"module,omitempty"`
	ActiveID string    `json:"active_id,omitempty"`
}

// Criteria returns the structured filters of the context
func (c Context) Criteria() filter.Criteria {
	return filter.Criteria{Type: c.Type, Module: c.Module}
}

// Result is the outcome of one run
type Result struct {
	Hits          []search.Hit
	ActiveID      string
	ActiveChanged bool
	Total         int // size of the whole bank
}

// Questions returns the hit questions in order
func (r Result) Questions() []bank.Question {
	out := make([]bank.Question, len(r.Hits))
	for i, h := range r.Hits {
		out[i] = h.Question
	}
	return out
}

// Pipeline wires the index to the filter and selection steps
type Pipeline struct {
	index  *search.Index
	logger zerolog.Logger
}

// New creates a pipeline over an index
func New(index *search.Index, logger zerolog.Logger) *Pipeline {
	return &Pipeline{index: index, logger: logger}
}

// Run recomputes the result set for qc and returns it with the updated context
func (p *Pipeline) Run(qc Context) (Result, Context) {
	start := time.Now()

	hits := p.index.Search(qc.Query)

	criteria := qc.Criteria()
	if !criteria.IsZero() {
		kept := make([]search.Hit, 0, len(hits))
		for _, h := range hits {
			if criteria.Match(h.Question) {
				kept = append(kept, h)
			}
		}
		hits = kept
	}

	res := Result{Hits: hits, Total: p.index.Len()}

	// selection runs last, against the final list
	sel := selection.NewController(qc.ActiveID)
	res.ActiveChanged = sel.Reconcile(res.Questions())
	next := qc
	next.ActiveID, _ = sel.Active()
	res.ActiveID = next.ActiveID

	elapsed := time.Since(start)
	obs.SearchTotal.Inc()
	obs.SearchDuration.Observe(elapsed.Seconds())
	obs.SearchResults.Observe(float64(len(hits)))

	p.logger.Debug().
		Str("query", qc.Query).
		Str("type", string(qc.Type)).
		Str("module", qc.Module).
		Int("results", len(hits)).
		Str("active_id", res.ActiveID).
		Dur("elapsed", elapsed).
		Msg("pipeline run")

	return res, next
}

// Select makes id the active question, then re-runs the pipeline.
// The clicked id survives as long as it is in the result set.
func (p *Pipeline) Select(qc Context, id string) (Result, Context) {
	sel := selection.NewController(qc.ActiveID)
	sel.Force(id)
	qc.ActiveID, _ = sel.Active()
	return p.Run(qc)
}
