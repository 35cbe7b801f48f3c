// Package search provides weighted fuzzy search over the question bank.
package search

import (
	"math"
	"sort"
	"strings"

	"github.com/dsjohal14/studybank/internal/scope/bank"
)

const (
	// DefaultThreshold is the highest per-field distance that still counts as a match
	DefaultThreshold = 0.38

	// MinMatchRunes is the shortest query that is matched at all
	MinMatchRunes = 2

	// DefaultLimit caps the number of ranked hits
	DefaultLimit = 200

	// NeutralScore tags every hit of an empty query
	NeutralScore = 1.0

	// minFieldDistance floors a match found inside a longer field
	minFieldDistance = 0.001

	epsilon = 2.220446049250313e-16
)

// Field is a weighted, searchable question attribute
type Field struct {
	Name   string
	Weight float64
	Value  func(q bank.Question) string
}

// DefaultFields are the indexed attributes and their weights
var DefaultFields = []Field{
	{Name: "stem", Weight: 0.65, Value: func(q bank.Question) string { return q.Stem }},
	{Name: "standardAnswer", Weight: 0.20, Value: func(q bank.Question) string { return q.StandardAnswer }},
	{Name: "module", Weight: 0.10, Value: func(q bank.Question) string { return q.Module }},
	{Name: "number", Weight: 0.05, Value: func(q bank.Question) string { return q.Number }},
}

// Hit is a ranked question. Score is a relevance in [0,1], higher is better.
type Hit struct {
	Question bank.Question
	Score    float64
}

type fieldText struct {
	runes []rune
	lower string
	norm  float64
}

// Index is an immutable fuzzy index, safe for concurrent Search calls
type Index struct {
	questions []bank.Question
	texts     [][]fieldText
	weights   []float64
	threshold float64
	limit     int
}

// Option configures an Index
type Option func(*indexConfig)

type indexConfig struct {
	fields    []Field
	threshold float64
	limit     int
}

// WithThreshold sets the match threshold (lower is stricter)
func WithThreshold(th float64) Option {
	return func(c *indexConfig) {
		c.threshold = th
	}
}

// WithLimit sets the result cap
func WithLimit(n int) Option {
	return func(c *indexConfig) {
		c.limit = n
	}
}

// WithFields replaces the indexed fields
func WithFields(fields []Field) Option {
	return func(c *indexConfig) {
		c.fields = fields
	}
}

// NewIndex builds an index over questions, keeping their order
func NewIndex(questions []bank.Question, opts ...Option) *Index {
	cfg := indexConfig{
		fields:    DefaultFields,
		threshold: DefaultThreshold,
		limit:     DefaultLimit,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	var total float64
	for _, f := range cfg.fields {
		total += f.Weight
	}
	weights := make([]float64, len(cfg.fields))
	for i, f := range cfg.fields {
		if total > 0 {
			weights[i] = f.Weight / total
		}
	}

	ix := &Index{
		questions: make([]bank.Question, len(questions)),
		texts:     make([][]fieldText, len(questions)),
		weights:   weights,
		threshold: cfg.threshold,
		limit:     cfg.limit,
	}
	copy(ix.questions, questions)

	for i, q := range ix.questions {
		row := make([]fieldText, len(cfg.fields))
		for j, f := range cfg.fields {
			row[j] = newFieldText(f.Value(q))
		}
		ix.texts[i] = row
	}

	return ix
}

func newFieldText(value string) fieldText {
	tokens := len(strings.FieldsFunc(value, func(r rune) bool { return r == ' ' }))
	if tokens == 0 {
		return fieldText{}
	}
	norm := math.Round(1/math.Sqrt(float64(tokens))*1000) / 1000
	lower := strings.ToLower(value)
	return fieldText{runes: []rune(lower), lower: lower, norm: norm}
}

// Len returns the number of indexed questions
func (ix *Index) Len() int {
	return len(ix.questions)
}

// Search returns hits ordered by non-increasing score.
// An empty or whitespace query returns every question in insertion order
// with NeutralScore.
func (ix *Index) Search(query string) []Hit {
	query = strings.TrimSpace(query)
	if query == "" {
		hits := make([]Hit, len(ix.questions))
		for i, q := range ix.questions {
			hits[i] = Hit{Question: q, Score: NeutralScore}
		}
		return hits
	}

	lowered := strings.ToLower(query)
	pattern := []rune(lowered)
	if len(pattern) < MinMatchRunes {
		return []Hit{}
	}

	type scored struct {
		idx   int
		total float64
	}

	m := float64(len(pattern))
	scratch := make([]int, len(pattern)+1)
	matches := make([]scored, 0)

	for i, row := range ix.texts {
		total := 1.0
		matched := false
		for j, ft := range row {
			if len(ft.runes) == 0 || ix.weights[j] == 0 {
				continue
			}
			d := float64(substringDistance(pattern, ft.runes, scratch)) / m
			if d > ix.threshold {
				continue
			}
			matched = true
			// only a query equal to the whole field scores as a perfect match
			if ft.lower == lowered {
				d = epsilon
			} else if d < minFieldDistance {
				d = minFieldDistance
			}
			total *= math.Pow(d, ix.weights[j]*ft.norm)
		}
		if matched {
			matches = append(matches, scored{idx: i, total: total})
		}
	}

	sort.SliceStable(matches, func(a, b int) bool {
		return matches[a].total < matches[b].total
	})

	if ix.limit > 0 && len(matches) > ix.limit {
		matches = matches[:ix.limit]
	}

	hits := make([]Hit, len(matches))
	for i, s := range matches {
		hits[i] = Hit{Question: ix.questions[s.idx], Score: 1 - s.total}
	}
	return hits
}
