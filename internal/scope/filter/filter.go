// Package filter narrows question lists by exact-match structured criteria.
package filter

import "github.com/dsjohal14/studybank/internal/scope/bank"

// Criteria holds the structured filters. Zero values mean "any".
type Criteria struct {
	Type   bank.Type
	Module string
}

// IsZero reports whether no filter is set
func (c Criteria) IsZero() bool {
	return c.Type == "" && c.Module == ""
}

// Match reports whether q satisfies every set filter
func (c Criteria) Match(q bank.Question) bool {
	if c.Type != "" && q.Type != c.Type {
		return false
	}
	if c.Module != "" && q.Module != c.Module {
		return false
	}
	return true
}

// Apply keeps the candidates matching c, preserving their order
func Apply(candidates []bank.Question, c Criteria) []bank.Question {
	out := make([]bank.Question, 0, len(candidates))
	for _, q := range candidates {
		if c.Match(q) {
			out = append(out, q)
		}
	}
	return out
}
