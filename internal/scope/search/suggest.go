package search

import (
	"strings"

	"github.com/sahilm/fuzzy"
)

// Suggest ranks candidates (module names, typically) against input for
// "did you mean" hints. Exact case-insensitive matches come first.
func Suggest(candidates []string, input string, limit int) []string {
	input = strings.TrimSpace(input)
	if input == "" || len(candidates) == 0 {
		return nil
	}

	var out []string
	for _, c := range candidates {
		if strings.EqualFold(c, input) {
			out = append(out, c)
		}
	}

	lowered := make([]string, len(candidates))
	for i, c := range candidates {
		lowered[i] = strings.ToLower(c)
	}

	for _, match := range fuzzy.Find(strings.ToLower(input), lowered) {
		c := candidates[match.Index]
		if strings.EqualFold(c, input) {
			continue
		}
		out = append(out, c)
	}

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
