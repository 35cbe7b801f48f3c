package search

// substringDistance returns the minimum number of edits needed to turn
// pattern into some substring of text (Sellers' algorithm). Matches may
// start anywhere in text at no cost.
//
// row is scratch space of at least len(pattern)+1 entries.
func substringDistance(pattern, text []rune, row []int) int {
	m := len(pattern)
	if m == 0 {
		return 0
	}
	if len(text) == 0 {
		return m
	}

	// row[i] = edits to match pattern[:i] ending at the current text position
	for i := 0; i <= m; i++ {
		row[i] = i
	}
	best := row[m]

	for _, c := range text {
		diag := row[0] // free start: row[0] stays 0
		for i := 1; i <= m; i++ {
			up := row[i]
			cost := diag
			if pattern[i-1] != c {
				cost++
			}
			if v := up + 1; v < cost {
				cost = v
			}
			if v := row[i-1] + 1; v < cost {
				cost = v
			}
			row[i] = cost
			diag = up
		}
		if row[m] < best {
			best = row[m]
			if best == 0 {
				return 0
			}
		}
	}

	return best
}
