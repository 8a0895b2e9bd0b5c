package match

// Levenshtein computes the edit distance between two strings: the minimum
// number of single-byte insertions, deletions or substitutions turning a into b.
//
// Time complexity: O(len(a) * len(b))
// Space complexity: O(min(len(a), len(b))).
func Levenshtein(a, b string) int {
	if a == b {
		return 0
	}

	if len(a) == 0 {
		return len(b)
	}

	if len(b) == 0 {
		return len(a)
	}

	// keep a the shorter one, rows are sized by it
	if len(a) > len(b) {
		a, b = b, a
	}

	// two rows instead of the full matrix
	prev := make([]int, len(a)+1)
	curr := make([]int, len(a)+1)

	// distance from the empty prefix of b
	for i := range prev {
		prev[i] = i
	}

	// fill row by row
	for j := 1; j <= len(b); j++ {
		curr[0] = j

		for i := 1; i <= len(a); i++ {
			cost := 0
			if a[i-1] != b[j-1] {
				cost = 1
			}

			curr[i] = min(
				prev[i]+1,      // deletion
				curr[i-1]+1,    // insertion
				prev[i-1]+cost, // substitution
			)
		}

		prev, curr = curr, prev
	}

	return prev[len(a)]
}

// LevenshteinNormalized maps the distance into a similarity in [0, 1],
// 1 meaning identical: 1 - distance/max(len(a), len(b)).
func LevenshteinNormalized(a, b string) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1.0
	}

	return 1.0 - float64(Levenshtein(a, b))/float64(max(len(a), len(b)))
}
