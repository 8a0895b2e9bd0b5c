package match

import (
	"sort"
)

// Candidate is a property name scored against a column name.
type Candidate struct {
	Name  string
	Score float64
}

// CandidateList is sortable by descending score, then by name.
type CandidateList []Candidate

func (c CandidateList) Len() int      { return len(c) }
func (c CandidateList) Swap(i, j int) { c[i], c[j] = c[j], c[i] }
func (c CandidateList) Less(i, j int) bool {
	if c[i].Score != c[j].Score {
		return c[i].Score > c[j].Score
	}

	return c[i].Name < c[j].Name
}

// MinSuggestionScore is the similarity below which a name is not suggested.
const MinSuggestionScore = 0.5

// RankCandidates scores every property name against name after normalization.
func RankCandidates(name string, properties []string) CandidateList {
	target := NormalizeIdent(name)

	candidates := make(CandidateList, 0, len(properties))
	for _, p := range properties {
		candidates = append(candidates, Candidate{
			Name:  p,
			Score: LevenshteinNormalized(NormalizeIdent(p), target),
		})
	}

	sort.Sort(candidates)

	return candidates
}

// Suggest returns up to n property names resembling name.
func Suggest(name string, properties []string, n int) []string {
	var out []string

	for _, c := range RankCandidates(name, properties) {
		if len(out) == n || c.Score < MinSuggestionScore {
			break
		}

		out = append(out, c.Name)
	}

	return out
}
