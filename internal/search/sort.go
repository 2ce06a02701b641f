package search

import (
	"sort"

	"github.com/kamusis/tagsuggest/internal/subsume"
)

// RankCandidates scores every candidate as popularity*weight - distance and sorts by
// score (descending). The sort is stable so equal scores keep retrieval order.
func RankCandidates(cands []Candidate, weight float64) {
	for i := range cands {
		cands[i].Score = cands[i].Popularity*weight - float64(cands[i].Distance)
	}
	sort.SliceStable(cands, func(i, j int) bool {
		return cands[i].Score > cands[j].Score
	})
}

// dropDominated keeps cands[i] only if it dominates every later candidate.
// Every candidate must carry its lemma set.
func dropDominated(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for i := range cands {
		keep := true
		for j := i + 1; j < len(cands); j++ {
			if !subsume.Compare(cands[i].lemmas, cands[j].lemmas).Dominates() {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, cands[i])
		}
	}
	return out
}
