// Package ranker scores documents for a two-term query from the positions at
// which each term occurs.
package ranker

// ResultEntry is one ranked document. Entries order by Score ascending.
type ResultEntry struct {
	DocumentID string  `json:"document_id"`
	Score      float64 `json:"score"`
}

// Less orders result entries by score.
func (r ResultEntry) Less(other ResultEntry) bool {
	return r.Score < other.Score
}

// ScorePair combines the positions of two terms inside one document:
//
//	top       = (first1+1) * (first2+1)
//	freq      = 1/len(pos1) * 1/len(pos2)
//	proximity = min |p1-p2| over every pair, or 1 when sameTerm
//	score     = top * freq * proximity
//
// freq is the inverse of term frequency. Both position slices must be
// non-empty.
func ScorePair(pos1, pos2 []int, sameTerm bool) float64 {
	top := float64(pos1[0]+1) * float64(pos2[0]+1)
	freq := (1 / float64(len(pos1))) * (1 / float64(len(pos2)))
	proximity := 1
	if !sameTerm {
		proximity = minDistance(pos1, pos2)
	}
	return top * freq * float64(proximity)
}

func minDistance(pos1, pos2 []int) int {
	best := -1
	for _, p1 := range pos1 {
		for _, p2 := range pos2 {
			d := p1 - p2
			if d < 0 {
				d = -d
			}
			if best < 0 || d < best {
				best = d
			}
		}
	}
	return best
}
