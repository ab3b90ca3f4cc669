package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScorePair(t *testing.T) {
	cases := []struct {
		name     string
		pos1     []int
		pos2     []int
		sameTerm bool
		want     float64
	}{
		{"cats and fish", []int{0, 3}, []int{2, 5}, false, 0.75},
		{"same term forces proximity one", []int{3, 7}, []int{3, 7}, true, 4.0},
		{"single occurrences", []int{4}, []int{9}, false, 5 * 10 * 5},
		{"adjacent at start", []int{0}, []int{1}, false, 2},
		{"distinct terms at same offset", []int{2}, []int{2}, false, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, ScorePair(tc.pos1, tc.pos2, tc.sameTerm), 1e-9)
		})
	}
}

func TestScorePairRewardsRarityInversely(t *testing.T) {
	rare := ScorePair([]int{10}, []int{11}, false)
	frequent := ScorePair([]int{10, 20, 30, 40}, []int{11, 21, 31, 41}, false)
	assert.Greater(t, rare, frequent)
}

func TestResultEntryLess(t *testing.T) {
	low := ResultEntry{DocumentID: "a", Score: 1.5}
	high := ResultEntry{DocumentID: "b", Score: 2}
	assert.True(t, low.Less(high))
	assert.False(t, high.Less(low))
	assert.False(t, low.Less(ResultEntry{DocumentID: "c", Score: 1.5}))
}
