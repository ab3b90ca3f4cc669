package pqueue

import (
	"cmp"
	"math/rand"
	"sort"
	"testing"

	apperrors "github.com/Adithya-Monish-Kumar-K/mini-search-engine/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type weight float64

func (w weight) Less(other weight) bool { return w < other }

func drain[T any](t *testing.T, h *MinHeap[T]) []T {
	t.Helper()
	out := make([]T, 0, h.Len())
	for h.Len() > 0 {
		v, err := h.ExtractMin()
		require.NoError(t, err)
		out = append(out, v)
	}
	return out
}

func TestInsertThenDrainIsSorted(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	h := New[weight]()
	for i := 0; i < 500; i++ {
		h.Insert(weight(rng.Intn(100)))
	}
	got := drain(t, h)
	require.Len(t, got, 500)
	assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool { return got[i] < got[j] }))
}

func TestExtractMinOnEmpty(t *testing.T) {
	h := New[weight]()
	_, err := h.ExtractMin()
	assert.ErrorIs(t, err, apperrors.ErrEmptyQueue)

	_, err = h.Peek()
	assert.ErrorIs(t, err, apperrors.ErrEmptyQueue)
}

func TestExtractAfterDrainSignalsEmpty(t *testing.T) {
	h := New[weight]()
	for _, v := range []weight{3, 1, 2} {
		h.Insert(v)
	}
	for i := 0; i < 3; i++ {
		_, err := h.ExtractMin()
		require.NoError(t, err)
	}
	_, err := h.ExtractMin()
	assert.ErrorIs(t, err, apperrors.ErrEmptyQueue)
	assert.Equal(t, 0, h.Len())
}

func TestBuildFromMatchesRepeatedInsert(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	random := make([]weight, 200)
	for i := range random {
		random[i] = weight(rng.Intn(20))
	}
	ascending := []weight{1, 2, 3, 4, 5, 6, 7, 8}
	descending := []weight{8, 7, 6, 5, 4, 3, 2, 1}

	cases := map[string][]weight{
		"empty":      {},
		"single":     {4},
		"duplicates": {5, 5, 5, 1, 1, 5},
		"ascending":  ascending,
		"descending": descending,
		"random":     random,
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			bulk := BuildFrom(input)
			single := New[weight]()
			for _, v := range input {
				single.Insert(v)
			}
			assert.Equal(t, drain(t, single), drain(t, bulk))
		})
	}
}

func TestBuildFromCopiesInput(t *testing.T) {
	input := []weight{9, 3, 5}
	h := BuildFrom(input)
	_, err := h.ExtractMin()
	require.NoError(t, err)
	assert.Equal(t, []weight{9, 3, 5}, input)
}

func TestNewFuncOrdersStrings(t *testing.T) {
	h := BuildFromFunc([]string{"pear", "apple", "fig"}, cmp.Less[string])
	h.Insert("banana")

	top, err := h.Peek()
	require.NoError(t, err)
	assert.Equal(t, "apple", top)
	assert.Equal(t, []string{"apple", "banana", "fig", "pear"}, drain(t, h))
}

func BenchmarkInsertExtract(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	values := make([]weight, 1024)
	for i := range values {
		values[i] = weight(rng.Float64())
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		h := New[weight]()
		for _, v := range values {
			h.Insert(v)
		}
		for h.Len() > 0 {
			_, _ = h.ExtractMin()
		}
	}
}
