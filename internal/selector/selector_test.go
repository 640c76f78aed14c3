package selector

import (
	"fmt"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

func makePool(bodies ...string) []model.Question {
	pool := make([]model.Question, len(bodies))
	for i, b := range bodies {
		pool[i] = model.Question{ID: fmt.Sprintf("q-%d", i), Body: b}
	}
	return pool
}

func ids(qs []model.Question) []string {
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.ID
	}
	return out
}

func TestSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want float64
	}{
		{"identical", "giải phương trình bậc hai", "giải phương trình bậc hai", 1},
		{"empty left", "", "x", 0},
		{"empty both", "", "", 0},
		{"punctuation ignored", "Tính x, y.", "tính x y", 1},
		{"partial", "a b", "b c", 1.0 / 3.0},
		{"vietnamese words", "Hàm số đồng biến", "hàm số nghịch biến", 0.6},
		{"only punctuation", "?!", "...", 1},
		{"same punctuation", "...", "...", 1},
		{"single mark", "?", "?", 1},
		{"dollar signs", "$$", "$$", 1},
		{"punctuation against words", "...", "tính x", 0},
		{"math symbols", "$x^2 + 1$", "x2 1", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Similarity(tt.a, tt.b), 1e-9)
		})
	}
}

func TestSelectBackfillsPunctuationBodies(t *testing.T) {
	pool := makePool("...", "...", "...")
	got := Select(pool, 3, NewRand(7))
	require.Len(t, got, 3)
	assert.ElementsMatch(t, []string{"q-0", "q-1", "q-2"}, ids(got))
}

func TestSelectEdgeCases(t *testing.T) {
	pool := makePool("a", "b", "c")
	assert.Empty(t, Select(nil, 3, NewRand(1)))
	assert.Empty(t, Select(pool, 0, NewRand(1)))
	assert.Empty(t, Select(pool, -2, NewRand(1)))
	assert.NotNil(t, Select(pool, 0, NewRand(1)))
}

func TestSelectLengthAndMembership(t *testing.T) {
	pool := makePool(
		"tính đạo hàm của hàm số bậc ba",
		"tìm cực trị của hàm số",
		"giải phương trình mũ",
		"tính tích phân từng phần",
		"tìm tiệm cận đứng của đồ thị",
	)
	for _, count := range []int{1, 3, 5, 8} {
		t.Run(fmt.Sprintf("count=%d", count), func(t *testing.T) {
			got := Select(pool, count, NewRand(uint64(count)))
			require.Len(t, got, min(count, len(pool)))

			seen := make(map[string]bool)
			for _, q := range got {
				assert.False(t, seen[q.ID], "duplicate %s", q.ID)
				seen[q.ID] = true
				assert.True(t, slices.ContainsFunc(pool, func(p model.Question) bool { return p == q }))
			}
		})
	}
}

func TestSelectDoesNotMutatePool(t *testing.T) {
	pool := makePool("a", "b", "c", "d")
	before := ids(pool)
	Select(pool, 2, NewRand(7))
	assert.Equal(t, before, ids(pool))
}

func TestSelectPrefersDiverseQuestions(t *testing.T) {
	pool := makePool(
		"cho hàm số y bằng x mũ ba trừ ba x tìm cực đại",
		"cho hàm số y bằng x mũ ba trừ ba x tìm cực tiểu",
		"cho hàm số y bằng x mũ ba trừ ba x tìm cực đại nhé",
		"giải bất phương trình logarit cơ số hai",
		"tính thể tích khối chóp tam giác đều",
	)
	require.Greater(t, Similarity(pool[0].Body, pool[1].Body), SimilarityThreshold)
	require.Greater(t, Similarity(pool[0].Body, pool[2].Body), SimilarityThreshold)

	for seed := uint64(0); seed < 20; seed++ {
		got := Select(pool, 3, NewRand(seed))
		require.Len(t, got, 3)
		assert.Contains(t, ids(got), "q-3", "seed %d", seed)
		assert.Contains(t, ids(got), "q-4", "seed %d", seed)
	}
}

func TestSelectBackfillsNearDuplicates(t *testing.T) {
	pool := makePool("x y z", "x y z", "x y z")
	got := Select(pool, 3, NewRand(3))
	require.Len(t, got, 3)
	assert.ElementsMatch(t, []string{"q-0", "q-1", "q-2"}, ids(got))
}

func TestSelectDeterministicWithSeed(t *testing.T) {
	pool := makePool("a", "b", "c", "d", "e", "f", "g")
	first := Select(pool, 4, NewRand(42))
	second := Select(pool, 4, NewRand(42))
	assert.Equal(t, ids(first), ids(second))
}

func TestShuffleIsPermutation(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7, 8}
	Shuffle(items, NewRand(9))
	sorted := slices.Clone(items)
	slices.Sort(sorted)
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8}, sorted)

	var empty []int
	Shuffle(empty, nil)
	one := []int{1}
	Shuffle(one, nil)
	assert.Equal(t, []int{1}, one)
}
