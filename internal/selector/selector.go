// Package selector draws questions from a pool while avoiding near
// duplicates.
package selector

import (
	"math/rand/v2"
	"strings"
	"unicode"

	"github.com/goalkeppertanbinh-collab/ontapvathionline/internal/model"
)

// SimilarityThreshold is the Jaccard score above which two question
// bodies count as near duplicates.
const SimilarityThreshold = 0.7

// NewRand returns a deterministic source for the given seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func intN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}

// Shuffle permutes items in place with Fisher-Yates, walking i from the
// last index down to 1 and swapping with j drawn from [0, i]. A nil rng
// uses the global source.
func Shuffle[T any](items []T, rng *rand.Rand) {
	for i := len(items) - 1; i > 0; i-- {
		j := intN(rng, i+1)
		items[i], items[j] = items[j], items[i]
	}
}

type tokenSet map[string]struct{}

func tokens(s string) tokenSet {
	stripped := strings.Map(func(r rune) rune {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) {
			return -1
		}
		return r
	}, strings.ToLower(s))
	set := make(tokenSet)
	for _, w := range strings.Fields(stripped) {
		set[w] = struct{}{}
	}
	return set
}

// jaccard scores two word sets. Two empty sets come from bodies made only
// of punctuation and count as identical.
func jaccard(a, b tokenSet) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	inter := 0
	for w := range a {
		if _, ok := b[w]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// Similarity is the Jaccard index of the word sets of a and b after
// lower-casing and removing punctuation. An empty string scores 0; two
// strings with no words left, such as "?" and "...", score 1.
func Similarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0
	}
	return jaccard(tokens(a), tokens(b))
}

// Select returns min(count, len(pool)) questions. The pool is shuffled,
// then questions are accepted greedily unless their body is more similar
// than SimilarityThreshold to one already accepted. If that leaves the
// result short, it is filled from the remaining questions in shuffled
// order without the similarity check. The pool itself is not modified.
func Select(pool []model.Question, count int, rng *rand.Rand) []model.Question {
	if count <= 0 || len(pool) == 0 {
		return []model.Question{}
	}
	shuffled := make([]model.Question, len(pool))
	copy(shuffled, pool)
	Shuffle(shuffled, rng)

	want := min(count, len(shuffled))
	out := make([]model.Question, 0, want)
	taken := make([]bool, len(shuffled))
	var accepted []tokenSet

	for i, q := range shuffled {
		if len(out) == want {
			break
		}
		if q.Body == "" {
			out = append(out, q)
			taken[i] = true
			continue
		}
		ts := tokens(q.Body)
		similar := false
		for _, prev := range accepted {
			if jaccard(ts, prev) > SimilarityThreshold {
				similar = true
				break
			}
		}
		if similar {
			continue
		}
		out = append(out, q)
		accepted = append(accepted, ts)
		taken[i] = true
	}

	for i, q := range shuffled {
		if len(out) == want {
			break
		}
		if !taken[i] {
			out = append(out, q)
		}
	}
	return out
}
