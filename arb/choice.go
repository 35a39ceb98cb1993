package arb

import (
	"fmt"
	"math/bits"

	"pgregory.net/rapid"
)

// maxIndexAttempts bounds the rejection loop in index.
const maxIndexAttempts = 32

// Choice is one weighted alternative of a union generator.
type Choice[V any] struct {
	// Weight is the relative selection weight. Zero disables the choice.
	Weight int
	// Recursive marks alternatives that cannot be built without descending
	// into the type being generated. They are excluded once the depth budget
	// is exhausted.
	Recursive bool
	// Gen produces the alternative.
	Gen *rapid.Generator[V]
}

// OneOf returns a generator picking one of choices with probability
// Weight / sum(Weight). It panics if no choice has a positive weight.
//
// Shrinking moves towards earlier choices, so declaration order decides
// which alternative is considered simplest.
func OneOf[V any](choices ...Choice[V]) *rapid.Generator[V] {
	weights := make([]int, len(choices))
	for i, c := range choices {
		weights[i] = c.Weight
	}
	return weighted(choices, weights)
}

// Recursive returns a generator picking one of choices under a depth budget.
//
// remaining is the depth still available and budget the depth the outermost
// call started with. With level = budget - remaining, recursive choices are
// weighted Weight*budget and base choices Weight*(budget+level+1), so base
// choices gain ground as the budget runs out. When remaining <= 0 only base
// choices are eligible. It panics if no eligible choice has a positive weight.
func Recursive[V any](budget, remaining int, choices ...Choice[V]) *rapid.Generator[V] {
	return weighted(choices, depthWeights(budget, remaining, choices))
}

func depthWeights[V any](budget, remaining int, choices []Choice[V]) []int {
	if budget < 0 {
		budget = 0
	}
	level := budget - remaining
	if level < 0 {
		level = 0
	}
	weights := make([]int, len(choices))
	for i, c := range choices {
		switch {
		case c.Weight <= 0:
		case c.Recursive && remaining <= 0:
		case c.Recursive:
			weights[i] = c.Weight * budget
		default:
			weights[i] = c.Weight * (budget + level + 1)
		}
	}
	return weights
}

func weighted[V any](choices []Choice[V], weights []int) *rapid.Generator[V] {
	total := 0
	for _, w := range weights {
		if w > 0 {
			total += w
		}
	}
	if total <= 0 {
		panic(fmt.Sprintf("arb: no positive weight among %d choices", len(choices)))
	}
	return rapid.Custom(func(t *rapid.T) V {
		i := pick(weights, index(t, total))
		return choices[i].Gen.Draw(t, "variant")
	})
}

// pick maps n in [0, sum(weights)) to the choice owning that slot.
func pick(weights []int, n int) int {
	last := -1
	for i, w := range weights {
		if w <= 0 {
			continue
		}
		if n < w {
			return i
		}
		n -= w
		last = i
	}
	return last
}

// index draws an integer uniformly from [0, n) out of fair coin flips.
// rapid's integer generators favour small values, which would skew the
// selection away from Weight / sum(Weight).
func index(t *rapid.T, n int) int {
	if n <= 1 {
		return 0
	}
	width := bits.Len(uint(n - 1))
	u := 0
	for range maxIndexAttempts {
		u = 0
		for range width {
			u <<= 1
			if rapid.Bool().Draw(t, "bit") {
				u |= 1
			}
		}
		if u < n {
			return u
		}
	}
	return u % n
}
