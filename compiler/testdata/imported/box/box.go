package box

import "pgregory.net/rapid"

//arb:derive
type Box[k any] struct {
	V k
}

// Pair has a hand-written generator taking its arguments in reverse order.
type Pair[a, b any] struct {
	First  a
	Second b
}

func ArbitraryPair[a, b any](genSecond *rapid.Generator[b], genFirst *rapid.Generator[a]) *rapid.Generator[Pair[a, b]] {
	return rapid.Custom(func(t *rapid.T) Pair[a, b] {
		return Pair[a, b]{First: genFirst.Draw(t, "First"), Second: genSecond.Draw(t, "Second")}
	})
}

// Limited has a generator that is not a derived one.
type Limited struct {
	N int
}

func ArbitraryLimited(limit int) *rapid.Generator[Limited] {
	return rapid.Custom(func(t *rapid.T) Limited {
		return Limited{N: rapid.IntRange(0, limit).Draw(t, "N")}
	})
}
