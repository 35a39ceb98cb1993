package arb

import "pgregory.net/rapid"

// MaxFanout caps the length of slices and maps built by SliceDepth and
// MapDepth so recursive structures stay small.
const MaxFanout = 4

// PtrDepth returns a generator of pointers to values of elem. Once remaining
// is exhausted it only yields nil; before that nil is one of the outcomes.
func PtrDepth[E any](remaining int, elem *rapid.Generator[E]) *rapid.Generator[*E] {
	if remaining <= 0 {
		return rapid.Just[*E](nil)
	}
	return rapid.Ptr(elem, true)
}

// SliceDepth returns a generator of slices of at most MaxFanout elements.
// Once remaining is exhausted it only yields nil.
func SliceDepth[E any](remaining int, elem *rapid.Generator[E]) *rapid.Generator[[]E] {
	if remaining <= 0 {
		return rapid.Just[[]E](nil)
	}
	return rapid.SliceOfN(elem, 0, MaxFanout)
}

// MapDepth returns a generator of maps of at most MaxFanout entries.
// Once remaining is exhausted it only yields nil.
func MapDepth[K comparable, V any](remaining int, key *rapid.Generator[K], val *rapid.Generator[V]) *rapid.Generator[map[K]V] {
	if remaining <= 0 {
		return rapid.Just[map[K]V](nil)
	}
	return rapid.MapOfN(key, val, 0, MaxFanout)
}

// Next returns the depth handed to a nested recursive reference. A positive
// limit caps the result, which lets a single field run on a smaller budget.
func Next(remaining, limit int) int {
	next := remaining - 1
	if limit > 0 && next > limit {
		return limit
	}
	return next
}
