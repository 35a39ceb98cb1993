package stale

// Refers to a field that no longer exists.
func ArbitraryItem() int { return Item{}.Count }
