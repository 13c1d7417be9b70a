package store

import "iter"

// Batches yields consecutive windows of items holding at most size elements.
// A size <= 0 yields items as one batch.
func Batches[T any](items []T, size int) iter.Seq[[]T] {
	return func(yield func([]T) bool) {
		if len(items) == 0 {
			return
		}
		if size <= 0 {
			size = len(items)
		}
		for start := 0; start < len(items); start += size {
			if !yield(items[start:min(start+size, len(items))]) {
				return
			}
		}
	}
}

// Distinct drops zero values and duplicates from in, keeping the first
// occurrence of each value in order. Keyword lists go through it so related
// diagram lookups stay in discovery order.
func Distinct[T comparable](in []T) []T {
	if len(in) == 0 {
		return nil
	}
	var zero T
	seen := make(map[T]struct{}, len(in))
	out := make([]T, 0, len(in))
	for _, v := range in {
		if v == zero {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
