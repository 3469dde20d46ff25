package proptest

// OneOf returns a random element from the provided values.
// Panics if values is empty.
func OneOf[T any](g *Generator, values ...T) T {
	if len(values) == 0 {
		panic("proptest: OneOf called with no values")
	}
	return values[g.Intn(len(values))]
}

// OneOfFunc calls a random generator function from the provided functions.
// Panics if fns is empty.
func OneOfFunc[T any](g *Generator, fns ...func(*Generator) T) T {
	if len(fns) == 0 {
		panic("proptest: OneOfFunc called with no functions")
	}
	return fns[g.Intn(len(fns))](g)
}

// SliceN generates a slice with length in [minLen, maxLen].
func SliceN[T any](g *Generator, minLen, maxLen int, gen func(*Generator) T) []T {
	n := g.IntRange(minLen, maxLen)
	out := make([]T, n)
	for i := range out {
		out[i] = gen(g)
	}
	return out
}

// Sample returns n distinct elements of slice in random order. n is capped
// at len(slice).
func Sample[T any](g *Generator, slice []T, n int) []T {
	if n > len(slice) {
		n = len(slice)
	}
	idx := g.rng.Perm(len(slice))[:n]
	out := make([]T, n)
	for i, j := range idx {
		out[i] = slice[j]
	}
	return out
}
