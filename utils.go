package becs

// reserveSlice returns s with room for at least n elements, reallocating if
// necessary. The length is left untouched.
func reserveSlice[T any](s []T, n int) []T {
	if cap(s) >= n {
		return s
	}
	ns := make([]T, len(s), max(2*cap(s), n))
	copy(ns, s)
	return ns
}

// extendSlice extends a slice by n elements, reallocating if necessary.
func extendSlice[T any](s []T, n int) []T {
	newLen := len(s) + n
	if cap(s) >= newLen {
		return s[:newLen]
	}
	ns := make([]T, newLen, max(2*cap(s), newLen))
	copy(ns, s)
	return ns
}

// shrinkSlice returns a copy of s whose capacity matches its length.
func shrinkSlice[T any](s []T) []T {
	if cap(s) == len(s) {
		return s
	}
	ns := make([]T, len(s))
	copy(ns, s)
	return ns
}
