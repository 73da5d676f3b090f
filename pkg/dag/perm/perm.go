// Package perm enumerates permutations of small index sets.
//
// Layered layout uses it to search every ordering of short rows once the
// sweep heuristics have converged.
package perm

// Seq returns [0, 1, ..., n-1]. For n <= 0 it returns an empty slice.
func Seq(n int) []int {
	result := make([]int, max(n, 0))
	for i := range result {
		result[i] = i
	}
	return result
}

// Factorial returns n!. For n <= 1 it returns 1.
func Factorial(n int) int {
	result := 1
	for i := 2; i <= n; i++ {
		result *= i
	}
	return result
}

// Each calls fn with every permutation of [0, n) in Heap's order, starting
// with the identity. The slice passed to fn is reused between calls; copy it
// to keep it. Enumeration stops early when fn returns false. Each returns the
// number of permutations visited.
func Each(n int, fn func(p []int) bool) int {
	p := Seq(n)
	if !fn(p) {
		return 1
	}
	visited := 1
	state := make([]int, n)
	for i := 0; i < n; {
		if state[i] < i {
			if i%2 == 0 {
				p[0], p[i] = p[i], p[0]
			} else {
				p[state[i]], p[i] = p[i], p[state[i]]
			}
			visited++
			if !fn(p) {
				return visited
			}
			state[i]++
			i = 0
			continue
		}
		state[i] = 0
		i++
	}
	return visited
}

// Generate returns up to limit permutations of [0, n) as separate slices.
// A limit <= 0 returns all n! of them.
func Generate(n, limit int) [][]int {
	var out [][]int
	Each(n, func(p []int) bool {
		out = append(out, append([]int(nil), p...))
		return limit <= 0 || len(out) < limit
	})
	return out
}
