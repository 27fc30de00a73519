package booru

import "fmt"

// sampleIndices draws k distinct indices from [0, n) by rejection into a set
// and returns them in the order they were first drawn. Expected cost is fine
// for k much smaller than n and degrades as k approaches n.
//
// k > n is a caller bug and panics.
func sampleIndices(rng RandomSource, n, k int) []int {
	if k < 0 || k > n {
		panic(fmt.Sprintf("booru: cannot sample %d items from a collection of %d", k, n))
	}
	rng = orDefault(rng)

	seen := make(map[int]struct{}, k)
	order := make([]int, 0, k)
	for len(order) < k {
		i := rng.IntN(n)
		if _, dup := seen[i]; dup {
			continue
		}
		seen[i] = struct{}{}
		order = append(order, i)
	}
	return order
}

func sampleOf[T any](items []T, rng RandomSource, k int) []T {
	indices := sampleIndices(rng, len(items), k)
	out := make([]T, len(indices))
	for i, idx := range indices {
		out[i] = items[idx]
	}
	return out
}

// Sample returns k distinct posts drawn without replacement. It panics if k > Len().
func (ps Posts) Sample(rng RandomSource, k int) Posts {
	return sampleOf(ps, rng, k)
}

// Shuffle returns a random permutation of ps.
func (ps Posts) Shuffle(rng RandomSource) Posts {
	return ps.Sample(rng, len(ps))
}

func (ps Posts) RandomPreviewURLs(rng RandomSource, k int) []string {
	return sampleOf(ps.PreviewURLs(), rng, k)
}

func (ps Posts) RandomSampleURLs(rng RandomSource, k int) []string {
	return sampleOf(ps.SampleURLs(), rng, k)
}

func (ps Posts) RandomFileURLs(rng RandomSource, k int) []string {
	return sampleOf(ps.FileURLs(), rng, k)
}

// Sample returns k distinct views drawn without replacement. It panics if k > Len().
func (cs CompactPosts) Sample(rng RandomSource, k int) CompactPosts {
	return sampleOf(cs, rng, k)
}

func (cs CompactPosts) Shuffle(rng RandomSource) CompactPosts {
	return cs.Sample(rng, len(cs))
}
