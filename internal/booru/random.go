package booru

import "math/rand/v2"

// RandomSource is satisfied by *rand.Rand from math/rand/v2.
type RandomSource interface {
	IntN(n int) int
	Uint64N(n uint64) uint64
}

type globalSource struct{}

func (globalSource) IntN(n int) int {
	return rand.IntN(n)
}

func (globalSource) Uint64N(n uint64) uint64 {
	return rand.Uint64N(n)
}

// DefaultRandom uses the runtime-seeded global generator, safe for concurrent use.
var DefaultRandom RandomSource = globalSource{}

// NewSeededRandom returns a deterministic source. It is not safe for concurrent use.
func NewSeededRandom(seed uint64) RandomSource {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

func orDefault(rng RandomSource) RandomSource {
	if rng == nil {
		return DefaultRandom
	}
	return rng
}
