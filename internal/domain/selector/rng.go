package selector

import (
	"math/rand/v2"
)

// Source supplies the pseudorandom draws used for sampling.
type Source interface {
	Float64() float64 // [0, 1)
	IntN(n int) int   // [0, n)
}

type pcgSource struct{ r *rand.Rand }

// NewSeededSource returns a replicable source, for simulations and tests.
func NewSeededSource(seed uint64) Source {
	return &pcgSource{r: rand.New(rand.NewPCG(seed, 0))}
}

// NewSource returns a source seeded from the runtime's entropy.
func NewSource() Source {
	return &pcgSource{r: rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))}
}

func (s *pcgSource) Float64() float64 { return s.r.Float64() }

func (s *pcgSource) IntN(n int) int { return s.r.IntN(n) }
