package util

import "math/rand/v2"

func New(seed int64) *rand.Rand {
	if seed == 0 {
		seed = 1
	}
	return Stream(seed, 0)
}

// Stream returns the generator for one run. Each run index gets its own PCG
// stream so results do not depend on how runs are spread over workers.
func Stream(seed int64, index uint64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), index*0x9e3779b97f4a7c15+1))
}
