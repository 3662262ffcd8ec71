package draw

import (
	"math/rand/v2"
	"sync"
)

// Rand is the source of draw offsets. IntN returns a uniform value in [0, n).
type Rand interface {
	IntN(n int) int
}

// RandFunc adapts a plain function to Rand.
type RandFunc func(n int) int

func (f RandFunc) IntN(n int) int { return f(n) }

// processRand uses the runtime-seeded top-level generator, which is safe for
// concurrent use.
type processRand struct{}

func (processRand) IntN(n int) int { return rand.IntN(n) }

type lockedRand struct {
	mu  sync.Mutex
	src Rand
}

func (r *lockedRand) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.src.IntN(n)
}

// Locked serialises access to src, e.g. a seeded *rand.Rand shared by
// concurrent draws.
func Locked(src Rand) Rand {
	return &lockedRand{src: src}
}
