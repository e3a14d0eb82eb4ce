// Package entropy isolates every stochastic draw in the simulation behind a
// Source so tests can script exact outcomes and a session can be replayed
// from its seed.
package entropy

import (
	"crypto/rand"
	"encoding/binary"
	"math"
	mrand "math/rand"
	"sync"
)

// Source yields uniform floats in [0, 1). All simulation randomness
// (scenario fires, event draws, rival success rolls) goes through one of
// these.
type Source interface {
	Float() float64
}

// Seeded is a deterministic Source backed by math/rand. A session created
// with the same seed replays the same draw sequence.
type Seeded struct {
	mu  sync.Mutex
	rng *mrand.Rand
}

// NewSeeded creates a deterministic source from a seed.
func NewSeeded(seed int64) *Seeded {
	return &Seeded{rng: mrand.New(mrand.NewSource(seed))}
}

func (s *Seeded) Float() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Float64()
}

// Intn returns a uniform int in [0, n). n must be positive.
func (s *Seeded) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// Crypto is a non-deterministic Source backed by crypto/rand, used when no
// seed is supplied.
type Crypto struct{}

func (Crypto) Float() float64 {
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		// Should never happen; 0.5 is a safe middle value.
		return 0.5
	}
	// Use only 53 bits for a uniform float64 in [0, 1).
	n := binary.LittleEndian.Uint64(buf[:]) >> 11
	return float64(n) / float64(1<<53)
}

// Pick returns a uniform index in [0, n) drawn from src.
func Pick(src Source, n int) int {
	if n <= 0 {
		return 0
	}
	i := int(math.Floor(src.Float() * float64(n)))
	if i >= n {
		i = n - 1
	}
	return i
}
