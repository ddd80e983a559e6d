package classifier

import (
	"math/rand/v2"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat/distuv"
)

// DefaultNoiseStdDev is the spread of the score jitter
const DefaultNoiseStdDev = 0.05

// NoiseSource jitters raw genre scores before normalization
type NoiseSource interface {
	Sample() float64
}

// GaussianNoise draws from N(0, stddev²). It is safe for concurrent use.
type GaussianNoise struct {
	mu   sync.Mutex
	dist distuv.Normal
}

// NewGaussianNoise creates a seeded Gaussian source. Seed 0 seeds from the clock.
func NewGaussianNoise(stddev float64, seed uint64) *GaussianNoise {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &GaussianNoise{
		dist: distuv.Normal{
			Mu:    0,
			Sigma: stddev,
			Src:   rand.NewPCG(seed, seed^0x9e3779b97f4a7c15),
		},
	}
}

// Sample returns the next draw
func (g *GaussianNoise) Sample() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.dist.Rand()
}

// ZeroNoise makes scoring deterministic
type ZeroNoise struct{}

// Sample always returns 0
func (ZeroNoise) Sample() float64 { return 0 }
