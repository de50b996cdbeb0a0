package simulation

import (
	"math/rand"
	"sync"
	"time"
)

// Outcome is the behavior selected for one randomized request
type Outcome int

const (
	// OutcomeFast responds successfully without delay
	OutcomeFast Outcome = iota
	// OutcomeError responds with a simulated server error
	OutcomeError
	// OutcomeSlow responds successfully after a fixed delay
	OutcomeSlow
)

// String returns the outcome name for logging
func (o Outcome) String() string {
	switch o {
	case OutcomeFast:
		return "fast"
	case OutcomeError:
		return "error"
	case OutcomeSlow:
		return "slow"
	default:
		return "unknown"
	}
}

// Strategy decides the outcome of one randomized request. Implementations
// must be safe for concurrent use.
type Strategy interface {
	Next() Outcome
}

// RandomStrategy partitions one uniform draw per call into three bands:
// [0, errorRatio) is an error, [errorRatio, errorRatio+slowRatio) is a slow
// success, the rest is a fast success.
type RandomStrategy struct {
	errorRatio float64
	slowRatio  float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRandomStrategy creates a strategy seeded from the current time
func NewRandomStrategy(errorRatio, slowRatio float64) *RandomStrategy {
	return NewSeededStrategy(errorRatio, slowRatio, time.Now().UnixNano())
}

// NewSeededStrategy creates a strategy with a fixed seed for reproducible runs
func NewSeededStrategy(errorRatio, slowRatio float64, seed int64) *RandomStrategy {
	return &RandomStrategy{
		errorRatio: errorRatio,
		slowRatio:  slowRatio,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

// Next draws one outcome
func (s *RandomStrategy) Next() Outcome {
	s.mu.Lock()
	v := s.rng.Float64()
	s.mu.Unlock()

	switch {
	case v < s.errorRatio:
		return OutcomeError
	case v < s.errorRatio+s.slowRatio:
		return OutcomeSlow
	default:
		return OutcomeFast
	}
}
