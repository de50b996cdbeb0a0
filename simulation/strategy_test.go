package simulation

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "fast", OutcomeFast.String())
	assert.Equal(t, "error", OutcomeError.String())
	assert.Equal(t, "slow", OutcomeSlow.String())
	assert.Equal(t, "unknown", Outcome(42).String())
}

func TestRandomStrategy(t *testing.T) {
	t.Run("degenerate bands are deterministic", func(t *testing.T) {
		allErrors := NewSeededStrategy(1, 0, 1)
		allSlow := NewSeededStrategy(0, 1, 1)
		allFast := NewSeededStrategy(0, 0, 1)

		for i := 0; i < 100; i++ {
			assert.Equal(t, OutcomeError, allErrors.Next())
			assert.Equal(t, OutcomeSlow, allSlow.Next())
			assert.Equal(t, OutcomeFast, allFast.Next())
		}
	})

	t.Run("band proportions converge over many draws", func(t *testing.T) {
		const draws = 10000
		const errorRatio = 0.2
		const slowRatio = 0.2

		strategy := NewSeededStrategy(errorRatio, slowRatio, 7)

		counts := map[Outcome]int{}
		for i := 0; i < draws; i++ {
			counts[strategy.Next()]++
		}

		// ±2% tolerance, roughly 3 standard deviations at this sample size
		assert.InDelta(t, errorRatio, float64(counts[OutcomeError])/draws, 0.02)
		assert.InDelta(t, slowRatio, float64(counts[OutcomeSlow])/draws, 0.02)
		assert.InDelta(t, 1-errorRatio-slowRatio, float64(counts[OutcomeFast])/draws, 0.02)
	})

	t.Run("safe under concurrent draws", func(t *testing.T) {
		strategy := NewRandomStrategy(0.5, 0.25)

		var wg sync.WaitGroup
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < 100; j++ {
					_ = strategy.Next()
				}
			}()
		}
		wg.Wait()
	})
}
