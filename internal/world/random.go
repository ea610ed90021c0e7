package world

import (
	"hash/fnv"
	"math"
	"math/rand"
)

// DefaultSeed is used when the simulation config does not supply one.
const DefaultSeed = "emberfall"

// DeterministicSeedValue derives a stable int64 seed from a root seed string
// and a subsystem label so independent streams never share state.
func DeterministicSeedValue(rootSeed, label string) int64 {
	hasher := fnv.New64a()
	hasher.Write([]byte(rootSeed))
	hasher.Write([]byte{0})
	hasher.Write([]byte(label))
	sum := hasher.Sum64()
	if sum == 0 {
		sum = 1
	}
	return int64(sum)
}

// NewDeterministicRNG builds a rand.Rand seeded from the root seed and label.
func NewDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(DeterministicSeedValue(rootSeed, label)))
}

// RandomAngle draws a bearing in [0, 2pi).
func RandomAngle(rng *rand.Rand) float64 {
	if rng == nil {
		return 0
	}
	return rng.Float64() * 2 * math.Pi
}

// RandomDistance draws a distance in [min, max].
func RandomDistance(rng *rand.Rand, min, max float64) float64 {
	if rng == nil || max <= min {
		return min
	}
	return min + rng.Float64()*(max-min)
}
