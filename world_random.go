package server

import (
	"hash/fnv"
	"math/rand"
)

// deterministicSeedValue folds a root seed and a subsystem label into a
// stable RNG seed so each subsystem draws from an independent stream.
func deterministicSeedValue(rootSeed, label string) int64 {
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

// newDeterministicRNG builds a rand.Rand for one subsystem of a seeded world.
func newDeterministicRNG(rootSeed, label string) *rand.Rand {
	return rand.New(rand.NewSource(deterministicSeedValue(rootSeed, label)))
}

// subsystemRNG derives a fresh deterministic stream from the world seed.
func (w *World) subsystemRNG(label string) *rand.Rand {
	return newDeterministicRNG(w.seed, label)
}

func (w *World) randomFloat() float64 {
	if w != nil && w.rng != nil {
		return w.rng.Float64()
	}
	return rand.Float64()
}

func (w *World) randomRange(min, max float64) float64 {
	if max <= min {
		return min
	}
	return min + w.randomFloat()*(max-min)
}
