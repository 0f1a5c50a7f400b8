package utils

import (
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"
	"strings"
)

// SeedFor derives a stable 128 bit seed from the joined parts.
// The same parts always produce the same seed on every platform.
func SeedFor(parts ...string) (hi, lo uint64) {
	sum := sha256.Sum256([]byte(strings.Join(parts, ":")))
	return binary.BigEndian.Uint64(sum[0:8]), binary.BigEndian.Uint64(sum[8:16])
}

// NewSeededRand returns a fresh generator for (scope, key), e.g. (raceID, playerID).
// PCG has a specified output sequence, so results are reproducible across releases.
func NewSeededRand(scope, key string) *rand.Rand {
	hi, lo := SeedFor(scope, key)
	return rand.New(rand.NewPCG(hi, lo))
}

// NewRandFromSeed is used where callers provide a numeric seed
func NewRandFromSeed(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))
}

// Uniform returns a value in [lo,hi)
func Uniform(rng *rand.Rand, lo, hi float64) float64 {
	return lo + (hi-lo)*rng.Float64()
}
