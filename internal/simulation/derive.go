package simulation

import (
	"hash/fnv"
	"math"
	"math/rand"
	"strconv"
)

// seedFor builds a stable 64-bit seed from the given parts. The same
// parts always produce the same seed, across processes and restarts.
func seedFor(parts ...string) int64 {
	h := fnv.New64a()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte{'|'})
	}
	return int64(h.Sum64())
}

// derivedValue maps (salt, purpose, tank id, date) deterministically
// into [lo, hi], rounded to the nearest 0.1. Used for setpoint and
// final-temperature derivation so repeated reads of an unchanged tank
// land in the same target band.
func derivedValue(salt, purpose, id, date string, lo, hi float64) float64 {
	rng := rand.New(rand.NewSource(seedFor(salt, purpose, id, date)))
	v := lo + rng.Float64()*(hi-lo)
	return math.Round(v*10) / 10
}

// stepSeed derives the per-(tank, bucket) seed for step selection, so
// concurrent readers in the same bucket compute the same step.
func stepSeed(salt, id string, bucket int64) int64 {
	return seedFor(salt, "step", id, strconv.FormatInt(bucket, 10))
}
