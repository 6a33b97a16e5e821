// Package rng derives deterministic random engines for the tracer.
//
// Every stochastic decision in the engine (pixel jitter, lens offsets,
// scatter sampling, roulette draws, light sampling) pulls from an engine
// seeded by an (iteration, index, depth) triple plus a stream tag naming
// the decision, so a rerun with the same inputs reproduces the same image
// bit for bit regardless of how work is scheduled across goroutines.
package rng

import "math/rand"

// Stream tags. Decisions made at the same (iteration, index, depth) triple
// are seeded with distinct tags, so the roulette draw is not the first
// value of the scatter sequence and the depth-0 scatter sequence does not
// replay the camera jitter.
const (
	StreamCamera int = iota
	StreamScatter
	StreamRoulette
)

// hash is a Wang-style integer avalanche. Nearby inputs produce unrelated
// outputs, which keeps neighboring pixels and depths decorrelated.
func hash(a uint32) uint32 {
	a = (a + 0x7ed55d16) + (a << 12)
	a = (a ^ 0xc761c23c) ^ (a >> 19)
	a = (a + 0x165667b1) + (a << 5)
	a = (a + 0xd3a2646c) ^ (a << 9)
	a = (a + 0xfd7046c5) + (a << 3)
	a = (a ^ 0xb55a4f09) ^ (a >> 16)
	return a
}

// mix64 is the splitmix64 finalizer, widening the combined hash so that no
// two triples share low seed bits.
func mix64(x uint64) uint64 {
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}

// Seed folds iteration and depth into one integer, hashes it, then hashes
// that against the index and the stream tag. Identical
// (iteration, index, depth, stream) tuples always yield identical seeds.
func Seed(iteration, index, depth, stream int) int64 {
	h := hash(uint32(1)<<31 | uint32(depth)<<22 | uint32(iteration))
	h ^= hash(uint32(index))
	h ^= hash(uint32(stream) * 0x9e3779b9)
	return int64(mix64(uint64(h)<<32 | uint64(uint32(index))))
}

// New returns a random engine for one decision stream at the
// (iteration, index, depth) triple.
func New(iteration, index, depth, stream int) *rand.Rand {
	return rand.New(rand.NewSource(Seed(iteration, index, depth, stream)))
}
