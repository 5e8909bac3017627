package curation

import "math"

// cosineEpsilon guards the denominator against zero-magnitude vectors.
const cosineEpsilon = 1e-8

// Cosine returns the cosine similarity of two vectors. Mismatched or empty
// vectors score 0 rather than erroring; the engine treats missing semantic
// information as neutral, never fatal.
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	return dot / (math.Sqrt(normA)*math.Sqrt(normB) + cosineEpsilon)
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func l2Norm(v []float64) float64 {
	var sum float64
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}

func clip(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
