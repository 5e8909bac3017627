package curation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCosineRoundTrip(t *testing.T) {
	t.Parallel()

	a := []float64{0.3, -0.7, 0.2, 0.9}
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-6)
}

func TestCosineSymmetry(t *testing.T) {
	t.Parallel()

	a := []float64{0.1, 0.5, -0.3}
	b := []float64{-0.2, 0.8, 0.4}
	assert.Equal(t, Cosine(a, b), Cosine(b, a))
}

func TestCosineDegenerateInputs(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Cosine(nil, nil))
	assert.Zero(t, Cosine([]float64{1, 2}, []float64{1, 2, 3}))

	// Zero vectors must not divide by zero.
	zero := []float64{0, 0, 0}
	assert.Zero(t, Cosine(zero, zero))
}

func TestCosineOpposedVectors(t *testing.T) {
	t.Parallel()

	a := []float64{1, 0}
	b := []float64{-1, 0}
	assert.InDelta(t, -1.0, Cosine(a, b), 1e-6)
}

func TestClip(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, clip(-0.5, 0, 1))
	assert.Equal(t, 1.0, clip(1.5, 0, 1))
	assert.Equal(t, 0.25, clip(0.25, 0, 1))
}
