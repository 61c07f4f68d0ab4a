// Package retrieve scores stored embeddings against a query vector with an
// exhaustive cosine scan. No approximate index is involved; the scan is
// bounded and sorted in process.
package retrieve

import "math"

const cosineEpsilon = 1e-20

// Cosine computes cosine similarity over the overlapping prefix of two
// vectors. Mismatched lengths compare only up to the shorter one.
func Cosine(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	return dot / (math.Sqrt(na)*math.Sqrt(nb) + cosineEpsilon)
}

// Normalized maps cosine similarity from [-1, 1] into [0, 1]. Non-finite
// similarities collapse to 0.
func Normalized(a, b []float32) float64 {
	sim := Cosine(a, b)
	if math.IsNaN(sim) || math.IsInf(sim, 0) {
		return 0
	}
	return (sim + 1) / 2
}
