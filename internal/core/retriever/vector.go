package retriever

import "math"

// cosine32 computes cosine similarity between two vectors of equal length.
// A zero vector yields 0.
func cosine32(a, b []float32) float32 {
	var dot, na, nb float32
	for i := range a {
		af, bf := a[i], b[i]
		dot += af * bf
		na += af * af
		nb += bf * bf
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (float32(math.Sqrt(float64(na))) * float32(math.Sqrt(float64(nb))))
}
