package embedding

import "math"

// Cosine returns the cosine similarity of a and b in [-1, 1].
// Vectors of different length are compared as if the shorter one were
// zero-padded. A zero vector has similarity 0 with everything.
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range max(len(a), len(b)) {
		var x, y float64
		if i < len(a) {
			x = float64(a[i])
		}
		if i < len(b) {
			y = float64(b[i])
		}
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MaxCosine returns the highest similarity between q and any of vs, or 0 when vs is empty.
func MaxCosine(q []float32, vs [][]float32) float64 {
	if len(vs) == 0 {
		return 0
	}
	best := math.Inf(-1)
	for _, v := range vs {
		if s := Cosine(q, v); s > best {
			best = s
		}
	}
	return best
}
