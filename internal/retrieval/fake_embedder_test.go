package retrieval

import (
	"context"
	"errors"
	"math"
	"sync"
)

// fakeEmbedder returns fixed vectors per text; unknown texts map to an
// axis orthogonal to every test vector.
type fakeEmbedder struct {
	mu    sync.Mutex
	vecs  map[string][]float32
	fail  bool
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("encoder unavailable")
	}
	f.calls++
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if v, ok := f.vecs[t]; ok {
			out[i] = v
		} else {
			out[i] = []float32{0, 0, 0, 1}
		}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedSingle(ctx context.Context, text string) ([]float32, error) {
	vecs, err := f.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (f *fakeEmbedder) Model() string { return "fake" }

// at returns a unit vector whose cosine with query (1,0,0,0) is c.
func at(c float64) []float32 {
	return []float32{float32(c), float32(math.Sqrt(1 - c*c)), 0, 0}
}

var query = []float32{1, 0, 0, 0}
