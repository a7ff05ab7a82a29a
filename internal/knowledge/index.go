package knowledge

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/heartline-ai/heartline/internal/embedding"
)

// RecordEmbeddings holds the precomputed vectors of one record, in the same
// order as the record's synonym and keyword lists.
type RecordEmbeddings struct {
	Trigger  []float32
	Synonyms [][]float32
	Keywords [][]float32
}

// Index is the knowledge base plus its embeddings. It is immutable after
// Build and safe for concurrent readers.
type Index struct {
	records    []Record
	embeddings []RecordEmbeddings
	intents    [IntentCount][]float32
	vocabulary []string
	model      string
}

// BuildOptions tunes index construction.
type BuildOptions struct {
	BatchSize int
	// Progress is called after each encoder batch with texts done and total.
	Progress func(done, total int)
}

// Build encodes every trigger, synonym, keyword and intent column name.
func Build(ctx context.Context, records []Record, enc embedding.Embedder, opts BuildOptions) (*Index, error) {
	for i, r := range records {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
	}

	var texts []string
	for _, r := range records {
		texts = append(texts, r.Trigger)
		texts = append(texts, r.Synonyms...)
		texts = append(texts, r.Keywords...)
	}
	for _, in := range Intents() {
		texts = append(texts, in.String())
	}

	var progress func(int)
	if opts.Progress != nil {
		total := len(texts)
		progress = func(done int) { opts.Progress(done, total) }
	}

	vecs, err := embedding.EmbedBatch(ctx, enc, texts, opts.BatchSize, progress)
	if err != nil {
		return nil, fmt.Errorf("embed knowledge base: %w", err)
	}

	idx := &Index{
		records:    make([]Record, len(records)),
		embeddings: make([]RecordEmbeddings, len(records)),
		model:      enc.Model(),
	}

	pos := 0
	take := func(n int) [][]float32 {
		if n == 0 {
			return nil
		}
		out := vecs[pos : pos+n : pos+n]
		pos += n
		return out
	}

	for i, r := range records {
		idx.records[i] = cloneRecord(r)
		idx.embeddings[i] = RecordEmbeddings{
			Trigger:  take(1)[0],
			Synonyms: take(len(r.Synonyms)),
			Keywords: take(len(r.Keywords)),
		}
	}
	for _, in := range Intents() {
		idx.intents[in] = take(1)[0]
	}

	idx.vocabulary = buildVocabulary(records)
	return idx, nil
}

// Len returns the number of records.
func (x *Index) Len() int {
	return len(x.records)
}

// Record returns the i-th record in insertion order.
func (x *Index) Record(i int) Record {
	return x.records[i]
}

// Records returns a copy of all records in insertion order.
func (x *Index) Records() []Record {
	out := make([]Record, len(x.records))
	for i, r := range x.records {
		out[i] = cloneRecord(r)
	}
	return out
}

// Embeddings returns the vectors of the i-th record. Callers must not modify them.
func (x *Index) Embeddings(i int) RecordEmbeddings {
	return x.embeddings[i]
}

// IntentEmbedding returns the vector of an intent column name.
func (x *Index) IntentEmbedding(in Intent) []float32 {
	return x.intents[in]
}

// Vocabulary returns the sorted distinct lower-cased words of all triggers,
// synonyms and keywords.
func (x *Index) Vocabulary() []string {
	return append([]string(nil), x.vocabulary...)
}

// Model returns the encoder model the index was built with.
func (x *Index) Model() string {
	return x.model
}

func cloneRecord(r Record) Record {
	r.Synonyms = append([]string(nil), r.Synonyms...)
	r.Keywords = append([]string(nil), r.Keywords...)
	return r
}

func buildVocabulary(records []Record) []string {
	seen := make(map[string]struct{})
	add := func(s string) {
		for _, w := range strings.Fields(strings.ToLower(s)) {
			w = strings.Trim(w, ".,;:!?\"'()")
			if w != "" {
				seen[w] = struct{}{}
			}
		}
	}
	for _, r := range records {
		add(r.Trigger)
		for _, s := range r.Synonyms {
			add(s)
		}
		for _, k := range r.Keywords {
			add(k)
		}
	}

	out := make([]string, 0, len(seen))
	for w := range seen {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
