package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var kbVocabulary = []string{"angina", "cardiovascular", "cholesterol", "chest", "pain", "hypertension"}

func TestSpellCorrector_Correct(t *testing.T) {
	c := NewSpellCorrector(kbVocabulary, DefaultCutoff)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"misspelled question word", "wat is angina", "what is angina"},
		{"misspelled topic keeps punctuation", "what is anigna?", "what is angina?"},
		{"misspelled long topic", "what causes cholestrol", "what causes cholesterol"},
		{"already correct", "what is angina", "what is angina"},
		{"single word untouched", "anigna", "anigna"},
		{"no close match", "what is football", "what is football"},
		{"numbers untouched", "is 140 high", "is 140 high"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Correct(tt.input))
		})
	}
}

func TestSpellCorrector_IsIdempotent(t *testing.T) {
	c := NewSpellCorrector(kbVocabulary, DefaultCutoff)
	once := c.Correct("wat is anigna")
	assert.Equal(t, once, c.Correct(once))
}

func TestSpellCorrector_InvalidCutoffUsesDefault(t *testing.T) {
	c := NewSpellCorrector(kbVocabulary, 0)
	assert.Equal(t, DefaultCutoff, c.cutoff)
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("", ""))
	assert.Equal(t, 1.0, Similarity("heart", "heart"))
	assert.InDelta(t, 6.0/7.0, Similarity("wat", "what"), 1e-9)
}

func TestLemmatize(t *testing.T) {
	tests := map[string]string{
		"symptoms of angina":        "symptom of angina",
		"blocked arteries":          "blocked artery",
		"what causes stress":        "what cause stress",
		"diabetes and pregnancies.": "diabetes and pregnancy.",
		"is it bad":                 "is it bad",
	}
	for in, want := range tests {
		assert.Equal(t, want, Lemmatize(in), in)
	}
}

func TestNormalizer(t *testing.T) {
	c := NewSpellCorrector(kbVocabulary, DefaultCutoff)

	assert.Equal(t, "what is angina", New(c, false).Normalize("wat is angina"))
	assert.Equal(t, "what are symptom of angina", New(c, true).Normalize("wat are symptoms of angina"))
	assert.Equal(t, "wat is angina", New(nil, false).Normalize("wat is angina"))
}
