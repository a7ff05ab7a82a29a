// Package normalize cleans up user text before a matching retry: spelling
// correction against the knowledge base vocabulary and light lemmatization.
package normalize

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultCutoff is the minimum similarity ratio for a correction.
const DefaultCutoff = 0.8

// commonWords are accepted as correct in addition to the knowledge base
// vocabulary, so ordinary question phrasing is not rewritten into topic words.
var commonWords = []string{
	"a", "about", "after", "all", "also", "am", "an", "and", "any", "are", "as", "at",
	"be", "before", "best", "blood", "body", "but", "by", "can", "cause", "causes",
	"chest", "could", "define", "did", "do", "does", "doctor", "during", "else", "explain",
	"feel", "feeling", "for", "from", "further", "get", "good", "happen", "happens", "has",
	"have", "health", "healthy", "heart", "help", "her", "how", "i", "if", "in", "is", "it",
	"know", "lower", "me", "mean", "means", "more", "my", "of", "on", "or", "pain",
	"pressure", "prevent", "reason", "reduce", "risk", "risks", "she", "should", "sign",
	"signs", "symptom", "symptoms", "take", "tell", "that", "the", "their", "there",
	"this", "to", "treat", "treatment", "was", "what", "when", "where", "which", "who",
	"why", "will", "with", "woman", "women", "would", "you", "your",
}

// SpellCorrector replaces unknown words with the closest vocabulary word.
type SpellCorrector struct {
	vocab  []string
	known  map[string]struct{}
	cutoff float64
}

// NewSpellCorrector builds a corrector over vocabulary plus common English
// question words. vocabulary order decides ties. A cutoff outside (0, 1]
// falls back to DefaultCutoff.
func NewSpellCorrector(vocabulary []string, cutoff float64) *SpellCorrector {
	if cutoff <= 0 || cutoff > 1 {
		cutoff = DefaultCutoff
	}

	c := &SpellCorrector{known: make(map[string]struct{}), cutoff: cutoff}
	for _, list := range [][]string{vocabulary, commonWords} {
		for _, w := range list {
			w = strings.ToLower(strings.TrimSpace(w))
			if w == "" {
				continue
			}
			if _, dup := c.known[w]; dup {
				continue
			}
			c.known[w] = struct{}{}
			c.vocab = append(c.vocab, w)
		}
	}
	return c
}

// Correct fixes misspelled words. Single-word input is returned unchanged,
// as are words already in the vocabulary and words with no close match.
// Punctuation around a word is preserved.
func (c *SpellCorrector) Correct(text string) string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return text
	}

	changed := false
	for i, f := range fields {
		lead, core, trail := splitPunct(f)
		if core == "" {
			continue
		}
		lower := strings.ToLower(core)
		if _, ok := c.known[lower]; ok || !isWord(lower) {
			continue
		}
		if best, ok := c.closest(lower); ok {
			fields[i] = lead + best + trail
			changed = true
		}
	}

	if !changed {
		return text
	}
	return strings.Join(fields, " ")
}

func (c *SpellCorrector) closest(word string) (string, bool) {
	best := ""
	bestScore := 0.0
	for _, cand := range c.vocab {
		if s := Similarity(word, cand); s >= c.cutoff && s > bestScore {
			best, bestScore = cand, s
		}
	}
	return best, best != ""
}

// Similarity is 1 for identical strings and falls with edit distance
// relative to the combined length of both strings.
func Similarity(a, b string) float64 {
	total := len([]rune(a)) + len([]rune(b))
	if total == 0 {
		return 1
	}
	d := levenshtein.ComputeDistance(a, b)
	return float64(total-d) / float64(total)
}

func splitPunct(s string) (lead, core, trail string) {
	start := strings.IndexFunc(s, isWordRune)
	if start < 0 {
		return s, "", ""
	}
	end := strings.LastIndexFunc(s, isWordRune)
	_, size := utf8.DecodeRuneInString(s[end:])
	end += size
	return s[:start], s[start:end], s[end:]
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '\''
}

func isWord(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) && r != '\'' {
			return false
		}
	}
	return true
}
