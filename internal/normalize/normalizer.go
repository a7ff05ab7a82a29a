package normalize

import "strings"

// Normalizer chains spelling correction and optional lemmatization.
// It never fails; text it cannot improve comes back unchanged.
type Normalizer struct {
	corrector *SpellCorrector
	lemmatize bool
}

// New creates a Normalizer. corrector may be nil to skip spelling correction.
func New(corrector *SpellCorrector, lemmatize bool) *Normalizer {
	return &Normalizer{corrector: corrector, lemmatize: lemmatize}
}

// Normalize returns the cleaned-up form of text.
func (n *Normalizer) Normalize(text string) string {
	out := text
	if n.corrector != nil {
		out = n.corrector.Correct(out)
	}
	if n.lemmatize {
		out = Lemmatize(out)
	}
	return out
}

// Lemmatize reduces regular English plurals to their singular form,
// word by word. Words of four letters or fewer are left alone.
func Lemmatize(text string) string {
	fields := strings.Fields(text)
	for i, f := range fields {
		lead, core, trail := splitPunct(f)
		if core == "" {
			continue
		}
		fields[i] = lead + singular(core) + trail
	}
	return strings.Join(fields, " ")
}

var invariantWords = map[string]struct{}{
	"always": {}, "diabetes": {}, "lupus": {}, "news": {}, "perhaps": {},
	"series": {}, "sometimes": {}, "species": {}, "whereas": {},
}

func singular(w string) string {
	lower := strings.ToLower(w)
	if len(lower) <= 4 {
		return w
	}
	if _, ok := invariantWords[lower]; ok {
		return w
	}
	switch {
	case strings.HasSuffix(lower, "ies"):
		return w[:len(w)-3] + "y"
	case strings.HasSuffix(lower, "sses"), strings.HasSuffix(lower, "xes"),
		strings.HasSuffix(lower, "ches"), strings.HasSuffix(lower, "shes"):
		return w[:len(w)-2]
	case strings.HasSuffix(lower, "ss"), strings.HasSuffix(lower, "us"), strings.HasSuffix(lower, "is"):
		return w
	case strings.HasSuffix(lower, "s"):
		return w[:len(w)-1]
	}
	return w
}
