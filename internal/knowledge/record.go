// Package knowledge holds the curated heart-health knowledge base: its
// records, the CSV loader, and the immutable embedding index built at startup.
package knowledge

import (
	"fmt"
	"strings"
)

// Intent names one facet of an answer. The declaration order is the
// routing priority order.
type Intent int

const (
	What Intent = iota
	Symptoms
	Why
	How

	IntentCount = 4
)

var intentNames = [IntentCount]string{"What", "Symptoms", "Why", "How"}

// Intents returns every intent in priority order.
func Intents() []Intent {
	return []Intent{What, Symptoms, Why, How}
}

// String returns the column name of the intent.
func (i Intent) String() string {
	if i < 0 || int(i) >= IntentCount {
		return fmt.Sprintf("Intent(%d)", int(i))
	}
	return intentNames[i]
}

// MarshalText encodes the intent by column name.
func (i Intent) MarshalText() ([]byte, error) {
	return []byte(i.String()), nil
}

// ParseIntent resolves a column name, case-insensitively.
func ParseIntent(name string) (Intent, error) {
	for i, n := range intentNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Intent(i), nil
		}
	}
	return 0, fmt.Errorf("unknown intent %q", name)
}

// Record is one knowledge base entry.
type Record struct {
	Trigger  string              `json:"trigger_word"`
	Synonyms []string            `json:"synonyms"`
	Keywords []string            `json:"keywords"`
	Answers  [IntentCount]string `json:"answers"`
}

// Answer returns the canned answer for an intent; empty when the cell was blank.
func (r Record) Answer(i Intent) string {
	return r.Answers[i]
}

// Validate checks the record invariants: a trigger and at least one answer.
func (r Record) Validate() error {
	if strings.TrimSpace(r.Trigger) == "" {
		return fmt.Errorf("trigger_word is empty")
	}
	for _, a := range r.Answers {
		if a != "" {
			return nil
		}
	}
	return fmt.Errorf("record %q has no answers", r.Trigger)
}
