// Package chat runs one conversation turn: greeting, knowledge base lookup,
// spelling-corrected retry, domain gate with generative fallback, refusal.
package chat

import (
	"strings"
	"unicode"
)

// DefaultMaxHistory is the number of turns a session keeps.
const DefaultMaxHistory = 10

// Turn is one exchange.
type Turn struct {
	UserInput   string `json:"user_input"`
	BotResponse string `json:"bot_response"`
}

// History is a session's recent turns, oldest first. A History value is
// never modified in place; Append returns a new slice.
type History []Turn

// Append returns a copy of h with turn added, keeping at most limit turns
// by dropping the oldest.
func (h History) Append(turn Turn, limit int) History {
	if limit <= 0 {
		limit = DefaultMaxHistory
	}
	keep := h
	if len(keep) >= limit {
		keep = keep[len(keep)-limit+1:]
	}
	out := make(History, 0, len(keep)+1)
	out = append(out, keep...)
	return append(out, turn)
}

// Last returns up to n most recent turns.
func (h History) Last(n int) History {
	if n <= 0 {
		return nil
	}
	if n > len(h) {
		n = len(h)
	}
	return h[len(h)-n:]
}

var followUpMarkers = []string{"what about", "and", "also", "more", "else", "further"}

// isFollowUp reports whether input contains a follow-up marker as a whole
// word or phrase.
func isFollowUp(input string) bool {
	padded := " " + strings.Join(strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	}), " ") + " "
	for _, m := range followUpMarkers {
		if strings.Contains(padded, " "+m+" ") {
			return true
		}
	}
	return false
}

// followUpContext formats the turns the generator sees: the last two for a
// follow-up question when there are at least two, otherwise the last one.
func followUpContext(input string, history History) string {
	n := 1
	if isFollowUp(input) && len(history) > 1 {
		n = 2
	}

	turns := history.Last(n)
	lines := make([]string, len(turns))
	for i, t := range turns {
		lines[i] = "User: " + t.UserInput + "\nBot: " + t.BotResponse
	}
	return strings.Join(lines, "\n")
}
