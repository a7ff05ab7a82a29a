package chat

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHistory_AppendKeepsMostRecent(t *testing.T) {
	var h History
	for i := 1; i <= 11; i++ {
		h = h.Append(Turn{UserInput: fmt.Sprintf("q%d", i), BotResponse: fmt.Sprintf("a%d", i)}, 10)
	}

	assert.Len(t, h, 10)
	assert.Equal(t, "q2", h[0].UserInput)
	assert.Equal(t, "q11", h[9].UserInput)
}

func TestHistory_AppendCopies(t *testing.T) {
	base := make(History, 1, 5)
	base[0] = Turn{UserInput: "q1"}

	a := base.Append(Turn{UserInput: "a"}, 10)
	b := base.Append(Turn{UserInput: "b"}, 10)

	assert.Equal(t, "a", a[1].UserInput)
	assert.Equal(t, "b", b[1].UserInput)
	assert.Len(t, base, 1)
}

func TestHistory_Last(t *testing.T) {
	h := History{{UserInput: "1"}, {UserInput: "2"}, {UserInput: "3"}}
	assert.Equal(t, History{{UserInput: "2"}, {UserInput: "3"}}, h.Last(2))
	assert.Equal(t, h, h.Last(5))
	assert.Nil(t, h.Last(0))
}

func TestIsFollowUp(t *testing.T) {
	tests := map[string]bool{
		"and what about angina?":      true,
		"What about menopause":        true,
		"tell me more":                true,
		"anything else":               true,
		"what is angina":              false,
		"understand my heart":         false,
		"furthermore, is it dangerous": false,
	}
	for input, want := range tests {
		assert.Equal(t, want, isFollowUp(input), input)
	}
}

func TestFollowUpContext(t *testing.T) {
	one := History{{UserInput: "q1", BotResponse: "a1"}}
	two := History{{UserInput: "q1", BotResponse: "a1"}, {UserInput: "q2", BotResponse: "a2"}}

	assert.Equal(t, "", followUpContext("and more?", nil))
	assert.Equal(t, "User: q1\nBot: a1", followUpContext("and more?", one))
	assert.Equal(t, "User: q2\nBot: a2", followUpContext("heart tips", two))
	assert.Equal(t, "User: q1\nBot: a1\nUser: q2\nBot: a2", followUpContext("also diet?", two))
}
