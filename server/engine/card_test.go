package engine

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCardRoundTrip(t *testing.T) {
	for _, s := range []string{"As", "Kd", "Qh", "Jc", "Ts", "9d", "2c"} {
		c, err := ParseCard(s)
		require.NoError(t, err)
		assert.Equal(t, s, c.String())
	}
}

func TestParseCardRejectsGarbage(t *testing.T) {
	for _, s := range []string{"", "A", "1s", "Ax", "10c", "as"} {
		_, err := ParseCard(s)
		assert.Error(t, err, "input %q", s)
	}
}

func TestCardJSON(t *testing.T) {
	b, err := json.Marshal(MustCard("Th"))
	require.NoError(t, err)
	assert.Equal(t, `"Th"`, string(b))

	var c Card
	require.NoError(t, json.Unmarshal([]byte(`"Ad"`), &c))
	assert.Equal(t, Card{Rank: 14, Suit: 'd'}, c)

	assert.Error(t, json.Unmarshal([]byte(`"zz"`), &c))

	// Hidden cards cross the wire as empty strings.
	b, err = json.Marshal(Card{})
	require.NoError(t, err)
	assert.Equal(t, `""`, string(b))
	require.NoError(t, json.Unmarshal([]byte(`""`), &c))
	assert.Equal(t, Card{}, c)
}

func TestActionKindJSON(t *testing.T) {
	b, err := json.Marshal(RaiseTo(300))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"raise","amount":300}`, string(b))

	var a Action
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"all-in"}`), &a))
	assert.Equal(t, AllIn, a.Kind)
}
