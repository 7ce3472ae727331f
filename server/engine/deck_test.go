package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDeckComplete(t *testing.T) {
	d := NewDeck(7)
	require.Equal(t, 52, d.Remaining())

	seen := map[Card]bool{}
	dealt, err := d.Deal(52)
	require.NoError(t, err)
	for _, c := range dealt {
		assert.False(t, seen[c], "duplicate card %s", c)
		seen[c] = true
		assert.GreaterOrEqual(t, c.Rank, 2)
		assert.LessOrEqual(t, c.Rank, 14)
	}
	assert.Len(t, seen, 52)
}

func TestNewDeckSeedDeterministic(t *testing.T) {
	a, err := NewDeck(99).Deal(52)
	require.NoError(t, err)
	b, err := NewDeck(99).Deal(52)
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := NewDeck(100).Deal(52)
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestDealShrinksDeck(t *testing.T) {
	d := NewDeck(1)
	first, err := d.Deal(2)
	require.NoError(t, err)
	assert.Equal(t, 50, d.Remaining())

	rest, err := d.Deal(50)
	require.NoError(t, err)
	for _, c := range rest {
		assert.NotContains(t, first, c)
	}
}

func TestDealExhausted(t *testing.T) {
	d := NewDeck(1)
	_, err := d.Deal(53)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDeckExhausted))
	assert.Equal(t, 52, d.Remaining(), "failed deal must not consume cards")
}
