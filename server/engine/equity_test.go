package engine

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHandEquityValidation(t *testing.T) {
	_, err := HandEquity(cards("Ah"), nil, 100, 1)
	require.Error(t, err)

	_, err = HandEquity(cards("Ah", "Ah"), nil, 100, 1)
	require.Error(t, err, "duplicate hole cards")

	_, err = HandEquity(cards("Ah", "Kh"), cards("Kh", "2c", "3d"), 100, 1)
	require.Error(t, err, "board reuses a hole card")

	_, err = HandEquity(cards("Ah", "Kh"), cards("2c", "3d", "4h", "5s", "6c", "7d"), 100, 1)
	require.Error(t, err, "board too long")
}

func TestHandEquityRiverEnumeratesExactly(t *testing.T) {
	// A royal flush on the river cannot be beaten or chopped.
	eq, err := HandEquity(cards("As", "Ks"), cards("Qs", "Js", "Ts", "2d", "3c"), 0, 0)
	require.NoError(t, err)
	require.Equal(t, 45*44/2, eq.Trials, "one combo per remaining pair")
	require.Equal(t, 1.0, eq.Win)
	require.Equal(t, 0.0, eq.Tie)
	require.Equal(t, 0.0, eq.Lose)
}

func TestHandEquityRiverPlayedBoard(t *testing.T) {
	// Board makes a broadway straight and neither hole card can improve it,
	// so every showdown that doesn't beat the board is a chop.
	eq, err := HandEquity(cards("2c", "3d"), cards("Ah", "Kd", "Qs", "Jc", "Th"), 0, 0)
	require.NoError(t, err)
	require.Equal(t, 0.0, eq.Win)
	require.Greater(t, eq.Tie, 0.5)
}

func TestHandEquityPreflopPocketAces(t *testing.T) {
	eq, err := HandEquity(cards("Ah", "Ad"), nil, 4000, 7)
	require.NoError(t, err)
	require.Equal(t, 4000, eq.Trials)
	require.InDelta(t, 0.85, eq.Win, 0.05, "aces win roughly 85%% heads up")
	require.InDelta(t, 1.0, eq.Win+eq.Tie+eq.Lose, 1e-9)
}

func TestHandEquitySeedDeterminism(t *testing.T) {
	a, err := HandEquity(cards("Jh", "Js"), cards("9c", "4d", "2h"), 500, 11)
	require.NoError(t, err)
	b, err := HandEquity(cards("Jh", "Js"), cards("9c", "4d", "2h"), 500, 11)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
