package sim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kenykau/reinforcement-forex/market"
)

func TestHistoryWindow(t *testing.T) {
	t.Parallel()

	d := newData(t, "EURUSD", []ohlc{flat(1.1), flat(1.1), flat(1.1), flat(1.1)})
	sym := newSymbol(t, d, eurusdSpec())
	p := newPortfolio(t, d, sym, 5000, false)
	c := market.NewCursor(d)

	require.NoError(t, c.Move(1))
	_, err := p.Apply(c, ActionLong, 0.1, market.Open)
	require.NoError(t, err)
	require.NoError(t, c.Advance())
	_, err = p.Apply(c, ActionHold, 0, market.Open)
	require.NoError(t, err)

	h := p.History()

	// unwritten slots read as the opening account
	row, ok := h.Row(0)
	assert.False(t, ok)
	assert.Equal(t, 5000.0, row.Equity)
	assert.Equal(t, 5000.0, row.MarginFree)
	assert.Equal(t, d.Time(0), row.Time)

	tests := []struct {
		name  string
		size  int
		count int
	}{
		{"current", 1, 1},
		{"two", 2, 2},
		{"all", 0, 3},
	}
	for _, tt := range tests {
		w, err := h.Window(2, tt.size)
		require.NoError(t, err, tt.name)
		require.Len(t, w, tt.count, tt.name)
		assert.Equal(t, d.Time(2), w[len(w)-1].Time, tt.name)
		assert.Equal(t, 1, w[len(w)-1].OpenPositions, tt.name)
	}

	_, err = h.Window(2, 4)
	assert.ErrorIs(t, err, market.ErrInsufficientHistory)
	_, err = h.Window(4, 1)
	assert.ErrorIs(t, err, market.ErrOutOfRange)
	_, err = h.Window(1, -1)
	assert.Error(t, err)

	assert.Len(t, h.Rows(), 2)
	assert.ErrorIs(t, h.Set(7, Snapshot{}), market.ErrOutOfRange)
}

func TestSnapshotValues(t *testing.T) {
	t.Parallel()

	s := Snapshot{Balance: 1, Equity: 2, OpenPositions: 3, Wins: 4, BreakEven: 5}
	v := s.Values()
	require.Len(t, v, len(SnapshotColumns))
	assert.Equal(t, 1.0, v[0])
	assert.Equal(t, 3.0, v[3])
	assert.Equal(t, 4.0, v[10])
	assert.Equal(t, 5.0, v[12])
}
