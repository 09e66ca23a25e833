package sim

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kenykau/reinforcement-forex/instrument"
	"github.com/kenykau/reinforcement-forex/market"
)

// 2021-06-01 is a Tuesday.
var t0 = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

type ohlc struct{ o, h, l, c float64 }

func flat(p float64) ohlc { return ohlc{p, p, p, p} }

func newData(t *testing.T, sym string, bars []ohlc) *market.Dataset {
	t.Helper()
	f := func(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }
	rows := make([]market.RawRow, len(bars))
	for i, b := range bars {
		rows[i] = market.RawRow{
			"symbol": sym,
			"dt":     t0.Add(time.Duration(i) * time.Hour).Format("2006-01-02 15:04:05"),
			"tf":     "60",
			"open":   f(b.o),
			"high":   f(b.h),
			"low":    f(b.l),
			"close":  f(b.c),
			"volume": "1",
			"bid":    f(b.c),
			"ask":    f(b.c),
		}
	}
	d, err := market.Load(rows, market.DefaultMapping())
	require.NoError(t, err)
	return d
}

func eurusdSpec() instrument.Spec {
	return instrument.Spec{
		Name: "EURUSD", Asset: instrument.Forex, Leverage: 100, Base: "EUR", Quote: "USD", Digits: 5,
		MinLot: 0.01, MaxLot: 10, LotStep: 0.01, LotSize: 100000,
		SwapDay: time.Wednesday,
		Spread:  instrument.SpreadConfig{Mode: instrument.SpreadIgnore},
	}
}

func usdjpySpec() instrument.Spec {
	return instrument.Spec{
		Name: "USDJPY", Asset: instrument.Forex, Leverage: 100, Base: "USD", Quote: "JPY", Digits: 3,
		MinLot: 0.01, MaxLot: 10, LotStep: 0.01, LotSize: 100000,
		SwapDay: time.Wednesday,
		Spread:  instrument.SpreadConfig{Mode: instrument.SpreadIgnore},
	}
}

func newSymbol(t *testing.T, d *market.Dataset, spec instrument.Spec) *instrument.Symbol {
	t.Helper()
	sym, err := instrument.New(spec, "USD", d, nil, nil)
	require.NoError(t, err)
	return sym
}

func newPortfolio(t *testing.T, d *market.Dataset, sym *instrument.Symbol, balance float64, multi bool) *Portfolio {
	t.Helper()
	p, err := NewPortfolio(d, sym, Config{StartingBalance: balance, AllowMultiplePositions: multi}, nil)
	require.NoError(t, err)
	return p
}

func cursorAt(t *testing.T, d *market.Dataset, i int) *market.Cursor {
	t.Helper()
	c := market.NewCursor(d)
	require.NoError(t, c.Move(i))
	return c
}

// openedPosition builds a committed position at the current bar of c.
func openedPosition(t *testing.T, sym *instrument.Symbol, c *market.Cursor, side Side, lots float64, id int64) *Position {
	t.Helper()
	p, err := NewPosition(sym, c, side, lots, market.Open)
	require.NoError(t, err)
	p.open(id)
	return p
}
