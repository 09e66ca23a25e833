package market

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

func row(sym string, ts time.Time, open, high, low, close float64) RawRow {
	f := func(x float64) string {
		if math.IsNaN(x) {
			return ""
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	}
	return RawRow{
		"symbol": sym,
		"dt":     ts.Format("2006-01-02 15:04:05"),
		"tf":     "60",
		"open":   f(open),
		"high":   f(high),
		"low":    f(low),
		"close":  f(close),
		"volume": "100",
		"bid":    f(close),
		"ask":    f(close + 0.0002),
	}
}

// newTestDataset builds n hourly EURUSD bars with a rising close.
func newTestDataset(t *testing.T, n int) *Dataset {
	t.Helper()
	rows := make([]RawRow, n)
	for i := range rows {
		p := 1.1 + float64(i)*0.001
		rows[i] = row("EURUSD", hours(i), p, p+0.0005, p-0.0005, p+0.0002)
	}
	d, err := Load(rows, DefaultMapping())
	require.NoError(t, err)
	return d
}

func hours(n int) time.Time { return t0.Add(time.Duration(n) * time.Hour) }

func TestLoadIntersectsTimestamps(t *testing.T) {
	t.Parallel()

	rows := []RawRow{
		row("EURUSD", hours(0), 1.1, 1.2, 1.0, 1.15),
		row("EURUSD", hours(1), 1.1, 1.2, 1.0, 1.15),
		row("EURUSD", hours(2), 1.1, 1.2, 1.0, 1.15),
		row("USDJPY", hours(1), 110, 111, 109, 110.5),
		row("USDJPY", hours(2), 110, 111, 109, 110.5),
		row("USDJPY", hours(3), 110, 111, 109, 110.5),
	}

	d, err := Load(rows, DefaultMapping())
	require.NoError(t, err)

	assert.Equal(t, []string{"EURUSD", "USDJPY"}, d.Symbols())
	assert.Equal(t, 2, d.Len())
	assert.Equal(t, hours(1), d.Time(0))
	assert.Equal(t, hours(2), d.Time(1))
	assert.Equal(t, 2, d.Stats().Dropped)

	closes, err := d.Column("USDJPY", ColClose)
	require.NoError(t, err)
	assert.Equal(t, []float64{110.5, 110.5}, closes)
}

func TestLoadSortsAndKeepsFirstDuplicate(t *testing.T) {
	t.Parallel()

	rows := []RawRow{
		row("EURUSD", hours(2), 1.3, 1.3, 1.3, 1.3),
		row("EURUSD", hours(0), 1.1, 1.1, 1.1, 1.1),
		row("EURUSD", hours(0), 9, 9, 9, 9),
		row("EURUSD", hours(1), 1.2, 1.2, 1.2, 1.2),
	}

	d, err := Load(rows, DefaultMapping())
	require.NoError(t, err)

	opens, err := d.Column("EURUSD", ColOpen)
	require.NoError(t, err)
	assert.Equal(t, []float64{1.1, 1.2, 1.3}, opens)
	assert.Equal(t, 1, d.Stats().Duplicates)
}

func TestLoadErrors(t *testing.T) {
	t.Parallel()

	noVolume := DefaultMapping()
	delete(noVolume.Columns, ColVolume)

	missingCol := row("EURUSD", hours(0), 1, 1, 1, 1)
	delete(missingCol, "high")

	tests := []struct {
		name    string
		rows    []RawRow
		mapping FieldMapping
		want    error
	}{
		{"no rows", nil, DefaultMapping(), ErrEmptyDataset},
		{"unmapped role", []RawRow{row("EURUSD", hours(0), 1, 1, 1, 1)}, noVolume, ErrDataAlignment},
		{"missing column", []RawRow{missingCol}, DefaultMapping(), ErrDataAlignment},
		{
			"disjoint symbols",
			[]RawRow{row("EURUSD", hours(0), 1, 1, 1, 1), row("USDJPY", hours(1), 1, 1, 1, 1)},
			DefaultMapping(),
			ErrDataAlignment,
		},
		{
			"bad time",
			[]RawRow{{"symbol": "EURUSD", "dt": "yesterday", "tf": "60", "open": "1", "high": "1", "low": "1", "close": "1", "volume": "1"}},
			DefaultMapping(),
			ErrDataAlignment,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Load(tt.rows, tt.mapping)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestLoadOptionalQuotesBecomeNaN(t *testing.T) {
	t.Parallel()

	r := row("EURUSD", hours(0), 1, 1, 1, 1)
	delete(r, "bid")
	delete(r, "ask")

	d, err := Load([]RawRow{r}, DefaultMapping())
	require.NoError(t, err)

	bids, err := d.Column("EURUSD", ColBid)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(bids[0]))

	idx, err := d.FirstValid()
	require.NoError(t, err)
	assert.Equal(t, 0, idx)
}

func TestFirstValidIsLatestAcrossSymbols(t *testing.T) {
	t.Parallel()

	nan := math.NaN()
	rows := []RawRow{
		row("EURUSD", hours(0), nan, 1, 1, 1),
		row("EURUSD", hours(1), 1, 1, 1, 1),
		row("EURUSD", hours(2), 1, 1, 1, 1),
		row("EURUSD", hours(3), 1, 1, 1, 1),
		row("USDJPY", hours(0), 1, 1, 1, nan),
		row("USDJPY", hours(1), 1, 1, 1, nan),
		row("USDJPY", hours(2), 1, 1, 1, 1),
		row("USDJPY", hours(3), 1, 1, 1, 1),
	}
	d, err := Load(rows, DefaultMapping())
	require.NoError(t, err)

	idx, err := d.FirstValid()
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	require.NoError(t, d.Attach("EURUSD", "ema", []float64{nan, nan, nan, 1}))
	idx, err = d.FirstValid()
	require.NoError(t, err)
	assert.Equal(t, 3, idx)

	c := NewCursor(d)
	require.NoError(t, c.MoveFirstValid())
	assert.Equal(t, 3, c.Shift())
}

func TestFirstValidEmptyColumn(t *testing.T) {
	t.Parallel()

	d, err := Load([]RawRow{row("EURUSD", hours(0), 1, 1, 1, 1)}, DefaultMapping())
	require.NoError(t, err)
	require.NoError(t, d.Attach("EURUSD", "broken", []float64{math.NaN()}))

	_, err = d.FirstValid()
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = (&Dataset{}).FirstValid()
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestAttach(t *testing.T) {
	t.Parallel()

	d := newTestDataset(t, 3)

	require.NoError(t, d.Attach("EURUSD", "roc", []float64{1, 2, 3}))
	tbl, err := d.Table("EURUSD")
	require.NoError(t, err)
	assert.Equal(t, "roc", tbl.Columns()[len(tbl.Columns())-1])

	assert.ErrorIs(t, d.Attach("EURUSD", "roc", []float64{1, 2, 3}), ErrDuplicateFeature)
	assert.ErrorIs(t, d.Attach("EURUSD", ColClose, []float64{1, 2, 3}), ErrDuplicateFeature)
	assert.ErrorIs(t, d.Attach("EURUSD", "short", []float64{1, 2}), ErrMisalignedFeature)
	assert.ErrorIs(t, d.Attach("GBPUSD", "x", []float64{1, 2, 3}), ErrUnknownSymbol)

	shifted := []time.Time{hours(1), hours(2), hours(3)}
	assert.ErrorIs(t, d.AttachSeries("EURUSD", "s", shifted, []float64{1, 2, 3}), ErrMisalignedFeature)
	assert.NoError(t, d.AttachSeries("EURUSD", "s", d.Times(), []float64{1, 2, 3}))
}

func TestReadCSV(t *testing.T) {
	t.Parallel()

	in := "symbol,dt,tf,open,high,low,close,volume\n" +
		"EURUSD,2021-06-01 00:00:00,60,1.1,1.2,1.0,1.15,10\n" +
		"EURUSD,2021-06-01 01:00:00,60,1.15,1.25,1.1,1.2,12\n"

	rows, err := ReadCSV(strings.NewReader(in))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "1.15", rows[0]["close"])

	d, err := Load(rows, DefaultMapping())
	require.NoError(t, err)
	assert.Equal(t, 2, d.Len())

	_, err = ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyDataset)
}

func TestParseField(t *testing.T) {
	t.Parallel()

	for _, f := range []Field{Open, High, Low, Close, Bid, Ask} {
		got, err := ParseField(strings.ToUpper(f.String()))
		require.NoError(t, err)
		assert.Equal(t, f, got)
	}
	_, err := ParseField("mid")
	assert.Error(t, err)
	assert.False(t, Field(42).Valid())
}
