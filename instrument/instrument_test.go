package instrument

import (
	"errors"
	"math"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/kenykau/reinforcement-forex/market"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)

func f(x float64) string { return strconv.FormatFloat(x, 'f', -1, 64) }

// newDataset builds n hourly bars for each symbol at a flat price; bid is
// the close and ask sits 2 points (10^-digits) above it.
func newDataset(t *testing.T, n int, prices map[string]float64) *market.Dataset {
	t.Helper()
	var rows []market.RawRow
	for _, sym := range []string{"EURUSD", "USDJPY", "GBPUSD", "XAUUSD"} {
		p, ok := prices[sym]
		if !ok {
			continue
		}
		for i := 0; i < n; i++ {
			rows = append(rows, market.RawRow{
				"symbol": sym,
				"dt":     t0.Add(time.Duration(i) * time.Hour).Format("2006-01-02 15:04:05"),
				"tf":     "60",
				"open":   f(p),
				"high":   f(p),
				"low":    f(p),
				"close":  f(p),
				"volume": "1",
				"bid":    f(p),
				"ask":    f(p + 0.0002),
			})
		}
	}
	d, err := market.Load(rows, market.DefaultMapping())
	require.NoError(t, err)
	return d
}

func eurusd() Spec {
	return Spec{
		Name: "EURUSD", Asset: Forex, Leverage: 100, Base: "EUR", Quote: "USD", Digits: 5,
		MinLot: 0.01, MaxLot: 1, LotStep: 0.01, LotSize: 100000,
		SwapDay: time.Wednesday, Spread: SpreadConfig{Mode: SpreadIgnore},
	}
}

func usdjpy() Spec {
	return Spec{
		Name: "USDJPY", Asset: Forex, Leverage: 100, Base: "USD", Quote: "JPY", Digits: 3,
		Commission: 7, MinLot: 0.01, MaxLot: 1, LotStep: 0.01, LotSize: 100000,
		SwapLong: 2.3, SwapShort: 2.75, SwapDay: time.Wednesday,
		Spread: SpreadConfig{Mode: SpreadRandom, Min: 1, Max: 10},
	}
}

func TestCashPair(t *testing.T) {
	t.Parallel()

	symbols := []string{"EURUSD", "USDJPY", "GBPUSD"}
	gbpjpy := Spec{Name: "GBPJPY", Asset: Forex, Base: "GBP", Quote: "JPY"}
	eurgbp := Spec{Name: "EURGBP", Asset: Forex, Base: "EUR", Quote: "GBP"}
	gold := Spec{Name: "XAUUSD", Asset: CFD}

	tests := []struct {
		name    string
		spec    Spec
		symbols []string
		want    string
		wantErr error
	}{
		{"quote is account", eurusd(), symbols, "EURUSD", nil},
		{"usd base", usdjpy(), symbols, "USDJPY", nil},
		{"cross", gbpjpy, symbols, "USDJPY", nil},
		{"cross via gbp", eurgbp, symbols, "GBPUSD", nil},
		{"cfd", gold, symbols, "", nil},
		{"none", usdjpy(), []string{"EURUSD"}, "", ErrAmbiguousCashPair},
		{"two", usdjpy(), []string{"USDJPY", "JPYUSD"}, "", ErrAmbiguousCashPair},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := CashPair(tt.spec, "USD", tt.symbols)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.ErrorIs(t, err, ErrConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBasePair(t *testing.T) {
	t.Parallel()

	symbols := []string{"EURUSD", "USDJPY"}

	got, err := BasePair(eurusd(), "USD", symbols)
	require.NoError(t, err)
	assert.Equal(t, "EURUSD", got)

	got, err = BasePair(usdjpy(), "USD", symbols)
	require.NoError(t, err)
	assert.Equal(t, "", got)
}

func TestPointValue(t *testing.T) {
	t.Parallel()

	d := newDataset(t, 2, map[string]float64{"EURUSD": 1.2, "USDJPY": 110})
	c := market.NewCursor(d)
	rng := rand.New(rand.NewSource(1))

	eu, err := New(eurusd(), "USD", d, nil, rng)
	require.NoError(t, err)
	pv, err := PointValue(eu, c, market.Close)
	require.NoError(t, err)
	assert.Equal(t, 1.0, pv)

	uj, err := New(usdjpy(), "USD", d, nil, rng)
	require.NoError(t, err)
	pv, err = PointValue(uj, c, market.Close)
	require.NoError(t, err)
	assert.InDelta(t, 1/110.0, pv, 1e-15)

	gold := &Symbol{Spec: Spec{Name: "XAUUSD", Asset: CFD, FixedPointValue: 0}, Account: "USD"}
	_, err = PointValue(gold, c, market.Close)
	assert.ErrorIs(t, err, ErrInvalidPointValue)

	gold.FixedPointValue = 100
	pv, err = PointValue(gold, c, market.Close)
	require.NoError(t, err)
	assert.Equal(t, 100.0, pv)
}

func TestPointValueRejectsNonPositiveRate(t *testing.T) {
	t.Parallel()

	d := newDataset(t, 1, map[string]float64{"EURUSD": 1.2, "USDJPY": -1})
	uj := &Symbol{Spec: usdjpy(), Account: "USD", CashPair: "USDJPY", Spread: IgnoreSpread{}}

	_, err := PointValue(uj, market.NewCursor(d), market.Close)
	assert.ErrorIs(t, err, ErrInvalidPointValue)
}

func TestNewValidates(t *testing.T) {
	t.Parallel()

	d := newDataset(t, 1, map[string]float64{"EURUSD": 1.2})

	bad := eurusd()
	bad.Leverage = 0
	_, err := New(bad, "USD", d, nil, nil)
	assert.ErrorIs(t, err, ErrConfig)

	_, err = New(usdjpy(), "USD", d, nil, rand.New(rand.NewSource(1)))
	assert.ErrorIs(t, err, ErrConfig, "symbol missing from dataset")

	_, err = New(eurusd(), "", d, nil, nil)
	assert.ErrorIs(t, err, ErrConfig)

	cfd := Spec{Name: "EURUSD", Asset: CFD, Leverage: 10, LotSize: 1, MinLot: 1, MaxLot: 1, LotStep: 1}
	assert.ErrorIs(t, cfd.Validate(), ErrConfig, "cfd needs a fixed point value")
}

func TestSpreadModes(t *testing.T) {
	t.Parallel()

	const n = 200

	tests := []struct {
		name  string
		cfg   SpreadConfig
		check func(t *testing.T, v float64)
	}{
		{"ignore", SpreadConfig{Mode: SpreadIgnore}, func(t *testing.T, v float64) {
			assert.Equal(t, 0.0, v)
		}},
		{"fixed", SpreadConfig{Mode: SpreadFixed, Fixed: 3}, func(t *testing.T, v float64) {
			assert.Equal(t, 0.00003, v)
		}},
		{"bidask", SpreadConfig{Mode: SpreadBidAsk}, func(t *testing.T, v float64) {
			assert.Equal(t, 0.0002, v)
		}},
		{"random", SpreadConfig{Mode: SpreadRandom, Min: 1, Max: 10}, func(t *testing.T, v float64) {
			assert.GreaterOrEqual(t, v, 0.00001)
			assert.LessOrEqual(t, v, 0.0001)
			assert.Equal(t, math.Round(v*1e5)/1e5, v)
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := newDataset(t, n, map[string]float64{"EURUSD": 1.2})
			spec := eurusd()
			spec.Spread = tt.cfg

			s, err := NewSpread(spec, d, nil, rand.New(rand.NewSource(7)))
			require.NoError(t, err)
			assert.Equal(t, tt.cfg.Mode, s.Mode())

			c := market.NewCursor(d)
			for i := 0; i < n; i++ {
				require.NoError(t, c.Move(i))
				v, err := s.Current(c)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, v, 0.0)
				tt.check(t, v)
			}

			_, err = NewSpread(spec, d, nil, rand.New(rand.NewSource(7)))
			assert.ErrorIs(t, err, market.ErrDuplicateFeature)
		})
	}
}

func TestRandomSpreadIsSeeded(t *testing.T) {
	t.Parallel()

	gen := func() []float64 {
		d := newDataset(t, 20, map[string]float64{"USDJPY": 110})
		_, err := NewSpread(usdjpy(), d, nil, rand.New(rand.NewSource(42)))
		require.NoError(t, err)
		col, err := d.Column("USDJPY", ColSpread)
		require.NoError(t, err)
		return col
	}
	assert.Equal(t, gen(), gen())

	d := newDataset(t, 1, map[string]float64{"USDJPY": 110})
	_, err := NewSpread(usdjpy(), d, nil, nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestBidAskSpreadRejectsCrossedQuotes(t *testing.T) {
	t.Parallel()

	rows := []market.RawRow{{
		"symbol": "EURUSD", "dt": "2021-06-01 00:00:00", "tf": "60",
		"open": "1.2", "high": "1.2", "low": "1.2", "close": "1.2", "volume": "1",
		"bid": "1.2002", "ask": "1.2",
	}}
	d, err := market.Load(rows, market.DefaultMapping())
	require.NoError(t, err)

	spec := eurusd()
	spec.Spread.Mode = SpreadBidAsk
	_, err = NewSpread(spec, d, nil, nil)
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSessionalSpread(t *testing.T) {
	t.Parallel()

	table, err := NewSessionTable(
		SessionRange{Begin: 0, End: 8 * time.Hour, Spread: 20},
		SessionRange{Begin: 8 * time.Hour, End: 24 * time.Hour, Spread: 5},
	)
	require.NoError(t, err)
	assert.True(t, table.Covers())

	d := newDataset(t, 24, map[string]float64{"EURUSD": 1.2})
	spec := eurusd()
	spec.Spread.Mode = SpreadSessional

	_, err = NewSpread(spec, d, nil, nil)
	assert.ErrorIs(t, err, ErrConfig)

	partial, err := NewSessionTable(SessionRange{Begin: 0, End: 8 * time.Hour, Spread: 20})
	require.NoError(t, err)
	_, err = NewSpread(spec, d, partial, nil)
	assert.ErrorIs(t, err, ErrConfig)

	s, err := NewSpread(spec, d, table, nil)
	require.NoError(t, err)

	c := market.NewCursor(d)
	for i := 0; i < 24; i++ {
		require.NoError(t, c.Move(i))
		v, err := s.Current(c)
		require.NoError(t, err)
		if i < 8 {
			assert.Equal(t, 0.0002, v, "hour %d", i)
		} else {
			assert.Equal(t, 0.00005, v, "hour %d", i)
		}
	}
}

func TestSessionTable(t *testing.T) {
	t.Parallel()

	table, err := NewSessionTable(SessionRange{Begin: 0, End: 12 * time.Hour, Spread: 1})
	require.NoError(t, err)
	assert.False(t, table.Covers())

	err = table.Add(11*time.Hour, 13*time.Hour, 1)
	assert.ErrorIs(t, err, ErrConfig, "overlap")
	assert.ErrorIs(t, table.Add(14*time.Hour, 13*time.Hour, 1), ErrConfig, "inverted")
	assert.ErrorIs(t, table.Add(12*time.Hour, 25*time.Hour, 1), ErrConfig, "past midnight")
	assert.ErrorIs(t, table.Add(12*time.Hour, 13*time.Hour, -1), ErrConfig, "negative")

	_, err = table.Lookup(t0.Add(12 * time.Hour))
	assert.True(t, errors.Is(err, ErrNoSessionMatch))

	// half-open: 12:00 belongs to the second range only
	require.NoError(t, table.Add(12*time.Hour, 24*time.Hour, 2))
	v, err := table.Lookup(t0.Add(12 * time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 2.0, v)
	v, err = table.Lookup(t0.Add(12*time.Hour - time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)
	assert.Len(t, table.Ranges(), 2)
}

func TestParseClock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"00:00", 0, true},
		{"08:30", 8*time.Hour + 30*time.Minute, true},
		{"23:59:59", 24*time.Hour - time.Second, true},
		{"24:00", 24 * time.Hour, true},
		{"24:01", 0, false},
		{"7", 0, false},
		{"aa:bb", 0, false},
	}
	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if !tt.ok {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestParseModes(t *testing.T) {
	t.Parallel()

	m, err := ParseSpreadMode("Sessional")
	require.NoError(t, err)
	assert.Equal(t, SpreadSessional, m)
	_, err = ParseSpreadMode("tight")
	assert.ErrorIs(t, err, ErrConfig)

	a, err := ParseAssetClass("CFD")
	require.NoError(t, err)
	assert.Equal(t, CFD, a)
	assert.Equal(t, "forex", Forex.String())
}
