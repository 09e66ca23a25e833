package instrument

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/kenykau/reinforcement-forex/internal/num"
	"github.com/kenykau/reinforcement-forex/market"
)

// ColSpread is the derived column holding precomputed spreads.
const ColSpread = "spread"

// Spread yields the non-negative spread, in price units, of the bar under
// a cursor.
type Spread interface {
	Mode() SpreadMode
	Current(c *market.Cursor) (float64, error)
}

// NewSpread builds the spread policy of spec. Every mode except
// SpreadSessional precomputes a "spread" column on d.
func NewSpread(spec Spec, d *market.Dataset, sessions *SessionTable, rng *rand.Rand) (Spread, error) {
	n := d.Len()
	values := make([]float64, n)

	switch spec.Spread.Mode {
	case SpreadSessional:
		if sessions == nil {
			return nil, fmt.Errorf("%w: %s sessional spread needs a session table", ErrConfig, spec.Name)
		}
		if !sessions.Covers() {
			return nil, fmt.Errorf("%w: %s session table leaves part of the day uncovered", ErrConfig, spec.Name)
		}
		return &SessionalSpread{table: sessions, point: spec.Point(), digits: spec.Digits}, nil

	case SpreadIgnore:
		if err := d.Attach(spec.Name, ColSpread, values); err != nil {
			return nil, err
		}
		return IgnoreSpread{}, nil

	case SpreadFixed:
		v := num.Round(spec.Spread.Fixed*spec.Point(), spec.Digits)
		for i := range values {
			values[i] = v
		}
		if err := d.Attach(spec.Name, ColSpread, values); err != nil {
			return nil, err
		}
		return &FixedSpread{symbol: spec.Name, value: v}, nil

	case SpreadRandom:
		if rng == nil {
			return nil, fmt.Errorf("%w: %s random spread needs a random source", ErrConfig, spec.Name)
		}
		lo := spec.Spread.Min * spec.Point()
		hi := spec.Spread.Max * spec.Point()
		for i := range values {
			values[i] = num.Round(lo+rng.Float64()*(hi-lo), spec.Digits)
		}
		if err := d.Attach(spec.Name, ColSpread, values); err != nil {
			return nil, err
		}
		return &RandomSpread{symbol: spec.Name, Min: lo, Max: hi}, nil

	case SpreadBidAsk:
		bid, err := d.Column(spec.Name, market.ColBid)
		if err != nil {
			return nil, err
		}
		ask, err := d.Column(spec.Name, market.ColAsk)
		if err != nil {
			return nil, err
		}
		for i := range values {
			v := num.Round(ask[i]-bid[i], spec.Digits)
			if v < 0 {
				return nil, fmt.Errorf("%w: %s ask below bid at %s", ErrConfig, spec.Name, d.Time(i))
			}
			values[i] = v
		}
		if err := d.Attach(spec.Name, ColSpread, values); err != nil {
			return nil, err
		}
		return &BidAskSpread{symbol: spec.Name}, nil

	default:
		return nil, fmt.Errorf("%w: %s unknown spread mode %v", ErrConfig, spec.Name, spec.Spread.Mode)
	}
}

func columnSpread(c *market.Cursor, symbol string) (float64, error) {
	v, err := c.Value(symbol, ColSpread)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s spread at %s", market.ErrMissingValue, symbol, c.Time())
	}
	return v, nil
}

type FixedSpread struct {
	symbol string
	value  float64
}

func (*FixedSpread) Mode() SpreadMode { return SpreadFixed }

func (s *FixedSpread) Current(c *market.Cursor) (float64, error) {
	return columnSpread(c, s.symbol)
}

// RandomSpread draws every bar independently from [Min, Max].
type RandomSpread struct {
	symbol string
	Min    float64
	Max    float64
}

func (*RandomSpread) Mode() SpreadMode { return SpreadRandom }

func (s *RandomSpread) Current(c *market.Cursor) (float64, error) {
	return columnSpread(c, s.symbol)
}

type BidAskSpread struct {
	symbol string
}

func (*BidAskSpread) Mode() SpreadMode { return SpreadBidAsk }

func (s *BidAskSpread) Current(c *market.Cursor) (float64, error) {
	return columnSpread(c, s.symbol)
}

type IgnoreSpread struct{}

func (IgnoreSpread) Mode() SpreadMode { return SpreadIgnore }

func (IgnoreSpread) Current(*market.Cursor) (float64, error) { return 0, nil }

// SessionalSpread looks the spread up by the time of day of the bar.
type SessionalSpread struct {
	table  *SessionTable
	point  float64
	digits int
}

func (*SessionalSpread) Mode() SpreadMode { return SpreadSessional }

func (s *SessionalSpread) Current(c *market.Cursor) (float64, error) {
	pts, err := s.table.Lookup(c.Time())
	if err != nil {
		return 0, err
	}
	return num.Round(pts*s.point, s.digits), nil
}
