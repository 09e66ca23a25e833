package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/kenykau/reinforcement-forex/instrument"
	"github.com/kenykau/reinforcement-forex/internal/num"
	"github.com/kenykau/reinforcement-forex/market"
)

const swapPeriod = 24 * time.Hour

type Side int

const (
	Long  Side = 1
	Short Side = -1
)

func (s Side) Valid() bool { return s == Long || s == Short }

func (s Side) Sign() float64 { return float64(s) }

func (s Side) String() string {
	switch s {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return fmt.Sprintf("Side(%d)", int(s))
	}
}

// Position is a single trade. It is pending (ID 0) until a Portfolio
// commits it, open until Close, and immutable afterwards.
//
// The buying side pays the spread: a long adds it to the entry price and a
// short adds it to every exit price.
type Position struct {
	ID     int64
	Symbol *instrument.Symbol
	Side   Side
	Lots   float64

	OpenTime   time.Time
	OpenPrice  float64
	Commission float64
	Swap       float64
	Margin     float64

	PnL          float64
	MaxAdverse   float64 // <= 0
	MaxFavorable float64 // >= 0

	CloseTime  time.Time
	ClosePrice float64
	Closed     bool

	lastSwap time.Time
}

func validApplied(f market.Field) bool {
	switch f {
	case market.Open, market.Close, market.Bid, market.Ask:
		return true
	}
	return false
}

// NewPosition prices a pending position at the open of the current bar.
func NewPosition(sym *instrument.Symbol, c *market.Cursor, side Side, lots float64, applied market.Field) (*Position, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSide, side)
	}
	if !validApplied(applied) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAppliedPrice, applied)
	}
	if lots < sym.MinLot {
		return nil, fmt.Errorf("%w: %s %v < %v", ErrLotsBelowMinimum, sym.Name, lots, sym.MinLot)
	}

	open, err := c.Price(sym.Name, market.Open)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", sym.Name, err)
	}
	var spread float64
	if side == Long {
		if spread, err = sym.CurrentSpread(c); err != nil {
			return nil, fmt.Errorf("open %s: %w", sym.Name, err)
		}
	}

	p := &Position{
		Symbol:     sym,
		Side:       side,
		Lots:       lots,
		OpenTime:   c.Time(),
		OpenPrice:  num.Round(open+spread, sym.Digits),
		Commission: num.Cash(sym.Commission * lots),
		lastSwap:   c.Time(),
	}
	if p.Margin, err = Margin(sym, c, lots, p.OpenPrice, applied); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Position) open(id int64) { p.ID = id }

// Pending reports whether the position has not been committed yet.
func (p *Position) Pending() bool { return p.ID == 0 }

func (p *Position) checkOpen() error {
	if p.Closed {
		return fmt.Errorf("%w: %d", ErrAlreadyClosed, p.ID)
	}
	if p.Pending() {
		return ErrPositionNotOpen
	}
	return nil
}

// exitSpread is the spread paid when leaving the position now.
func (p *Position) exitSpread(c *market.Cursor) (float64, error) {
	if p.Side == Long {
		return 0, nil
	}
	return p.Symbol.CurrentSpread(c)
}

func (p *Position) multiplier(c *market.Cursor) (float64, error) {
	pv, err := instrument.PointValue(p.Symbol, c, market.Close)
	if err != nil {
		return 0, err
	}
	return p.Side.Sign() * p.Lots * p.Symbol.LotSize * pv, nil
}

// Update marks the position to the current bar.
func (p *Position) Update(c *market.Cursor) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	name := p.Symbol.Name

	bar, err := c.Bar(name)
	if err != nil {
		return fmt.Errorf("update %d: %w", p.ID, err)
	}
	if math.IsNaN(bar.High) || math.IsNaN(bar.Low) || math.IsNaN(bar.Close) {
		return fmt.Errorf("update %d: %w: %s at %s", p.ID, market.ErrMissingValue, name, bar.Time.Format(time.RFC3339))
	}
	spread, err := p.exitSpread(c)
	if err != nil {
		return fmt.Errorf("update %d: %w", p.ID, err)
	}
	mult, err := p.multiplier(c)
	if err != nil {
		return fmt.Errorf("update %d: %w", p.ID, err)
	}

	h2o := bar.High + spread - p.OpenPrice
	l2o := bar.Low + spread - p.OpenPrice
	c2o := bar.Close + spread - p.OpenPrice

	p.CloseTime = bar.CloseTime()
	p.ClosePrice = bar.Close + spread
	p.accrueSwap(p.CloseTime)

	adverse, favorable := l2o, h2o
	if p.Side == Short {
		adverse, favorable = h2o, l2o
	}
	p.MaxAdverse = math.Min(p.MaxAdverse, cashPL(adverse, mult, p.Commission, p.Swap))
	p.MaxFavorable = math.Max(p.MaxFavorable, cashPL(favorable, mult, p.Commission, p.Swap))
	p.PnL = cashPL(c2o, mult, p.Commission, p.Swap)
	return nil
}

// accrueSwap charges one night of swap for every 24 hours elapsed since the
// last charge, three nights when the boundary falls on the swap day.
func (p *Position) accrueSwap(until time.Time) {
	rate := p.Symbol.SwapRate(p.Side == Long)
	for next := p.lastSwap.Add(swapPeriod); !until.Before(next); next = p.lastSwap.Add(swapPeriod) {
		p.lastSwap = next
		k := 1.0
		if next.Weekday() == p.Symbol.SwapDay {
			k = 3
		}
		p.Swap = num.Sum(num.CashPlaces, p.Swap, num.Cash(rate*p.Lots*k))
	}
}

// Close realises the position at the applied field of the current bar.
func (p *Position) Close(c *market.Cursor, applied market.Field) error {
	if err := p.checkOpen(); err != nil {
		return err
	}
	if !validApplied(applied) {
		return fmt.Errorf("%w: %v", ErrInvalidAppliedPrice, applied)
	}
	name := p.Symbol.Name

	px, err := c.Price(name, applied)
	if err != nil {
		return fmt.Errorf("close %d: %w", p.ID, err)
	}
	spread, err := p.exitSpread(c)
	if err != nil {
		return fmt.Errorf("close %d: %w", p.ID, err)
	}
	mult, err := p.multiplier(c)
	if err != nil {
		return fmt.Errorf("close %d: %w", p.ID, err)
	}

	p.ClosePrice = px + spread
	p.CloseTime = c.Time()
	p.PnL = cashPL(p.ClosePrice-p.OpenPrice, mult, p.Commission, p.Swap)
	p.MaxAdverse = math.Min(p.MaxAdverse, p.PnL)
	p.MaxFavorable = math.Max(p.MaxFavorable, p.PnL)
	p.Closed = true
	return nil
}
