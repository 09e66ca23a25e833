package sim

import (
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/kenykau/reinforcement-forex/instrument"
	"github.com/kenykau/reinforcement-forex/internal/num"
	"github.com/kenykau/reinforcement-forex/market"
)

// Config is the account policy of a Portfolio.
type Config struct {
	StartingBalance        float64
	Currency               string
	AllowMultiplePositions bool
}

// StepResult reports what one Apply call did.
type StepResult struct {
	Closed   []*Position
	Opened   *Position
	Rejected RejectReason
	Snapshot Snapshot
}

// Portfolio is the account of one simulation run trading one symbol. It is
// not safe for concurrent use; parallel runs each own a Portfolio.
type Portfolio struct {
	symbol  *instrument.Symbol
	cfg     Config
	log     *zap.Logger
	history *History

	open   []*Position
	closed []*Position
	nextID int64

	balance      float64
	equity       float64
	marginUsed   float64
	marginFree   float64
	maxFavorable float64
	maxAdverse   float64
	maxDrawdown  float64
	lastPnL      float64
	wins         int
	losses       int
	breakEven    int
}

func NewPortfolio(data *market.Dataset, sym *instrument.Symbol, cfg Config, logger *zap.Logger) (*Portfolio, error) {
	if data == nil || sym == nil {
		return nil, fmt.Errorf("%w: portfolio needs a dataset and a symbol", instrument.ErrConfig)
	}
	if !(cfg.StartingBalance > 0) {
		return nil, fmt.Errorf("%w: starting balance must be positive, got %v", instrument.ErrConfig, cfg.StartingBalance)
	}
	if cfg.Currency == "" {
		cfg.Currency = sym.Account
	}
	if cfg.Currency != sym.Account {
		return nil, fmt.Errorf("%w: account currency %s but %s is bound to %s",
			instrument.ErrConfig, cfg.Currency, sym.Name, sym.Account)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	start := num.Cash(cfg.StartingBalance)
	p := &Portfolio{
		symbol:     sym,
		cfg:        cfg,
		log:        logger.With(zap.String("symbol", sym.Name)),
		balance:    start,
		equity:     start,
		marginFree: start,
	}
	p.history = newHistory(data.Times(), p.Snapshot())
	return p, nil
}

func (p *Portfolio) Symbol() *instrument.Symbol { return p.symbol }

func (p *Portfolio) StartingBalance() float64 { return num.Cash(p.cfg.StartingBalance) }

// Open returns the open positions in insertion order.
func (p *Portfolio) Open() []*Position {
	return append([]*Position(nil), p.open...)
}

// Closed returns the closed positions in closing order.
func (p *Portfolio) Closed() []*Position {
	return append([]*Position(nil), p.closed...)
}

func (p *Portfolio) History() *History { return p.history }

// Snapshot returns the current aggregates. Time is left zero.
func (p *Portfolio) Snapshot() Snapshot {
	level := 0.0
	if p.marginUsed > 0 {
		level = num.Round(p.equity/p.marginUsed, 4)
	}
	return Snapshot{
		Balance:       p.balance,
		Equity:        p.equity,
		LastPnL:       p.lastPnL,
		OpenPositions: len(p.open),
		MarginUsed:    p.marginUsed,
		MarginFree:    p.marginFree,
		MarginLevel:   level,
		MaxAdverse:    p.maxAdverse,
		MaxFavorable:  p.maxFavorable,
		MaxDrawdown:   p.maxDrawdown,
		Wins:          p.wins,
		Losses:        p.losses,
		BreakEven:     p.breakEven,
	}
}

// Apply runs one step at the current bar of c: close conflicting positions,
// maybe open one, mark every open position and record the account.
//
// An open request that fails the margin or position policy is rejected
// through StepResult.Rejected, not as an error.
func (p *Portfolio) Apply(c *market.Cursor, action Action, lots float64, applied market.Field) (StepResult, error) {
	if !action.Valid() {
		return StepResult{}, fmt.Errorf("%w: %v", ErrInvalidAction, action)
	}
	var res StepResult
	prev := p.balance

	// A request that cannot be priced fails before any position is closed.
	var pending *Position
	if side, ok := action.Side(); ok {
		pos, err := NewPosition(p.symbol, c, side, lots, applied)
		if err != nil {
			return res, err
		}
		pending = pos
	}

	if action != ActionHold {
		closed, err := p.closeConflicting(c, action, applied)
		res.Closed = closed
		if err != nil {
			return res, err
		}
		if len(p.open) == 0 {
			p.maxFavorable, p.maxAdverse = 0, 0
		}

		if pending != nil {
			res.Rejected = p.admit(pending)
			if res.Rejected == RejectNone {
				res.Opened = pending
			}
		}
	}

	for _, pos := range p.open {
		if err := pos.Update(c); err != nil {
			return res, err
		}
	}

	p.recompute(prev)
	res.Snapshot = p.Snapshot()
	if err := p.history.Set(c.Shift(), res.Snapshot); err != nil {
		return res, err
	}
	res.Snapshot.Time = c.Time()
	return res, nil
}

func (p *Portfolio) closeConflicting(c *market.Cursor, action Action, applied market.Field) ([]*Position, error) {
	var closed []*Position
	kept := p.open[:0]
	for i, pos := range p.open {
		if !action.conflicts(pos.Side) {
			kept = append(kept, pos)
			continue
		}
		if err := pos.Close(c, applied); err != nil {
			// keep the unprocessed tail open
			p.open = append(kept, p.open[i:]...)
			return closed, err
		}
		p.closed = append(p.closed, pos)
		closed = append(closed, pos)
		p.log.Debug("position closed",
			zap.Int64("id", pos.ID),
			zap.Stringer("side", pos.Side),
			zap.Float64("pnl", pos.PnL),
			zap.Time("time", pos.CloseTime),
		)
	}
	p.open = kept
	return closed, nil
}

// freeMargin is margin free as of the latest marks, counting the balance
// realised by closes earlier in this step.
func (p *Portfolio) freeMargin() float64 {
	xs := []float64{p.realisedBalance()}
	for _, pos := range p.open {
		xs = append(xs, pos.PnL, -pos.Margin)
	}
	return num.Sum(num.CashPlaces, xs...)
}

// admit commits pos unless the margin or position policy rejects it.
func (p *Portfolio) admit(pos *Position) RejectReason {
	reason := RejectNone
	free := p.freeMargin()
	switch {
	case pos.Margin >= free:
		reason = RejectInsufficientMargin
	case !p.cfg.AllowMultiplePositions && len(p.open) > 0:
		reason = RejectMultiplePositions
	}
	if reason != RejectNone {
		p.log.Debug("open rejected",
			zap.Stringer("side", pos.Side),
			zap.Float64("lots", pos.Lots),
			zap.Float64("margin", pos.Margin),
			zap.Float64("margin_free", free),
			zap.Stringer("reason", reason),
		)
		return reason
	}

	p.nextID++
	pos.open(p.nextID)
	p.open = append(p.open, pos)
	p.log.Debug("position opened",
		zap.Int64("id", pos.ID),
		zap.Stringer("side", pos.Side),
		zap.Float64("lots", pos.Lots),
		zap.Float64("price", pos.OpenPrice),
		zap.Float64("margin", pos.Margin),
		zap.Time("time", pos.OpenTime),
	)
	return RejectNone
}

func (p *Portfolio) realisedBalance() float64 {
	xs := make([]float64, 0, len(p.closed)+1)
	xs = append(xs, p.cfg.StartingBalance)
	for _, pos := range p.closed {
		xs = append(xs, pos.PnL)
	}
	return num.Sum(num.CashPlaces, xs...)
}

func (p *Portfolio) recompute(prevBalance float64) {
	p.balance = p.realisedBalance()

	eq := []float64{p.balance}
	margins := make([]float64, 0, len(p.open))
	for _, pos := range p.open {
		eq = append(eq, pos.PnL)
		margins = append(margins, pos.Margin)
	}
	p.equity = num.Sum(num.CashPlaces, eq...)
	p.marginUsed = num.Sum(num.CashPlaces, margins...)
	p.marginFree = num.Cash(p.equity - p.marginUsed)
	p.lastPnL = num.Cash(p.balance - prevBalance)

	floating := num.Cash(p.equity - p.balance)
	p.maxAdverse = math.Min(p.maxAdverse, floating)
	p.maxFavorable = math.Max(p.maxFavorable, floating)
	p.maxDrawdown = math.Min(p.maxDrawdown, p.lastPnL)

	p.wins, p.losses, p.breakEven = 0, 0, 0
	for _, pos := range p.closed {
		switch {
		case pos.PnL > 0:
			p.wins++
		case pos.PnL < 0:
			p.losses++
		default:
			p.breakEven++
		}
	}
}
