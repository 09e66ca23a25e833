// Package backtest drives a portfolio bar by bar, either from an external
// agent through Step or from a built-in strategy through Run.
package backtest

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kenykau/reinforcement-forex/instrument"
	"github.com/kenykau/reinforcement-forex/market"
	"github.com/kenykau/reinforcement-forex/risk"
	"github.com/kenykau/reinforcement-forex/sim"
	"github.com/kenykau/reinforcement-forex/strategies"
)

// Close reasons recorded for positions the session closes itself.
const (
	ReasonEndOfData = "END_OF_DATA"
	ReasonMaxSteps  = "MAX_STEPS"
)

var ErrSessionFinished = errors.New("backtest: session finished")

// Options controls how a session sizes and drives its trades.
type Options struct {
	Lots    float64
	Applied market.Field

	// WarmupBars are skipped past the first bar where every feature is
	// defined.
	WarmupBars int
	// MaxSteps stops the run after that many steps; 0 means no limit.
	MaxSteps int
	// CloseEnd liquidates open positions when the data runs out. Stop-outs
	// always liquidate.
	CloseEnd bool

	// RiskPct and RiskPoints size each open from equity instead of Lots.
	RiskPct    float64
	RiskPoints float64

	StopOut risk.StopOut
	// Account is the portfolio configuration used by Reset.
	Account sim.Config
}

// StepOutcome is what one Step reports back to the caller.
type StepOutcome struct {
	sim.StepResult
	// Reward is the relative equity change over the step.
	Reward float64
	Done   bool
	Reason string
}

// Session is one simulation run over a prepared dataset. It is not safe for
// concurrent use.
type Session struct {
	data   *market.Dataset
	symbol *instrument.Symbol
	opts   Options
	log    *zap.Logger

	cursor    *market.Cursor
	portfolio *sim.Portfolio
	start     int

	steps    int
	done     bool
	finished bool
	reason   string
	reasons  map[int64]string
}

func NewSession(data *market.Dataset, sym *instrument.Symbol, opts Options, logger *zap.Logger) (*Session, error) {
	if data == nil || sym == nil {
		return nil, errors.New("backtest: dataset and symbol are required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	first, err := data.FirstValid()
	if err != nil {
		return nil, err
	}
	start := first + opts.WarmupBars
	if start >= data.Len() {
		return nil, fmt.Errorf("%w: start bar %d with %d bars", market.ErrInsufficientHistory, start, data.Len())
	}

	s := &Session{
		data:   data,
		symbol: sym,
		opts:   opts,
		log:    logger.With(zap.String("symbol", sym.Name)),
		start:  start,
	}
	if err := s.Reset(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reset discards the portfolio and moves back to the start bar.
func (s *Session) Reset() error {
	p, err := sim.NewPortfolio(s.data, s.symbol, s.opts.Account, s.log)
	if err != nil {
		return err
	}
	s.cursor = market.NewCursor(s.data)
	if err := s.cursor.Move(s.start); err != nil {
		return err
	}
	s.portfolio = p
	s.steps = 0
	s.done, s.finished, s.reason = false, false, ""
	s.reasons = map[int64]string{}
	s.evaluate()
	return nil
}

func (s *Session) Cursor() *market.Cursor { return s.cursor }
func (s *Session) Portfolio() *sim.Portfolio { return s.portfolio }
func (s *Session) Symbol() *instrument.Symbol { return s.symbol }
func (s *Session) Done() bool { return s.done }
func (s *Session) Finished() bool { return s.finished }
func (s *Session) Reason() string { return s.reason }
func (s *Session) Steps() int { return s.steps }
func (s *Session) CloseReasons() map[int64]string { return s.reasons }

// Step advances one bar and applies action there. Once the run is done the
// next Step liquidates at the current bar instead, whatever action is, and
// the session is finished.
func (s *Session) Step(action sim.Action) (StepOutcome, error) {
	return s.step(func() (sim.Action, error) { return action, nil })
}

func (s *Session) step(decide func() (sim.Action, error)) (StepOutcome, error) {
	if s.finished {
		return StepOutcome{Done: true, Reason: s.reason}, ErrSessionFinished
	}
	prev := s.portfolio.Snapshot().Equity

	var (
		res sim.StepResult
		err error
	)
	if !s.done {
		if err := s.cursor.Advance(); err != nil {
			return StepOutcome{}, err
		}
		action, err := decide()
		if err != nil {
			return StepOutcome{}, err
		}
		lots, err := s.lots()
		if err != nil {
			return StepOutcome{}, err
		}
		res, err = s.portfolio.Apply(s.cursor, action, lots, s.opts.Applied)
		if err != nil {
			return StepOutcome{}, err
		}
		s.steps++
		s.evaluate()
	} else {
		res, err = s.portfolio.Apply(s.cursor, sim.ActionCloseAll, 0, s.opts.Applied)
		if err != nil {
			return StepOutcome{}, err
		}
		for _, pos := range res.Closed {
			s.reasons[pos.ID] = s.reason
		}
		s.finished = true
		s.log.Info("session liquidated",
			zap.String("reason", s.reason),
			zap.Int("closed", len(res.Closed)),
			zap.Float64("balance", res.Snapshot.Balance),
		)
	}

	out := StepOutcome{StepResult: res, Done: s.done, Reason: s.reason}
	if eq := res.Snapshot.Equity; eq != 0 {
		out.Reward = (eq - prev) / eq
	}
	return out, nil
}

// evaluate marks the run done at the last bar, on a stop-out or once
// MaxSteps is reached.
func (s *Session) evaluate() {
	if s.done {
		return
	}
	if d := s.opts.StopOut.Evaluate(s.portfolio.Snapshot()); d.Triggered {
		s.done, s.reason = true, d.Reason()
		s.log.Info("stop out",
			zap.String("reason", s.reason),
			zap.Time("time", s.cursor.Time()),
			zap.Float64("equity", s.portfolio.Snapshot().Equity),
		)
		return
	}
	if s.cursor.AtEnd() {
		s.done, s.reason = true, ReasonEndOfData
		s.log.Info("end of data", zap.Time("time", s.cursor.Time()))
		return
	}
	if s.opts.MaxSteps > 0 && s.steps >= s.opts.MaxSteps {
		s.done, s.reason = true, ReasonMaxSteps
	}
}

func (s *Session) lots() (float64, error) {
	if s.opts.RiskPct <= 0 {
		return risk.NormalizeLots(s.symbol.Spec, s.opts.Lots), nil
	}
	pv, err := instrument.PointValue(s.symbol, s.cursor, market.Close)
	if err != nil {
		return 0, err
	}
	equity := s.portfolio.Snapshot().Equity
	return risk.LotsForRisk(s.symbol.Spec, equity, s.opts.RiskPct, s.opts.RiskPoints, pv), nil
}

// Run drives the session with strat until it is done, then liquidates
// unless the data ran out and CloseEnd is off. The context is checked
// between steps.
func (s *Session) Run(ctx context.Context, strat strategies.Strategy) error {
	if strat == nil {
		return errors.New("backtest: strategy is required")
	}
	decide := func() (sim.Action, error) { return strat.Decide(s.cursor, s.portfolio) }

	for !s.done {
		if err := ctx.Err(); err != nil {
			return err
		}
		if _, err := s.step(decide); err != nil {
			return err
		}
	}
	if s.reason == ReasonEndOfData && !s.opts.CloseEnd {
		return nil
	}
	_, err := s.step(decide)
	return err
}

// Observation is the flattened price window of the traded symbol followed
// by the current account values. exclude drops price columns by name.
func (s *Session) Observation(size int, exclude []string) ([]float64, error) {
	frame, err := s.cursor.Window(s.symbol.Name, size, nil, exclude)
	if err != nil {
		return nil, err
	}
	out := frame.Flatten()
	row, _ := s.portfolio.History().Row(s.cursor.Shift())
	return append(out, row.Values()...), nil
}
