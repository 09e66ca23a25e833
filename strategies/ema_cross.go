package strategies

import (
	"errors"
	"fmt"
	"math"

	"github.com/kenykau/reinforcement-forex/market"
	"github.com/kenykau/reinforcement-forex/sim"
)

// Cross trades sign changes of a feature column, typically the EMA code
// (+1 close above its average, -1 below).
//   - Enters only on a cross
//   - Reverses on the opposite cross (close then open)
//   - A position closed by the session is not reopened until the next cross
type Cross struct {
	Symbol string
	Column string

	last     float64
	haveLast bool
}

func NewCross(symbol, column string) (*Cross, error) {
	if symbol == "" || column == "" {
		return nil, errors.New("ema-cross: symbol and feature column are required")
	}
	return &Cross{Symbol: symbol, Column: column}, nil
}

func (s *Cross) Decide(c *market.Cursor, p *sim.Portfolio) (sim.Action, error) {
	v, err := c.Value(s.Symbol, s.Column)
	if err != nil {
		return sim.ActionHold, fmt.Errorf("ema-cross %s: %w", s.Column, err)
	}
	if math.IsNaN(v) {
		return sim.ActionHold, nil
	}

	// Need a previous value to detect a cross.
	if !s.haveLast {
		s.last, s.haveLast = v, true
		return sim.ActionHold, nil
	}

	bull := v > 0 && s.last <= 0
	bear := v < 0 && s.last >= 0
	s.last = v

	switch {
	case bull:
		return target(p, sim.Long), nil
	case bear:
		return target(p, sim.Short), nil
	default:
		return sim.ActionHold, nil
	}
}
