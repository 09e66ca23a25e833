package strategies

import (
	"errors"
	"fmt"
	"math"

	"github.com/kenykau/reinforcement-forex/market"
	"github.com/kenykau/reinforcement-forex/sim"
)

// Feature is long while a feature column is positive and short while it is
// negative. Zero and missing values hold.
type Feature struct {
	Symbol string
	Column string
}

func NewFeature(symbol, column string) (*Feature, error) {
	if symbol == "" || column == "" {
		return nil, errors.New("feature: symbol and feature column are required")
	}
	return &Feature{Symbol: symbol, Column: column}, nil
}

func (s *Feature) Decide(c *market.Cursor, p *sim.Portfolio) (sim.Action, error) {
	v, err := c.Value(s.Symbol, s.Column)
	if err != nil {
		return sim.ActionHold, fmt.Errorf("feature %s: %w", s.Column, err)
	}
	switch {
	case math.IsNaN(v) || v == 0:
		return sim.ActionHold, nil
	case v > 0:
		return target(p, sim.Long), nil
	default:
		return target(p, sim.Short), nil
	}
}
