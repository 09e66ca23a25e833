package strategies

import (
	"fmt"

	"github.com/kenykau/reinforcement-forex/market"
	"github.com/kenykau/reinforcement-forex/sim"
)

// OpenOnce opens one position on the first bar and holds it.
type OpenOnce struct {
	Side   sim.Side
	opened bool
}

func NewOpenOnce(side sim.Side) (*OpenOnce, error) {
	if !side.Valid() {
		return nil, fmt.Errorf("open-once: side must be long or short, got %v", side)
	}
	return &OpenOnce{Side: side}, nil
}

func (s *OpenOnce) Decide(_ *market.Cursor, p *sim.Portfolio) (sim.Action, error) {
	if s.opened {
		return sim.ActionHold, nil
	}
	a := target(p, s.Side)
	s.opened = true
	return a, nil
}

