package strategies

import (
	"github.com/kenykau/reinforcement-forex/market"
	"github.com/kenykau/reinforcement-forex/sim"
)

// Hold does nothing.
type Hold struct{}

func (Hold) Decide(*market.Cursor, *sim.Portfolio) (sim.Action, error) {
	return sim.ActionHold, nil
}
