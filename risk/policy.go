// Package risk holds the account policies layered on top of a portfolio:
// the margin-call stop-out and lot sizing.
package risk

import (
	"fmt"

	"github.com/kenykau/reinforcement-forex/sim"
)

// DefaultMinEquityFraction is the equity floor, as a fraction of the
// starting balance, used when none is configured.
const DefaultMinEquityFraction = 0.5

// StopOut forces a run to liquidate when equity falls below
// Fraction*balance or below MinEquity. A zero MinEquity disables the floor.
type StopOut struct {
	Fraction  float64 // e.g. 0.3
	MinEquity float64 // absolute floor in account currency
}

// NewStopOut builds the policy for an account starting at start. A zero
// floor fraction disables the floor.
func NewStopOut(fraction, floorFraction, start float64) (StopOut, error) {
	if fraction < 0 || fraction > 1 {
		return StopOut{}, fmt.Errorf("stop out fraction %v not in [0,1]", fraction)
	}
	if floorFraction < 0 || floorFraction > 1 {
		return StopOut{}, fmt.Errorf("min equity fraction %v not in [0,1]", floorFraction)
	}
	return StopOut{Fraction: fraction, MinEquity: start * floorFraction}, nil
}

type Violation struct {
	Code string
	Msg  string
}

type Decision struct {
	Triggered  bool
	Violations []Violation
}

func (d *Decision) add(code, msg string) {
	d.Violations = append(d.Violations, Violation{Code: code, Msg: msg})
	d.Triggered = true
}

// Reason joins the violation codes.
func (d Decision) Reason() string {
	out := ""
	for i, v := range d.Violations {
		if i > 0 {
			out += ","
		}
		out += v.Code
	}
	return out
}

// Evaluate checks one account snapshot.
func (p StopOut) Evaluate(s sim.Snapshot) Decision {
	var d Decision

	if limit := s.Balance * p.Fraction; s.Equity < limit {
		d.add("STOP_OUT", fmt.Sprintf("equity %.2f below %.0f%% of balance %.2f", s.Equity, 100*p.Fraction, s.Balance))
	}
	if p.MinEquity > 0 && s.Equity < p.MinEquity {
		d.add("MIN_EQUITY", fmt.Sprintf("equity %.2f below floor %.2f", s.Equity, p.MinEquity))
	}
	return d
}
