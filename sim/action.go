package sim

import (
	"fmt"
	"strings"
)

// Action is the single trading decision applied per step.
type Action int

const (
	ActionHold Action = iota
	ActionLong
	ActionShort
	ActionCloseAll
)

func (a Action) Valid() bool { return a >= ActionHold && a <= ActionCloseAll }

// Side is the direction an action opens, if any.
func (a Action) Side() (Side, bool) {
	switch a {
	case ActionLong:
		return Long, true
	case ActionShort:
		return Short, true
	}
	return 0, false
}

func (a Action) String() string {
	switch a {
	case ActionHold:
		return "hold"
	case ActionLong:
		return "long"
	case ActionShort:
		return "short"
	case ActionCloseAll:
		return "close_all"
	default:
		return fmt.Sprintf("Action(%d)", int(a))
	}
}

func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hold", "":
		return ActionHold, nil
	case "long", "buy":
		return ActionLong, nil
	case "short", "sell":
		return ActionShort, nil
	case "close_all", "closeall", "close":
		return ActionCloseAll, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidAction, s)
}

// conflicts reports whether an open position on side must be closed
// before a applies.
func (a Action) conflicts(side Side) bool {
	switch a {
	case ActionCloseAll:
		return true
	case ActionLong:
		return side != Long
	case ActionShort:
		return side != Short
	}
	return false
}

// RejectReason explains why an open request produced no position.
type RejectReason int

const (
	RejectNone RejectReason = iota
	RejectInsufficientMargin
	RejectMultiplePositions
)

func (r RejectReason) String() string {
	switch r {
	case RejectNone:
		return ""
	case RejectInsufficientMargin:
		return "insufficient_margin"
	case RejectMultiplePositions:
		return "multiple_positions"
	default:
		return fmt.Sprintf("RejectReason(%d)", int(r))
	}
}
