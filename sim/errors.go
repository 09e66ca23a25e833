package sim

import "errors"

var (
	ErrAlreadyClosed       = errors.New("position already closed")
	ErrPositionNotOpen     = errors.New("position not open")
	ErrInvalidSide         = errors.New("invalid side")
	ErrInvalidAction       = errors.New("invalid action")
	ErrLotsBelowMinimum    = errors.New("lots below contract minimum")
	ErrInvalidAppliedPrice = errors.New("invalid applied price")
	ErrInvalidMargin       = errors.New("invalid margin")
)
