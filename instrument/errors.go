package instrument

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig marks malformed or incomplete contract configuration.
	ErrConfig            = errors.New("instrument config")
	ErrAmbiguousCashPair = fmt.Errorf("%w: ambiguous cash pair", ErrConfig)
	ErrInvalidPointValue = errors.New("invalid point value")
	ErrNoSessionMatch    = errors.New("no unique session spread")
)
