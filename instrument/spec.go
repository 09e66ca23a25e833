// Package instrument holds the static trading contract of each symbol and
// the spread policy applied to it.
package instrument

import (
	"fmt"
	"math"
	"strings"
	"time"
)

type AssetClass int

const (
	Forex AssetClass = iota
	CFD
)

func (a AssetClass) String() string {
	switch a {
	case Forex:
		return "forex"
	case CFD:
		return "cfd"
	default:
		return fmt.Sprintf("AssetClass(%d)", int(a))
	}
}

func ParseAssetClass(s string) (AssetClass, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forex", "fx":
		return Forex, nil
	case "cfd":
		return CFD, nil
	default:
		return 0, fmt.Errorf("%w: unknown asset class %q", ErrConfig, s)
	}
}

type SpreadMode int

const (
	SpreadBidAsk SpreadMode = iota
	SpreadRandom
	SpreadIgnore
	SpreadFixed
	SpreadSessional
)

func (m SpreadMode) String() string {
	switch m {
	case SpreadBidAsk:
		return "bidask"
	case SpreadRandom:
		return "random"
	case SpreadIgnore:
		return "ignore"
	case SpreadFixed:
		return "fixed"
	case SpreadSessional:
		return "sessional"
	default:
		return fmt.Sprintf("SpreadMode(%d)", int(m))
	}
}

func ParseSpreadMode(s string) (SpreadMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "bidask", "bid_ask":
		return SpreadBidAsk, nil
	case "random":
		return SpreadRandom, nil
	case "ignore", "none":
		return SpreadIgnore, nil
	case "fixed":
		return SpreadFixed, nil
	case "sessional", "session":
		return SpreadSessional, nil
	default:
		return 0, fmt.Errorf("%w: unknown spread mode %q", ErrConfig, s)
	}
}

// SpreadConfig parameters are in points, 10^-Digits of a price unit.
type SpreadConfig struct {
	Mode  SpreadMode
	Min   float64
	Max   float64
	Fixed float64
}

// Spec is the immutable contract of one symbol.
type Spec struct {
	Name     string
	Asset    AssetClass
	Leverage float64
	Base     string
	Quote    string
	Digits   int

	Commission float64 // account currency per lot

	MinLot  float64
	MaxLot  float64
	LotStep float64
	LotSize float64 // units per lot

	SwapLong  float64 // account currency per lot per night
	SwapShort float64
	SwapDay   time.Weekday // triple swap is charged on this day

	Spread SpreadConfig

	FixedPointValue float64 // used for non-forex contracts
}

// Point is the price size of one point.
func (s Spec) Point() float64 {
	return math.Pow10(-s.Digits)
}

// SwapRate returns the swap charged per lot per night for a long (true) or
// short position.
func (s Spec) SwapRate(long bool) float64 {
	if long {
		return s.SwapLong
	}
	return s.SwapShort
}

func (s Spec) Validate() error {
	switch {
	case s.Name == "":
		return fmt.Errorf("%w: symbol name is required", ErrConfig)
	case s.Leverage <= 0:
		return fmt.Errorf("%w: %s leverage must be positive", ErrConfig, s.Name)
	case s.LotSize <= 0:
		return fmt.Errorf("%w: %s lot size must be positive", ErrConfig, s.Name)
	case s.MinLot <= 0:
		return fmt.Errorf("%w: %s min lot must be positive", ErrConfig, s.Name)
	case s.MaxLot < s.MinLot:
		return fmt.Errorf("%w: %s max lot below min lot", ErrConfig, s.Name)
	case s.LotStep <= 0:
		return fmt.Errorf("%w: %s lot step must be positive", ErrConfig, s.Name)
	case s.Digits < 0:
		return fmt.Errorf("%w: %s digits must not be negative", ErrConfig, s.Name)
	case s.Commission < 0:
		return fmt.Errorf("%w: %s commission must not be negative", ErrConfig, s.Name)
	}
	if s.Asset == Forex && (s.Base == "" || s.Quote == "") {
		return fmt.Errorf("%w: %s forex contract needs base and quote currency", ErrConfig, s.Name)
	}
	if s.Asset != Forex && s.FixedPointValue <= 0 {
		return fmt.Errorf("%w: %s fixed point value must be positive", ErrConfig, s.Name)
	}
	if s.Spread.Mode == SpreadRandom && (s.Spread.Min < 0 || s.Spread.Max < s.Spread.Min) {
		return fmt.Errorf("%w: %s random spread needs 0 <= min <= max", ErrConfig, s.Name)
	}
	if s.Spread.Mode == SpreadFixed && s.Spread.Fixed < 0 {
		return fmt.Errorf("%w: %s fixed spread must not be negative", ErrConfig, s.Name)
	}
	return nil
}
