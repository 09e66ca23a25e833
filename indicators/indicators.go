// Package indicators derives technical-indicator columns from a symbol's
// price table and attaches them to the dataset as features.
package indicators

import (
	"fmt"
	"math"
	"strings"

	"github.com/markcheno/go-talib"

	"github.com/kenykau/reinforcement-forex/market"
)

type Kind string

const (
	// EMACode is +1 while the close is above its EMA and -1 at or below it.
	EMACode Kind = "ema"
	ROC     Kind = "roc"
	RSI     Kind = "rsi"
	ATR     Kind = "atr"
	// Bollinger attaches <name>_upper, <name>_middle and <name>_lower.
	Bollinger Kind = "bb"
	// Stochastic attaches <name>_fast and <name>_slow (slow %K and %D).
	Stochastic Kind = "sto"
)

// DefaultPeriod is used when a feature leaves Period zero.
const DefaultPeriod = 5

var kinds = map[Kind]bool{EMACode: true, ROC: true, RSI: true, ATR: true, Bollinger: true, Stochastic: true}

func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !kinds[k] {
		return "", fmt.Errorf("unknown indicator %q", s)
	}
	return k, nil
}

// Feature describes one indicator to attach to one symbol. Name defaults to
// the kind and prefixes the columns of multi-output indicators.
type Feature struct {
	Symbol string
	Kind   Kind
	Period int
	Name   string
}

func (f Feature) period() int {
	if f.Period <= 0 {
		return DefaultPeriod
	}
	return f.Period
}

func (f Feature) name() string {
	if f.Name != "" {
		return f.Name
	}
	return string(f.Kind)
}

// Columns lists the column names Attach adds.
func (f Feature) Columns() []string {
	n := f.name()
	switch f.Kind {
	case Bollinger:
		return []string{n + "_upper", n + "_middle", n + "_lower"}
	case Stochastic:
		return []string{n + "_fast", n + "_slow"}
	default:
		return []string{n}
	}
}

// Lookback is the number of leading bars without a value.
func (f Feature) Lookback() int {
	p := f.period()
	switch f.Kind {
	case EMACode, Bollinger:
		return p - 1
	case Stochastic:
		// fast %K over p, then 3-bar SMA smoothing twice
		return p - 1 + 2 + 2
	default:
		return p
	}
}

// Attach computes f over the whole history of f.Symbol and attaches its
// columns. The lookback region is NaN, so Dataset.FirstValid skips it.
func Attach(d *market.Dataset, f Feature) error {
	if !kinds[f.Kind] {
		return fmt.Errorf("attach %s: unknown indicator %q", f.Symbol, f.Kind)
	}
	cols, err := compute(d, f)
	if err != nil {
		return fmt.Errorf("attach %s %s: %w", f.Symbol, f.Kind, err)
	}
	lookback := f.Lookback()
	for i, name := range f.Columns() {
		mask(cols[i], lookback)
		if err := d.Attach(f.Symbol, name, cols[i]); err != nil {
			return err
		}
	}
	return nil
}

// AttachAll attaches every feature in order and stops at the first error.
func AttachAll(d *market.Dataset, fs []Feature) error {
	for _, f := range fs {
		if err := Attach(d, f); err != nil {
			return err
		}
	}
	return nil
}

func compute(d *market.Dataset, f Feature) ([][]float64, error) {
	closes, err := d.Column(f.Symbol, market.ColClose)
	if err != nil {
		return nil, err
	}
	p := f.period()
	if d.Len() <= f.Lookback() {
		return nil, fmt.Errorf("%w: %d bars, lookback %d", market.ErrInsufficientHistory, d.Len(), f.Lookback())
	}

	switch f.Kind {
	case EMACode:
		ema := talib.Ema(closes, p)
		code := make([]float64, len(closes))
		for i := range closes {
			code[i] = -1
			if closes[i]-ema[i] > 0 {
				code[i] = 1
			}
		}
		return [][]float64{code}, nil
	case ROC:
		return [][]float64{talib.Roc(closes, p)}, nil
	case RSI:
		return [][]float64{talib.Rsi(closes, p)}, nil
	case Bollinger:
		upper, middle, lower := talib.BBands(closes, p, 2, 2, talib.SMA)
		return [][]float64{upper, middle, lower}, nil
	}

	highs, err := d.Column(f.Symbol, market.ColHigh)
	if err != nil {
		return nil, err
	}
	lows, err := d.Column(f.Symbol, market.ColLow)
	if err != nil {
		return nil, err
	}
	switch f.Kind {
	case ATR:
		return [][]float64{talib.Atr(highs, lows, closes, p)}, nil
	case Stochastic:
		slowK, slowD := talib.Stoch(highs, lows, closes, p, 3, talib.SMA, 3, talib.SMA)
		return [][]float64{slowK, slowD}, nil
	}
	return nil, fmt.Errorf("unknown indicator %q", f.Kind)
}

func mask(xs []float64, n int) {
	for i := 0; i < n && i < len(xs); i++ {
		xs[i] = math.NaN()
	}
}
