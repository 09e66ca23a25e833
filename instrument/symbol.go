package instrument

import (
	"fmt"
	"math/rand"

	"github.com/kenykau/reinforcement-forex/market"
)

// Symbol is a contract bound to an account currency and a dataset: its
// conversion pairs are resolved and its spread policy is chosen.
type Symbol struct {
	Spec

	Account  string
	CashPair string // quote -> account conversion symbol
	BasePair string // base -> account conversion symbol, used for margin

	Spread Spread
}

// New validates spec, resolves its conversion pairs among the symbols of d
// and prepares its spread. sessions is only read for SpreadSessional and
// rng only for SpreadRandom.
func New(spec Spec, account string, d *market.Dataset, sessions *SessionTable, rng *rand.Rand) (*Symbol, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if account == "" {
		return nil, fmt.Errorf("%w: account currency is required", ErrConfig)
	}
	if !d.HasSymbol(spec.Name) {
		return nil, fmt.Errorf("%w: %s is not in the dataset", ErrConfig, spec.Name)
	}

	cash, err := CashPair(spec, account, d.Symbols())
	if err != nil {
		return nil, err
	}
	base, err := BasePair(spec, account, d.Symbols())
	if err != nil {
		return nil, err
	}

	spread, err := NewSpread(spec, d, sessions, rng)
	if err != nil {
		return nil, err
	}

	return &Symbol{
		Spec:     spec,
		Account:  account,
		CashPair: cash,
		BasePair: base,
		Spread:   spread,
	}, nil
}

// CurrentSpread is the spread of the symbol at the current bar.
func (s *Symbol) CurrentSpread(c *market.Cursor) (float64, error) {
	return s.Spread.Current(c)
}
