package sim

import (
	"fmt"

	"github.com/kenykau/reinforcement-forex/instrument"
	"github.com/kenykau/reinforcement-forex/internal/num"
	"github.com/kenykau/reinforcement-forex/market"
)

// Margin is the account-currency margin reserved by lots of sym opened at
// openPrice. The conversion rate of a forex base currency is read from the
// base pair at the applied field of the current bar.
func Margin(sym *instrument.Symbol, c *market.Cursor, lots, openPrice float64, applied market.Field) (float64, error) {
	m := lots * sym.LotSize / sym.Leverage

	var result float64
	switch {
	case sym.Asset != instrument.Forex:
		result = openPrice * m * sym.FixedPointValue
	case sym.Base == sym.Account:
		result = m
	default:
		rate, err := c.Price(sym.BasePair, applied)
		if err != nil {
			return 0, fmt.Errorf("margin %s: %w", sym.Name, err)
		}
		result = m / rate
	}

	result = num.Cash(result)
	if !(result > 0) {
		return 0, fmt.Errorf("%w: %s %v lots at %v gives %v", ErrInvalidMargin, sym.Name, lots, openPrice, result)
	}
	return result, nil
}
