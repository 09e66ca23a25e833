package instrument

import (
	"fmt"
	"math"
	"strings"

	"github.com/kenykau/reinforcement-forex/market"
)

// CashPair finds the symbol converting the quote currency of spec into the
// account currency. A forex contract quoted in the account currency is its
// own cash pair; a non-forex contract needs none and gets "".
func CashPair(spec Spec, account string, symbols []string) (string, error) {
	if spec.Asset != Forex {
		return "", nil
	}
	if spec.Quote == account {
		return spec.Name, nil
	}
	return findPair(spec.Name, spec.Quote, account, symbols)
}

// BasePair finds the symbol converting the base currency of spec into the
// account currency, or "" when no conversion is needed.
func BasePair(spec Spec, account string, symbols []string) (string, error) {
	if spec.Asset != Forex || spec.Base == account {
		return "", nil
	}
	return findPair(spec.Name, spec.Base, account, symbols)
}

func findPair(name, ccy, account string, symbols []string) (string, error) {
	var found []string
	for _, s := range symbols {
		if strings.Contains(s, ccy) && strings.Contains(s, account) {
			found = append(found, s)
		}
	}
	if len(found) != 1 {
		return "", fmt.Errorf("%w: %s needs one %s/%s symbol, found %d %v",
			ErrAmbiguousCashPair, name, ccy, account, len(found), found)
	}
	return found[0], nil
}

// PointValue is the account-currency value of one unit of price movement
// of sym, read at the current bar.
func PointValue(sym *Symbol, c *market.Cursor, f market.Field) (float64, error) {
	val := 1.0
	if sym.Asset == Forex {
		if sym.Quote != sym.Account {
			px, err := c.Price(sym.CashPair, f)
			if err != nil {
				return 0, fmt.Errorf("point value %s: %w", sym.Name, err)
			}
			val = 1 / px
		}
	} else {
		val = sym.FixedPointValue
	}

	if val <= 0 || math.IsNaN(val) || math.IsInf(val, 0) {
		return 0, fmt.Errorf("%w: %s is %v at %s", ErrInvalidPointValue, sym.Name, val, c.Time())
	}
	return val, nil
}
