package sim

import "github.com/kenykau/reinforcement-forex/internal/num"

// cashPL converts a price delta into account currency net of costs.
// mult is sign * lots * lot size * point value.
func cashPL(delta, mult, commission, swap float64) float64 {
	return num.Cash(delta*mult - commission - swap)
}
