package risk

import (
	"math"

	"github.com/kenykau/reinforcement-forex/instrument"
	"github.com/kenykau/reinforcement-forex/internal/num"
)

// NormalizeLots snaps lots down to the contract step and clamps the result
// to [MinLot, MaxLot].
func NormalizeLots(spec instrument.Spec, lots float64) float64 {
	if spec.LotStep > 0 {
		steps := math.Floor(num.Round(lots/spec.LotStep, 8))
		lots = steps * spec.LotStep
	}
	lots = math.Max(spec.MinLot, math.Min(spec.MaxLot, lots))
	return num.Round(lots, stepPlaces(spec.LotStep))
}

// stepPlaces is the number of decimals needed to write step exactly.
func stepPlaces(step float64) int {
	for p := 0; p < 8; p++ {
		if v := step * math.Pow10(p); math.Abs(v-math.Round(v)) < 1e-9 {
			return p
		}
	}
	return 8
}

// LotsForRisk sizes a position so that a stop stopPoints away loses riskPct
// of equity. pointValue is the account value of one price unit per
// contract unit, as returned by instrument.PointValue.
func LotsForRisk(spec instrument.Spec, equity, riskPct, stopPoints, pointValue float64) float64 {
	if stopPoints <= 0 || pointValue <= 0 || spec.LotSize <= 0 {
		return spec.MinLot
	}
	riskAmt := equity * riskPct
	lossPerLot := stopPoints * spec.Point() * spec.LotSize * pointValue
	return NormalizeLots(spec, riskAmt/lossPerLot)
}
