package market

import (
	"fmt"
	"math"
	"time"
)

// Resample aggregates every symbol onto buckets of width to. Buckets are
// aligned with time.Truncate, so daily buckets start at 00:00 UTC and
// weekly ones on Monday. A bucket holding fewer than minValid bars is
// dropped. Only the base columns are carried; features must be attached
// again.
func (d *Dataset) Resample(to time.Duration, minValid int) (*Dataset, error) {
	if to <= 0 {
		return nil, fmt.Errorf("resample: invalid timeframe %s", to)
	}
	if minValid < 1 {
		minValid = 1
	}

	var times []time.Time
	var bounds [][2]int
	for i := 0; i < len(d.times); {
		key := d.times[i].Truncate(to)
		j := i + 1
		for j < len(d.times) && d.times[j].Truncate(to).Equal(key) {
			j++
		}
		if j-i >= minValid {
			times = append(times, key)
			bounds = append(bounds, [2]int{i, j})
		}
		i = j
	}
	if len(times) == 0 {
		return nil, fmt.Errorf("%w: no bucket of %s holds %d bars", ErrEmptyDataset, to, minValid)
	}

	out := &Dataset{
		times:   times,
		symbols: append([]string(nil), d.symbols...),
		tables:  make(map[string]*Table, len(d.symbols)),
		stats:   LoadStats{Rows: len(times)},
	}
	for _, sym := range d.symbols {
		src := d.tables[sym]
		t := &Table{
			Symbol: sym,
			names:  append([]string(nil), baseColumns...),
			cols:   make(map[string][]float64, len(baseColumns)),
		}
		for _, col := range baseColumns {
			t.cols[col] = make([]float64, len(times))
		}
		for k, b := range bounds {
			lo, hi := b[0], b[1]
			t.cols[ColTimeframe][k] = to.Minutes()
			t.cols[ColOpen][k] = first(src.cols[ColOpen][lo:hi])
			t.cols[ColHigh][k] = extreme(src.cols[ColHigh][lo:hi], math.Max)
			t.cols[ColLow][k] = extreme(src.cols[ColLow][lo:hi], math.Min)
			t.cols[ColClose][k] = last(src.cols[ColClose][lo:hi])
			t.cols[ColVolume][k] = sum(src.cols[ColVolume][lo:hi])
			t.cols[ColBid][k] = last(src.cols[ColBid][lo:hi])
			t.cols[ColAsk][k] = last(src.cols[ColAsk][lo:hi])
		}
		out.tables[sym] = t
	}
	return out, nil
}

func first(xs []float64) float64 {
	for _, x := range xs {
		if !math.IsNaN(x) {
			return x
		}
	}
	return math.NaN()
}

func last(xs []float64) float64 {
	for i := len(xs) - 1; i >= 0; i-- {
		if !math.IsNaN(xs[i]) {
			return xs[i]
		}
	}
	return math.NaN()
}

func extreme(xs []float64, pick func(a, b float64) float64) float64 {
	v := math.NaN()
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(v) {
			v = x
			continue
		}
		v = pick(v, x)
	}
	return v
}

func sum(xs []float64) float64 {
	v := math.NaN()
	for _, x := range xs {
		if math.IsNaN(x) {
			continue
		}
		if math.IsNaN(v) {
			v = 0
		}
		v += x
	}
	return v
}
