package market

import "time"

// Gap kinds.
const (
	GapWeekend    = "weekend"
	GapSuspicious = "suspicious"
	GapMinor      = "minor"
)

// Gap is a run of missing bars in the shared time index.
type Gap struct {
	Start time.Time // first missing bar
	Bars  int       // number of missing intervals
	Kind  string
}

// GapStats summarizes a gap report.
type GapStats struct {
	Expected    int
	Present     int
	Missing     int
	Gaps        int
	Weekend     int
	Suspicious  int
	Longest     int
	LongestKind string
}

// Step returns the smallest spacing between consecutive bars, or 0 when
// there are fewer than two.
func (d *Dataset) Step() time.Duration {
	var step time.Duration
	for i := 1; i < len(d.times); i++ {
		dt := d.times[i].Sub(d.times[i-1])
		if dt > 0 && (step == 0 || dt < step) {
			step = dt
		}
	}
	return step
}

// Gaps lists every hole in the time index assuming one bar per step.
func (d *Dataset) Gaps(step time.Duration) []Gap {
	if step <= 0 {
		return nil
	}
	var gaps []Gap
	for i := 1; i < len(d.times); i++ {
		missing := int(d.times[i].Sub(d.times[i-1])/step) - 1
		if missing <= 0 {
			continue
		}
		start := d.times[i-1].Add(step)
		gaps = append(gaps, Gap{Start: start, Bars: missing, Kind: classifyGap(start, time.Duration(missing)*step)})
	}
	return gaps
}

// GapReport summarizes Gaps(step).
func (d *Dataset) GapReport(step time.Duration) GapStats {
	s := GapStats{Present: len(d.times)}
	for _, g := range d.Gaps(step) {
		s.Gaps++
		s.Missing += g.Bars
		if g.Bars > s.Longest {
			s.Longest = g.Bars
			s.LongestKind = g.Kind
		}
		switch g.Kind {
		case GapWeekend:
			s.Weekend++
		case GapSuspicious:
			s.Suspicious++
		}
	}
	s.Expected = s.Present + s.Missing
	return s
}

// classifyGap calls a day or more that starts Friday to Sunday (UTC) a
// weekend, and any other hole of ten minutes or more suspicious.
func classifyGap(start time.Time, length time.Duration) string {
	if length >= 24*time.Hour {
		switch start.UTC().Weekday() {
		case time.Friday, time.Saturday, time.Sunday:
			return GapWeekend
		}
		return GapSuspicious
	}
	if length >= 10*time.Minute {
		return GapSuspicious
	}
	return GapMinor
}
