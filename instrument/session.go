package instrument

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// SessionRange assigns a spread, in points, to the time-of-day range
// [Begin, End).
type SessionRange struct {
	Begin  time.Duration
	End    time.Duration
	Spread float64
}

func (r SessionRange) contains(tod time.Duration) bool {
	return tod >= r.Begin && tod < r.End
}

func (r SessionRange) overlaps(o SessionRange) bool {
	return r.Begin < o.End && o.Begin < r.End
}

// SessionTable is a set of non-overlapping time-of-day spread ranges.
type SessionTable struct {
	ranges []SessionRange
}

func NewSessionTable(ranges ...SessionRange) (*SessionTable, error) {
	t := &SessionTable{}
	for _, r := range ranges {
		if err := t.Add(r.Begin, r.End, r.Spread); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// Add inserts the range [begin, end). Overlapping an existing range is a
// configuration error.
func (t *SessionTable) Add(begin, end time.Duration, spread float64) error {
	r := SessionRange{Begin: begin, End: end, Spread: spread}
	if begin < 0 || end > day || begin >= end {
		return fmt.Errorf("%w: session [%s, %s) is not a range within one day", ErrConfig, begin, end)
	}
	if spread < 0 {
		return fmt.Errorf("%w: session [%s, %s) has negative spread %v", ErrConfig, begin, end, spread)
	}
	for _, o := range t.ranges {
		if r.overlaps(o) {
			return fmt.Errorf("%w: session [%s, %s) overlaps [%s, %s)", ErrConfig, begin, end, o.Begin, o.End)
		}
	}
	t.ranges = append(t.ranges, r)
	sort.Slice(t.ranges, func(i, j int) bool { return t.ranges[i].Begin < t.ranges[j].Begin })
	return nil
}

func (t *SessionTable) Ranges() []SessionRange {
	out := make([]SessionRange, len(t.ranges))
	copy(out, t.ranges)
	return out
}

// Covers reports whether the ranges partition the whole day.
func (t *SessionTable) Covers() bool {
	var next time.Duration
	for _, r := range t.ranges {
		if r.Begin != next {
			return false
		}
		next = r.End
	}
	return next == day
}

// Lookup returns the spread, in points, of the range containing the UTC
// time of day of ts.
func (t *SessionTable) Lookup(ts time.Time) (float64, error) {
	ts = ts.UTC()
	tod := ts.Sub(time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC))

	var match []SessionRange
	for _, r := range t.ranges {
		if r.contains(tod) {
			match = append(match, r)
		}
	}
	if len(match) != 1 {
		return 0, fmt.Errorf("%w: %d ranges match %s", ErrNoSessionMatch, len(match), ts.Format(time.RFC3339))
	}
	return match[0].Spread, nil
}

// ParseClock parses "HH:MM" or "HH:MM:SS" into an offset from midnight.
// "24:00" is accepted as the end of the day.
func ParseClock(s string) (time.Duration, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: bad clock %q", ErrConfig, s)
	}
	var fields [3]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		if err != nil || v < 0 {
			return 0, fmt.Errorf("%w: bad clock %q", ErrConfig, s)
		}
		fields[i] = v
	}
	h, m, sec := fields[0], fields[1], fields[2]
	if m > 59 || sec > 59 || h > 24 || (h == 24 && (m > 0 || sec > 0)) {
		return 0, fmt.Errorf("%w: bad clock %q", ErrConfig, s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(sec)*time.Second, nil
}
