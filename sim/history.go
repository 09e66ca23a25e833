package sim

import (
	"fmt"
	"time"

	"github.com/kenykau/reinforcement-forex/internal/bitset"
	"github.com/kenykau/reinforcement-forex/market"
)

// Snapshot is the account state written at the end of one step.
type Snapshot struct {
	Time          time.Time
	Balance       float64
	Equity        float64
	LastPnL       float64
	OpenPositions int
	MarginUsed    float64
	MarginFree    float64
	MarginLevel   float64
	MaxAdverse    float64
	MaxFavorable  float64
	MaxDrawdown   float64
	Wins          int
	Losses        int
	BreakEven     int
}

// SnapshotColumns names the entries of Snapshot.Values, in order.
var SnapshotColumns = []string{
	"balance", "equity", "last_pnl", "open_positions",
	"margin_used", "margin_free", "margin_level",
	"max_adverse", "max_favorable", "max_drawdown",
	"wins", "losses", "break_even",
}

// Values lays the snapshot out as an account feature vector.
func (s Snapshot) Values() []float64 {
	return []float64{
		s.Balance, s.Equity, s.LastPnL, float64(s.OpenPositions),
		s.MarginUsed, s.MarginFree, s.MarginLevel,
		s.MaxAdverse, s.MaxFavorable, s.MaxDrawdown,
		float64(s.Wins), float64(s.Losses), float64(s.BreakEven),
	}
}

// History holds one Snapshot slot per dataset timestamp. Slots no step
// wrote read as the initial account state.
type History struct {
	times   []time.Time
	rows    []Snapshot
	valid   bitset.Set
	initial Snapshot
}

func newHistory(times []time.Time, initial Snapshot) *History {
	return &History{
		times:   times,
		rows:    make([]Snapshot, len(times)),
		valid:   bitset.New(len(times)),
		initial: initial,
	}
}

func (h *History) Len() int { return len(h.rows) }

// Set writes the snapshot of step i, replacing any earlier write.
func (h *History) Set(i int, s Snapshot) error {
	if i < 0 || i >= len(h.rows) {
		return fmt.Errorf("%w: history row %d not in [0,%d)", market.ErrOutOfRange, i, len(h.rows))
	}
	s.Time = h.times[i]
	h.rows[i] = s
	h.valid.Set(i)
	return nil
}

// Row returns slot i and whether a step wrote it.
func (h *History) Row(i int) (Snapshot, bool) {
	if i < 0 || i >= len(h.rows) {
		return Snapshot{}, false
	}
	if !h.valid.IsSet(i) {
		s := h.initial
		s.Time = h.times[i]
		return s, false
	}
	return h.rows[i], true
}

// Written counts the slots written so far.
func (h *History) Written() int { return h.valid.Count(len(h.rows)) }

// Rows returns the written snapshots in time order.
func (h *History) Rows() []Snapshot {
	out := make([]Snapshot, 0, h.Written())
	for i := range h.rows {
		if h.valid.IsSet(i) {
			out = append(out, h.rows[i])
		}
	}
	return out
}

// Last returns the latest written snapshot.
func (h *History) Last() (Snapshot, bool) {
	for i := len(h.rows) - 1; i >= 0; i-- {
		if h.valid.IsSet(i) {
			return h.rows[i], true
		}
	}
	return Snapshot{}, false
}

// Window returns the size slots ending at shift, with the size rules of
// market.Cursor.Window.
func (h *History) Window(shift, size int) ([]Snapshot, error) {
	if shift < 0 || shift >= len(h.rows) {
		return nil, fmt.Errorf("%w: history row %d not in [0,%d)", market.ErrOutOfRange, shift, len(h.rows))
	}
	if size < 0 {
		return nil, fmt.Errorf("history window: invalid size %d", size)
	}
	if size > shift+1 {
		return nil, fmt.Errorf("%w: history window %d at shift %d", market.ErrInsufficientHistory, size, shift)
	}
	start := 0
	if size > 0 {
		start = shift - size + 1
	}
	out := make([]Snapshot, 0, shift+1-start)
	for i := start; i <= shift; i++ {
		s, _ := h.Row(i)
		out = append(out, s)
	}
	return out, nil
}
