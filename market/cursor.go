package market

import (
	"fmt"
	"math"
	"time"
)

// Bar is one row of a symbol table at a single timestamp.
type Bar struct {
	Symbol    string
	Time      time.Time
	Timeframe time.Duration
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    float64
	Bid       float64
	Ask       float64
}

// CloseTime is the last instant covered by the bar.
func (b Bar) CloseTime() time.Time {
	return b.Time.Add(b.Timeframe - time.Millisecond)
}

// Cursor is a movable pointer into a Dataset. Copying a Cursor is cheap and
// yields an independent position over the same data.
type Cursor struct {
	data  *Dataset
	shift int
}

func NewCursor(d *Dataset) *Cursor {
	return &Cursor{data: d}
}

func (c *Cursor) Data() *Dataset { return c.data }

func (c *Cursor) Shift() int { return c.shift }

func (c *Cursor) Len() int { return c.data.Len() }

func (c *Cursor) Time() time.Time { return c.data.times[c.shift] }

// AtEnd reports whether the cursor sits on the last bar.
func (c *Cursor) AtEnd() bool { return c.shift >= c.data.Len()-1 }

// Move sets the cursor to index i.
func (c *Cursor) Move(i int) error {
	if i < 0 || i >= c.data.Len() {
		return fmt.Errorf("%w: %d not in [0,%d)", ErrOutOfRange, i, c.data.Len())
	}
	c.shift = i
	return nil
}

// MoveFirstValid moves to the first bar where no column is missing.
func (c *Cursor) MoveFirstValid() error {
	i, err := c.data.FirstValid()
	if err != nil {
		return err
	}
	return c.Move(i)
}

// Advance steps to the next bar.
func (c *Cursor) Advance() error {
	if c.AtEnd() {
		return fmt.Errorf("%w: at %d (%s)", ErrDataExhausted, c.shift, c.Time().Format(time.RFC3339))
	}
	c.shift++
	return nil
}

// Value reads column name of symbol at the current bar.
func (c *Cursor) Value(symbol, name string) (float64, error) {
	return c.data.value(symbol, name, c.shift)
}

// Price reads a price field of symbol at the current bar. A missing price is
// an error.
func (c *Cursor) Price(symbol string, f Field) (float64, error) {
	if !f.Valid() {
		return 0, fmt.Errorf("price %s: invalid field %v", symbol, f)
	}
	v, err := c.data.value(symbol, f.String(), c.shift)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) {
		return 0, fmt.Errorf("%w: %s %s at %s", ErrMissingValue, symbol, f, c.Time().Format(time.RFC3339))
	}
	return v, nil
}

// Bar returns the current row of symbol.
func (c *Cursor) Bar(symbol string) (Bar, error) {
	t, err := c.data.table(symbol)
	if err != nil {
		return Bar{}, err
	}
	i := c.shift
	return Bar{
		Symbol:    symbol,
		Time:      c.data.times[i],
		Timeframe: time.Duration(t.cols[ColTimeframe][i] * float64(time.Minute)),
		Open:      t.cols[ColOpen][i],
		High:      t.cols[ColHigh][i],
		Low:       t.cols[ColLow][i],
		Close:     t.cols[ColClose][i],
		Volume:    t.cols[ColVolume][i],
		Bid:       t.cols[ColBid][i],
		Ask:       t.cols[ColAsk][i],
	}, nil
}

// Frame is a rectangular slice of a symbol table.
type Frame struct {
	Symbol  string
	Times   []time.Time
	Columns []string
	Values  [][]float64 // Values[row][column]
}

func (f Frame) Len() int { return len(f.Times) }

// Column returns the values of one column, or nil if the frame lacks it.
func (f Frame) Column(name string) []float64 {
	for j, n := range f.Columns {
		if n != name {
			continue
		}
		out := make([]float64, len(f.Values))
		for i, row := range f.Values {
			out[i] = row[j]
		}
		return out
	}
	return nil
}

// Flatten lays the frame out row-major, the shape observation vectors use.
func (f Frame) Flatten() []float64 {
	out := make([]float64, 0, len(f.Values)*len(f.Columns))
	for _, row := range f.Values {
		out = append(out, row...)
	}
	return out
}

// Window returns the size most recent rows of symbol up to and including
// the current bar. Size 1 is the current row and size 0 is every row up to
// the current one. Include selects columns (all when empty); exclude then
// removes columns.
func (c *Cursor) Window(symbol string, size int, include, exclude []string) (Frame, error) {
	t, err := c.data.table(symbol)
	if err != nil {
		return Frame{}, err
	}
	if size < 0 {
		return Frame{}, fmt.Errorf("window %s: invalid size %d", symbol, size)
	}
	if size > c.shift+1 {
		return Frame{}, fmt.Errorf("%w: %s window %d at shift %d", ErrInsufficientHistory, symbol, size, c.shift)
	}

	cols := t.names
	if len(include) > 0 {
		for _, name := range include {
			if !t.Has(name) {
				return Frame{}, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, symbol, name)
			}
		}
		cols = include
	}
	if len(exclude) > 0 {
		skip := make(map[string]bool, len(exclude))
		for _, name := range exclude {
			skip[name] = true
		}
		kept := make([]string, 0, len(cols))
		for _, name := range cols {
			if !skip[name] {
				kept = append(kept, name)
			}
		}
		cols = kept
	}

	start := 0
	if size > 0 {
		start = c.shift - size + 1
	}
	end := c.shift + 1

	f := Frame{
		Symbol:  symbol,
		Times:   append([]time.Time(nil), c.data.times[start:end]...),
		Columns: append([]string(nil), cols...),
		Values:  make([][]float64, end-start),
	}
	for i := start; i < end; i++ {
		row := make([]float64, len(cols))
		for j, name := range cols {
			row[j] = t.cols[name][i]
		}
		f.Values[i-start] = row
	}
	return f, nil
}
