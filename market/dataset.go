package market

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RawRow is one input record keyed by source column name.
type RawRow map[string]string

// Canonical roles a FieldMapping can map.
const (
	RoleSymbol = "symbol"
	RoleTime   = "time"
)

var requiredRoles = []string{RoleSymbol, RoleTime, ColTimeframe, ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// FieldMapping translates source column names onto canonical roles.
type FieldMapping struct {
	// Columns maps a canonical role ("symbol", "time", "tf", "open", ...)
	// onto the source column name.
	Columns map[string]string
	// TimeLayout is a time.Parse layout; timestamps are read as UTC.
	TimeLayout string
}

// DefaultMapping maps every column onto a source column of the same name
// and the time role onto "dt".
func DefaultMapping() FieldMapping {
	return FieldMapping{
		Columns: map[string]string{
			RoleSymbol:   "symbol",
			RoleTime:     "dt",
			ColTimeframe: "tf",
			ColOpen:      "open",
			ColHigh:      "high",
			ColLow:       "low",
			ColClose:     "close",
			ColVolume:    "volume",
			ColBid:       "bid",
			ColAsk:       "ask",
		},
		TimeLayout: "2006-01-02 15:04:05",
	}
}

// Table is the aligned column store of one symbol.
type Table struct {
	Symbol string
	names  []string
	cols   map[string][]float64
}

func (t *Table) Columns() []string {
	out := make([]string, len(t.names))
	copy(out, t.names)
	return out
}

func (t *Table) Has(name string) bool {
	_, ok := t.cols[name]
	return ok
}

// LoadStats counts the input rows Load had to discard.
type LoadStats struct {
	Rows       int
	Duplicates int
	Dropped    int // rows whose timestamp is not shared by every symbol
}

// Dataset is the shared time index plus one aligned table per symbol.
//
// The timestamp sequence never changes after Load. Columns may be added with
// Attach before a run starts; once runs are in flight the dataset must be
// treated as read-only, and any number of cursors may reference it.
type Dataset struct {
	times   []time.Time
	symbols []string
	tables  map[string]*Table
	stats   LoadStats
}

type record struct {
	time   time.Time
	values map[string]float64
}

// Load groups rows by symbol, keeps the timestamps present for every
// symbol, and reindexes each symbol onto that shared sequence.
func Load(rows []RawRow, m FieldMapping) (*Dataset, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no input rows", ErrEmptyDataset)
	}
	for _, role := range requiredRoles {
		if m.Columns[role] == "" {
			return nil, fmt.Errorf("%w: required field %q is not mapped", ErrDataAlignment, role)
		}
	}
	layout := m.TimeLayout
	if layout == "" {
		layout = time.RFC3339
	}

	var order []string
	grouped := make(map[string]map[int64]record)
	stats := LoadStats{Rows: len(rows)}

	for i, row := range rows {
		for _, role := range requiredRoles {
			if _, ok := row[m.Columns[role]]; !ok {
				return nil, fmt.Errorf("%w: row %d: required field %q (column %q) is missing",
					ErrDataAlignment, i, role, m.Columns[role])
			}
		}

		sym := strings.TrimSpace(row[m.Columns[RoleSymbol]])
		if sym == "" {
			return nil, fmt.Errorf("%w: row %d: empty symbol", ErrDataAlignment, i)
		}
		ts, err := time.ParseInLocation(layout, strings.TrimSpace(row[m.Columns[RoleTime]]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: bad time %q: %v", ErrDataAlignment, i, row[m.Columns[RoleTime]], err)
		}

		bySym, ok := grouped[sym]
		if !ok {
			bySym = make(map[int64]record)
			grouped[sym] = bySym
			order = append(order, sym)
		}
		key := ts.UnixNano()
		if _, dup := bySym[key]; dup {
			// keep-first policy
			stats.Duplicates++
			continue
		}

		values := make(map[string]float64, len(baseColumns))
		for _, col := range baseColumns {
			src, mapped := m.Columns[col]
			cell, present := row[src]
			if !mapped || !present {
				values[col] = math.NaN()
				continue
			}
			values[col] = parseCell(cell)
		}
		bySym[key] = record{time: ts, values: values}
	}

	// Intersect the timestamp sets of every symbol.
	shared := make(map[int64]time.Time, len(grouped[order[0]]))
	for k, r := range grouped[order[0]] {
		shared[k] = r.time
	}
	for _, sym := range order[1:] {
		for k := range shared {
			if _, ok := grouped[sym][k]; !ok {
				delete(shared, k)
			}
		}
	}
	if len(shared) == 0 {
		return nil, fmt.Errorf("%w: symbols %v share no timestamps", ErrDataAlignment, order)
	}

	keys := make([]int64, 0, len(shared))
	for k := range shared {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	d := &Dataset{
		times:   make([]time.Time, len(keys)),
		symbols: order,
		tables:  make(map[string]*Table, len(order)),
	}
	for i, k := range keys {
		d.times[i] = shared[k]
	}

	for _, sym := range order {
		t := &Table{
			Symbol: sym,
			names:  append([]string(nil), baseColumns...),
			cols:   make(map[string][]float64, len(baseColumns)),
		}
		for _, col := range baseColumns {
			t.cols[col] = make([]float64, len(keys))
		}
		for i, k := range keys {
			r := grouped[sym][k]
			for _, col := range baseColumns {
				t.cols[col][i] = r.values[col]
			}
		}
		stats.Dropped += len(grouped[sym]) - len(keys)
		d.tables[sym] = t
	}
	d.stats = stats

	return d, nil
}

func parseCell(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

func (d *Dataset) Len() int { return len(d.times) }

func (d *Dataset) Time(i int) time.Time { return d.times[i] }

// Times returns a copy of the shared timestamp sequence.
func (d *Dataset) Times() []time.Time {
	out := make([]time.Time, len(d.times))
	copy(out, d.times)
	return out
}

func (d *Dataset) Symbols() []string {
	out := make([]string, len(d.symbols))
	copy(out, d.symbols)
	return out
}

func (d *Dataset) HasSymbol(symbol string) bool {
	_, ok := d.tables[symbol]
	return ok
}

func (d *Dataset) Stats() LoadStats { return d.stats }

func (d *Dataset) table(symbol string) (*Table, error) {
	t, ok := d.tables[symbol]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSymbol, symbol)
	}
	return t, nil
}

// Table returns the column store of symbol.
func (d *Dataset) Table(symbol string) (*Table, error) {
	return d.table(symbol)
}

// Column returns a copy of the full column name of symbol.
func (d *Dataset) Column(symbol, name string) ([]float64, error) {
	t, err := d.table(symbol)
	if err != nil {
		return nil, err
	}
	col, ok := t.cols[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, symbol, name)
	}
	out := make([]float64, len(col))
	copy(out, col)
	return out, nil
}

func (d *Dataset) value(symbol, name string, i int) (float64, error) {
	t, err := d.table(symbol)
	if err != nil {
		return 0, err
	}
	col, ok := t.cols[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrUnknownColumn, symbol, name)
	}
	return col[i], nil
}

// Attach appends a derived column aligned 1:1 with the timestamps.
func (d *Dataset) Attach(symbol, name string, values []float64) error {
	t, err := d.table(symbol)
	if err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("attach %s: empty feature name", symbol)
	}
	if t.Has(name) {
		return fmt.Errorf("%w: %s.%s", ErrDuplicateFeature, symbol, name)
	}
	if len(values) != len(d.times) {
		return fmt.Errorf("%w: %s.%s has %d values, want %d",
			ErrMisalignedFeature, symbol, name, len(values), len(d.times))
	}

	col := make([]float64, len(values))
	copy(col, values)
	t.cols[name] = col
	t.names = append(t.names, name)
	return nil
}

// AttachSeries is Attach for values carrying their own time index, which
// must equal the dataset's.
func (d *Dataset) AttachSeries(symbol, name string, times []time.Time, values []float64) error {
	if len(times) != len(values) || len(times) != len(d.times) {
		return fmt.Errorf("%w: %s.%s index has %d entries, want %d",
			ErrMisalignedFeature, symbol, name, len(times), len(d.times))
	}
	for i, ts := range times {
		if !ts.Equal(d.times[i]) {
			return fmt.Errorf("%w: %s.%s index differs at %d (%s != %s)",
				ErrMisalignedFeature, symbol, name, i, ts.Format(time.RFC3339), d.times[i].Format(time.RFC3339))
		}
	}
	return d.Attach(symbol, name, values)
}

// FirstValid returns the first index at which every column of every symbol
// has a value.
func (d *Dataset) FirstValid() (int, error) {
	if len(d.symbols) == 0 || len(d.times) == 0 {
		return 0, ErrEmptyDataset
	}

	latest := 0
	for _, sym := range d.symbols {
		t := d.tables[sym]
		for _, name := range t.names {
			idx := firstNonNaN(t.cols[name])
			if idx < 0 {
				if name == ColBid || name == ColAsk {
					// optional quote columns may be absent altogether
					continue
				}
				return 0, fmt.Errorf("%w: %s.%s has no values", ErrEmptyDataset, sym, name)
			}
			if idx > latest {
				latest = idx
			}
		}
	}
	return latest, nil
}

func firstNonNaN(xs []float64) int {
	for i, x := range xs {
		if !math.IsNaN(x) {
			return i
		}
	}
	return -1
}
