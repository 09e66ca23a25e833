package market

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// ReadCSV reads a header-first CSV into raw rows keyed by header name.
func ReadCSV(r io.Reader) ([]RawRow, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: csv has no header", ErrEmptyDataset)
	}
	if err != nil {
		return nil, err
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []RawRow
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if len(rec) == 0 {
			continue
		}
		row := make(RawRow, len(header))
		for i, name := range header {
			if i < len(rec) {
				row[name] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// ReadFile reads the raw rows of a CSV file.
func ReadFile(path string) ([]RawRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadCSV(f)
}

// LoadFile reads and aligns a CSV file.
func LoadFile(path string, m FieldMapping) (*Dataset, error) {
	rows, err := ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	d, err := Load(rows, m)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return d, nil
}

// WriteCSV writes the base columns of every symbol, symbol by symbol, with
// the column names of DefaultMapping. Missing values are left empty.
func WriteCSV(w io.Writer, d *Dataset, layout string) error {
	if layout == "" {
		layout = DefaultMapping().TimeLayout
	}
	cw := csv.NewWriter(w)
	header := append([]string{"symbol", "dt"}, baseColumns...)
	if err := cw.Write(header); err != nil {
		return err
	}

	rec := make([]string, len(header))
	for _, sym := range d.symbols {
		t := d.tables[sym]
		for i, ts := range d.times {
			rec[0] = sym
			rec[1] = ts.Format(layout)
			for k, col := range baseColumns {
				v := t.cols[col][i]
				if math.IsNaN(v) {
					rec[k+2] = ""
					continue
				}
				rec[k+2] = strconv.FormatFloat(v, 'f', -1, 64)
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}
