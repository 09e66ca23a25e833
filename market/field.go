package market

import (
	"fmt"
	"strings"
)

// Canonical column names every symbol table carries.
const (
	ColTimeframe = "tf"
	ColOpen      = "open"
	ColHigh      = "high"
	ColLow       = "low"
	ColClose     = "close"
	ColVolume    = "volume"
	ColBid       = "bid"
	ColAsk       = "ask"
)

// baseColumns is the column order of a freshly loaded table.
var baseColumns = []string{ColTimeframe, ColOpen, ColHigh, ColLow, ColClose, ColVolume, ColBid, ColAsk}

// Field selects one of the price columns of a bar.
type Field int

const (
	Open Field = iota
	High
	Low
	Close
	Bid
	Ask
)

func (f Field) String() string {
	switch f {
	case Open:
		return ColOpen
	case High:
		return ColHigh
	case Low:
		return ColLow
	case Close:
		return ColClose
	case Bid:
		return ColBid
	case Ask:
		return ColAsk
	default:
		return fmt.Sprintf("Field(%d)", int(f))
	}
}

func (f Field) Valid() bool {
	return f >= Open && f <= Ask
}

// ParseField maps a column name such as "close" onto its Field.
func ParseField(s string) (Field, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case ColOpen:
		return Open, nil
	case ColHigh:
		return High, nil
	case ColLow:
		return Low, nil
	case ColClose:
		return Close, nil
	case ColBid:
		return Bid, nil
	case ColAsk:
		return Ask, nil
	default:
		return 0, fmt.Errorf("unknown price field %q", s)
	}
}
