// Package journal persists the closed trades and per-bar account rows of a
// simulation run.
package journal

import (
	"fmt"
	"time"
)

// TradeRecord is one closed position.
type TradeRecord struct {
	RunID        string
	TradeID      int64
	Symbol       string
	Side         string
	Lots         float64
	EntryPrice   float64
	ExitPrice    float64
	OpenTime     time.Time
	CloseTime    time.Time
	Margin       float64
	Commission   float64
	Swap         float64
	RealizedPL   float64
	MaxAdverse   float64
	MaxFavorable float64
	Reason       string
}

// EquitySnapshot is one per-bar account row.
type EquitySnapshot struct {
	RunID         string
	Time          time.Time
	Balance       float64
	Equity        float64
	LastPnL       float64
	OpenPositions int
	MarginUsed    float64
	FreeMargin    float64
	MarginLevel   float64
	MaxAdverse    float64
	MaxFavorable  float64
	MaxDrawdown   float64
	Wins          int
	Losses        int
	BreakEven     int
}

type Journal interface {
	RecordTrade(TradeRecord) error
	RecordEquity(EquitySnapshot) error
	Close() error
}

// Kinds accepted by New.
const (
	KindCSV    = "csv"
	KindSQLite = "sqlite"
	KindNone   = "none"
)

// Options locate the files of a journal.
type Options struct {
	Kind       string
	TradesPath string // csv
	EquityPath string // csv
	DBPath     string // sqlite
}

// New opens the journal described by o.
func New(o Options) (Journal, error) {
	switch o.Kind {
	case KindCSV:
		return NewCSV(o.TradesPath, o.EquityPath)
	case KindSQLite:
		return NewSQLite(o.DBPath)
	case KindNone, "":
		return Discard{}, nil
	default:
		return nil, fmt.Errorf("journal: unknown kind %q", o.Kind)
	}
}

// Discard drops every record.
type Discard struct{}

func (Discard) RecordTrade(TradeRecord) error      { return nil }
func (Discard) RecordEquity(EquitySnapshot) error { return nil }
func (Discard) Close() error                       { return nil }
