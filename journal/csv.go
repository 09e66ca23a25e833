package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

var (
	tradeHeader = []string{
		"run_id", "trade_id", "symbol", "side", "lots", "entry_price", "exit_price",
		"open_time", "close_time", "margin", "commission", "swap", "realized_pl",
		"max_adverse", "max_favorable", "reason",
	}
	equityHeader = []string{
		"run_id", "time", "balance", "equity", "last_pnl", "open_positions",
		"margin_used", "free_margin", "margin_level", "max_adverse", "max_favorable",
		"max_drawdown", "wins", "losses", "break_even",
	}
)

type CSVJournal struct {
	trades *csv.Writer
	equity *csv.Writer
	tf, ef *os.File
}

func NewCSV(tradesPath, equityPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	ef, err := os.Create(equityPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	ew := csv.NewWriter(ef)

	if err := tw.Write(tradeHeader); err != nil {
		return nil, err
	}
	if err := ew.Write(equityHeader); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	ew.Flush()
	if err := ew.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, ew, tf, ef}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.RunID,
		strconv.FormatInt(t.TradeID, 10),
		t.Symbol,
		t.Side,
		f(t.Lots),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.OpenTime.Format(time.RFC3339),
		t.CloseTime.Format(time.RFC3339),
		cash(t.Margin),
		cash(t.Commission),
		cash(t.Swap),
		cash(t.RealizedPL),
		cash(t.MaxAdverse),
		cash(t.MaxFavorable),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordEquity(e EquitySnapshot) error {
	err := j.equity.Write([]string{
		e.RunID,
		e.Time.Format(time.RFC3339),
		cash(e.Balance),
		cash(e.Equity),
		cash(e.LastPnL),
		strconv.Itoa(e.OpenPositions),
		cash(e.MarginUsed),
		cash(e.FreeMargin),
		f(e.MarginLevel),
		cash(e.MaxAdverse),
		cash(e.MaxFavorable),
		cash(e.MaxDrawdown),
		strconv.Itoa(e.Wins),
		strconv.Itoa(e.Losses),
		strconv.Itoa(e.BreakEven),
	})
	if err != nil {
		return err
	}

	j.equity.Flush()
	return j.equity.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.equity.Flush()
	if err := j.equity.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	if err := j.ef.Close(); err != nil {
		return err
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

func cash(x float64) string {
	return strconv.FormatFloat(x, 'f', 2, 64)
}
