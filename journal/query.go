package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const (
	tradeColumns = `run_id, trade_id, symbol, side, lots, entry_price, exit_price, open_time,
		close_time, margin, commission, swap, realized_pl, max_adverse, max_favorable, reason`
	equityColumns = `run_id, time, balance, equity, last_pnl, open_positions, margin_used,
		free_margin, margin_level, max_adverse, max_favorable, max_drawdown, wins, losses, break_even`
)

type scanner interface {
	Scan(dest ...any) error
}

func scanTrade(s scanner) (TradeRecord, error) {
	var rec TradeRecord
	err := s.Scan(
		&rec.RunID,
		&rec.TradeID,
		&rec.Symbol,
		&rec.Side,
		&rec.Lots,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.OpenTime,
		&rec.CloseTime,
		&rec.Margin,
		&rec.Commission,
		&rec.Swap,
		&rec.RealizedPL,
		&rec.MaxAdverse,
		&rec.MaxFavorable,
		&rec.Reason,
	)
	return rec, err
}

func scanTrades(rows *sql.Rows) ([]TradeRecord, error) {
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func scanEquity(rows *sql.Rows) ([]EquitySnapshot, error) {
	defer rows.Close()

	var out []EquitySnapshot
	for rows.Next() {
		var e EquitySnapshot
		if err := rows.Scan(
			&e.RunID,
			&e.Time,
			&e.Balance,
			&e.Equity,
			&e.LastPnL,
			&e.OpenPositions,
			&e.MarginUsed,
			&e.FreeMargin,
			&e.MarginLevel,
			&e.MaxAdverse,
			&e.MaxFavorable,
			&e.MaxDrawdown,
			&e.Wins,
			&e.Losses,
			&e.BreakEven,
		); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetTrade returns a single trade of a run.
func (j *SQLiteJournal) GetTrade(runID string, tradeID int64) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ? AND trade_id = ?`, runID, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %d of run %q not found", tradeID, runID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesClosedBetween returns trades whose close_time is within [start, end).
func (j *SQLiteJournal) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE close_time >= ? AND close_time < ?
		ORDER BY close_time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	return scanTrades(rows)
}

// ListEquityBetween returns equity rows whose time is within [start, end).
func (j *SQLiteJournal) ListEquityBetween(start, end time.Time) ([]EquitySnapshot, error) {
	rows, err := j.db.Query(`
		SELECT `+equityColumns+`
		FROM equity
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	return scanEquity(rows)
}
