package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(run_id, trade_id, symbol, side, lots, entry_price, exit_price, open_time, close_time,
		 margin, commission, swap, realized_pl, max_adverse, max_favorable, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.RunID, t.TradeID, t.Symbol, t.Side, t.Lots, t.EntryPrice, t.ExitPrice,
		t.OpenTime, t.CloseTime, t.Margin, t.Commission, t.Swap, t.RealizedPL,
		t.MaxAdverse, t.MaxFavorable, t.Reason,
	)
	return err
}

func (j *SQLiteJournal) RecordEquity(e EquitySnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO equity
		(run_id, time, balance, equity, last_pnl, open_positions, margin_used, free_margin,
		 margin_level, max_adverse, max_favorable, max_drawdown, wins, losses, break_even)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.RunID, e.Time, e.Balance, e.Equity, e.LastPnL, e.OpenPositions, e.MarginUsed,
		e.FreeMargin, e.MarginLevel, e.MaxAdverse, e.MaxFavorable, e.MaxDrawdown,
		e.Wins, e.Losses, e.BreakEven,
	)
	return err
}

const runColumns = `run_id, created, dataset, symbol, strategy, config, lots, seed,
	start_time, end_time, bars, trades, wins, losses, break_even,
	start_balance, end_balance, net_pl, return_pct, win_rate, profit_factor,
	max_drawdown, max_dd_pct, stop_reason`

// RecordBacktest stores the summary row of a run, replacing an earlier row
// with the same run ID.
func (j *SQLiteJournal) RecordBacktest(ctx context.Context, btr BacktestRun) error {
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", 24), ", ")
	_, err := j.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO backtest_runs (`+runColumns+`) VALUES (`+placeholders+`)`,
		btr.RunID, btr.Created, btr.Dataset, btr.Symbol, btr.Strategy, btr.Config,
		btr.Lots, btr.Seed, btr.Start, btr.End, btr.Bars, btr.Trades, btr.Wins,
		btr.Losses, btr.BreakEven, btr.StartBalance, btr.EndBalance, btr.NetPL,
		btr.ReturnPct, btr.WinRate, btr.ProfitFactor, btr.MaxDrawdown, btr.MaxDDPct,
		btr.StopReason,
	)
	return err
}

func (j *SQLiteJournal) GetBacktestRun(ctx context.Context, runID string) (btr BacktestRun, err error) {
	row := j.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM backtest_runs WHERE run_id = ?`, runID)
	err = row.Scan(
		&btr.RunID, &btr.Created, &btr.Dataset, &btr.Symbol, &btr.Strategy, &btr.Config,
		&btr.Lots, &btr.Seed, &btr.Start, &btr.End, &btr.Bars, &btr.Trades, &btr.Wins,
		&btr.Losses, &btr.BreakEven, &btr.StartBalance, &btr.EndBalance, &btr.NetPL,
		&btr.ReturnPct, &btr.WinRate, &btr.ProfitFactor, &btr.MaxDrawdown, &btr.MaxDDPct,
		&btr.StopReason,
	)
	if err == sql.ErrNoRows {
		return BacktestRun{}, fmt.Errorf("backtest run %q not found", runID)
	}
	return btr, err
}

func (j *SQLiteJournal) ListTradesByRunID(ctx context.Context, runID string) ([]TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+tradeColumns+`
		FROM trades
		WHERE run_id = ?
		ORDER BY trade_id ASC`, runID)
	if err != nil {
		return nil, err
	}
	return scanTrades(rows)
}

func (j *SQLiteJournal) ListEquityByRunID(ctx context.Context, runID string) ([]EquitySnapshot, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT `+equityColumns+`
		FROM equity
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	return scanEquity(rows)
}

// ExportBacktestOrg loads a run with its trades and returns the Org block.
func (j *SQLiteJournal) ExportBacktestOrg(ctx context.Context, runID string) (string, error) {
	btr, err := j.GetBacktestRun(ctx, runID)
	if err != nil {
		return "", err
	}
	trades, err := j.ListTradesByRunID(ctx, runID)
	if err != nil {
		return "", err
	}

	org, err := btr.FormatOrg()
	if err != nil {
		return "", err
	}
	if len(trades) == 0 {
		return org, nil
	}
	return org + "\n" + FormatTradesOrg(trades), nil
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}
