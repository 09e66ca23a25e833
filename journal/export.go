package journal

import (
	"fmt"

	"github.com/kenykau/reinforcement-forex/sim"
)

// ReasonSignal is recorded for positions closed by the strategy itself.
const ReasonSignal = "signal"

func TradeFromPosition(runID string, p *sim.Position, reason string) TradeRecord {
	if reason == "" {
		reason = ReasonSignal
	}
	return TradeRecord{
		RunID:        runID,
		TradeID:      p.ID,
		Symbol:       p.Symbol.Name,
		Side:         p.Side.String(),
		Lots:         p.Lots,
		EntryPrice:   p.OpenPrice,
		ExitPrice:    p.ClosePrice,
		OpenTime:     p.OpenTime,
		CloseTime:    p.CloseTime,
		Margin:       p.Margin,
		Commission:   p.Commission,
		Swap:         p.Swap,
		RealizedPL:   p.PnL,
		MaxAdverse:   p.MaxAdverse,
		MaxFavorable: p.MaxFavorable,
		Reason:       reason,
	}
}

func EquityFromSnapshot(runID string, s sim.Snapshot) EquitySnapshot {
	return EquitySnapshot{
		RunID:         runID,
		Time:          s.Time,
		Balance:       s.Balance,
		Equity:        s.Equity,
		LastPnL:       s.LastPnL,
		OpenPositions: s.OpenPositions,
		MarginUsed:    s.MarginUsed,
		FreeMargin:    s.MarginFree,
		MarginLevel:   s.MarginLevel,
		MaxAdverse:    s.MaxAdverse,
		MaxFavorable:  s.MaxFavorable,
		MaxDrawdown:   s.MaxDrawdown,
		Wins:          s.Wins,
		Losses:        s.Losses,
		BreakEven:     s.BreakEven,
	}
}

// Export writes the closed positions of a run and its written history rows.
// reasons maps a position ID to the reason it was closed; missing entries
// are recorded as ReasonSignal.
func Export(j Journal, runID string, closed []*sim.Position, rows []sim.Snapshot, reasons map[int64]string) error {
	for _, p := range closed {
		if err := j.RecordTrade(TradeFromPosition(runID, p, reasons[p.ID])); err != nil {
			return fmt.Errorf("journal: trade %d: %w", p.ID, err)
		}
	}
	for _, s := range rows {
		if err := j.RecordEquity(EquityFromSnapshot(runID, s)); err != nil {
			return fmt.Errorf("journal: equity %s: %w", s.Time, err)
		}
	}
	return nil
}
