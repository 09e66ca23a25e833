package journal

import "time"

var (
	openT  = time.Date(2024, 1, 2, 3, 0, 0, 0, time.UTC)
	closeT = time.Date(2024, 1, 2, 7, 0, 0, 0, time.UTC)
)

func sampleTrade(id int64) TradeRecord {
	return TradeRecord{
		RunID:        "01HRUN",
		TradeID:      id,
		Symbol:       "EURUSD",
		Side:         "long",
		Lots:         0.1,
		EntryPrice:   1.2345678,
		ExitPrice:    1.3456789,
		OpenTime:     openT,
		CloseTime:    closeT,
		Margin:       123.45,
		Commission:   0.7,
		Swap:         0.25,
		RealizedPL:   -12.5,
		MaxAdverse:   -20,
		MaxFavorable: 3.5,
		Reason:       "test",
	}
}

func sampleEquity(ts time.Time) EquitySnapshot {
	return EquitySnapshot{
		RunID:         "01HRUN",
		Time:          ts,
		Balance:       1000.1,
		Equity:        999.9,
		LastPnL:       -0.2,
		OpenPositions: 1,
		MarginUsed:    10.5,
		FreeMargin:    989.4,
		MarginLevel:   95.2286,
		MaxAdverse:    -1,
		MaxFavorable:  2,
		MaxDrawdown:   0.2,
		Wins:          3,
		Losses:        2,
		BreakEven:     1,
	}
}
