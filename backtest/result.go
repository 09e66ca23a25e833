package backtest

import (
	"fmt"
	"io"
	"math"
	"time"

	"github.com/kenykau/reinforcement-forex/internal/num"
	"github.com/kenykau/reinforcement-forex/journal"
)

// Result is a summary of a finished session.
type Result struct {
	RunID    string
	Name     string
	Symbol   string
	Strategy string
	Seed     int64
	Lots     float64

	Start time.Time
	End   time.Time
	Bars  int

	StartBalance float64
	Balance      float64
	Equity       float64

	Trades    int
	Wins      int
	Losses    int
	BreakEven int

	NetPL        float64
	ReturnPct    float64
	WinRate      float64 // fraction of trades
	ProfitFactor float64 // 0 when there is no losing trade
	MaxDrawdown  float64
	MaxDDPct     float64 // peak-to-trough equity, in percent

	StopReason string
}

// Summarize computes the result of s as it stands.
func Summarize(s *Session) Result {
	p := s.Portfolio()
	snap := p.Snapshot()
	r := Result{
		Symbol:       s.Symbol().Name,
		Lots:         s.opts.Lots,
		Start:        s.data.Time(s.start),
		End:          s.Cursor().Time(),
		Bars:         s.Steps(),
		StartBalance: p.StartingBalance(),
		Balance:      snap.Balance,
		Equity:       snap.Equity,
		Wins:         snap.Wins,
		Losses:       snap.Losses,
		BreakEven:    snap.BreakEven,
		MaxDrawdown:  snap.MaxDrawdown,
	}
	if s.Reason() != ReasonEndOfData {
		r.StopReason = s.Reason()
	}

	var gross, loss float64
	for _, pos := range p.Closed() {
		r.Trades++
		if pos.PnL > 0 {
			gross += pos.PnL
		} else {
			loss -= pos.PnL
		}
	}

	r.NetPL = num.Cash(r.Balance - r.StartBalance)
	if r.StartBalance > 0 {
		r.ReturnPct = num.Round(100*r.NetPL/r.StartBalance, 4)
	}
	if r.Trades > 0 {
		r.WinRate = num.Round(float64(r.Wins)/float64(r.Trades), 4)
	}
	if loss > 0 {
		r.ProfitFactor = num.Round(gross/loss, 4)
	}

	peak := r.StartBalance
	for _, row := range p.History().Rows() {
		peak = math.Max(peak, row.Equity)
		if peak > 0 {
			r.MaxDDPct = math.Max(r.MaxDDPct, 100*(peak-row.Equity)/peak)
		}
	}
	r.MaxDDPct = num.Round(r.MaxDDPct, 4)
	return r
}

// BacktestRun converts r into the journal's run row.
func (r Result) BacktestRun(created time.Time, dataset string) journal.BacktestRun {
	return journal.BacktestRun{
		RunID:        r.RunID,
		Created:      created,
		Dataset:      dataset,
		Symbol:       r.Symbol,
		Strategy:     r.Strategy,
		Lots:         r.Lots,
		Seed:         r.Seed,
		Start:        r.Start,
		End:          r.End,
		Bars:         r.Bars,
		Trades:       r.Trades,
		Wins:         r.Wins,
		Losses:       r.Losses,
		BreakEven:    r.BreakEven,
		StartBalance: r.StartBalance,
		EndBalance:   r.Balance,
		NetPL:        r.NetPL,
		ReturnPct:    r.ReturnPct,
		WinRate:      r.WinRate,
		ProfitFactor: r.ProfitFactor,
		MaxDrawdown:  r.MaxDrawdown,
		MaxDDPct:     r.MaxDDPct,
		StopReason:   r.StopReason,
	}
}

func PrintResult(w io.Writer, r Result) {
	fmt.Fprintln(w, "==================================================")
	fmt.Fprintln(w, " Backtest Result")
	fmt.Fprintln(w, "==================================================")

	if r.RunID != "" {
		fmt.Fprintf(w, "Run ID:        %s\n", r.RunID)
	}
	if r.Name != "" {
		fmt.Fprintf(w, "Name:          %s\n", r.Name)
	}
	fmt.Fprintf(w, "Strategy:      %s\n", r.Strategy)
	fmt.Fprintf(w, "Symbol:        %s\n", r.Symbol)
	fmt.Fprintf(w, "Seed:          %d\n", r.Seed)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Period")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start:         %s\n", r.Start.Format(time.RFC3339))
	fmt.Fprintf(w, "End:           %s\n", r.End.Format(time.RFC3339))
	fmt.Fprintf(w, "Bars:          %d\n", r.Bars)
	if r.StopReason != "" {
		fmt.Fprintf(w, "Stopped:       %s\n", r.StopReason)
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Trade Statistics")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Trades:        %d\n", r.Trades)
	fmt.Fprintf(w, "Wins:          %d\n", r.Wins)
	fmt.Fprintf(w, "Losses:        %d\n", r.Losses)
	fmt.Fprintf(w, "Break Even:    %d\n", r.BreakEven)
	fmt.Fprintf(w, "Win Rate:      %.2f%%\n", r.WinRate*100)

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Account Performance")
	fmt.Fprintln(w, "--------------------------------------------------")
	fmt.Fprintf(w, "Start Balance: %.2f\n", r.StartBalance)
	fmt.Fprintf(w, "End Balance:   %.2f\n", r.Balance)
	fmt.Fprintf(w, "End Equity:    %.2f\n", r.Equity)
	fmt.Fprintf(w, "Net P/L:       %.2f\n", r.NetPL)
	fmt.Fprintf(w, "Return:        %.2f%%\n", r.ReturnPct)

	if r.ProfitFactor > 0 {
		fmt.Fprintf(w, "Profit Factor: %.2f\n", r.ProfitFactor)
	}
	fmt.Fprintf(w, "Max Drawdown:  %.2f (%.2f%%)\n", r.MaxDrawdown, r.MaxDDPct)

	fmt.Fprintln(w)
}

// PrintSummary writes one line per result.
func PrintSummary(w io.Writer, rs []Result) {
	fmt.Fprintf(w, "%-24s %-10s %6s %6s %6s %12s %9s %9s\n", "name", "strategy", "trades", "wins", "losses", "net_pl", "return%", "maxdd%")
	for _, r := range rs {
		fmt.Fprintf(w, "%-24s %-10s %6d %6d %6d %12.2f %9.2f %9.2f\n",
			r.Name, r.Strategy, r.Trades, r.Wins, r.Losses, r.NetPL, r.ReturnPct, r.MaxDDPct)
	}
}
