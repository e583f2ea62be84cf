package terminalui

import (
	"fmt"
	"strings"

	"smcsim/backtest"
)

// RenderResults prints a per-symbol summary table for CLI runs. Full
// trade lists go to the JSON output; the terminal only gets the rollup.
func RenderResults(results []backtest.Result) {
	fmt.Println("╔══════════════════════════════════════════════════════════════════════════════╗")
	fmt.Println("║                              Backtest Summary                                ║")
	fmt.Println("╠══════════════════════════════════════════════════════════════════════════════╣")
	fmt.Println("║  Symbol        Trades  Win%    MaxDD%   PF      Final        Return%   ML    ║")
	fmt.Println("╟──────────────────────────────────────────────────────────────────────────────╢")

	for _, r := range results {
		if len(r.Errors) > 0 {
			fmt.Printf("║  %-12s  %s  ║\n", truncate(r.Symbol, 12), pad("ERROR: "+truncate(r.Errors[0], 50), 58))
			continue
		}
		color := "\033[32m"
		if r.FinalBalance < r.InitialBalance {
			color = "\033[31m"
		}
		ml := "no"
		if r.MLTrained {
			ml = "yes"
		}
		fmt.Printf("║  %-12s  %6d  %5.1f  %6.2f  %6.2f  %s%11.2f\033[0m  %+7.2f   %-4s  ║\n",
			truncate(r.Symbol, 12), r.Metrics.TotalTrades, r.Metrics.WinRatePct,
			r.Metrics.MaxDrawdownPct, r.Metrics.ProfitFactor,
			color, r.FinalBalance, r.Metrics.ReturnPct, ml)
	}

	fmt.Println("╠══════════════════════════════════════════════════════════════════════════════╣")

	var signals, taken, rejected, skipped int
	for _, r := range results {
		signals += r.SignalsSeen
		taken += r.TradesTaken
		rejected += r.TradesRejected
		skipped += r.BarsSkipped
	}
	fmt.Printf("║  signals %-6d  taken %-6d  rejected %-6d  skipped %-6d                 ║\n",
		signals, taken, rejected, skipped)
	fmt.Println("╚══════════════════════════════════════════════════════════════════════════════╝")
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

func pad(s string, n int) string {
	if len(s) >= n {
		return s[:n]
	}
	return s + strings.Repeat(" ", n-len(s))
}
