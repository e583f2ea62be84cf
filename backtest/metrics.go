package backtest

import "math"

// Metrics rolls up the per-trade ledger for reporting; callers that
// optimize over runs read these instead of re-deriving them.
type Metrics struct {
	TotalTrades    int     `json:"total_trades"`
	WinRatePct     float64 `json:"win_rate_pct"`
	MaxDrawdownPct float64 `json:"max_drawdown_pct"`
	ProfitFactor   float64 `json:"profit_factor"`
	AvgTradePnL    float64 `json:"avg_trade_pnl"`
	ReturnPct      float64 `json:"return_pct"`
}

func computeMetrics(initialBalance float64, trades []Trade, curve []Point) Metrics {
	var winsAmt, lossAmt, net float64
	wins := 0
	for _, t := range trades {
		net += t.NetPnL
		if t.Profitable {
			wins++
			winsAmt += t.NetPnL
		} else {
			lossAmt += -t.NetPnL
		}
	}

	m := Metrics{TotalTrades: len(trades)}
	if len(trades) > 0 {
		m.WinRatePct = round2(float64(wins) / float64(len(trades)) * 100)
		m.AvgTradePnL = round2(net / float64(len(trades)))
	}

	switch {
	case lossAmt > 0:
		m.ProfitFactor = round2(winsAmt / lossAmt)
	case winsAmt > 0:
		m.ProfitFactor = 999 // no losing trades
	}

	peak := initialBalance
	maxDD := 0.0
	for _, p := range curve {
		if p.Balance > peak {
			peak = p.Balance
		}
		if peak > 0 {
			if dd := (peak - p.Balance) / peak; dd > maxDD {
				maxDD = dd
			}
		}
	}
	m.MaxDrawdownPct = round2(maxDD * 100)

	if initialBalance > 0 {
		m.ReturnPct = round2(net / initialBalance * 100)
	}
	return m
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
