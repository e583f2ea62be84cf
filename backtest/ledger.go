package backtest

// ledger owns the realized-trade list, the running balance and the
// streak counters for one engine run. Trades are append-only; the
// equity curve is seeded with the initial balance and grows by one
// point per closed trade, so len(curve) == len(trades)+1 always holds.
type ledger struct {
	balance     float64
	trades      []Trade
	equityCurve []Point

	consecutiveWins      int
	consecutiveLosses    int
	maxConsecutiveWins   int
	maxConsecutiveLosses int
}

func newLedger(initialBalance float64, startLabel string) *ledger {
	return &ledger{
		balance:     initialBalance,
		equityCurve: []Point{{Time: startLabel, Balance: initialBalance}},
	}
}

func (l *ledger) record(t Trade) {
	l.balance += t.NetPnL
	l.trades = append(l.trades, t)
	l.equityCurve = append(l.equityCurve, Point{Time: t.EntryTime, Balance: l.balance})

	if t.Profitable {
		l.consecutiveWins++
		l.consecutiveLosses = 0
		if l.consecutiveWins > l.maxConsecutiveWins {
			l.maxConsecutiveWins = l.consecutiveWins
		}
	} else {
		l.consecutiveLosses++
		l.consecutiveWins = 0
		if l.consecutiveLosses > l.maxConsecutiveLosses {
			l.maxConsecutiveLosses = l.consecutiveLosses
		}
	}
}
