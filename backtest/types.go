package backtest

import "time"

type Direction int

const (
	DirectionShort Direction = -1
	DirectionFlat  Direction = 0
	DirectionLong  Direction = 1
)

func (d Direction) String() string {
	switch d {
	case DirectionLong:
		return "long"
	case DirectionShort:
		return "short"
	default:
		return "flat"
	}
}

type ExitReason string

const (
	ExitStopLoss   ExitReason = "stop_loss"
	ExitTakeProfit ExitReason = "take_profit"
	ExitTime       ExitReason = "time_exit"
)

// Bar is one fully-annotated price bar. Signal, strength and the exit
// levels come from the upstream strategy; Momentum and Volatility are
// the indicator columns the feature vector reads. StopLoss/TakeProfit
// are nil when the upstream strategy attached no levels to the bar.
type Bar struct {
	Time       time.Time
	Open       float64
	High       float64
	Low        float64
	Close      float64
	Signal     Direction
	Strength   float64
	StopLoss   *float64
	TakeProfit *float64
	Momentum   float64 // RSI-style oscillator, 0..100
	Volatility float64 // ATR-style absolute price range
}

type Trade struct {
	EntryTime  string     `json:"entry_time"`
	Direction  Direction  `json:"direction"`
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	ExitReason ExitReason `json:"exit_reason"`
	Size       float64    `json:"size"`
	GrossPnL   float64    `json:"gross_pnl"`
	Commission float64    `json:"commission"`
	NetPnL     float64    `json:"net_pnl"`
	Profitable bool       `json:"profitable"`
}

// Point is one equity-curve snapshot, taken after each closed trade.
type Point struct {
	Time    string  `json:"time"`
	Balance float64 `json:"balance"`
}

type Result struct {
	Symbol               string   `json:"symbol"`
	Trades               []Trade  `json:"trades"`
	EquityCurve          []Point  `json:"equity_curve"`
	InitialBalance       float64  `json:"initial_balance"`
	FinalBalance         float64  `json:"final_balance"`
	MaxConsecutiveWins   int      `json:"max_consecutive_wins"`
	MaxConsecutiveLosses int      `json:"max_consecutive_losses"`
	MLTrained            bool     `json:"ml_trained"`
	SignalsSeen          int      `json:"signals_seen"`
	TradesTaken          int      `json:"trades_taken"`
	TradesRejected       int      `json:"trades_rejected"`
	BarsSkipped          int      `json:"bars_skipped"`
	Metrics              Metrics  `json:"metrics"`
	Errors               []string `json:"errors,omitempty"`
}
