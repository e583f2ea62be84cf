package backtest

import "math"

// Streak de-risking ladder: after a run of losses the risk budget is
// cut before the circuit breaker kicks in. Policy constants, not
// invariants.
const (
	streakSoftLosses = 3
	streakSoftMult   = 0.7
	streakHardLosses = 5
	streakHardMult   = 0.5
)

// positionSize turns the per-trade risk budget into a lot size from the
// stop distance. A missing or degenerate stop falls back to the minimum
// size instead of failing: a multi-thousand-bar run must not die on one
// bad level. Pure function of balance and the loss streak.
func positionSize(cfg EngineConfig, balance float64, entryPrice float64, stopLoss *float64, consecutiveLosses int) float64 {
	mult := 1.0
	switch {
	case consecutiveLosses >= streakHardLosses:
		mult = streakHardMult
	case consecutiveLosses >= streakSoftLosses:
		mult = streakSoftMult
	}
	riskAmount := balance * cfg.RiskPerTrade * mult

	if stopLoss == nil {
		return cfg.MinSize
	}
	priceRisk := math.Abs(entryPrice - *stopLoss)
	if priceRisk <= 0 || math.IsNaN(priceRisk) || math.IsInf(priceRisk, 0) {
		return cfg.MinSize
	}

	pips := priceRisk / cfg.PipSize
	size := riskAmount / (pips * cfg.PipValue)

	if size < cfg.MinSize {
		size = cfg.MinSize
	}
	if size > cfg.MaxSize {
		size = cfg.MaxSize
	}
	return size
}
