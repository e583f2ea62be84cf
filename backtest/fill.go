package backtest

import "math/rand"

// simulateFill resolves an admitted trade against the entry bar's range.
// A touched stop realizes with probability StopFillProb, a touched
// target with TargetFillProb: fast bars touch levels without
// guaranteeing a fill there, and targets are kept harder to fill than
// stops by convention. When neither level resolves, the position closes
// at the bar's own close (single-bar resolution; multi-bar carry is a
// possible extension, not implemented).
//
// The entry price is worsened by SlippagePips before P&L is computed;
// slippage models spread cost and never changes which level is hit.
func simulateFill(cfg EngineConfig, rng *rand.Rand, dir Direction, bar Bar, stopLoss, takeProfit float64) (entryPrice, exitPrice float64, reason ExitReason) {
	slip := cfg.SlippagePips * cfg.PipSize * rng.Float64()
	entryPrice = bar.Close + slip*float64(dir)

	if dir == DirectionLong {
		if bar.Low <= stopLoss && rng.Float64() < cfg.StopFillProb {
			return entryPrice, stopLoss, ExitStopLoss
		}
		if bar.High >= takeProfit && rng.Float64() < cfg.TargetFillProb {
			return entryPrice, takeProfit, ExitTakeProfit
		}
		return entryPrice, bar.Close, ExitTime
	}

	// Short: stop sits above price, target below.
	if bar.High >= stopLoss && rng.Float64() < cfg.StopFillProb {
		return entryPrice, stopLoss, ExitStopLoss
	}
	if bar.Low <= takeProfit && rng.Float64() < cfg.TargetFillProb {
		return entryPrice, takeProfit, ExitTakeProfit
	}
	return entryPrice, bar.Close, ExitTime
}
