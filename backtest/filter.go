package backtest

import "math"

// admit is the gate between a candidate signal and a simulated trade:
// a strength floor, a hard losing-streak circuit breaker, and (once the
// classifier has trained at least once) a probability floor. A
// classifier that cannot score the vector contributes nothing rather
// than vetoing the trade.
func admit(cfg EngineConfig, features []float64, strength float64, consecutiveLosses int, clf *tradeClassifier) bool {
	if math.Abs(strength) < cfg.MinStrength {
		return false
	}
	if consecutiveLosses >= cfg.LossCircuitBreaker {
		return false
	}
	if clf != nil && clf.Trained() {
		if p, ok := clf.Predict(features); ok && p < cfg.MinProbability {
			return false
		}
	}
	return true
}
