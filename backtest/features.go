package backtest

import "math"

// featureArity is the fixed width of the admission feature vector. The
// classifier refuses to score anything else.
const featureArity = 8

const (
	neutralMomentum = 50.0 // oscillator midpoint when the column is NaN
	momentumWindow  = 5
	volWindow       = 10
)

// buildFeatures assembles the classifier input for the signal on bars[i].
// Field order is fixed:
//
//	0 momentum indicator (0..100, NaN -> 50)
//	1 volatility indicator scaled by price
//	2 signal strength
//	3 consecutive losses
//	4 consecutive wins
//	5 direction, +1 long / -1 short
//	6 realized close-to-close volatility over volWindow bars
//	7 price momentum over momentumWindow bars, relative
func buildFeatures(bars []Bar, i int, dir Direction, strength float64, consecutiveWins, consecutiveLosses int) []float64 {
	bar := bars[i]

	momentum := bar.Momentum
	if math.IsNaN(momentum) {
		momentum = neutralMomentum
	}

	volScaled := 0.0
	if bar.Close > 0 && !math.IsNaN(bar.Volatility) {
		volScaled = bar.Volatility / bar.Close
	}

	return []float64{
		momentum,
		volScaled,
		strength,
		float64(consecutiveLosses),
		float64(consecutiveWins),
		float64(dir),
		realizedVolatility(bars, i, volWindow),
		priceMomentum(bars, i, momentumWindow),
	}
}

// realizedVolatility is the stddev of close-to-close returns over the
// trailing window, 0 when there is not enough history.
func realizedVolatility(bars []Bar, i, window int) float64 {
	if i < window {
		return 0
	}
	rets := make([]float64, 0, window)
	for j := i - window + 1; j <= i; j++ {
		prev := bars[j-1].Close
		if prev <= 0 {
			continue
		}
		rets = append(rets, (bars[j].Close-prev)/prev)
	}
	if len(rets) < 2 {
		return 0
	}
	mean := 0.0
	for _, r := range rets {
		mean += r
	}
	mean /= float64(len(rets))
	variance := 0.0
	for _, r := range rets {
		d := r - mean
		variance += d * d
	}
	variance /= float64(len(rets) - 1)
	return math.Sqrt(variance)
}

func priceMomentum(bars []Bar, i, window int) float64 {
	if i < window {
		return 0
	}
	base := bars[i-window].Close
	if base <= 0 {
		return 0
	}
	return (bars[i].Close - base) / base
}
