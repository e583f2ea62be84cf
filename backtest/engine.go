package backtest

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math"
	"math/rand"
	"time"
)

// Engine replays one annotated bar sequence and produces a Result. One
// Engine serves one run: balance, streaks, classifier samples and the
// RNG are all owned by the instance, so independent runs can execute
// concurrently with no shared state.
type Engine struct {
	cfg EngineConfig
	rng *rand.Rand
}

func NewEngine(cfg EngineConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("engine config: %w", err)
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Engine{cfg: cfg, rng: rand.New(rand.NewSource(seed))}, nil
}

// Run walks the bars in order: build features, gate through the
// admission filter, size, simulate the fill, record, feed the outcome
// back to the classifier. A malformed or panicking bar is counted and
// skipped; one bad bar never aborts the run.
func (e *Engine) Run(bars []Bar) Result {
	startLabel := ""
	if len(bars) > 0 {
		startLabel = bars[0].Time.Format("2006-01-02")
	}
	led := newLedger(e.cfg.InitialBalance, startLabel)
	clf := newTradeClassifier(e.cfg)

	var signalsSeen, taken, rejected, skipped int

	for i := range bars {
		bar := bars[i]
		if bar.Signal == DirectionFlat {
			continue
		}
		signalsSeen++

		func() {
			defer func() {
				if r := recover(); r != nil {
					skipped++
					log.Printf("[backtest] bar %d: recovered: %v", i, r)
				}
			}()

			if !validSignalBar(bar) {
				skipped++
				return
			}

			features := buildFeatures(bars, i, bar.Signal, bar.Strength, led.consecutiveWins, led.consecutiveLosses)
			if !admit(e.cfg, features, bar.Strength, led.consecutiveLosses, clf) {
				rejected++
				return
			}

			size := positionSize(e.cfg, led.balance, bar.Close, bar.StopLoss, led.consecutiveLosses)
			entry, exit, reason := simulateFill(e.cfg, e.rng, bar.Signal, bar, *bar.StopLoss, *bar.TakeProfit)

			gross := (exit - entry) * float64(bar.Signal) / e.cfg.PipSize * e.cfg.PipValue * size
			commission := e.cfg.Commission * size
			net := gross - commission

			trade := Trade{
				EntryTime:  bar.Time.Format("2006-01-02 15:04"),
				Direction:  bar.Signal,
				EntryPrice: entry,
				ExitPrice:  exit,
				ExitReason: reason,
				Size:       size,
				GrossPnL:   gross,
				Commission: commission,
				NetPnL:     net,
				Profitable: net > 0,
			}
			led.record(trade)
			taken++

			clf.Observe(features, trade.Profitable)
		}()
	}

	return Result{
		Trades:               led.trades,
		EquityCurve:          led.equityCurve,
		InitialBalance:       e.cfg.InitialBalance,
		FinalBalance:         led.balance,
		MaxConsecutiveWins:   led.maxConsecutiveWins,
		MaxConsecutiveLosses: led.maxConsecutiveLosses,
		MLTrained:            clf.Trained(),
		SignalsSeen:          signalsSeen,
		TradesTaken:          taken,
		TradesRejected:       rejected,
		BarsSkipped:          skipped,
		Metrics:              computeMetrics(e.cfg.InitialBalance, led.trades, led.equityCurve),
	}
}

// validSignalBar rejects signal bars the upstream stages left
// half-annotated: missing exit levels or non-finite prices.
func validSignalBar(bar Bar) bool {
	if bar.StopLoss == nil || bar.TakeProfit == nil {
		return false
	}
	for _, v := range []float64{bar.Open, bar.High, bar.Low, bar.Close, *bar.StopLoss, *bar.TakeProfit} {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// LoadFunc resolves a dataset into its annotated bars. The runner takes
// a function instead of a concrete loader so callers can feed it from
// CSV files, HTTP bodies, or fixtures.
type LoadFunc func(d Dataset, start, end time.Time) ([]Bar, error)

// Runner executes one isolated Engine per configured dataset, the
// caller-side fan-out over symbols. Dataset-level load failures are
// reported inside that dataset's Result rather than aborting the batch.
type Runner struct {
	load LoadFunc
}

func NewRunner(load LoadFunc) *Runner {
	return &Runner{load: load}
}

func (r *Runner) Run(cfg RunConfig) ([]Result, error) {
	if len(cfg.Datasets) == 0 {
		return nil, fmt.Errorf("no datasets configured")
	}

	var out []Result
	for _, d := range cfg.Datasets {
		bars, err := r.load(d, cfg.Start, cfg.End)
		if err != nil {
			out = append(out, Result{
				Symbol: d.Symbol,
				Errors: []string{err.Error()},
			})
			continue
		}

		eng, err := NewEngine(cfg.Engine)
		if err != nil {
			return nil, err
		}
		res := eng.Run(bars)
		res.Symbol = d.Symbol
		out = append(out, res)
	}
	return out, nil
}

func WriteResultsJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}
