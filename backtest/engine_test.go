package backtest

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"
)

var errNoBars = errors.New("no bars")

func testConfig() EngineConfig {
	cfg := DefaultEngineConfig()
	cfg.SlippagePips = 0
	cfg.Commission = 0
	cfg.Seed = 42
	return cfg
}

// signalBar builds one annotated long/short bar; t indexes 15-minute
// steps from a fixed origin.
func signalBar(i int, dir Direction, strength, cls, high, low, sl, tp float64) Bar {
	origin := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	return Bar{
		Time:       origin.Add(time.Duration(i) * 15 * time.Minute),
		Open:       cls,
		High:       high,
		Low:        low,
		Close:      cls,
		Signal:     dir,
		Strength:   strength,
		StopLoss:   f64(sl),
		TakeProfit: f64(tp),
		Momentum:   55,
		Volatility: 0.0012,
	}
}

func flatBar(i int, cls float64) Bar {
	origin := time.Date(2024, 3, 4, 8, 0, 0, 0, time.UTC)
	return Bar{
		Time: origin.Add(time.Duration(i) * 15 * time.Minute),
		Open: cls, High: cls * 1.001, Low: cls * 0.999, Close: cls,
		Momentum: 50, Volatility: 0.001,
	}
}

func mustEngine(t *testing.T, cfg EngineConfig) *Engine {
	t.Helper()
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestEngineRejectsBadConfig(t *testing.T) {
	bad := []EngineConfig{}
	for _, mutate := range []func(*EngineConfig){
		func(c *EngineConfig) { c.InitialBalance = 0 },
		func(c *EngineConfig) { c.RiskPerTrade = -0.1 },
		func(c *EngineConfig) { c.RiskPerTrade = 1.5 },
		func(c *EngineConfig) { c.StopFillProb = 1.2 },
		func(c *EngineConfig) { c.MinSize = 0.5; c.MaxSize = 0.01 },
	} {
		c := DefaultEngineConfig()
		mutate(&c)
		bad = append(bad, c)
	}
	for i, c := range bad {
		if _, err := NewEngine(c); err == nil {
			t.Fatalf("case %d: expected construction error", i)
		}
	}
}

func TestEngineTakeProfitScenario(t *testing.T) {
	cfg := testConfig()
	cfg.StopFillProb = 0
	cfg.TargetFillProb = 1

	// close 1.00, target 1.02 touched via high 1.025, stop 0.99 ignored.
	bars := []Bar{
		flatBar(0, 1.0),
		signalBar(1, DirectionLong, 0.6, 1.00, 1.025, 0.995, 0.99, 1.02),
		flatBar(2, 1.01),
	}
	res := mustEngine(t, cfg).Run(bars)

	if len(res.Trades) != 1 {
		t.Fatalf("expected 1 trade, got %d", len(res.Trades))
	}
	tr := res.Trades[0]
	if tr.ExitReason != ExitTakeProfit {
		t.Fatalf("exit reason %s, want take_profit", tr.ExitReason)
	}
	if !tr.Profitable {
		t.Fatalf("take-profit trade must be profitable, net %v", tr.NetPnL)
	}
}

func TestEngineCircuitBreakerAfterSixLosses(t *testing.T) {
	cfg := testConfig()
	cfg.StopFillProb = 1
	cfg.TargetFillProb = 0

	// Seven identical losing setups: stop always touched and always
	// realized. Trade 7's candidate must be rejected by the breaker.
	var bars []Bar
	for i := 0; i < 7; i++ {
		bars = append(bars, signalBar(i, DirectionLong, 0.7, 1.00, 1.005, 0.985, 0.99, 1.03))
	}
	res := mustEngine(t, cfg).Run(bars)

	if res.TradesTaken != 6 {
		t.Fatalf("trades taken %d, want 6", res.TradesTaken)
	}
	if res.TradesRejected != 1 {
		t.Fatalf("trades rejected %d, want 1", res.TradesRejected)
	}
	if res.MaxConsecutiveLosses != 6 {
		t.Fatalf("max consecutive losses %d, want 6", res.MaxConsecutiveLosses)
	}
	for _, tr := range res.Trades {
		if tr.ExitReason != ExitStopLoss {
			t.Fatalf("engineered loss exited via %s", tr.ExitReason)
		}
	}
}

func TestEngineWeakSignalNeverAdmitted(t *testing.T) {
	cfg := testConfig()
	cfg.TargetFillProb = 1

	bars := []Bar{
		signalBar(0, DirectionLong, 0.05, 1.00, 1.025, 0.995, 0.99, 1.02),
	}
	res := mustEngine(t, cfg).Run(bars)

	if len(res.Trades) != 0 {
		t.Fatalf("weak signal produced %d trades", len(res.Trades))
	}
	if res.TradesRejected != 1 {
		t.Fatalf("trades rejected %d, want 1", res.TradesRejected)
	}
}

func TestEngineClassifierTrainsDuringRun(t *testing.T) {
	cfg := testConfig()
	cfg.StopFillProb = 1
	cfg.TargetFillProb = 1
	cfg.MinHistory = 50
	cfg.RetrainInterval = 25
	cfg.MinProbability = 0 // keep trained-model vetoes out of this test

	// Alternate geometric wins (target touched, stop not) and losses
	// (stop touched, checked first) to keep labels mixed and the loss
	// streak below the breaker.
	var bars []Bar
	for i := 0; i < 60; i++ {
		if i%2 == 0 {
			bars = append(bars, signalBar(i, DirectionLong, 0.8, 1.00, 1.025, 0.995, 0.99, 1.02))
		} else {
			bars = append(bars, signalBar(i, DirectionLong, 0.8, 1.00, 1.005, 0.985, 0.99, 1.03))
		}
	}
	res := mustEngine(t, cfg).Run(bars)

	if res.TradesTaken != 60 {
		t.Fatalf("trades taken %d, want 60", res.TradesTaken)
	}
	if !res.MLTrained {
		t.Fatal("classifier must reach trained state after min_history samples")
	}
}

func TestEngineBalanceConsistency(t *testing.T) {
	cfg := testConfig()
	cfg.Commission = 0.07
	cfg.StopFillProb = 0.5
	cfg.TargetFillProb = 0.4

	var bars []Bar
	for i := 0; i < 200; i++ {
		switch i % 3 {
		case 0:
			bars = append(bars, signalBar(i, DirectionLong, 0.5, 1.00, 1.025, 0.985, 0.99, 1.02))
		case 1:
			bars = append(bars, signalBar(i, DirectionShort, -0.5, 1.00, 1.015, 0.975, 1.01, 0.98))
		default:
			bars = append(bars, flatBar(i, 1.0))
		}
	}
	res := mustEngine(t, cfg).Run(bars)

	sum := 0.0
	for _, tr := range res.Trades {
		sum += tr.NetPnL
	}
	if math.Abs(res.FinalBalance-(res.InitialBalance+sum)) > 1e-6 {
		t.Fatalf("final %v != initial %v + pnl %v", res.FinalBalance, res.InitialBalance, sum)
	}
	if len(res.EquityCurve) != len(res.Trades)+1 {
		t.Fatalf("equity curve %d, want %d", len(res.EquityCurve), len(res.Trades)+1)
	}
	for _, tr := range res.Trades {
		if tr.Size < cfg.MinSize-1e-12 || tr.Size > cfg.MaxSize+1e-12 {
			t.Fatalf("trade size %v outside [%v, %v]", tr.Size, cfg.MinSize, cfg.MaxSize)
		}
	}
}

func TestEngineRejectionAccounting(t *testing.T) {
	cfg := testConfig()
	cfg.StopFillProb = 0.5
	cfg.TargetFillProb = 0.4

	var bars []Bar
	for i := 0; i < 120; i++ {
		switch i % 4 {
		case 0:
			bars = append(bars, signalBar(i, DirectionLong, 0.5, 1.00, 1.025, 0.985, 0.99, 1.02))
		case 1:
			bars = append(bars, signalBar(i, DirectionLong, 0.02, 1.00, 1.025, 0.985, 0.99, 1.02)) // weak
		case 2:
			// malformed: signal without levels
			b := signalBar(i, DirectionShort, -0.5, 1.00, 1.015, 0.975, 1.01, 0.98)
			b.StopLoss = nil
			bars = append(bars, b)
		default:
			bars = append(bars, flatBar(i, 1.0))
		}
	}
	res := mustEngine(t, cfg).Run(bars)

	if res.SignalsSeen != 90 {
		t.Fatalf("signals seen %d, want 90", res.SignalsSeen)
	}
	if got := res.TradesTaken + res.TradesRejected + res.BarsSkipped; got != res.SignalsSeen {
		t.Fatalf("taken+rejected+skipped = %d, want %d (no signal may vanish uncounted)", got, res.SignalsSeen)
	}
	if res.BarsSkipped != 30 {
		t.Fatalf("bars skipped %d, want 30", res.BarsSkipped)
	}
}

func TestEngineDeterministicUnderSeed(t *testing.T) {
	cfg := testConfig()
	cfg.StopFillProb = 0.6
	cfg.TargetFillProb = 0.45
	cfg.SlippagePips = 0.5

	var bars []Bar
	for i := 0; i < 80; i++ {
		if i%2 == 0 {
			bars = append(bars, signalBar(i, DirectionLong, 0.5, 1.00, 1.025, 0.985, 0.99, 1.02))
		} else {
			bars = append(bars, flatBar(i, 1.0))
		}
	}

	a := mustEngine(t, cfg).Run(bars)
	b := mustEngine(t, cfg).Run(bars)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("identical seed and bars must reproduce the identical result")
	}
}

func TestEngineDegenerateRun(t *testing.T) {
	cfg := testConfig()

	var bars []Bar
	for i := 0; i < 20; i++ {
		bars = append(bars, flatBar(i, 1.0))
	}
	res := mustEngine(t, cfg).Run(bars)

	if res.SignalsSeen != 0 || len(res.Trades) != 0 {
		t.Fatalf("flat run produced signals=%d trades=%d", res.SignalsSeen, len(res.Trades))
	}
	if res.FinalBalance != cfg.InitialBalance {
		t.Fatalf("flat run changed balance: %v", res.FinalBalance)
	}
	if len(res.EquityCurve) != 1 {
		t.Fatalf("flat run equity curve %d points, want 1", len(res.EquityCurve))
	}
}

func TestRunnerReportsDatasetErrors(t *testing.T) {
	cfg := DefaultRunConfig()
	cfg.Engine.Seed = 1
	cfg.Datasets = []Dataset{
		{Symbol: "GOOD", File: "good"},
		{Symbol: "BAD", File: "bad"},
	}

	load := func(d Dataset, _, _ time.Time) ([]Bar, error) {
		if d.File == "bad" {
			return nil, errNoBars
		}
		return []Bar{flatBar(0, 1.0)}, nil
	}
	runner := NewRunner(load)
	results, err := runner.Run(cfg)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2", len(results))
	}
	if len(results[0].Errors) != 0 {
		t.Fatalf("good dataset reported errors: %v", results[0].Errors)
	}
	if len(results[1].Errors) == 0 {
		t.Fatal("bad dataset must carry its load error")
	}
}

func TestRunnerRequiresDatasets(t *testing.T) {
	runner := NewRunner(func(Dataset, time.Time, time.Time) ([]Bar, error) { return nil, nil })
	if _, err := runner.Run(DefaultRunConfig()); err == nil {
		t.Fatal("expected error for empty dataset list")
	}
}
