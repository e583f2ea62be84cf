package backtest

import (
	"math"
	"testing"
)

func f64(v float64) *float64 { return &v }

func TestPositionSizeRiskFraction(t *testing.T) {
	cfg := DefaultEngineConfig()
	// 10000 * 1% = 100 risked over a 100-pip stop at $10/pip -> 0.1 lots
	got := positionSize(cfg, 10000, 1.0000, f64(0.9900), 0)
	if math.Abs(got-0.1) > 1e-9 {
		t.Fatalf("expected 0.1, got %v", got)
	}
}

func TestPositionSizeStreakLadder(t *testing.T) {
	cfg := DefaultEngineConfig()
	base := positionSize(cfg, 10000, 1.0000, f64(0.9900), 0)
	soft := positionSize(cfg, 10000, 1.0000, f64(0.9900), 3)
	hard := positionSize(cfg, 10000, 1.0000, f64(0.9900), 5)

	if math.Abs(soft-base*0.7) > 1e-9 {
		t.Fatalf("3 losses: expected %v, got %v", base*0.7, soft)
	}
	if math.Abs(hard-base*0.5) > 1e-9 {
		t.Fatalf("5 losses: expected %v, got %v", base*0.5, hard)
	}
}

func TestPositionSizeMissingStop(t *testing.T) {
	cfg := DefaultEngineConfig()
	if got := positionSize(cfg, 10000, 1.0, nil, 0); got != cfg.MinSize {
		t.Fatalf("nil stop: expected min size %v, got %v", cfg.MinSize, got)
	}
	if got := positionSize(cfg, 10000, 1.0, f64(1.0), 0); got != cfg.MinSize {
		t.Fatalf("zero-distance stop: expected min size %v, got %v", cfg.MinSize, got)
	}
}

func TestPositionSizeClamped(t *testing.T) {
	cfg := DefaultEngineConfig()

	// 1-pip stop computes to 10 lots, must clamp to max
	if got := positionSize(cfg, 10000, 1.0000, f64(0.9999), 0); got != cfg.MaxSize {
		t.Fatalf("tight stop: expected max size %v, got %v", cfg.MaxSize, got)
	}
	// 5000-pip stop computes to 0.002 lots, must clamp to min
	if got := positionSize(cfg, 10000, 1.0000, f64(0.5000), 0); got != cfg.MinSize {
		t.Fatalf("wide stop: expected min size %v, got %v", cfg.MinSize, got)
	}
}
