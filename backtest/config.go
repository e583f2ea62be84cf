package backtest

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EngineConfig is the full tunable surface of one engine run. Zero
// values in the YAML fall back to these defaults; Validate rejects the
// combinations that would make a run meaningless before any bar is
// touched.
type EngineConfig struct {
	InitialBalance float64 `yaml:"initial_balance" json:"initial_balance"`
	RiskPerTrade   float64 `yaml:"risk_per_trade" json:"risk_per_trade"`
	Commission     float64 `yaml:"commission" json:"commission"` // per size unit, currency

	StopFillProb   float64 `yaml:"p_sl" json:"p_sl"`
	TargetFillProb float64 `yaml:"p_tp" json:"p_tp"`
	SlippagePips   float64 `yaml:"slippage_pips" json:"slippage_pips"`

	MinStrength        float64 `yaml:"min_strength" json:"min_strength"`
	LossCircuitBreaker int     `yaml:"loss_circuit_breaker" json:"loss_circuit_breaker"`
	MinProbability     float64 `yaml:"min_probability" json:"min_probability"`

	MinHistory      int `yaml:"min_history" json:"min_history"`
	RetrainInterval int `yaml:"retrain_interval" json:"retrain_interval"`

	MinSize  float64 `yaml:"min_size" json:"min_size"`
	MaxSize  float64 `yaml:"max_size" json:"max_size"`
	PipSize  float64 `yaml:"pip_size" json:"pip_size"`
	PipValue float64 `yaml:"pip_value" json:"pip_value"` // currency per pip per size unit

	// Seed 0 means time-seeded; any other value gives reproducible fills.
	Seed int64 `yaml:"seed" json:"seed"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		InitialBalance:     10_000,
		RiskPerTrade:       0.01,
		Commission:         0.07,
		StopFillProb:       0.60,
		TargetFillProb:     0.45,
		SlippagePips:       0.5,
		MinStrength:        0.10,
		LossCircuitBreaker: 6,
		MinProbability:     0.55,
		MinHistory:         50,
		RetrainInterval:    25,
		MinSize:            0.01,
		MaxSize:            0.5,
		PipSize:            0.0001,
		PipValue:           10,
	}
}

func (c EngineConfig) Validate() error {
	if c.InitialBalance <= 0 {
		return fmt.Errorf("initial_balance must be > 0, got %v", c.InitialBalance)
	}
	if c.RiskPerTrade <= 0 || c.RiskPerTrade >= 1 {
		return fmt.Errorf("risk_per_trade must be in (0, 1), got %v", c.RiskPerTrade)
	}
	if c.Commission < 0 {
		return fmt.Errorf("commission must be >= 0, got %v", c.Commission)
	}
	if c.StopFillProb < 0 || c.StopFillProb > 1 {
		return fmt.Errorf("p_sl must be in [0, 1], got %v", c.StopFillProb)
	}
	if c.TargetFillProb < 0 || c.TargetFillProb > 1 {
		return fmt.Errorf("p_tp must be in [0, 1], got %v", c.TargetFillProb)
	}
	if c.MinProbability < 0 || c.MinProbability > 1 {
		return fmt.Errorf("min_probability must be in [0, 1], got %v", c.MinProbability)
	}
	if c.LossCircuitBreaker <= 0 {
		return fmt.Errorf("loss_circuit_breaker must be > 0, got %d", c.LossCircuitBreaker)
	}
	if c.MinHistory <= 0 || c.RetrainInterval <= 0 {
		return fmt.Errorf("min_history and retrain_interval must be > 0, got %d/%d", c.MinHistory, c.RetrainInterval)
	}
	if c.MinSize <= 0 || c.MaxSize < c.MinSize {
		return fmt.Errorf("size bounds invalid: min %v, max %v", c.MinSize, c.MaxSize)
	}
	if c.PipSize <= 0 || c.PipValue <= 0 {
		return fmt.Errorf("pip_size and pip_value must be > 0, got %v/%v", c.PipSize, c.PipValue)
	}
	return nil
}

// Dataset is one annotated-bar series to replay.
type Dataset struct {
	Symbol string `yaml:"symbol"`
	File   string `yaml:"file"`
}

type YAMLConfig struct {
	Backtest struct {
		EngineConfig `yaml:",inline"`
		Start        string    `yaml:"start"`
		End          string    `yaml:"end"`
		Datasets     []Dataset `yaml:"datasets"`
	} `yaml:"backtest"`
}

type RunConfig struct {
	Engine   EngineConfig
	Start    time.Time
	End      time.Time
	Datasets []Dataset

	ChartDir string // CLI-only option, not loaded from YAML
}

func DefaultRunConfig() RunConfig {
	return RunConfig{Engine: DefaultEngineConfig()}
}

func LoadRunConfig(path string) (RunConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return RunConfig{}, fmt.Errorf("read config: %w", err)
	}

	var yc YAMLConfig
	if err := yaml.Unmarshal(raw, &yc); err != nil {
		return RunConfig{}, fmt.Errorf("parse yaml: %w", err)
	}

	cfg := DefaultRunConfig()
	cfg.Engine = yc.Backtest.EngineConfig.WithDefaults()

	for _, d := range yc.Backtest.Datasets {
		if d.File == "" {
			continue
		}
		if d.Symbol == "" {
			d.Symbol = d.File
		}
		cfg.Datasets = append(cfg.Datasets, d)
	}

	if yc.Backtest.Start != "" {
		t, err := time.ParseInLocation("2006-01-02", yc.Backtest.Start, time.Local)
		if err != nil {
			return RunConfig{}, fmt.Errorf("invalid backtest.start: %w", err)
		}
		cfg.Start = t
	}
	if yc.Backtest.End != "" {
		t, err := time.ParseInLocation("2006-01-02", yc.Backtest.End, time.Local)
		if err != nil {
			return RunConfig{}, fmt.Errorf("invalid backtest.end: %w", err)
		}
		cfg.End = t
	}

	if err := cfg.Engine.Validate(); err != nil {
		return RunConfig{}, err
	}
	return cfg, nil
}

// WithDefaults fills unset fields from DefaultEngineConfig. Fill
// probabilities are the one spot where zero is a legitimate intentional
// value, so they are only defaulted when both are unset.
func (c EngineConfig) WithDefaults() EngineConfig {
	d := DefaultEngineConfig()
	if c.InitialBalance <= 0 {
		c.InitialBalance = d.InitialBalance
	}
	if c.RiskPerTrade <= 0 {
		c.RiskPerTrade = d.RiskPerTrade
	}
	if c.Commission < 0 {
		c.Commission = d.Commission
	}
	if c.StopFillProb == 0 && c.TargetFillProb == 0 {
		c.StopFillProb = d.StopFillProb
		c.TargetFillProb = d.TargetFillProb
	}
	if c.MinStrength <= 0 {
		c.MinStrength = d.MinStrength
	}
	if c.LossCircuitBreaker <= 0 {
		c.LossCircuitBreaker = d.LossCircuitBreaker
	}
	if c.MinProbability <= 0 {
		c.MinProbability = d.MinProbability
	}
	if c.MinHistory <= 0 {
		c.MinHistory = d.MinHistory
	}
	if c.RetrainInterval <= 0 {
		c.RetrainInterval = d.RetrainInterval
	}
	if c.MinSize <= 0 {
		c.MinSize = d.MinSize
	}
	if c.MaxSize <= 0 {
		c.MaxSize = d.MaxSize
	}
	if c.PipSize <= 0 {
		c.PipSize = d.PipSize
	}
	if c.PipValue <= 0 {
		c.PipValue = d.PipValue
	}
	return c
}
