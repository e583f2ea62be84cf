package main

import (
	"fmt"
	"os"
	"path/filepath"

	"smcsim/backtest"
	"smcsim/feed"
	"smcsim/internal/terminalui"
)

func runBacktest(configPath, outPath, chartDir string) error {
	cfg, err := backtest.LoadRunConfig(configPath)
	if err != nil {
		return err
	}
	cfg.ChartDir = chartDir

	runner := backtest.NewRunner(feed.LoadDataset)
	results, err := runner.Run(cfg)
	if err != nil {
		return err
	}

	terminalui.RenderResults(results)

	if cfg.ChartDir != "" {
		if err := writeCharts(cfg.ChartDir, results); err != nil {
			return err
		}
	}

	if outPath == "" {
		return backtest.WriteResultsJSON(os.Stdout, results)
	}

	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer f.Close()
	return backtest.WriteResultsJSON(f, results)
}

func writeCharts(dir string, results []backtest.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create chart dir: %w", err)
	}
	for _, r := range results {
		if len(r.Errors) > 0 {
			continue
		}
		svg, err := backtest.RenderEquitySVG(r.Symbol, r.EquityCurve, r.InitialBalance, backtest.SVGChartOptions{})
		if err != nil {
			continue // degenerate runs have no drawable curve
		}
		path := filepath.Join(dir, r.Symbol+"_equity.svg")
		if err := os.WriteFile(path, svg, 0o644); err != nil {
			return fmt.Errorf("write chart %s: %w", path, err)
		}
	}
	return nil
}
