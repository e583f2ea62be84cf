// Package feed loads annotated bar series for the backtest engine. The
// upstream feature/signal stages are external; this package only adapts
// their CSV export into backtest.Bar values.
package feed

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"smcsim/backtest"
)

// LoadDataset adapts LoadBars to the runner's backtest.LoadFunc shape.
func LoadDataset(d backtest.Dataset, start, end time.Time) ([]backtest.Bar, error) {
	return LoadBars(d.File, start, end)
}

var timeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	time.RFC3339,
}

// LoadBars reads one annotated CSV file. Columns are addressed by
// header name; required: time, open, high, low, close, signal,
// strength. Optional: stop_loss, take_profit (blank means absent),
// momentum, volatility (blank means NaN, the engine substitutes its
// neutral defaults). Rows with unparseable required fields are dropped,
// matching the engine's skip-and-continue posture.
func LoadBars(path string, start, end time.Time) ([]backtest.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open bars: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read bars: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("no bar rows in %s", path)
	}

	col := map[string]int{}
	for i, name := range records[0] {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"time", "open", "high", "low", "close", "signal", "strength"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("missing column %q in %s", required, path)
		}
	}

	bars := make([]backtest.Bar, 0, len(records)-1)
	for _, rec := range records[1:] {
		t, ok := parseTime(field(rec, col, "time"))
		if !ok {
			continue
		}
		if !start.IsZero() && t.Before(start) {
			continue
		}
		if !end.IsZero() && t.After(end) {
			continue
		}

		open, ok1 := parseFloat(field(rec, col, "open"))
		high, ok2 := parseFloat(field(rec, col, "high"))
		low, ok3 := parseFloat(field(rec, col, "low"))
		cls, ok4 := parseFloat(field(rec, col, "close"))
		if !ok1 || !ok2 || !ok3 || !ok4 {
			continue
		}

		sig, _ := strconv.Atoi(field(rec, col, "signal"))
		strength, _ := parseFloat(field(rec, col, "strength"))

		bars = append(bars, backtest.Bar{
			Time:       t,
			Open:       open,
			High:       high,
			Low:        low,
			Close:      cls,
			Signal:     backtest.Direction(clampSignal(sig)),
			Strength:   strength,
			StopLoss:   parseOptional(field(rec, col, "stop_loss")),
			TakeProfit: parseOptional(field(rec, col, "take_profit")),
			Momentum:   parseIndicator(field(rec, col, "momentum")),
			Volatility: parseIndicator(field(rec, col, "volatility")),
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	if len(bars) == 0 {
		return nil, fmt.Errorf("no usable bars in %s", path)
	}
	return bars, nil
}

func field(rec []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func parseTime(s string) (time.Time, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseFloat(s string) (float64, bool) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func parseOptional(s string) *float64 {
	if s == "" {
		return nil
	}
	v, ok := parseFloat(s)
	if !ok {
		return nil
	}
	return &v
}

func parseIndicator(s string) float64 {
	v, ok := parseFloat(s)
	if !ok {
		return math.NaN()
	}
	return v
}

func clampSignal(sig int) int {
	if sig > 0 {
		return 1
	}
	if sig < 0 {
		return -1
	}
	return 0
}
