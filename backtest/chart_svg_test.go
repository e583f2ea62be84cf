package backtest

import (
	"strings"
	"testing"
)

func TestRenderEquitySVG(t *testing.T) {
	curve := []Point{
		{Time: "2024-01-01", Balance: 10000},
		{Time: "2024-01-02", Balance: 10150},
		{Time: "2024-01-03", Balance: 10090},
		{Time: "2024-01-04", Balance: 10240},
	}
	svg, err := RenderEquitySVG("EURUSD", curve, 10000, SVGChartOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	out := string(svg)
	if !strings.Contains(out, "<svg") || !strings.Contains(out, "</svg>") {
		t.Fatal("output is not an SVG document")
	}
	if !strings.Contains(out, "polyline") {
		t.Fatal("missing equity polyline")
	}
	if !strings.Contains(out, "EURUSD equity") {
		t.Fatal("missing chart title")
	}
}

func TestRenderEquitySVGTooFewPoints(t *testing.T) {
	if _, err := RenderEquitySVG("X", []Point{{Balance: 1}}, 1, SVGChartOptions{}); err == nil {
		t.Fatal("expected error for a single-point curve")
	}
}
