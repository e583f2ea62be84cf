package backtest

import (
	"bytes"
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"
)

type SVGChartOptions struct {
	Width  int
	Height int
}

func (o SVGChartOptions) withDefaults() SVGChartOptions {
	if o.Width <= 0 {
		o.Width = 980
	}
	if o.Height <= 0 {
		o.Height = 420
	}
	return o
}

// RenderEquitySVG draws one run's equity curve as a standalone SVG:
// the balance polyline, the initial-balance reference line and a grid.
func RenderEquitySVG(symbol string, curve []Point, initialBalance float64, opt SVGChartOptions) ([]byte, error) {
	opt = opt.withDefaults()
	if len(curve) < 2 {
		return nil, fmt.Errorf("not enough equity points: %d", len(curve))
	}

	minB := math.Inf(1)
	maxB := math.Inf(-1)
	for _, p := range curve {
		if p.Balance < minB {
			minB = p.Balance
		}
		if p.Balance > maxB {
			maxB = p.Balance
		}
	}
	if initialBalance < minB {
		minB = initialBalance
	}
	if initialBalance > maxB {
		maxB = initialBalance
	}
	if math.IsInf(minB, 0) || math.IsInf(maxB, 0) {
		return nil, fmt.Errorf("invalid balance range")
	}
	pad := (maxB - minB) * 0.05
	if pad <= 0 {
		pad = math.Abs(minB) * 0.02
	}
	if pad <= 0 {
		pad = 1
	}
	minB -= pad
	maxB += pad

	// Layout
	w := float64(opt.Width)
	h := float64(opt.Height)
	mLeft := 80.0
	mRight := 20.0
	mTop := 24.0
	mBottom := 40.0
	plotW := w - mLeft - mRight
	plotH := h - mTop - mBottom
	if plotW <= 10 || plotH <= 10 {
		return nil, fmt.Errorf("invalid chart size")
	}

	balToY := func(b float64) float64 {
		r := (b - minB) / (maxB - minB)
		r = math.Max(0, math.Min(1, r))
		return mTop + (1.0-r)*plotH
	}
	xAt := func(i int) float64 {
		return mLeft + float64(i)/float64(len(curve)-1)*plotW
	}

	bg := "#0b1220"
	grid := "rgba(255,255,255,0.08)"
	up := "#22c55e"
	down := "#ef4444"
	ref := "rgba(255,255,255,0.45)"
	txt := "rgba(255,255,255,0.85)"

	lineCol := up
	if curve[len(curve)-1].Balance < initialBalance {
		lineCol = down
	}

	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	buf.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + strconv.Itoa(opt.Width) + `" height="` + strconv.Itoa(opt.Height) + `" viewBox="0 0 ` + strconv.Itoa(opt.Width) + ` ` + strconv.Itoa(opt.Height) + `">` + "\n")
	buf.WriteString(`<rect x="0" y="0" width="100%" height="100%" fill="` + bg + `"/>` + "\n")

	// Header
	title := strings.TrimSpace(symbol)
	if title == "" {
		title = "UNKNOWN"
	}
	first := curve[0].Time
	last := curve[len(curve)-1].Time
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="16" fill="` + txt + `" font-size="14" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString(title) + ` equity  ` + html.EscapeString(first) + ` ~ ` + html.EscapeString(last) + `</text>` + "\n")

	// Grid: balance lines (5)
	for k := 0; k <= 5; k++ {
		y := mTop + (float64(k)/5.0)*plotH
		buf.WriteString(`<line x1="` + fmtFloat(mLeft) + `" y1="` + fmtFloat(y) + `" x2="` + fmtFloat(mLeft+plotW) + `" y2="` + fmtFloat(y) + `" stroke="` + grid + `" stroke-width="1"/>` + "\n")
		b := maxB - (float64(k)/5.0)*(maxB-minB)
		buf.WriteString(`<text x="` + fmtFloat(6) + `" y="` + fmtFloat(y+4) + `" fill="` + txt + `" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
			html.EscapeString(fmtPrice(b)) + `</text>` + "\n")
	}

	// Initial-balance reference
	yRef := balToY(initialBalance)
	buf.WriteString(`<line x1="` + fmtFloat(mLeft) + `" y1="` + fmtFloat(yRef) + `" x2="` + fmtFloat(mLeft+plotW) + `" y2="` + fmtFloat(yRef) + `" stroke="` + ref + `" stroke-width="1.2" stroke-dasharray="6 6"/>` + "\n")

	// Equity polyline
	var pts strings.Builder
	for i, p := range curve {
		if i > 0 {
			pts.WriteByte(' ')
		}
		pts.WriteString(fmtFloat(xAt(i)) + "," + fmtFloat(balToY(p.Balance)))
	}
	buf.WriteString(`<polyline points="` + pts.String() + `" fill="none" stroke="` + lineCol + `" stroke-width="1.6"/>` + "\n")

	// Footer labels
	buf.WriteString(`<text x="` + fmtFloat(mLeft) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString(first) + `</text>` + "\n")
	buf.WriteString(`<text x="` + fmtFloat(mLeft+plotW-70) + `" y="` + fmtFloat(mTop+plotH+mBottom-12) + `" fill="` + txt + `" font-size="12" font-family="ui-monospace, Menlo, Monaco, Consolas, monospace">` +
		html.EscapeString(last) + `</text>` + "\n")

	buf.WriteString(`</svg>` + "\n")
	return buf.Bytes(), nil
}

func fmtFloat(x float64) string {
	// stable compact formatting for SVG attributes
	return strconv.FormatFloat(x, 'f', 2, 64)
}

func fmtPrice(p float64) string {
	// keep balance labels readable
	if p >= 1000 {
		return strconv.FormatFloat(p, 'f', 0, 64)
	}
	if p >= 100 {
		return strconv.FormatFloat(p, 'f', 1, 64)
	}
	return strconv.FormatFloat(p, 'f', 2, 64)
}
