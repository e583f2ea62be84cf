package api

import (
	"math"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"smcsim/backtest"
)

type Handler struct{}

func NewHandler() *Handler {
	return &Handler{}
}

// BarRequest is the wire form of one annotated bar. Momentum and
// Volatility are pointers so an omitted column degrades to the engine's
// neutral defaults instead of a misleading zero.
type BarRequest struct {
	Time       string   `json:"time" binding:"required"`
	Open       float64  `json:"open"`
	High       float64  `json:"high"`
	Low        float64  `json:"low"`
	Close      float64  `json:"close"`
	Signal     int      `json:"signal"`
	Strength   float64  `json:"strength"`
	StopLoss   *float64 `json:"stop_loss"`
	TakeProfit *float64 `json:"take_profit"`
	Momentum   *float64 `json:"momentum"`
	Volatility *float64 `json:"volatility"`
}

type BacktestRequest struct {
	Symbol string                `json:"symbol"`
	Config backtest.EngineConfig `json:"config"`
	Bars   []BarRequest          `json:"bars" binding:"required"`
}

// RunBacktest runs one isolated engine over the posted bars. Zero-value
// config fields fall back to the engine defaults; an invalid combination
// is a 400, never a partial run.
func (h *Handler) RunBacktest(c *gin.Context) {
	var req BacktestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(req.Bars) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bars must not be empty"})
		return
	}

	cfg := req.Config.WithDefaults()
	eng, err := backtest.NewEngine(cfg)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := eng.Run(toBars(req.Bars))
	res.Symbol = req.Symbol

	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": res,
	})
}

// GetDefaults returns the default engine configuration so callers can
// see the tunable surface before overriding it.
func (h *Handler) GetDefaults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"code": 0,
		"data": backtest.DefaultEngineConfig(),
	})
}

func toBars(in []BarRequest) []backtest.Bar {
	bars := make([]backtest.Bar, 0, len(in))
	for _, b := range in {
		t, err := time.ParseInLocation("2006-01-02 15:04", b.Time, time.Local)
		if err != nil {
			if t, err = time.ParseInLocation("2006-01-02", b.Time, time.Local); err != nil {
				continue
			}
		}
		bar := backtest.Bar{
			Time:       t,
			Open:       b.Open,
			High:       b.High,
			Low:        b.Low,
			Close:      b.Close,
			Strength:   b.Strength,
			StopLoss:   b.StopLoss,
			TakeProfit: b.TakeProfit,
			Momentum:   math.NaN(),
			Volatility: math.NaN(),
		}
		switch {
		case b.Signal > 0:
			bar.Signal = backtest.DirectionLong
		case b.Signal < 0:
			bar.Signal = backtest.DirectionShort
		}
		if b.Momentum != nil {
			bar.Momentum = *b.Momentum
		}
		if b.Volatility != nil {
			bar.Volatility = *b.Volatility
		}
		bars = append(bars, bar)
	}
	return bars
}
