package dataflows

import (
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyike/StockCouncil/internal/models"
)

func barsFromCloses(closes []float64) []*models.MarketData {
	base := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]*models.MarketData, len(closes))
	for i, c := range closes {
		bars[i] = &models.MarketData{
			Symbol: "TEST",
			Date:   base.AddDate(0, 0, i),
			Open:   decimal.NewFromFloat(c),
			High:   decimal.NewFromFloat(c + 1),
			Low:    decimal.NewFromFloat(c - 1),
			Close:  decimal.NewFromFloat(c),
			Volume: 1000,
		}
	}
	return bars
}

func TestIndicatorSeriesUnsupportedName(t *testing.T) {
	_, err := IndicatorSeries(barsFromCloses([]float64{1, 2, 3}), "unknown_indicator")
	require.ErrorIs(t, err, ErrUnsupportedIndicator)
	for _, name := range SupportedIndicators {
		assert.Contains(t, err.Error(), name)
	}
}

func TestSMAWindow(t *testing.T) {
	vals := sma([]float64{1, 2, 3, 4, 5}, 3)
	assert.True(t, math.IsNaN(vals[0]))
	assert.True(t, math.IsNaN(vals[1]))
	assert.InDelta(t, 2.0, vals[2], 1e-9)
	assert.InDelta(t, 3.0, vals[3], 1e-9)
	assert.InDelta(t, 4.0, vals[4], 1e-9)
}

func TestRSIExtremes(t *testing.T) {
	// Monotonically rising closes push RSI to 100.
	closes := make([]float64, 30)
	for i := range closes {
		closes[i] = float64(100 + i)
	}
	vals := rsi(closes, 14)
	assert.InDelta(t, 100.0, vals[len(vals)-1], 1e-9)

	// Falling closes push it toward 0.
	for i := range closes {
		closes[i] = float64(200 - i)
	}
	vals = rsi(closes, 14)
	assert.InDelta(t, 0.0, vals[len(vals)-1], 1e-9)
}

func TestBollingerBandsBracketMiddle(t *testing.T) {
	closes := []float64{10, 11, 12, 11, 10, 11, 12, 13, 12, 11, 10, 11, 12, 13, 14, 13, 12, 11, 12, 13, 14, 15}
	mid, ub, lb := bollinger(closes, 20, 2)
	last := len(closes) - 1
	assert.Greater(t, ub[last], mid[last])
	assert.Less(t, lb[last], mid[last])
}

func TestIndicatorWindowReport(t *testing.T) {
	closes := make([]float64, 80)
	for i := range closes {
		closes[i] = 100 + float64(i)*0.5
	}
	bars := barsFromCloses(closes)
	curr := bars[len(bars)-1].Date

	report, err := IndicatorWindowReport(bars, "close_50_sma", curr, 10)
	require.NoError(t, err)
	assert.Contains(t, report, "close_50_sma")
	assert.Contains(t, report, curr.Format("2006-01-02"))
}

func TestIndicatorWindowReportEmptyWindow(t *testing.T) {
	bars := barsFromCloses([]float64{1, 2, 3})
	_, err := IndicatorWindowReport(bars, "rsi", time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), fmt.Sprintf("no %s values", "rsi"))
}
