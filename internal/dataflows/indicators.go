package dataflows

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dyike/StockCouncil/internal/models"
)

// ErrUnsupportedIndicator is returned for indicator names outside
// SupportedIndicators.
var ErrUnsupportedIndicator = errors.New("unsupported indicator")

// SupportedIndicators is the full set of indicator names the report tool
// accepts, in presentation order.
var SupportedIndicators = []string{
	"close_50_sma",
	"close_200_sma",
	"close_10_ema",
	"macd",
	"macds",
	"macdh",
	"rsi",
	"boll",
	"boll_ub",
	"boll_lb",
	"atr",
	"vwma",
}

// IndicatorSeries computes the named indicator over the bars, returning one
// value per bar. Leading positions without enough lookback are NaN.
func IndicatorSeries(bars []*models.MarketData, name string) ([]float64, error) {
	closes := extract(bars, func(b *models.MarketData) float64 { f, _ := b.Close.Float64(); return f })
	highs := extract(bars, func(b *models.MarketData) float64 { f, _ := b.High.Float64(); return f })
	lows := extract(bars, func(b *models.MarketData) float64 { f, _ := b.Low.Float64(); return f })
	volumes := extract(bars, func(b *models.MarketData) float64 { return float64(b.Volume) })

	switch name {
	case "close_50_sma":
		return sma(closes, 50), nil
	case "close_200_sma":
		return sma(closes, 200), nil
	case "close_10_ema":
		return ema(closes, 10), nil
	case "macd":
		m, _, _ := macd(closes)
		return m, nil
	case "macds":
		_, s, _ := macd(closes)
		return s, nil
	case "macdh":
		_, _, h := macd(closes)
		return h, nil
	case "rsi":
		return rsi(closes, 14), nil
	case "boll":
		mid, _, _ := bollinger(closes, 20, 2)
		return mid, nil
	case "boll_ub":
		_, ub, _ := bollinger(closes, 20, 2)
		return ub, nil
	case "boll_lb":
		_, _, lb := bollinger(closes, 20, 2)
		return lb, nil
	case "atr":
		return atr(highs, lows, closes, 14), nil
	case "vwma":
		return vwma(closes, volumes, 20), nil
	}
	return nil, fmt.Errorf("%w: %q (supported: %s)",
		ErrUnsupportedIndicator, name, strings.Join(SupportedIndicators, ", "))
}

// IndicatorWindowReport renders the named indicator for the bars dated within
// lookBackDays of currDate, one line per trading day.
func IndicatorWindowReport(bars []*models.MarketData, name string, currDate time.Time, lookBackDays int) (string, error) {
	series, err := IndicatorSeries(bars, name)
	if err != nil {
		return "", err
	}

	from := currDate.AddDate(0, 0, -lookBackDays)
	var b strings.Builder
	fmt.Fprintf(&b, "## %s values from %s to %s:\n\n",
		name, from.Format("2006-01-02"), currDate.Format("2006-01-02"))

	rows := 0
	for i, bar := range bars {
		if bar.Date.Before(from) || bar.Date.After(currDate) {
			continue
		}
		if math.IsNaN(series[i]) {
			continue
		}
		fmt.Fprintf(&b, "%s: %.2f\n", bar.Date.Format("2006-01-02"), series[i])
		rows++
	}
	if rows == 0 {
		return "", fmt.Errorf("no %s values available in the %d days before %s",
			name, lookBackDays, currDate.Format("2006-01-02"))
	}
	return b.String(), nil
}

func extract(bars []*models.MarketData, get func(*models.MarketData) float64) []float64 {
	out := make([]float64, len(bars))
	for i, b := range bars {
		out[i] = get(b)
	}
	return out
}

func nans(n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = math.NaN()
	}
	return out
}

func sma(vals []float64, window int) []float64 {
	out := nans(len(vals))
	var sum float64
	for i, v := range vals {
		sum += v
		if i >= window {
			sum -= vals[i-window]
		}
		if i >= window-1 {
			out[i] = sum / float64(window)
		}
	}
	return out
}

func ema(vals []float64, span int) []float64 {
	out := nans(len(vals))
	if len(vals) == 0 {
		return out
	}
	alpha := 2.0 / float64(span+1)
	out[0] = vals[0]
	for i := 1; i < len(vals); i++ {
		out[i] = alpha*vals[i] + (1-alpha)*out[i-1]
	}
	return out
}

func macd(closes []float64) (line, signal, hist []float64) {
	short := ema(closes, 12)
	long := ema(closes, 26)
	line = nans(len(closes))
	for i := range closes {
		line[i] = short[i] - long[i]
	}
	signal = ema(line, 9)
	hist = nans(len(closes))
	for i := range closes {
		hist[i] = line[i] - signal[i]
	}
	return line, signal, hist
}

func rsi(closes []float64, window int) []float64 {
	out := nans(len(closes))
	if len(closes) <= window {
		return out
	}
	var gain, loss float64
	for i := 1; i <= window; i++ {
		delta := closes[i] - closes[i-1]
		if delta > 0 {
			gain += delta
		} else {
			loss -= delta
		}
	}
	avgGain := gain / float64(window)
	avgLoss := loss / float64(window)
	out[window] = rsiValue(avgGain, avgLoss)
	for i := window + 1; i < len(closes); i++ {
		delta := closes[i] - closes[i-1]
		up, down := 0.0, 0.0
		if delta > 0 {
			up = delta
		} else {
			down = -delta
		}
		avgGain = (avgGain*float64(window-1) + up) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + down) / float64(window)
		out[i] = rsiValue(avgGain, avgLoss)
	}
	return out
}

func rsiValue(avgGain, avgLoss float64) float64 {
	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

func bollinger(closes []float64, window int, numStd float64) (mid, ub, lb []float64) {
	mid = sma(closes, window)
	ub = nans(len(closes))
	lb = nans(len(closes))
	for i := window - 1; i < len(closes); i++ {
		var sq float64
		for j := i - window + 1; j <= i; j++ {
			d := closes[j] - mid[i]
			sq += d * d
		}
		std := math.Sqrt(sq / float64(window))
		ub[i] = mid[i] + numStd*std
		lb[i] = mid[i] - numStd*std
	}
	return mid, ub, lb
}

func atr(highs, lows, closes []float64, window int) []float64 {
	tr := nans(len(closes))
	for i := range closes {
		if i == 0 {
			tr[i] = highs[i] - lows[i]
			continue
		}
		hl := highs[i] - lows[i]
		hc := math.Abs(highs[i] - closes[i-1])
		lc := math.Abs(lows[i] - closes[i-1])
		tr[i] = math.Max(hl, math.Max(hc, lc))
	}
	return sma(tr, window)
}

func vwma(closes, volumes []float64, window int) []float64 {
	out := nans(len(closes))
	for i := window - 1; i < len(closes); i++ {
		var pv, v float64
		for j := i - window + 1; j <= i; j++ {
			pv += closes[j] * volumes[j]
			v += volumes[j]
		}
		if v != 0 {
			out[i] = pv / v
		}
	}
	return out
}
