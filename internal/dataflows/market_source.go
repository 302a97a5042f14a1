package dataflows

import (
	"context"
	"time"

	"github.com/dyike/StockCouncil/internal/models"
)

// MarketDataSource yields a daily OHLCV series for a symbol over a date
// range, oldest first. An empty series without error means the source has no
// data for that range.
type MarketDataSource interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]*models.MarketData, error)
}

// DailyBars satisfies MarketDataSource over the Yahoo chart API.
func (yf *YahooFinanceClient) DailyBars(_ context.Context, symbol string, start, end time.Time) ([]*models.MarketData, error) {
	return yf.GetHistoricalData(symbol, start, end)
}

// DailyBars satisfies MarketDataSource over Longport candlesticks. The broker
// API is count-based, so the range is converted to a day count and the result
// filtered back to the range.
func (lpc *LongportClient) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]*models.MarketData, error) {
	count := int(end.Sub(start).Hours()/24) + 1
	bars, err := lpc.GetDailySticks(ctx, symbol, count)
	if err != nil {
		return nil, err
	}
	return filterBarsInRange(bars, start, end), nil
}

// filterBarsInRange keeps bars dated within [start, end] inclusive.
func filterBarsInRange(bars []*models.MarketData, start, end time.Time) []*models.MarketData {
	filtered := bars[:0]
	for _, bar := range bars {
		if bar.Date.Before(start) || bar.Date.After(end) {
			continue
		}
		filtered = append(filtered, bar)
	}
	return filtered
}
