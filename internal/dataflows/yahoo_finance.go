package dataflows

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/piquette/finance-go/chart"
	"github.com/piquette/finance-go/datetime"
	"github.com/piquette/finance-go/equity"
	"github.com/piquette/finance-go/quote"
	"github.com/shopspring/decimal"

	"github.com/dyike/StockCouncil/internal/config"
	"github.com/dyike/StockCouncil/internal/models"
)

// YahooFinanceClient fetches OHLCV series and company facts from Yahoo
// Finance. Results are cached on disk for a day.
type YahooFinanceClient struct {
	cache *CacheManager
}

// NewYahooFinanceClient creates a Yahoo Finance client.
func NewYahooFinanceClient(cfg *config.Config) *YahooFinanceClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "yahoo_finance")
	return &YahooFinanceClient{
		cache: NewCacheManager(cacheDir, 24*time.Hour, cfg.CacheEnabled),
	}
}

// GetHistoricalData returns daily bars for symbol between start and end,
// oldest first. An empty slice (not an error) means the range had no data.
func (yf *YahooFinanceClient) GetHistoricalData(symbol string, start, end time.Time) ([]*models.MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	cacheKey := map[string]string{
		"symbol": symbol,
		"start":  start.Format("2006-01-02"),
		"end":    end.Format("2006-01-02"),
	}
	var cached []*models.MarketData
	if yf.cache.Get("yahoo", "historical", cacheKey, &cached) {
		return cached, nil
	}

	var result []*models.MarketData
	err := WithRetry(DefaultRetryConfig(), func() error {
		iter := chart.Get(&chart.Params{
			Symbol:   symbol,
			Start:    datetime.New(&start),
			End:      datetime.New(&end),
			Interval: datetime.OneDay,
		})

		result = result[:0]
		for iter.Next() {
			bar := iter.Bar()
			result = append(result, &models.MarketData{
				Symbol:    symbol,
				Date:      time.Unix(int64(bar.Timestamp), 0),
				Open:      bar.Open,
				High:      bar.High,
				Low:       bar.Low,
				Close:     bar.Close,
				AdjClose:  bar.AdjClose,
				Volume:    int64(bar.Volume),
				Timestamp: time.Now(),
			})
		}
		if err := iter.Err(); err != nil {
			return fmt.Errorf("historical data for %s: %w", symbol, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Date.Before(result[j].Date) })
	yf.cache.Set("yahoo", "historical", cacheKey, result)
	return result, nil
}

// GetQuote returns the latest quote as a single bar.
func (yf *YahooFinanceClient) GetQuote(symbol string) (*models.MarketData, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return nil, err
	}
	symbol = NormalizeSymbol(symbol)

	var cached models.MarketData
	if yf.cache.Get("yahoo", "quote", symbol, &cached) {
		return &cached, nil
	}

	var result *models.MarketData
	err := WithRetry(DefaultRetryConfig(), func() error {
		q, err := quote.Get(symbol)
		if err != nil {
			return fmt.Errorf("quote for %s: %w", symbol, err)
		}
		result = &models.MarketData{
			Symbol:    symbol,
			Date:      time.Now(),
			Open:      decimal.NewFromFloat(q.RegularMarketOpen),
			High:      decimal.NewFromFloat(q.RegularMarketDayHigh),
			Low:       decimal.NewFromFloat(q.RegularMarketDayLow),
			Close:     decimal.NewFromFloat(q.RegularMarketPrice),
			AdjClose:  decimal.NewFromFloat(q.RegularMarketPrice),
			Volume:    int64(q.RegularMarketVolume),
			Timestamp: time.Now(),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	yf.cache.Set("yahoo", "quote", symbol, result)
	return result, nil
}

// GetCompanyInfo returns a short textual company profile.
func (yf *YahooFinanceClient) GetCompanyInfo(symbol string) (string, error) {
	if err := ValidateSymbol(symbol); err != nil {
		return "", err
	}
	symbol = NormalizeSymbol(symbol)

	var cached string
	if yf.cache.Get("yahoo", "company_info", symbol, &cached) {
		return cached, nil
	}

	var info string
	err := WithRetry(DefaultRetryConfig(), func() error {
		eq, err := equity.Get(symbol)
		if err != nil {
			return fmt.Errorf("equity info for %s: %w", symbol, err)
		}
		var b strings.Builder
		fmt.Fprintf(&b, "Symbol: %s\n", symbol)
		if eq.LongName != "" {
			fmt.Fprintf(&b, "Name: %s\n", eq.LongName)
		} else if eq.ShortName != "" {
			fmt.Fprintf(&b, "Name: %s\n", eq.ShortName)
		}
		fmt.Fprintf(&b, "Exchange: %s\n", eq.FullExchangeName)
		fmt.Fprintf(&b, "Currency: %s\n", eq.CurrencyID)
		fmt.Fprintf(&b, "Market Cap: %d\n", int64(eq.MarketCap))
		fmt.Fprintf(&b, "Trailing P/E: %.2f\n", eq.TrailingPE)
		fmt.Fprintf(&b, "52w Range: %.2f - %.2f\n", eq.FiftyTwoWeekLow, eq.FiftyTwoWeekHigh)
		info = b.String()
		return nil
	})
	if err != nil {
		return "", err
	}

	yf.cache.Set("yahoo", "company_info", symbol, info)
	return info, nil
}
