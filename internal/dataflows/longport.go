package dataflows

import (
	"context"
	"errors"
	"fmt"
	"time"

	lpconfig "github.com/longportapp/openapi-go/config"
	"github.com/longportapp/openapi-go/quote"
	"github.com/shopspring/decimal"

	"github.com/dyike/StockCouncil/internal/config"
	"github.com/dyike/StockCouncil/internal/models"
)

// ErrLongportNotConfigured indicates the Longport credentials are absent.
var ErrLongportNotConfigured = errors.New("longport credentials not configured")

// LongportClient reads candlesticks from the Longport OpenAPI. It is an
// optional market data source used when broker credentials are configured.
type LongportClient struct {
	quoteCtx *quote.QuoteContext
}

// NewLongportClient builds a Longport quote client from configured
// credentials.
func NewLongportClient(cfg *config.Config) (*LongportClient, error) {
	if cfg.LongportAppKey == "" || cfg.LongportAppSecret == "" || cfg.LongportAccessToken == "" {
		return nil, ErrLongportNotConfigured
	}
	conf, err := lpconfig.New(lpconfig.WithConfigKey(cfg.LongportAppKey, cfg.LongportAppSecret, cfg.LongportAccessToken))
	if err != nil {
		return nil, fmt.Errorf("longport config: %w", err)
	}
	quoteCtx, err := quote.NewFromCfg(conf)
	if err != nil {
		return nil, fmt.Errorf("longport quote context: %w", err)
	}
	return &LongportClient{quoteCtx: quoteCtx}, nil
}

// GetDailySticks returns up to count daily candlesticks for symbol, oldest
// first.
func (lpc *LongportClient) GetDailySticks(ctx context.Context, symbol string, count int) ([]*models.MarketData, error) {
	if lpc.quoteCtx == nil {
		return nil, errors.New("quote context is nil")
	}
	sticks, err := lpc.quoteCtx.Candlesticks(ctx, symbol, quote.PeriodDay, int32(count), quote.AdjustTypeNo)
	if err != nil {
		return nil, fmt.Errorf("longport candlesticks for %s: %w", symbol, err)
	}

	result := make([]*models.MarketData, 0, len(sticks))
	for _, stick := range sticks {
		result = append(result, &models.MarketData{
			Symbol:    symbol,
			Date:      time.Unix(stick.Timestamp, 0),
			Open:      derefDecimal(stick.Open),
			High:      derefDecimal(stick.High),
			Low:       derefDecimal(stick.Low),
			Close:     derefDecimal(stick.Close),
			AdjClose:  derefDecimal(stick.Close),
			Volume:    stick.Volume,
			Timestamp: time.Now(),
		})
	}
	return result, nil
}

// derefDecimal unwraps the broker API's optional decimals; absent values
// become zero.
func derefDecimal(d *decimal.Decimal) decimal.Decimal {
	if d == nil {
		return decimal.Decimal{}
	}
	return *d
}

// Close releases the underlying quote context.
func (lpc *LongportClient) Close() {
	if lpc.quoteCtx != nil {
		lpc.quoteCtx.Close()
	}
}
