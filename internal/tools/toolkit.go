package tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/components/tool/utils"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"

	"github.com/dyike/StockCouncil/internal/config"
	"github.com/dyike/StockCouncil/internal/dataflows"
	"github.com/dyike/StockCouncil/internal/models"
)

// Tool names as exposed to the model.
const (
	ToolStockPriceData  = "get_stock_price_data"
	ToolIndicatorReport = "get_indicator_report"
	ToolStockNews       = "get_stock_news"
	ToolCompanyInfo     = "get_company_info"
)

// Toolkit is the capability set analysts may invoke. Each operation is
// stateless per call and renders its result as text for the conversation.
type Toolkit struct {
	cfg     *config.Config
	sources []dataflows.MarketDataSource
	yahoo   *dataflows.YahooFinanceClient
	news    *dataflows.NewsScraperClient
	logger  *zap.Logger
}

// NewToolkit wires the toolkit from explicit configuration. Longport is
// preferred as the price source when its credentials are present; Yahoo
// serves as the default and the fallback.
func NewToolkit(cfg *config.Config, logger *zap.Logger) *Toolkit {
	tk := &Toolkit{
		cfg:    cfg,
		yahoo:  dataflows.NewYahooFinanceClient(cfg),
		news:   dataflows.NewNewsScraperClient(cfg),
		logger: logger,
	}
	if lp, err := dataflows.NewLongportClient(cfg); err == nil {
		tk.sources = append(tk.sources, lp)
	} else if err != dataflows.ErrLongportNotConfigured {
		logger.Warn("longport client unavailable", zap.Error(err))
	}
	if cfg.OnlineTools {
		tk.sources = append(tk.sources, tk.yahoo)
	}
	return tk
}

// StockPriceDataInput are the arguments of get_stock_price_data.
type StockPriceDataInput struct {
	Symbol    string `json:"symbol"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

// IndicatorReportInput are the arguments of get_indicator_report.
type IndicatorReportInput struct {
	Symbol       string `json:"symbol"`
	Indicator    string `json:"indicator"`
	CurrDate     string `json:"curr_date"`
	LookBackDays int    `json:"look_back_days"`
}

// StockNewsInput are the arguments of get_stock_news.
type StockNewsInput struct {
	Query        string `json:"query"`
	CurrDate     string `json:"curr_date"`
	LookBackDays int    `json:"look_back_days"`
}

// CompanyInfoInput are the arguments of get_company_info.
type CompanyInfoInput struct {
	Symbol string `json:"symbol"`
}

// ToolOutput wraps the textual payload every toolkit operation produces.
type ToolOutput struct {
	Text string `json:"text"`
}

// MarketTools returns the tools available to the market analyst.
func (tk *Toolkit) MarketTools() []tool.BaseTool {
	return []tool.BaseTool{tk.StockPriceDataTool(), tk.IndicatorReportTool()}
}

// NewsTools returns the tools available to the news analyst.
func (tk *Toolkit) NewsTools() []tool.BaseTool {
	return []tool.BaseTool{tk.CompanyInfoTool(), tk.StockNewsTool()}
}

// StockPriceDataTool fetches a daily OHLCV series and renders it as a CSV
// table. Absent data yields a sentinel text payload, not an error.
func (tk *Toolkit) StockPriceDataTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolStockPriceData,
			Desc: "Retrieve daily stock price data (OHLCV) for a ticker symbol over a date range.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Ticker symbol of the company, e.g. AAPL, TSM",
					Required: true,
				},
				"start_date": {
					Type:     "string",
					Desc:     "Start date in yyyy-mm-dd format",
					Required: true,
				},
				"end_date": {
					Type:     "string",
					Desc:     "End date in yyyy-mm-dd format",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input StockPriceDataInput) (*ToolOutput, error) {
			start, err := time.Parse("2006-01-02", input.StartDate)
			if err != nil {
				return nil, fmt.Errorf("invalid start_date %q: %w", input.StartDate, err)
			}
			end, err := time.Parse("2006-01-02", input.EndDate)
			if err != nil {
				return nil, fmt.Errorf("invalid end_date %q: %w", input.EndDate, err)
			}

			bars, err := tk.fetchBars(ctx, input.Symbol, start, end)
			if err != nil {
				return nil, err
			}
			if len(bars) == 0 {
				return &ToolOutput{Text: fmt.Sprintf(
					"No price data found for %s between %s and %s.",
					input.Symbol, input.StartDate, input.EndDate)}, nil
			}
			return &ToolOutput{Text: renderPriceTable(input.Symbol, bars)}, nil
		},
	)
}

// IndicatorReportTool computes one technical indicator over a lookback
// window. It accepts exactly one indicator per call and rejects names outside
// the supported set with an error enumerating that set.
func (tk *Toolkit) IndicatorReportTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolIndicatorReport,
			Desc: "Retrieve a technical indicator report for a ticker symbol. Accepts ONE indicator per call; call it once with the single most relevant indicator.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Ticker symbol of the company",
					Required: true,
				},
				"indicator": {
					Type:     "string",
					Desc:     "Technical indicator to report on (one indicator only), e.g. rsi, macd, close_50_sma",
					Required: true,
				},
				"curr_date": {
					Type:     "string",
					Desc:     "The trading date being analyzed, yyyy-mm-dd",
					Required: true,
				},
				"look_back_days": {
					Type:     "integer",
					Desc:     "How many days to look back (default 30)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input IndicatorReportInput) (*ToolOutput, error) {
			curr, err := time.Parse("2006-01-02", input.CurrDate)
			if err != nil {
				return nil, fmt.Errorf("invalid curr_date %q: %w", input.CurrDate, err)
			}
			lookBack := input.LookBackDays
			if lookBack <= 0 {
				lookBack = 30
			}

			// Long-window indicators need history well before the report
			// window starts.
			start := curr.AddDate(0, 0, -(lookBack + 300))
			bars, err := tk.fetchBars(ctx, input.Symbol, start, curr)
			if err != nil {
				return nil, err
			}
			if len(bars) == 0 {
				return &ToolOutput{Text: fmt.Sprintf(
					"No price data found for %s; cannot compute %s.",
					input.Symbol, input.Indicator)}, nil
			}

			report, err := dataflows.IndicatorWindowReport(bars, input.Indicator, curr, lookBack)
			if err != nil {
				return nil, err
			}
			if desc, ok := indicatorGuide[input.Indicator]; ok {
				report += "\n" + desc
			}
			return &ToolOutput{Text: report}, nil
		},
	)
}

// StockNewsTool searches Google News for the query within the lookback
// window. No matching articles yields a sentinel text payload.
func (tk *Toolkit) StockNewsTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolStockNews,
			Desc: "Search recent news for a company. Use the English company name in the query.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"query": {
					Type:     "string",
					Desc:     "Search query, e.g. 'AAPL Apple Inc stock news earnings'",
					Required: true,
				},
				"curr_date": {
					Type:     "string",
					Desc:     "Current date in yyyy-mm-dd format",
					Required: true,
				},
				"look_back_days": {
					Type:     "integer",
					Desc:     "How many days of news to include (default 7)",
					Required: false,
				},
			}),
		},
		func(ctx context.Context, input StockNewsInput) (*ToolOutput, error) {
			curr, err := time.Parse("2006-01-02", input.CurrDate)
			if err != nil {
				return nil, fmt.Errorf("invalid curr_date %q: %w", input.CurrDate, err)
			}
			lookBack := input.LookBackDays
			if lookBack <= 0 {
				lookBack = 7
			}

			articles, err := tk.news.GetGoogleNews(dataflows.GoogleNewsParams{
				Query:     input.Query,
				StartDate: curr.AddDate(0, 0, -lookBack),
				EndDate:   curr,
			})
			if err != nil {
				return nil, err
			}
			if len(articles) == 0 {
				return &ToolOutput{Text: fmt.Sprintf(
					"No news found for %q in the %d days before %s.",
					input.Query, lookBack, input.CurrDate)}, nil
			}
			return &ToolOutput{Text: renderNewsDigest(input.Query, articles)}, nil
		},
	)
}

// CompanyInfoTool looks up basic company facts. It stringifies its own
// failures instead of raising, so the analyst always receives text.
func (tk *Toolkit) CompanyInfoTool() tool.BaseTool {
	return utils.NewTool(
		&schema.ToolInfo{
			Name: ToolCompanyInfo,
			Desc: "Retrieve basic company information (name, exchange, market cap) for a ticker symbol.",
			ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
				"symbol": {
					Type:     "string",
					Desc:     "Ticker symbol of the company, e.g. AAPL, 3017.TW",
					Required: true,
				},
			}),
		},
		func(ctx context.Context, input CompanyInfoInput) (*ToolOutput, error) {
			info, err := tk.yahoo.GetCompanyInfo(input.Symbol)
			if err != nil {
				return &ToolOutput{Text: fmt.Sprintf(
					"Error retrieving company info for %s: %v", input.Symbol, err)}, nil
			}
			return &ToolOutput{Text: info}, nil
		},
	)
}

// fetchBars walks the configured sources in preference order; the first one
// answering with data wins. All sources failing surfaces the last error.
func (tk *Toolkit) fetchBars(ctx context.Context, symbol string, start, end time.Time) ([]*models.MarketData, error) {
	var lastErr error
	for _, src := range tk.sources {
		bars, err := src.DailyBars(ctx, symbol, start, end)
		if err != nil {
			tk.logger.Warn("market data source failed",
				zap.String("symbol", symbol), zap.Error(err))
			lastErr = err
			continue
		}
		if len(bars) > 0 {
			return bars, nil
		}
	}
	return nil, lastErr
}

func renderPriceTable(symbol string, bars []*models.MarketData) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## Daily price data for %s (%d trading days):\n\n", symbol, len(bars))
	b.WriteString("Date,Open,High,Low,Close,AdjClose,Volume\n")
	for _, bar := range bars {
		fmt.Fprintf(&b, "%s,%s,%s,%s,%s,%s,%d\n",
			bar.Date.Format("2006-01-02"),
			bar.Open.StringFixed(2), bar.High.StringFixed(2),
			bar.Low.StringFixed(2), bar.Close.StringFixed(2),
			bar.AdjClose.StringFixed(2), bar.Volume)
	}
	return b.String()
}

func renderNewsDigest(query string, articles []*models.NewsArticle) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## News results for %q (%d articles):\n\n", query, len(articles))
	for _, a := range articles {
		fmt.Fprintf(&b, "### %s (%s, %s)\n", a.Title, a.Source, a.PublishedAt.Format("2006-01-02"))
		if a.Snippet != "" {
			b.WriteString(a.Snippet + "\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
