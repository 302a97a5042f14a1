package dataflows

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"

	"github.com/dyike/StockCouncil/internal/config"
	"github.com/dyike/StockCouncil/internal/models"
)

// NewsScraperClient scrapes Google News search results.
type NewsScraperClient struct {
	client *resty.Client
	cache  *CacheManager
}

// GoogleNewsParams describes one news search.
type GoogleNewsParams struct {
	Query      string    `json:"query"`
	Language   string    `json:"language"`
	Country    string    `json:"country"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	MaxResults int       `json:"max_results"`
}

// NewNewsScraperClient creates a news scraper. News entries are cached for
// two hours.
func NewNewsScraperClient(cfg *config.Config) *NewsScraperClient {
	cacheDir := filepath.Join(cfg.DataCacheDir, "news_scraper")

	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("User-Agent", "Mozilla/5.0 (compatible; StockCouncil/1.0)")

	return &NewsScraperClient{
		client: client,
		cache:  NewCacheManager(cacheDir, 2*time.Hour, cfg.CacheEnabled),
	}
}

// GetGoogleNews fetches news articles matching the params. An empty result is
// not an error; callers decide how to phrase "no news found".
func (ns *NewsScraperClient) GetGoogleNews(params GoogleNewsParams) ([]*models.NewsArticle, error) {
	if strings.TrimSpace(params.Query) == "" {
		return nil, fmt.Errorf("search query cannot be empty")
	}
	if params.Language == "" {
		params.Language = "en"
	}
	if params.Country == "" {
		params.Country = "US"
	}
	if params.MaxResults <= 0 {
		params.MaxResults = 20
	}

	var cached []*models.NewsArticle
	if ns.cache.Get("google_news", "search", params, &cached) {
		return cached, nil
	}

	var result []*models.NewsArticle
	err := WithRetry(DefaultRetryConfig(), func() error {
		resp, err := ns.client.R().Get(ns.buildSearchURL(params))
		if err != nil {
			return fmt.Errorf("fetch Google News: %w", err)
		}
		if resp.StatusCode() != 200 {
			return fmt.Errorf("HTTP %d fetching Google News", resp.StatusCode())
		}

		doc, err := goquery.NewDocumentFromReader(strings.NewReader(resp.String()))
		if err != nil {
			return fmt.Errorf("parse Google News HTML: %w", err)
		}

		result = parseArticles(doc)
		if len(result) > params.MaxResults {
			result = result[:params.MaxResults]
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ns.cache.Set("google_news", "search", params, result)
	return result, nil
}

func (ns *NewsScraperClient) buildSearchURL(params GoogleNewsParams) string {
	query := params.Query
	if !params.StartDate.IsZero() && !params.EndDate.IsZero() {
		query += fmt.Sprintf(" after:%s before:%s",
			params.StartDate.Format("2006-01-02"),
			params.EndDate.Format("2006-01-02"))
	}
	return fmt.Sprintf("https://news.google.com/search?q=%s&hl=%s&gl=%s&ceid=%s:%s",
		url.QueryEscape(query), params.Language, params.Country, params.Country, params.Language)
}

func parseArticles(doc *goquery.Document) []*models.NewsArticle {
	var articles []*models.NewsArticle
	doc.Find("article").Each(func(_ int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Find("h3").Text())
		if title == "" {
			title = strings.TrimSpace(s.Find("h4").Text())
		}
		if title == "" {
			return
		}

		href, ok := s.Find("a").First().Attr("href")
		if !ok {
			return
		}

		source := strings.TrimSpace(s.Find("div[data-n-tid]").Text())
		if source == "" {
			source = "Google News"
		}

		articles = append(articles, &models.NewsArticle{
			Title:       title,
			Source:      source,
			URL:         resolveURL(href),
			Snippet:     strings.TrimSpace(s.Find("span").Last().Text()),
			PublishedAt: parseRelativeTime(strings.TrimSpace(s.Find("time").Text())),
		})
	})
	return articles
}

func resolveURL(href string) string {
	if strings.Contains(href, "url=") {
		parts := strings.SplitN(href, "url=", 2)
		if decoded, err := url.QueryUnescape(parts[1]); err == nil {
			return decoded
		}
	}
	if strings.HasPrefix(href, "./") {
		return "https://news.google.com" + href[1:]
	}
	if strings.HasPrefix(href, "/") {
		return "https://news.google.com" + href
	}
	return href
}

// parseRelativeTime converts Google News relative timestamps ("3 hours ago")
// into absolute times, falling back to now.
func parseRelativeTime(text string) time.Time {
	now := time.Now()
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" || text == "yesterday" {
		if text == "yesterday" {
			return now.AddDate(0, 0, -1)
		}
		return now
	}

	var n int
	var unit string
	if _, err := fmt.Sscanf(text, "%d %s", &n, &unit); err != nil {
		return now
	}
	switch {
	case strings.HasPrefix(unit, "minute"):
		return now.Add(-time.Duration(n) * time.Minute)
	case strings.HasPrefix(unit, "hour"):
		return now.Add(-time.Duration(n) * time.Hour)
	case strings.HasPrefix(unit, "day"):
		return now.AddDate(0, 0, -n)
	case strings.HasPrefix(unit, "week"):
		return now.AddDate(0, 0, -7*n)
	case strings.HasPrefix(unit, "month"):
		return now.AddDate(0, -n, 0)
	}
	return now
}
