// Package yahoo provides a client for the public Yahoo Finance endpoints:
// batched quotes, symbol search and daily/weekly/monthly charts.
package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/aristath/folio/internal/domain"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// MaxBatchSize is the largest number of symbols per quote request
	MaxBatchSize = 100

	defaultBaseURL   = "https://query1.finance.yahoo.com"
	defaultSearchURL = "https://query2.finance.yahoo.com"
	userAgent        = "Mozilla/5.0 (compatible; folio/1.0)"
)

// Config configures the client
type Config struct {
	BaseURL        string
	SearchURL      string
	Timeout        time.Duration
	MaxRetries     int
	RatePerSecond  float64
	InitialBackoff time.Duration // Doubled after every failed attempt
}

// StatusError is a non-2xx response
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("yahoo API error: status %d, body: %s", e.StatusCode, e.Body)
}

// retryable reports whether the response may succeed on a later attempt
func (e *StatusError) retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// Client is the Yahoo Finance API client
type Client struct {
	baseURL    string
	searchURL  string
	httpClient *http.Client
	limiter    *rate.Limiter
	maxRetries int
	backoff    time.Duration
	log        zerolog.Logger
}

// NewClient creates a new Yahoo Finance client
func NewClient(cfg Config, log zerolog.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.SearchURL == "" {
		cfg.SearchURL = defaultSearchURL
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxRetries < 1 {
		cfg.MaxRetries = 1
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 5
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}

	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		searchURL:  strings.TrimRight(cfg.SearchURL, "/"),
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RatePerSecond), 1),
		maxRetries: cfg.MaxRetries,
		backoff:    cfg.InitialBackoff,
		log:        log.With().Str("client", "yahoo").Logger(),
	}
}

type quoteResponse struct {
	QuoteResponse struct {
		Result []struct {
			Symbol             string  `json:"symbol"`
			ShortName          string  `json:"shortName"`
			LongName           string  `json:"longName"`
			Currency           string  `json:"currency"`
			RegularMarketPrice float64 `json:"regularMarketPrice"`
			Bid                float64 `json:"bid"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"quoteResponse"`
}

type apiError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Quotes fetches current prices in batches of MaxBatchSize.
// Symbols without a usable price are absent from the result.
func (c *Client) Quotes(ctx context.Context, symbols []string) (map[string]domain.Quote, error) {
	quotes := make(map[string]domain.Quote, len(symbols))

	for start := 0; start < len(symbols); start += MaxBatchSize {
		end := start + MaxBatchSize
		if end > len(symbols) {
			end = len(symbols)
		}

		params := url.Values{"symbols": {strings.Join(symbols[start:end], ",")}}
		var resp quoteResponse
		if err := c.getJSON(ctx, c.baseURL+"/v7/finance/quote?"+params.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch quotes: %w", err)
		}
		if e := resp.QuoteResponse.Error; e != nil {
			return nil, fmt.Errorf("failed to fetch quotes: %s: %s", e.Code, e.Description)
		}

		now := time.Now().UTC()
		for _, r := range resp.QuoteResponse.Result {
			price := r.RegularMarketPrice
			if price <= 0 {
				price = r.Bid
			}
			if r.Symbol == "" || price <= 0 {
				continue
			}
			name := r.LongName
			if name == "" {
				name = r.ShortName
			}
			quotes[r.Symbol] = domain.Quote{
				Symbol:    r.Symbol,
				Name:      name,
				Currency:  r.Currency,
				Price:     price,
				FetchedAt: now,
			}
		}
	}

	c.log.Debug().Int("requested", len(symbols)).Int("resolved", len(quotes)).Msg("Fetched quotes")
	return quotes, nil
}

// Quote fetches the current price of one symbol
func (c *Client) Quote(ctx context.Context, symbol string) (*domain.Quote, error) {
	quotes, err := c.Quotes(ctx, []string{symbol})
	if err != nil {
		return nil, err
	}
	q, ok := quotes[symbol]
	if !ok {
		return nil, fmt.Errorf("quote %s: %w", symbol, domain.ErrNotFound)
	}
	return &q, nil
}

type searchResponse struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Search finds symbols matching free text. Entries without a symbol are dropped.
func (c *Client) Search(ctx context.Context, text string) ([]domain.SearchResult, error) {
	params := url.Values{"q": {text}, "quotesCount": {"20"}, "newsCount": {"0"}}

	var resp searchResponse
	if err := c.getJSON(ctx, c.searchURL+"/v1/finance/search?"+params.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("failed to search symbols: %w", err)
	}

	results := make([]domain.SearchResult, 0, len(resp.Quotes))
	for _, q := range resp.Quotes {
		if q.Symbol == "" {
			continue
		}
		name := q.LongName
		if name == "" {
			name = q.ShortName
		}
		results = append(results, domain.SearchResult{
			Symbol:    q.Symbol,
			Name:      name,
			Exchange:  q.Exchange,
			QuoteType: q.QuoteType,
		})
	}
	return results, nil
}

type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				GMTOffset int64 `json:"gmtoffset"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *apiError `json:"error"`
	} `json:"chart"`
}

// History fetches closes between start and end. Dates are civil dates on the
// exchange's clock; bars without a close are skipped.
func (c *Client) History(ctx context.Context, symbol string, start, end time.Time, granularity domain.Granularity) ([]domain.PricePoint, error) {
	if !granularity.Valid() {
		return nil, domain.NewValidationError("granularity", "unsupported granularity %q", granularity)
	}

	params := url.Values{
		"period1":  {fmt.Sprint(start.Unix())},
		"period2":  {fmt.Sprint(end.Unix())},
		"interval": {string(granularity)},
		"events":   {"history"},
	}
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", c.baseURL, url.PathEscape(symbol), params.Encode())

	var resp chartResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %w", symbol, err)
	}
	if e := resp.Chart.Error; e != nil {
		return nil, fmt.Errorf("failed to fetch chart for %s: %s: %s", symbol, e.Code, e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return []domain.PricePoint{}, nil
	}

	result := resp.Chart.Result[0]
	var closes []*float64
	if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	points := make([]domain.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil || *closes[i] <= 0 {
			continue
		}
		date := time.Unix(ts+result.Meta.GMTOffset, 0).UTC().Format("2006-01-02")
		points = append(points, domain.PricePoint{Date: date, Close: *closes[i]})
	}
	return points, nil
}

// getJSON performs a rate-limited GET with exponential backoff on transport
// errors, 429 and 5xx responses.
func (c *Client) getJSON(ctx context.Context, endpoint string, dst interface{}) error {
	var lastErr error

	for attempt := 0; attempt < c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff << (attempt - 1)
			c.log.Warn().Err(lastErr).Int("attempt", attempt+1).Dur("delay", delay).Msg("Retrying Yahoo request")

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		body, err := c.do(ctx, endpoint)
		if err == nil {
			if err := json.Unmarshal(body, dst); err != nil {
				return fmt.Errorf("failed to decode response: %w", err)
			}
			return nil
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
		var statusErr *StatusError
		if errors.As(err, &statusErr) && !statusErr.retryable() {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("giving up after %d attempts: %w", c.maxRetries, lastErr)
}

func (c *Client) do(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		snippet := string(body)
		if len(snippet) > 256 {
			snippet = snippet[:256]
		}
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: snippet}
	}
	return body, nil
}
