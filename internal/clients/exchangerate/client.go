// Package exchangerate fetches currency rates from exchangerate-api.com.
// It is the secondary USD/TRY source when the quote provider cannot supply one.
package exchangerate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const defaultBaseURL = "https://api.exchangerate-api.com/v4/latest"

// Client for exchangerate-api.com
type Client struct {
	baseURL string
	client  *http.Client
	log     zerolog.Logger
}

// NewClient creates a new exchangerate-api.com client. An empty baseURL uses the public API.
func NewClient(baseURL string, timeout time.Duration, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log.With().Str("client", "exchangerate-api").Logger(),
	}
}

// GetRate returns how many units of toCurrency one unit of fromCurrency buys
func (c *Client) GetRate(ctx context.Context, fromCurrency, toCurrency string) (float64, error) {
	if fromCurrency == toCurrency {
		return 1.0, nil
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, fromCurrency)
	c.log.Debug().Str("url", url).Msg("Fetching rates")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	var result struct {
		Rates map[string]float64 `json:"rates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	rate, exists := result.Rates[toCurrency]
	if !exists || rate <= 0 {
		return 0, fmt.Errorf("rate not found for %s->%s", fromCurrency, toCurrency)
	}

	c.log.Info().
		Str("from", fromCurrency).
		Str("to", toCurrency).
		Float64("rate", rate).
		Msg("Fetched rate")

	return rate, nil
}
