package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	ToolTrendingCryptos = "get_trending_cryptos"
	ToolMarketData      = "get_market_data"
)

type CoinGeckoConfig struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://api.coingecko.com"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// CoinGeckoClient serves trending tokens and per-coin market snapshots.
type CoinGeckoClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewCoinGeckoClient(cfg CoinGeckoConfig) *CoinGeckoClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CoinGeckoClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *CoinGeckoClient) Trending(ctx context.Context) (map[string]any, error) {
	req, err := c.newRequest(ctx, ToolTrendingCryptos, "/api/v3/search/trending", nil)
	if err != nil {
		return nil, err
	}

	var out map[string]any
	if err := doJSON(c.httpClient, ToolTrendingCryptos, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CoinGeckoClient) MarketData(ctx context.Context, coinIDs []string, vsCurrency string) ([]map[string]any, error) {
	query := url.Values{}
	query.Set("vs_currency", strings.ToLower(strings.TrimSpace(vsCurrency)))
	query.Set("ids", strings.ToLower(strings.Join(coinIDs, ",")))

	req, err := c.newRequest(ctx, ToolMarketData, "/api/v3/coins/markets", query)
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	if err := doJSON(c.httpClient, ToolMarketData, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *CoinGeckoClient) newRequest(ctx context.Context, toolName, path string, query url.Values) (*http.Request, error) {
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build %s request: %w", toolName, err)
	}
	if c.apiKey != "" {
		req.Header.Set("x-cg-demo-api-key", c.apiKey)
	}
	return req, nil
}
