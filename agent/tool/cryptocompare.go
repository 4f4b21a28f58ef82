package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const ToolCurrentPrice = "get_current_price"

type CryptoCompareConfig struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://min-api.cryptocompare.com"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// CryptoCompareClient fetches spot prices from the CryptoCompare REST API.
type CryptoCompareClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewCryptoCompareClient(cfg CryptoCompareConfig) *CryptoCompareClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CryptoCompareClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// CurrentPrice returns the price of symbol in each of the comma-separated
// target currencies.
func (c *CryptoCompareClient) CurrentPrice(ctx context.Context, symbol, currencies string) (map[string]float64, error) {
	endpoint := fmt.Sprintf("%s/data/price?fsym=%s&tsyms=%s",
		c.baseURL,
		url.QueryEscape(strings.ToUpper(strings.TrimSpace(symbol))),
		url.QueryEscape(strings.ToUpper(strings.TrimSpace(currencies))),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build price request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Apikey "+c.apiKey)
	}

	var out map[string]float64
	if err := doJSON(c.httpClient, ToolCurrentPrice, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
