package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const ToolLatestNews = "get_latest_news"

type CryptoPanicConfig struct {
	BaseURL   string        `envconfig:"BASE_URL" split_words:"true" default:"https://cryptopanic.com"`
	AuthToken string        `envconfig:"AUTH_TOKEN" split_words:"true"`
	Timeout   time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// CryptoPanicClient fetches recent news posts filtered by currency.
type CryptoPanicClient struct {
	baseURL    string
	authToken  string
	httpClient *http.Client
}

func NewCryptoPanicClient(cfg CryptoPanicConfig) *CryptoPanicClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &CryptoPanicClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		authToken:  strings.TrimSpace(cfg.AuthToken),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *CryptoPanicClient) LatestNews(ctx context.Context, currencies string) (map[string]any, error) {
	query := url.Values{}
	if c.authToken != "" {
		query.Set("auth_token", c.authToken)
	}
	if trimmed := strings.TrimSpace(currencies); trimmed != "" {
		query.Set("currencies", strings.ToUpper(trimmed))
	}

	endpoint := c.baseURL + "/api/v1/posts/?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build news request: %w", err)
	}

	var out map[string]any
	if err := doJSON(c.httpClient, ToolLatestNews, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
