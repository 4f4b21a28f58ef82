package tool

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

const ToolWalletAnalytics = "get_wallet_analytics"

type MoralisConfig struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://deep-index.moralis.io"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

// MoralisClient retrieves per-wallet activity stats.
type MoralisClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewMoralisClient(cfg MoralisConfig) *MoralisClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MoralisClient{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *MoralisClient) WalletAnalytics(ctx context.Context, address, chain string) (map[string]any, error) {
	address = strings.TrimSpace(address)
	if address == "" {
		return nil, contractx.NewToolError(ToolWalletAnalytics, contractx.KindInvalidInput,
			fmt.Errorf("wallet address is required"))
	}

	endpoint := fmt.Sprintf("%s/api/v2.2/wallets/%s/stats?chain=%s",
		c.baseURL, url.PathEscape(address), url.QueryEscape(strings.ToLower(chain)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build wallet request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	var out map[string]any
	if err := doJSON(c.httpClient, ToolWalletAnalytics, req, &out); err != nil {
		return nil, err
	}
	return out, nil
}
