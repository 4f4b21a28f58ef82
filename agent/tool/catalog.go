package tool

import (
	"context"
	"fmt"
	"time"

	contractx "github.com/lenoxhq/lenox/agent/contract"
)

// Clients bundles the upstream API clients the built-in catalog needs.
type Clients struct {
	CryptoCompare *CryptoCompareClient
	CoinGecko     *CoinGeckoClient
	CryptoPanic   *CryptoPanicClient
	Moralis       *MoralisClient
}

// RegisterCatalog wires the built-in crypto retrieval tools into the
// registry. Pattern priorities are small integers; a more specific
// phrasing outranks a generic one, and equal priorities across tools
// deliberately produce multi-tool fan-out.
func RegisterCatalog(reg *Registry, clients Clients) error {
	descriptors := []*Descriptor{
		{
			Name: ToolCurrentPrice,
			Desc: "Current spot price of a cryptocurrency in one or more fiat currencies.",
			Patterns: []Pattern{
				MustPattern(`\b(bitcoin price|btc price|current bitcoin value)\b`, 3),
				MustPattern(`\b(current price|price of)\b`, 2),
			},
			Params: map[string]contractx.ParamSpec{
				"symbol":     {Kind: contractx.ParamEntity, Entity: "crypto_symbol", Default: "BTC"},
				"currencies": {Kind: contractx.ParamConstant, Default: "USD"},
			},
			CacheCategory: "price",
			Timeout:       10 * time.Second,
			Retries:       2,
			Invoke: func(ctx context.Context, params contractx.Params) (any, error) {
				return clients.CryptoCompare.CurrentPrice(ctx,
					stringParam(params, "symbol"), stringParam(params, "currencies"))
			},
		},
		{
			Name: ToolTrendingCryptos,
			Desc: "Tokens currently trending by search and social volume.",
			Patterns: []Pattern{
				MustPattern(`\b(trending (crypto|cryptos|coins|tokens)|what.?s trending)\b`, 2),
			},
			CacheCategory: "trending",
			Timeout:       10 * time.Second,
			Retries:       1,
			Invoke: func(ctx context.Context, params contractx.Params) (any, error) {
				return clients.CoinGecko.Trending(ctx)
			},
		},
		{
			Name: ToolMarketData,
			Desc: "Market snapshot (price, volume, market cap) for one or more coins.",
			Patterns: []Pattern{
				MustPattern(`\b(market data|market overview)\b`, 2),
			},
			Params: map[string]contractx.ParamSpec{
				"coin_ids":    {Kind: contractx.ParamList, Entity: "coin_id", Default: "bitcoin"},
				"vs_currency": {Kind: contractx.ParamConstant, Default: "usd"},
			},
			CacheCategory: "price",
			Timeout:       10 * time.Second,
			Retries:       2,
			Invoke: func(ctx context.Context, params contractx.Params) (any, error) {
				return clients.CoinGecko.MarketData(ctx,
					listParam(params, "coin_ids"), stringParam(params, "vs_currency"))
			},
		},
		{
			Name: ToolLatestNews,
			Desc: "Latest news posts for a currency.",
			Patterns: []Pattern{
				MustPattern(`\b(crypto news|latest news|news about)\b`, 2),
			},
			Params: map[string]contractx.ParamSpec{
				"currencies": {Kind: contractx.ParamEntity, Entity: "crypto_symbol", Default: "BTC"},
			},
			CacheCategory: "news",
			Timeout:       10 * time.Second,
			Retries:       1,
			Invoke: func(ctx context.Context, params contractx.Params) (any, error) {
				return clients.CryptoPanic.LatestNews(ctx, stringParam(params, "currencies"))
			},
		},
		{
			Name: ToolWalletAnalytics,
			Desc: "Activity statistics for a wallet address.",
			Patterns: []Pattern{
				MustPattern(`\b(wallet (analytics|analysis|stats)|analyze (this |my )?wallet)\b`, 2),
			},
			Params: map[string]contractx.ParamSpec{
				"address": {Kind: contractx.ParamEntity, Entity: "wallet_address"},
				"chain":   {Kind: contractx.ParamConstant, Default: "eth"},
			},
			CacheCategory: "wallet",
			Timeout:       15 * time.Second,
			Retries:       1,
			Invoke: func(ctx context.Context, params contractx.Params) (any, error) {
				return clients.Moralis.WalletAnalytics(ctx,
					stringParam(params, "address"), stringParam(params, "chain"))
			},
		},
	}

	for _, d := range descriptors {
		if err := reg.Register(d); err != nil {
			return fmt.Errorf("register catalog tool %s: %w", d.Name, err)
		}
	}
	return nil
}

func stringParam(params contractx.Params, name string) string {
	if v, ok := params[name]; ok {
		if s, ok := v.(string); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	return ""
}

func listParam(params contractx.Params, name string) []string {
	v, ok := params[name]
	if !ok {
		return nil
	}
	switch val := v.(type) {
	case []string:
		return val
	case []any:
		out := make([]string, 0, len(val))
		for _, item := range val {
			out = append(out, fmt.Sprint(item))
		}
		return out
	case string:
		return []string{val}
	default:
		return []string{fmt.Sprint(val)}
	}
}
