package params

import (
	"regexp"
	"strings"
)

// Entity types understood by the built-in extractor.
const (
	EntityCryptoSymbol  = "crypto_symbol"
	EntityCoinID        = "coin_id"
	EntityWalletAddress = "wallet_address"
	EntityCurrency      = "currency"
)

var (
	dollarTickerExpr = regexp.MustCompile(`\$([A-Za-z]{2,6})\b`)
	bareTickerExpr   = regexp.MustCompile(`\b([A-Z]{3,5})\b`)
	walletExpr       = regexp.MustCompile(`\b0x[0-9a-fA-F]{40}\b`)
	currencyExpr     = regexp.MustCompile(`(?i)\b(usd|eur|gbp|jpy|thb|chf|aud)\b`)
)

// nameToSymbol resolves common coin names mentioned in prose.
var nameToSymbol = map[string]string{
	"bitcoin":  "BTC",
	"ethereum": "ETH",
	"solana":   "SOL",
	"dogecoin": "DOGE",
	"cardano":  "ADA",
	"ripple":   "XRP",
	"litecoin": "LTC",
	"polkadot": "DOT",
}

var symbolToCoinID = map[string]string{
	"BTC":  "bitcoin",
	"ETH":  "ethereum",
	"SOL":  "solana",
	"DOGE": "dogecoin",
	"ADA":  "cardano",
	"XRP":  "ripple",
	"LTC":  "litecoin",
	"DOT":  "polkadot",
}

// tickerStoplist keeps fiat codes and shouty prose out of symbol matches.
var tickerStoplist = map[string]bool{
	"USD": true, "EUR": true, "GBP": true, "JPY": true, "THB": true,
	"THE": true, "AND": true, "FOR": true, "NOW": true, "API": true,
}

// RegexExtractor is the built-in rule-based entity recognizer. Any NLP
// collaborator satisfying contract.EntityExtractor can replace it.
type RegexExtractor struct{}

func NewRegexExtractor() *RegexExtractor {
	return &RegexExtractor{}
}

// Extract returns the first entity of the requested type found in text,
// or the empty string on a miss.
func (e *RegexExtractor) Extract(text, entityType string) string {
	switch entityType {
	case EntityCryptoSymbol:
		return extractSymbol(text)
	case EntityCoinID:
		return extractCoinID(text)
	case EntityWalletAddress:
		return walletExpr.FindString(text)
	case EntityCurrency:
		if m := currencyExpr.FindString(text); m != "" {
			return strings.ToUpper(m)
		}
		return ""
	default:
		return ""
	}
}

func extractSymbol(text string) string {
	if m := dollarTickerExpr.FindStringSubmatch(text); m != nil {
		return strings.ToUpper(m[1])
	}
	if name := earliestName(strings.ToLower(text)); name != "" {
		return nameToSymbol[name]
	}
	for _, m := range bareTickerExpr.FindAllString(text, -1) {
		if !tickerStoplist[m] {
			return m
		}
	}
	return ""
}

func extractCoinID(text string) string {
	if name := earliestName(strings.ToLower(text)); name != "" {
		return name
	}
	if symbol := extractSymbol(text); symbol != "" {
		if id, ok := symbolToCoinID[symbol]; ok {
			return id
		}
	}
	return ""
}

// earliestName returns the known coin name mentioned first in the
// lowered text. Position decides, so a query naming several coins always
// resolves to the same one; a longer name wins a shared start offset.
func earliestName(lowered string) string {
	bestIdx := -1
	bestName := ""
	for name := range nameToSymbol {
		idx := strings.Index(lowered, name)
		if idx < 0 {
			continue
		}
		if bestIdx == -1 || idx < bestIdx || (idx == bestIdx && len(name) > len(bestName)) {
			bestIdx = idx
			bestName = name
		}
	}
	return bestName
}
