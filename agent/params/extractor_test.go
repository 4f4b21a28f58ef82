package params

import (
	"reflect"
	"testing"

	contractx "github.com/lenoxhq/lenox/agent/contract"
	toolx "github.com/lenoxhq/lenox/agent/tool"
)

type mapExtractor map[string]string

func (m mapExtractor) Extract(text, entityType string) string {
	return m[entityType]
}

type panicExtractor struct{}

func (panicExtractor) Extract(text, entityType string) string {
	panic("exploded")
}

func TestResolveAllKinds(t *testing.T) {
	t.Parallel()

	desc := &toolx.Descriptor{
		Name: "probe",
		Params: map[string]contractx.ParamSpec{
			"vs_currency": {Kind: contractx.ParamConstant, Default: "usd"},
			"symbol":      {Kind: contractx.ParamEntity, Entity: EntityCryptoSymbol, Default: "BTC"},
			"note":        {Kind: contractx.ParamFreeText},
			"coin_ids":    {Kind: contractx.ParamList, Entity: EntityCoinID, Default: "bitcoin"},
		},
	}

	got := Resolve(desc, "price of ethereum", mapExtractor{
		EntityCryptoSymbol: "ETH",
		EntityCoinID:       "ethereum",
	})

	want := contractx.Params{
		"vs_currency": "usd",
		"symbol":      "ETH",
		"note":        "",
		"coin_ids":    []string{"ethereum"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("resolved params mismatch:\n got %v\nwant %v", got, want)
	}
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	t.Parallel()

	desc := &toolx.Descriptor{
		Name: "probe",
		Params: map[string]contractx.ParamSpec{
			"symbol":   {Kind: contractx.ParamEntity, Entity: EntityCryptoSymbol, Default: "BTC"},
			"coin_ids": {Kind: contractx.ParamList, Entity: EntityCoinID, Default: "bitcoin"},
		},
	}

	got := Resolve(desc, "what is the price today?", mapExtractor{})

	if got["symbol"] != "BTC" {
		t.Fatalf("expected default symbol BTC, got %v", got["symbol"])
	}
	if list, _ := got["coin_ids"].([]string); len(list) != 1 || list[0] != "bitcoin" {
		t.Fatalf("expected default coin id, got %v", got["coin_ids"])
	}
}

func TestResolveSurvivesPanickingExtractor(t *testing.T) {
	t.Parallel()

	desc := &toolx.Descriptor{
		Name: "probe",
		Params: map[string]contractx.ParamSpec{
			"symbol": {Kind: contractx.ParamEntity, Entity: EntityCryptoSymbol, Default: "BTC"},
		},
	}

	got := Resolve(desc, "price?", panicExtractor{})
	if got["symbol"] != "BTC" {
		t.Fatalf("panic should count as a miss, got %v", got["symbol"])
	}
}

func TestResolveNilExtractor(t *testing.T) {
	t.Parallel()

	desc := &toolx.Descriptor{
		Name: "probe",
		Params: map[string]contractx.ParamSpec{
			"symbol": {Kind: contractx.ParamEntity, Entity: EntityCryptoSymbol, Default: "BTC"},
		},
	}

	if got := Resolve(desc, "price?", nil); got["symbol"] != "BTC" {
		t.Fatalf("nil extractor should fall back to default, got %v", got["symbol"])
	}
}

func TestRegexExtractorSymbols(t *testing.T) {
	t.Parallel()

	e := NewRegexExtractor()

	cases := []struct {
		text string
		want string
	}{
		{"what is the bitcoin price?", "BTC"},
		{"how is $eth doing", "ETH"},
		{"price of SOL right now", "SOL"},
		{"is USD a crypto?", ""},
		{"tell me about dogecoin", "DOGE"},
	}
	for _, tc := range cases {
		if got := e.Extract(tc.text, EntityCryptoSymbol); got != tc.want {
			t.Errorf("Extract(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestRegexExtractorResolvesFirstMentionedCoin(t *testing.T) {
	t.Parallel()

	e := NewRegexExtractor()

	// A query naming several coins must resolve to the first mention,
	// identically on every call, so repeated requests share a cache key.
	for i := 0; i < 200; i++ {
		if got := e.Extract("should I hold bitcoin or ethereum this year", EntityCryptoSymbol); got != "BTC" {
			t.Fatalf("call %d: got %q, want BTC", i, got)
		}
		if got := e.Extract("compare ethereum against bitcoin", EntityCoinID); got != "ethereum" {
			t.Fatalf("call %d: got %q, want ethereum", i, got)
		}
	}
}

func TestRegexExtractorCoinID(t *testing.T) {
	t.Parallel()

	e := NewRegexExtractor()

	if got := e.Extract("market data for ethereum please", EntityCoinID); got != "ethereum" {
		t.Fatalf("coin id by name: got %q", got)
	}
	if got := e.Extract("market data for $BTC", EntityCoinID); got != "bitcoin" {
		t.Fatalf("coin id via symbol: got %q", got)
	}
	if got := e.Extract("market data please", EntityCoinID); got != "" {
		t.Fatalf("expected miss, got %q", got)
	}
}

func TestRegexExtractorWalletAddress(t *testing.T) {
	t.Parallel()

	e := NewRegexExtractor()
	addr := "0x742d35Cc6634C0532925a3b844Bc454e4438f44e"

	if got := e.Extract("analyze wallet "+addr, EntityWalletAddress); got != addr {
		t.Fatalf("wallet extraction: got %q", got)
	}
	if got := e.Extract("analyze wallet 0x1234", EntityWalletAddress); got != "" {
		t.Fatalf("short address must not match, got %q", got)
	}
}

func TestRegexExtractorCurrency(t *testing.T) {
	t.Parallel()

	e := NewRegexExtractor()
	if got := e.Extract("price in eur please", EntityCurrency); got != "EUR" {
		t.Fatalf("currency extraction: got %q", got)
	}
}

func TestRegexExtractorUnknownEntity(t *testing.T) {
	t.Parallel()

	e := NewRegexExtractor()
	if got := e.Extract("anything", "no_such_entity"); got != "" {
		t.Fatalf("unknown entity type must miss, got %q", got)
	}
}
