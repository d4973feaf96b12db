package trends

import (
	"strings"
)

// CryptoKeywords is the default domain keyword set.
var CryptoKeywords = []string{
	"bitcoin", "btc", "ethereum", "eth", "crypto", "blockchain",
	"defi", "nft", "web3", "altcoin", "stablecoin", "solana",
	"airdrop", "token", "onchain", "layer2",
}

// KeywordFilter narrows a trend list to items whose name contains any of
// a configured keyword set, recording which keywords matched per item.
type KeywordFilter struct {
	keywords []string
}

// FilterConfig holds filter configuration.
type FilterConfig struct {
	// Keywords replaces the default crypto set when non-empty.
	Keywords []string
}

// NewKeywordFilter creates a new keyword filter.
func NewKeywordFilter(cfg FilterConfig) *KeywordFilter {
	keywords := cfg.Keywords
	if len(keywords) == 0 {
		keywords = CryptoKeywords
	}
	lowered := make([]string, len(keywords))
	for i, kw := range keywords {
		lowered[i] = strings.ToLower(kw)
	}
	return &KeywordFilter{keywords: lowered}
}

// Match returns the keywords the trend name contains, case-insensitively.
func (f *KeywordFilter) Match(item TrendItem) []string {
	name := strings.ToLower(item.Name)
	var matched []string
	for _, kw := range f.keywords {
		if strings.Contains(name, kw) {
			matched = append(matched, kw)
		}
	}
	return matched
}

// Filter returns only the items matching at least one keyword, with
// their Matched field populated.
func (f *KeywordFilter) Filter(items []TrendItem) []TrendItem {
	result := make([]TrendItem, 0, len(items))
	for _, item := range items {
		if matched := f.Match(item); len(matched) > 0 {
			item.Matched = matched
			result = append(result, item)
		}
	}
	return result
}
