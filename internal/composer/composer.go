// Package composer derives short social messages from long-form
// markdown documents.
package composer

import (
	"fmt"
	"math/rand/v2"
	"strings"
)

// Hashtags is the static pool sampled for every message.
var Hashtags = []string{
	"#Crypto", "#Blockchain", "#Web3", "#DeFi", "#Bitcoin", "#Ethereum",
	"#Altcoins", "#NFT", "#AI", "#FinTech", "#CryptoNews", "#OnChain",
	"#Layer2", "#SmartContracts", "#Stablecoins", "#YieldFarming",
	"#Tokenization", "#Web3Gaming", "#Airdrop", "#CryptoMarkets",
}

const (
	snippetLimit = 60
	hashtagCount = 3

	fallbackTitle   = "New Article"
	fallbackSummary = "Read the latest insights."
)

// Compose builds a short message from a markdown document and its
// canonical URL: title, a snippet of the summary, the URL, and a random
// hashtag sample on a second line. Deterministic except for the sample.
func Compose(doc, url string) string {
	title, summary := extract(doc)
	snippet := truncateSnippet(summary)
	base := strings.TrimSpace(fmt.Sprintf("%s — %s %s", title, snippet, url))
	return base + "\n" + strings.Join(sampleHashtags(hashtagCount), " ")
}

// extract pulls the title from the first H1 line and the summary from
// the first blockquote, with fallbacks for documents missing either.
func extract(doc string) (title, summary string) {
	for _, line := range strings.Split(doc, "\n") {
		if title == "" && strings.HasPrefix(line, "# ") {
			title = strings.TrimSpace(strings.TrimLeft(line, "# "))
			continue
		}
		if summary == "" && strings.HasPrefix(strings.TrimSpace(line), "> ") {
			summary = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), "> "))
		}
		if title != "" && summary != "" {
			break
		}
	}

	if title == "" {
		title = fallbackTitle
	}
	if summary == "" {
		// First non-heading, non-image paragraph.
		for _, line := range strings.Split(doc, "\n") {
			trimmed := strings.TrimSpace(line)
			if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "![") {
				continue
			}
			summary = trimmed
			break
		}
	}
	if summary == "" {
		summary = fallbackSummary
	}
	return title, summary
}

// truncateSnippet trims the summary to 60 characters, marking the cut
// with an ellipsis.
func truncateSnippet(summary string) string {
	runes := []rune(summary)
	if len(runes) <= snippetLimit {
		return summary
	}
	return strings.TrimRight(string(runes[:snippetLimit]), " ") + "…"
}

// sampleHashtags draws n tags from the pool without replacement.
func sampleHashtags(n int) []string {
	if n > len(Hashtags) {
		n = len(Hashtags)
	}
	perm := rand.Perm(len(Hashtags))
	chosen := make([]string, n)
	for i := 0; i < n; i++ {
		chosen[i] = Hashtags[perm[i]]
	}
	return chosen
}
