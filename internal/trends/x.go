package trends

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"
)

const xTrendsAPIURL = "https://api.twitter.com"

// BearerSource supplies an OAuth2 bearer token; the X publisher
// implements it, sharing its token lifecycle with the trends fetch.
type BearerSource interface {
	AccessToken(ctx context.Context) (string, error)
}

// OAuth1Keys are the four static keys the legacy v1.1 endpoint needs for
// per-request signing.
type OAuth1Keys struct {
	ConsumerKey    string
	ConsumerSecret string
	AccessToken    string
	AccessSecret   string
}

func (k OAuth1Keys) complete() bool {
	return k.ConsumerKey != "" && k.ConsumerSecret != "" && k.AccessToken != "" && k.AccessSecret != ""
}

// XSource fetches trending topics from X: the v2 personalized-trends
// endpoint first, falling back to the legacy v1.1 place trends endpoint
// signed with OAuth1.
type XSource struct {
	httpClient *http.Client
	apiURL     string
	bearer     BearerSource
	keys       OAuth1Keys
}

// XSourceConfig holds configuration for the X trend source.
type XSourceConfig struct {
	Bearer BearerSource
	Keys   OAuth1Keys

	// APIURL overrides the API base URL (tests).
	APIURL string
}

// NewXSource creates a new X trend source.
func NewXSource(cfg XSourceConfig) *XSource {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = xTrendsAPIURL
	}
	return &XSource{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiURL:     apiURL,
		bearer:     cfg.Bearer,
		keys:       cfg.Keys,
	}
}

// Name returns the source name.
func (s *XSource) Name() string {
	return "x"
}

// Fetch retrieves up to 10 trends, trying v2 first and the legacy
// endpoint on any v2 failure.
func (s *XSource) Fetch(ctx context.Context, woeid int) ([]TrendItem, error) {
	if s.bearer != nil {
		items, err := s.fetchV2(ctx)
		if err == nil && len(items) > 0 {
			return items, nil
		}
		if err != nil {
			slog.Warn("v2 trends fetch failed, trying legacy endpoint", "error", err)
		}
	}
	return s.fetchV1(ctx, woeid)
}

// fetchV2 calls the personalized trends endpoint. The response shape is
// loosely specified, so parsing is defensive: the list may live at the
// top level or under data/trends, and the display name under several
// keys.
func (s *XSource) fetchV2(ctx context.Context) ([]TrendItem, error) {
	token, err := s.bearer.AccessToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("get bearer token: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", s.apiURL+"/2/users/personalized_trends", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("v2 trends returned status %d: %s", resp.StatusCode, string(body))
	}

	return parseV2Trends(body), nil
}

func parseV2Trends(body []byte) []TrendItem {
	var raw any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil
	}

	var list []any
	switch v := raw.(type) {
	case []any:
		list = v
	case map[string]any:
		if d, ok := v["data"].([]any); ok {
			list = d
		} else if tr, ok := v["trends"].([]any); ok {
			list = tr
		}
	}

	items := make([]TrendItem, 0, maxItems)
	for _, entry := range list {
		if len(items) == maxItems {
			break
		}
		var item TrendItem
		switch e := entry.(type) {
		case string:
			item.Name = e
		case map[string]any:
			for _, key := range []string{"name", "topic", "display_name", "query"} {
				if v, ok := e[key].(string); ok && v != "" {
					item.Name = v
					break
				}
			}
			if u, ok := e["url"].(string); ok {
				item.URL = u
			}
		}
		if item.Name != "" {
			items = append(items, item)
		}
	}
	return items
}

// v1TrendsResponse is the legacy place-trends response shape.
type v1TrendsResponse []struct {
	Trends []struct {
		Name        string `json:"name"`
		URL         string `json:"url"`
		TweetVolume int    `json:"tweet_volume"`
	} `json:"trends"`
}

// fetchV1 calls the legacy endpoint, signing the request with the four
// static OAuth1 keys.
func (s *XSource) fetchV1(ctx context.Context, woeid int) ([]TrendItem, error) {
	if !s.keys.complete() {
		return nil, fmt.Errorf("OAuth1 credentials missing for legacy trends fallback")
	}

	config := oauth1.NewConfig(s.keys.ConsumerKey, s.keys.ConsumerSecret)
	token := oauth1.NewToken(s.keys.AccessToken, s.keys.AccessSecret)
	client := config.Client(ctx, token)
	client.Timeout = 15 * time.Second

	endpoint := fmt.Sprintf("%s/1.1/trends/place.json?id=%d", s.apiURL, woeid)
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("legacy trends returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed v1TrendsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse trends response: %w", err)
	}
	if len(parsed) == 0 {
		return nil, nil
	}

	items := make([]TrendItem, 0, maxItems)
	for _, t := range parsed[0].Trends {
		if len(items) == maxItems {
			break
		}
		items = append(items, TrendItem{
			Name:   t.Name,
			URL:    t.URL,
			Volume: t.TweetVolume,
		})
	}

	slog.Debug("fetched legacy trends", "count", len(items), "woeid", woeid)
	return items, nil
}
