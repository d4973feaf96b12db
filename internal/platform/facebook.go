package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const facebookGraphURL = "https://graph.facebook.com"

// CredentialStore is the slice of the credential store the adapters
// need: named secrets that survive token refreshes.
type CredentialStore interface {
	Get(name string) string
	Set(name, value string) error
}

// FacebookPublisher posts to a Facebook Page feed via the Graph API.
// The page token is not refreshable by itself; when the provider signals
// an expired session the adapter re-derives it from the long-lived user
// token via a two-step exchange chain and retries once.
type FacebookPublisher struct {
	httpClient *http.Client
	graphURL   string
	pageID     string
	appID      string
	appSecret  string
	creds      CredentialStore
}

// FacebookConfig holds configuration for the Facebook publisher.
type FacebookConfig struct {
	PageID    string
	AppID     string
	AppSecret string
	Creds     CredentialStore

	// GraphURL overrides the Graph API base URL (tests).
	GraphURL string
}

// NewFacebookPublisher creates a new Facebook publisher.
func NewFacebookPublisher(cfg FacebookConfig) *FacebookPublisher {
	graphURL := cfg.GraphURL
	if graphURL == "" {
		graphURL = facebookGraphURL
	}
	return &FacebookPublisher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		graphURL:   graphURL,
		pageID:     cfg.PageID,
		appID:      cfg.AppID,
		appSecret:  cfg.AppSecret,
		creds:      cfg.Creds,
	}
}

// Platform returns the platform name.
func (f *FacebookPublisher) Platform() string {
	return "facebook"
}

// Publish posts text to the page feed. On a session-expired error it
// runs the token exchange chain and retries exactly once.
func (f *FacebookPublisher) Publish(ctx context.Context, text string) (*PostResult, error) {
	if f.pageID == "" {
		return nil, &ConfigError{Reason: "FACEBOOK_PAGE_ID is not set"}
	}

	token := f.creds.Get("FACEBOOK_ACCESS_TOKEN")
	if token == "" {
		return nil, &ConfigError{Reason: "FACEBOOK_ACCESS_TOKEN is not set"}
	}

	var lastErr error
	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		result, graphErr, err := f.postToFeed(ctx, text, token)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}

		if attempt == 0 && shouldRefreshToken(graphErr) {
			slog.Info("facebook session expired, refreshing page token",
				"code", graphErr.Code,
				"subcode", graphErr.Subcode,
			)
			token, err = f.refreshPageToken(ctx)
			if err != nil {
				return nil, &AuthError{Platform: "facebook", Err: err}
			}
			lastErr = graphErr
			continue
		}

		if shouldRefreshToken(graphErr) {
			return nil, &AuthError{Platform: "facebook", Err: graphErr}
		}
		return nil, &ProviderError{Platform: "facebook", Status: http.StatusBadRequest, Body: graphErr.Error()}
	}

	return nil, &AuthError{Platform: "facebook", Err: lastErr}
}

// postToFeed performs one feed POST. It returns (result, nil, nil) on
// success and (nil, graphErr, nil) on a provider-reported error.
func (f *FacebookPublisher) postToFeed(ctx context.Context, text, token string) (*PostResult, *GraphError, error) {
	form := url.Values{}
	form.Set("message", text)
	form.Set("access_token", token)

	endpoint := fmt.Sprintf("%s/%s/feed", f.graphURL, f.pageID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		var created struct {
			ID string `json:"id"`
		}
		_ = json.Unmarshal(body, &created)
		return &PostResult{
			PostID:  created.ID,
			Message: "Post successful.",
		}, nil, nil
	}

	if ge := parseGraphError(body); ge != nil {
		return nil, ge, nil
	}
	return nil, nil, &ProviderError{Platform: "facebook", Status: resp.StatusCode, Body: string(body)}
}

// refreshPageToken re-derives the page-scoped token: exchange the
// long-lived user token, then look the page up in the authenticated
// user's account list. The result is persisted before returning.
func (f *FacebookPublisher) refreshPageToken(ctx context.Context) (string, error) {
	userToken := f.creds.Get("FACEBOOK_USER_ACCESS_TOKEN")
	if userToken == "" {
		return "", fmt.Errorf("FACEBOOK_USER_ACCESS_TOKEN is not set")
	}
	if f.appID == "" || f.appSecret == "" {
		return "", fmt.Errorf("FACEBOOK_APP_ID and FACEBOOK_APP_SECRET must be set to refresh the page token")
	}

	longLived, err := f.exchangeUserToken(ctx, userToken)
	if err != nil {
		return "", fmt.Errorf("exchange user token: %w", err)
	}

	pageToken, err := f.lookupPageToken(ctx, longLived)
	if err != nil {
		return "", fmt.Errorf("look up page token: %w", err)
	}

	if err := f.creds.Set("FACEBOOK_ACCESS_TOKEN", pageToken); err != nil {
		return "", fmt.Errorf("persist page token: %w", err)
	}

	slog.Info("refreshed facebook page token", "page_id", f.pageID)
	return pageToken, nil
}

func (f *FacebookPublisher) exchangeUserToken(ctx context.Context, userToken string) (string, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", f.appID)
	q.Set("client_secret", f.appSecret)
	q.Set("fb_exchange_token", userToken)

	endpoint := f.graphURL + "/oauth/access_token?" + q.Encode()
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return "", fmt.Errorf("parse exchange response: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("exchange response missing access token")
	}
	return tokenResp.AccessToken, nil
}

func (f *FacebookPublisher) lookupPageToken(ctx context.Context, userToken string) (string, error) {
	q := url.Values{}
	q.Set("access_token", userToken)

	endpoint := f.graphURL + "/me/accounts?" + q.Encode()
	body, err := f.get(ctx, endpoint)
	if err != nil {
		return "", err
	}

	var accounts struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			AccessToken string `json:"access_token"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &accounts); err != nil {
		return "", fmt.Errorf("parse accounts response: %w", err)
	}

	for _, page := range accounts.Data {
		if page.ID == f.pageID {
			if page.AccessToken == "" {
				return "", fmt.Errorf("page %s has no access token", f.pageID)
			}
			return page.AccessToken, nil
		}
	}
	return "", fmt.Errorf("page %s not found in user's page list", f.pageID)
}

func (f *FacebookPublisher) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		if ge := parseGraphError(body); ge != nil {
			return nil, ge
		}
		return nil, &ProviderError{Platform: "facebook", Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
