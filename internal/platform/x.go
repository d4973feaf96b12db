package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"

	"github.com/arbitengine/shellcaster/internal/credstore"
)

const (
	xAPIURL  = "https://api.twitter.com"
	xAuthURL = "https://twitter.com/i/oauth2/authorize"

	// XMaxPostLength is the post character limit; outgoing text is
	// truncated to it before sending.
	XMaxPostLength = 280

	// xExpiryLeeway is how much remaining lifetime a stored token needs
	// before the adapter refreshes proactively instead of using it.
	xExpiryLeeway = 60 * time.Second
)

var xScopes = []string{"tweet.read", "tweet.write", "users.read", "offline.access"}

// XPublisher posts to X via the v2 API using OAuth2 authorization code
// with PKCE. Tokens carry an explicit expiry; the adapter refreshes
// proactively when fewer than 60 seconds remain and falls through to the
// full consent flow when no refresh value can help.
type XPublisher struct {
	httpClient *http.Client
	apiURL     string
	oauth      *oauth2.Config
	tokenPath  string
	authorizer Authorizer
}

// XConfig holds configuration for the X publisher.
type XConfig struct {
	ClientID     string
	ClientSecret string
	TokenPath    string
	Authorizer   Authorizer

	// APIURL overrides the API base URL (tests).
	APIURL string
}

// NewXPublisher creates a new X publisher.
func NewXPublisher(cfg XConfig) *XPublisher {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = xAPIURL
	}
	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath = ".x_token.json"
	}
	authorizer := cfg.Authorizer
	if authorizer == nil {
		authorizer = NewTerminalAuthorizer()
	}
	return &XPublisher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiURL:     apiURL,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  "https://localhost:8080/callback",
			Scopes:       xScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   xAuthURL,
				TokenURL:  apiURL + "/2/oauth2/token",
				AuthStyle: oauth2.AuthStyleInHeader,
			},
		},
		tokenPath:  tokenPath,
		authorizer: authorizer,
	}
}

// Platform returns the platform name.
func (x *XPublisher) Platform() string {
	return "x"
}

// AccessToken returns a valid bearer token, running the token lifecycle
// as needed. The trends source uses it for the v2 endpoint.
func (x *XPublisher) AccessToken(ctx context.Context) (string, error) {
	tok, err := x.ensureToken(ctx)
	if err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// Publish posts text, truncated to the platform limit.
func (x *XPublisher) Publish(ctx context.Context, text string) (*PostResult, error) {
	tok, err := x.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		result, status, body, err := x.postTweet(ctx, text, tok.AccessToken)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}

		if status == http.StatusUnauthorized && attempt == 0 && tok.CanRefresh() {
			slog.Info("x token rejected, refreshing")
			tok, err = x.refreshToken(ctx, tok)
			if err != nil {
				return nil, &AuthError{Platform: "x", Err: err}
			}
			continue
		}
		if status == http.StatusUnauthorized {
			return nil, &AuthError{Platform: "x", Err: fmt.Errorf("token rejected: %s", body)}
		}
		return nil, &ProviderError{Platform: "x", Status: status, Body: body}
	}

	return nil, &AuthError{Platform: "x", Err: fmt.Errorf("publish retries exhausted")}
}

// Authorize runs the interactive consent flow unconditionally, replacing
// any stored token.
func (x *XPublisher) Authorize(ctx context.Context) error {
	_, err := x.authorize(ctx)
	return err
}

// ensureToken loads the stored token and brings it to a usable state:
// use as-is when more than 60s of lifetime remain, refresh proactively
// when possible, otherwise run the interactive PKCE flow.
func (x *XPublisher) ensureToken(ctx context.Context) (*credstore.Token, error) {
	tok, err := credstore.LoadToken(x.tokenPath)
	if err != nil {
		slog.Warn("stored x token unreadable, re-authorizing", "error", err)
		tok = nil
	}

	if tok.Valid(xExpiryLeeway) {
		return tok, nil
	}

	if tok.CanRefresh() {
		refreshed, err := x.refreshToken(ctx, tok)
		if err == nil {
			return refreshed, nil
		}
		slog.Warn("x token refresh failed, re-authorizing", "error", err)
	}

	return x.authorize(ctx)
}

// xTokenResponse is the token endpoint response shape.
type xTokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
}

// refreshToken exchanges the refresh value for a new token. The provider
// sometimes omits the refresh token from the response; the previous one
// is carried forward so the token stays self-healing.
func (x *XPublisher) refreshToken(ctx context.Context, old *credstore.Token) (*credstore.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "refresh_token")
	form.Set("refresh_token", old.RefreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", x.oauth.Endpoint.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(x.oauth.ClientID, x.oauth.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("refresh failed (status %d): %s", resp.StatusCode, string(body))
	}

	var tokenResp xTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}

	tok := tokenFromResponse(tokenResp)
	if tok.RefreshToken == "" {
		tok.RefreshToken = old.RefreshToken
	}
	if err := credstore.SaveToken(x.tokenPath, tok); err != nil {
		return nil, err
	}

	slog.Debug("refreshed x token", "expires_in", tokenResp.ExpiresIn)
	return tok, nil
}

// authorize runs the full PKCE consent flow and persists the token.
func (x *XPublisher) authorize(ctx context.Context) (*credstore.Token, error) {
	if x.oauth.ClientID == "" || x.oauth.ClientSecret == "" {
		return nil, &ConfigError{Reason: "X_CLIENT_ID and X_CLIENT_SECRET must be set"}
	}

	verifier := oauth2.GenerateVerifier()
	authURL := x.oauth.AuthCodeURL(randomState(), oauth2.S256ChallengeOption(verifier))

	if err := x.authorizer.Open(authURL); err != nil {
		return nil, &AuthError{Platform: "x", Err: err}
	}
	callback, err := x.authorizer.CaptureCallback()
	if err != nil {
		return nil, &AuthError{Platform: "x", Err: err}
	}
	code, err := codeFromCallback(callback)
	if err != nil {
		return nil, &AuthError{Platform: "x", Err: err}
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, x.httpClient)
	oauthTok, err := x.oauth.Exchange(exchangeCtx, code, oauth2.VerifierOption(verifier))
	if err != nil {
		return nil, &AuthError{Platform: "x", Err: fmt.Errorf("code exchange: %w", err)}
	}

	tok := &credstore.Token{
		AccessToken:  oauthTok.AccessToken,
		TokenType:    oauthTok.TokenType,
		RefreshToken: oauthTok.RefreshToken,
		Scope:        xScopes,
	}
	if !oauthTok.Expiry.IsZero() {
		tok.ExpiresAt = oauthTok.Expiry.Unix()
	} else {
		tok.ExpiresAt = time.Now().Add(2 * time.Hour).Unix()
	}

	if err := credstore.SaveToken(x.tokenPath, tok); err != nil {
		return nil, err
	}
	slog.Info("authorized with x")
	return tok, nil
}

func tokenFromResponse(r xTokenResponse) *credstore.Token {
	tok := &credstore.Token{
		AccessToken:  r.AccessToken,
		TokenType:    r.TokenType,
		RefreshToken: r.RefreshToken,
	}
	if r.ExpiresIn > 0 {
		tok.ExpiresAt = time.Now().Add(time.Duration(r.ExpiresIn) * time.Second).Unix()
	}
	if r.Scope != "" {
		tok.Scope = strings.Fields(r.Scope)
	}
	return tok
}

// createTweetResponse is the response from creating a post.
type createTweetResponse struct {
	Data struct {
		ID   string `json:"id"`
		Text string `json:"text"`
	} `json:"data"`
	Detail string `json:"detail"`
}

// postTweet performs one create attempt. Returns (result, 0, "", nil) on
// success and (nil, status, body, nil) on a provider rejection.
func (x *XPublisher) postTweet(ctx context.Context, text, accessToken string) (*PostResult, int, string, error) {
	payload := map[string]string{"text": TruncatePost(text, XMaxPostLength)}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", x.apiURL+"/2/tweets", bytes.NewReader(body))
	if err != nil {
		return nil, 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := x.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusCreated {
		var parsed createTweetResponse
		if json.Unmarshal(respBody, &parsed) == nil && parsed.Detail != "" {
			return nil, resp.StatusCode, parsed.Detail, nil
		}
		return nil, resp.StatusCode, string(respBody), nil
	}

	var created createTweetResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, 0, "", fmt.Errorf("parse response: %w", err)
	}

	postURL := ""
	if created.Data.ID != "" {
		postURL = "https://twitter.com/user/status/" + created.Data.ID
	}

	slog.Info("posted to x", "id", created.Data.ID, "url", postURL)
	return &PostResult{
		PostID:  created.Data.ID,
		PostURL: postURL,
		Message: "Post successful. " + postURL,
	}, 0, "", nil
}

// TruncatePost trims text to limit runes.
func TruncatePost(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit])
}
