package platform

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	linkedinAPIURL   = "https://api.linkedin.com"
	linkedinAuthURL  = "https://www.linkedin.com/oauth/v2/authorization"
	linkedinTokenURL = "https://www.linkedin.com/oauth/v2/accessToken"
)

// linkedinScopes is kept in a stable order to avoid the provider's
// "scope changed" errors between consent and exchange.
var linkedinScopes = []string{
	"openid",
	"email",
	"r_basicprofile",
	"w_organization_social",
	"profile",
	"w_member_social",
}

// LinkedInPublisher posts UGC shares via the LinkedIn v2 API. When a
// refresh token is present it refreshes optimistically before every
// publish; a 401 from the provider triggers one reactive refresh and a
// single retry.
type LinkedInPublisher struct {
	httpClient *http.Client
	apiURL     string
	oauth      *oauth2.Config
	creds      CredentialStore
	authorizer Authorizer

	organizationURN string
	authorURN       string
}

// LinkedInConfig holds configuration for the LinkedIn publisher.
type LinkedInConfig struct {
	ClientID        string
	ClientSecret    string
	OrganizationURN string
	AuthorURN       string
	Creds           CredentialStore
	Authorizer      Authorizer

	// APIURL and TokenURL override provider endpoints (tests).
	APIURL   string
	TokenURL string
}

// NewLinkedInPublisher creates a new LinkedIn publisher.
func NewLinkedInPublisher(cfg LinkedInConfig) *LinkedInPublisher {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = linkedinAPIURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = linkedinTokenURL
	}
	authorizer := cfg.Authorizer
	if authorizer == nil {
		authorizer = NewTerminalAuthorizer()
	}
	return &LinkedInPublisher{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiURL:     apiURL,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  "https://localhost:8080",
			Scopes:       linkedinScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   linkedinAuthURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		creds:           cfg.Creds,
		authorizer:      authorizer,
		organizationURN: cfg.OrganizationURN,
		authorURN:       cfg.AuthorURN,
	}
}

// Platform returns the platform name.
func (l *LinkedInPublisher) Platform() string {
	return "linkedin"
}

// resolveAuthor picks the posting identity: organization preferred,
// personal URN as fallback. Neither configured fails fast before any
// network call.
func (l *LinkedInPublisher) resolveAuthor() (string, error) {
	if l.organizationURN != "" {
		if strings.HasPrefix(l.organizationURN, "urn:li:organization:") {
			return l.organizationURN, nil
		}
		return "urn:li:organization:" + l.organizationURN, nil
	}
	if l.authorURN != "" {
		if strings.HasPrefix(l.authorURN, "urn:li:person:") {
			return l.authorURN, nil
		}
		return "urn:li:person:" + l.authorURN, nil
	}
	return "", &ConfigError{Reason: "set LINKEDIN_ORGANIZATION_URN or LINKEDIN_AUTHOR_URN"}
}

// Publish posts text as a UGC share.
func (l *LinkedInPublisher) Publish(ctx context.Context, text string) (*PostResult, error) {
	author, err := l.resolveAuthor()
	if err != nil {
		return nil, err
	}

	accessToken, err := l.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		status, body, err := l.postShare(ctx, author, text, accessToken)
		if err != nil {
			return nil, err
		}

		switch {
		case status == http.StatusOK || status == http.StatusCreated:
			return &PostResult{Message: "Post successful."}, nil

		case status == http.StatusUnauthorized && attempt == 0:
			slog.Info("linkedin token rejected, refreshing")
			accessToken, err = l.refresh(ctx)
			if err != nil {
				return nil, &AuthError{Platform: "linkedin", Err: err}
			}

		case status == http.StatusUnauthorized:
			return nil, &AuthError{Platform: "linkedin", Err: fmt.Errorf("token rejected after refresh: %s", body)}

		default:
			return nil, &ProviderError{Platform: "linkedin", Status: status, Body: body}
		}
	}

	return nil, &AuthError{Platform: "linkedin", Err: fmt.Errorf("publish retries exhausted")}
}

// Authorize runs the interactive consent flow unconditionally, replacing
// any stored token.
func (l *LinkedInPublisher) Authorize(ctx context.Context) error {
	_, err := l.authorize(ctx)
	return err
}

// ensureToken returns a usable access token: refreshed optimistically
// when a refresh value exists, obtained via the consent flow otherwise.
func (l *LinkedInPublisher) ensureToken(ctx context.Context) (string, error) {
	accessToken := l.creds.Get("LINKEDIN_ACCESS_TOKEN")
	refreshToken := l.creds.Get("LINKEDIN_REFRESH_TOKEN")

	if refreshToken != "" {
		refreshed, err := l.refresh(ctx)
		if err == nil {
			return refreshed, nil
		}
		slog.Warn("linkedin token refresh failed, re-authorizing", "error", err)
		accessToken = ""
	}

	if accessToken != "" {
		return accessToken, nil
	}

	return l.authorize(ctx)
}

// refresh exchanges the stored refresh token for a new token pair and
// persists it before returning.
func (l *LinkedInPublisher) refresh(ctx context.Context) (string, error) {
	refreshToken := l.creds.Get("LINKEDIN_REFRESH_TOKEN")
	if refreshToken == "" {
		return "", fmt.Errorf("no refresh token available")
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, l.httpClient)
	tok, err := l.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return "", fmt.Errorf("refresh token exchange: %w", err)
	}

	if err := l.saveToken(tok); err != nil {
		return "", err
	}
	return tok.AccessToken, nil
}

// authorize runs the interactive consent flow and persists the
// resulting token.
func (l *LinkedInPublisher) authorize(ctx context.Context) (string, error) {
	state := randomState()
	if err := l.authorizer.Open(l.oauth.AuthCodeURL(state)); err != nil {
		return "", &AuthError{Platform: "linkedin", Err: err}
	}

	callback, err := l.authorizer.CaptureCallback()
	if err != nil {
		return "", &AuthError{Platform: "linkedin", Err: err}
	}
	code, err := codeFromCallback(callback)
	if err != nil {
		return "", &AuthError{Platform: "linkedin", Err: err}
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, l.httpClient)
	tok, err := l.oauth.Exchange(ctx, code)
	if err != nil {
		return "", &AuthError{Platform: "linkedin", Err: fmt.Errorf("code exchange: %w", err)}
	}

	if err := l.saveToken(tok); err != nil {
		return "", err
	}
	slog.Info("authorized with linkedin")
	return tok.AccessToken, nil
}

func (l *LinkedInPublisher) saveToken(tok *oauth2.Token) error {
	if err := l.creds.Set("LINKEDIN_ACCESS_TOKEN", tok.AccessToken); err != nil {
		return fmt.Errorf("persist access token: %w", err)
	}
	if tok.RefreshToken != "" {
		if err := l.creds.Set("LINKEDIN_REFRESH_TOKEN", tok.RefreshToken); err != nil {
			return fmt.Errorf("persist refresh token: %w", err)
		}
	}
	return nil
}

// ugcPostRequest is the request body for creating a UGC share.
type ugcPostRequest struct {
	Author          string         `json:"author"`
	LifecycleState  string         `json:"lifecycleState"`
	SpecificContent map[string]any `json:"specificContent"`
	Visibility      map[string]any `json:"visibility"`
}

func (l *LinkedInPublisher) postShare(ctx context.Context, author, text, accessToken string) (int, string, error) {
	payload := ugcPostRequest{
		Author:         author,
		LifecycleState: "PUBLISHED",
		SpecificContent: map[string]any{
			"com.linkedin.ugc.ShareContent": map[string]any{
				"shareCommentary": map[string]any{
					"text":       text,
					"attributes": []any{},
				},
				"shareMediaCategory": "NONE",
			},
		},
		Visibility: map[string]any{
			"com.linkedin.ugc.MemberNetworkVisibility": "PUBLIC",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return 0, "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", l.apiURL+"/v2/ugcPosts", bytes.NewReader(body))
	if err != nil {
		return 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("X-Restli-Protocol-Version", "2.0.0")
	req.Header.Set("LinkedIn-Version", "202402")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return 0, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, "", fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, string(respBody), nil
}

func randomState() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}
