package platform

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/oauth2"

	"github.com/arbitengine/shellcaster/internal/credstore"
)

const (
	bloggerAPIURL = "https://www.googleapis.com"

	googleAuthURL  = "https://accounts.google.com/o/oauth2/auth"
	googleTokenURL = "https://oauth2.googleapis.com/token"
	bloggerScope   = "https://www.googleapis.com/auth/blogger"

	bloggerExpiryLeeway = time.Minute
)

// bloggerStyle is prepended to rendered posts so code blocks, quotes and
// tables look right on the blog theme.
const bloggerStyle = "<style>" +
	"pre { background-color: #f5f5f5; padding: 1em; border-radius: 4px; overflow-x: auto; }" +
	"code { font-family: monospace; }" +
	"pre code { font-family: ui-monospace, SFMono-Regular, SF Mono, Menlo, Consolas, monospace; }" +
	"blockquote { border-left: 4px solid #ccc; margin: 1.5em 10px; padding: 0.5em 10px; color: #666; }" +
	"blockquote > :first-child { margin-top: 0; }" +
	"blockquote > :last-child { margin-bottom: 0; }" +
	"table { border-collapse: collapse; width: 100%; margin: 1em 0; }" +
	"th, td { border: 1px solid #ddd; padding: 8px; text-align: left; }" +
	"th { background-color: #f2f2f2; }" +
	"tr:nth-child(even) { background-color: #f9f9f9; }" +
	"</style>\n"

// BloggerPublisher posts to a Blogger blog via API v3. Interactive
// consent runs only when no usable token file exists; otherwise the
// refresh token heals expiry silently.
type BloggerPublisher struct {
	httpClient *http.Client
	apiURL     string
	oauth      *oauth2.Config
	blogID     string
	tokenPath  string
	authorizer Authorizer
}

// BloggerConfig holds configuration for the Blogger publisher.
type BloggerConfig struct {
	ClientID     string
	ClientSecret string
	BlogID       string
	TokenPath    string
	Authorizer   Authorizer

	// APIURL and TokenURL override provider endpoints (tests).
	APIURL   string
	TokenURL string
}

// NewBloggerPublisher creates a new Blogger publisher.
func NewBloggerPublisher(cfg BloggerConfig) *BloggerPublisher {
	apiURL := cfg.APIURL
	if apiURL == "" {
		apiURL = bloggerAPIURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = googleTokenURL
	}
	tokenPath := cfg.TokenPath
	if tokenPath == "" {
		tokenPath = ".blogger_token.json"
	}
	authorizer := cfg.Authorizer
	if authorizer == nil {
		authorizer = NewTerminalAuthorizer()
	}
	return &BloggerPublisher{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		apiURL:     apiURL,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  "http://localhost",
			Scopes:       []string{bloggerScope},
			Endpoint: oauth2.Endpoint{
				AuthURL:  googleAuthURL,
				TokenURL: tokenURL,
			},
		},
		blogID:     cfg.BlogID,
		tokenPath:  tokenPath,
		authorizer: authorizer,
	}
}

// Platform returns the platform name.
func (b *BloggerPublisher) Platform() string {
	return "blogger"
}

// Publish creates a blog post: the first line becomes the title, the
// remainder is rendered from markdown to HTML.
func (b *BloggerPublisher) Publish(ctx context.Context, text string) (*PostResult, error) {
	if b.blogID == "" {
		return nil, &ConfigError{Reason: "BLOGGER_BLOG_ID is not set"}
	}

	tok, err := b.ensureToken(ctx)
	if err != nil {
		return nil, err
	}

	title, bodyMD := splitTitle(text)
	content := bloggerStyle + renderHTML(bodyMD)

	for attempt := 0; attempt < maxPublishAttempts; attempt++ {
		result, status, respBody, err := b.createPost(ctx, title, content, tok.AccessToken)
		if err != nil {
			return nil, err
		}
		if result != nil {
			return result, nil
		}

		if status == http.StatusUnauthorized && attempt == 0 && tok.CanRefresh() {
			slog.Info("blogger token rejected, refreshing")
			tok, err = b.refreshToken(ctx, tok)
			if err != nil {
				return nil, &AuthError{Platform: "blogger", Err: err}
			}
			continue
		}
		if status == http.StatusUnauthorized {
			return nil, &AuthError{Platform: "blogger", Err: fmt.Errorf("token rejected: %s", respBody)}
		}
		return nil, &ProviderError{Platform: "blogger", Status: status, Body: respBody}
	}

	return nil, &AuthError{Platform: "blogger", Err: fmt.Errorf("publish retries exhausted")}
}

// Authorize runs the interactive consent flow unconditionally, replacing
// any stored token.
func (b *BloggerPublisher) Authorize(ctx context.Context) error {
	_, err := b.authorize(ctx)
	return err
}

// ensureToken loads the token file, refreshing silently when the stored
// token is stale and a refresh value exists. The consent flow runs only
// when nothing stored can be made usable.
func (b *BloggerPublisher) ensureToken(ctx context.Context) (*credstore.Token, error) {
	tok, err := credstore.LoadToken(b.tokenPath)
	if err != nil {
		slog.Warn("stored blogger token unreadable, re-authorizing", "error", err)
		tok = nil
	}

	if tok.Valid(bloggerExpiryLeeway) {
		return tok, nil
	}

	if tok.CanRefresh() {
		refreshed, err := b.refreshToken(ctx, tok)
		if err == nil {
			return refreshed, nil
		}
		slog.Warn("blogger token refresh failed, re-authorizing", "error", err)
	}

	return b.authorize(ctx)
}

// refreshToken runs a refresh-token exchange and persists the superseding
// token before returning it.
func (b *BloggerPublisher) refreshToken(ctx context.Context, old *credstore.Token) (*credstore.Token, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	oauthTok, err := b.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: old.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("refresh token exchange: %w", err)
	}

	tok := &credstore.Token{
		AccessToken:  oauthTok.AccessToken,
		TokenType:    oauthTok.TokenType,
		RefreshToken: oauthTok.RefreshToken,
		Scope:        []string{bloggerScope},
	}
	if tok.RefreshToken == "" {
		tok.RefreshToken = old.RefreshToken
	}
	if !oauthTok.Expiry.IsZero() {
		tok.ExpiresAt = oauthTok.Expiry.Unix()
	}

	if err := credstore.SaveToken(b.tokenPath, tok); err != nil {
		return nil, err
	}
	return tok, nil
}

// authorize runs the interactive consent flow. Offline access with
// forced approval ensures the response carries a refresh token.
func (b *BloggerPublisher) authorize(ctx context.Context) (*credstore.Token, error) {
	if b.oauth.ClientID == "" || b.oauth.ClientSecret == "" {
		return nil, &ConfigError{Reason: "GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET must be set"}
	}

	authURL := b.oauth.AuthCodeURL(randomState(), oauth2.AccessTypeOffline, oauth2.ApprovalForce)
	if err := b.authorizer.Open(authURL); err != nil {
		return nil, &AuthError{Platform: "blogger", Err: err}
	}
	callback, err := b.authorizer.CaptureCallback()
	if err != nil {
		return nil, &AuthError{Platform: "blogger", Err: err}
	}
	code, err := codeFromCallback(callback)
	if err != nil {
		return nil, &AuthError{Platform: "blogger", Err: err}
	}

	exchangeCtx := context.WithValue(ctx, oauth2.HTTPClient, b.httpClient)
	oauthTok, err := b.oauth.Exchange(exchangeCtx, code)
	if err != nil {
		return nil, &AuthError{Platform: "blogger", Err: fmt.Errorf("code exchange: %w", err)}
	}

	tok := &credstore.Token{
		AccessToken:  oauthTok.AccessToken,
		TokenType:    oauthTok.TokenType,
		RefreshToken: oauthTok.RefreshToken,
		Scope:        []string{bloggerScope},
	}
	if !oauthTok.Expiry.IsZero() {
		tok.ExpiresAt = oauthTok.Expiry.Unix()
	}

	if err := credstore.SaveToken(b.tokenPath, tok); err != nil {
		return nil, err
	}
	slog.Info("authorized with blogger")
	return tok, nil
}

// bloggerPostRequest is the request body for creating a post.
type bloggerPostRequest struct {
	Kind    string  `json:"kind"`
	Blog    blogRef `json:"blog"`
	Title   string  `json:"title"`
	Content string  `json:"content"`
}

type blogRef struct {
	ID string `json:"id"`
}

// bloggerPostResponse is the response from creating a post.
type bloggerPostResponse struct {
	ID       string `json:"id"`
	URL      string `json:"url"`
	SelfLink string `json:"selfLink"`
}

// createPost performs one create attempt. Returns (result, 0, "", nil)
// on success and (nil, status, body, nil) on a provider rejection.
func (b *BloggerPublisher) createPost(ctx context.Context, title, content, accessToken string) (*PostResult, int, string, error) {
	payload := bloggerPostRequest{
		Kind:    "blogger#post",
		Blog:    blogRef{ID: b.blogID},
		Title:   title,
		Content: content,
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, 0, "", fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/blogger/v3/blogs/%s/posts/", b.apiURL, b.blogID)
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, 0, "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, 0, "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, resp.StatusCode, string(respBody), nil
	}

	var created bloggerPostResponse
	if err := json.Unmarshal(respBody, &created); err != nil {
		return nil, 0, "", fmt.Errorf("parse response: %w", err)
	}

	postURL := created.URL
	if postURL == "" {
		postURL = created.SelfLink
	}
	if postURL == "" {
		slog.Warn("blogger response missing post URL")
	}

	slog.Info("posted to blogger", "id", created.ID, "url", postURL)
	return &PostResult{
		PostID:  created.ID,
		PostURL: postURL,
		Message: "Post successful.",
	}, 0, "", nil
}

// splitTitle treats the first line as the post title (leading heading
// markers stripped) and the remainder as the body.
func splitTitle(text string) (string, string) {
	lines := strings.Split(text, "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return "Post", text
	}
	title := strings.TrimSpace(strings.TrimLeft(lines[0], "# "))
	if title == "" {
		title = "Post"
	}
	return title, strings.Join(lines[1:], "\n")
}

var markdownRenderer = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithRendererOptions(html.WithHardWraps(), html.WithUnsafe()),
)

// renderHTML converts markdown body text to HTML.
func renderHTML(markdown string) string {
	if strings.TrimSpace(markdown) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := markdownRenderer.Convert([]byte(markdown), &buf); err != nil {
		slog.Warn("markdown rendering failed, posting raw text", "error", err)
		return markdown
	}
	return buf.String()
}
