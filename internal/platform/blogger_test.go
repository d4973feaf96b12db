package platform

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitengine/shellcaster/internal/credstore"
)

func writeBloggerToken(t *testing.T, tok *credstore.Token) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "blogger_token.json")
	require.NoError(t, credstore.SaveToken(path, tok))
	return path
}

func TestBloggerPublisher_Platform(t *testing.T) {
	pub := NewBloggerPublisher(BloggerConfig{})
	assert.Equal(t, "blogger", pub.Platform())
}

func TestSplitTitle(t *testing.T) {
	tests := []struct {
		name          string
		text          string
		expectedTitle string
		expectedBody  string
	}{
		{"h1 heading", "# My Post\n\nBody text.", "My Post", "\nBody text."},
		{"plain first line", "My Post\nBody text.", "My Post", "Body text."},
		{"empty first line falls back", "\nBody text.", "Post", "\nBody text."},
		{"only heading markers falls back", "##\nBody.", "Post", "Body."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			title, body := splitTitle(tt.text)
			assert.Equal(t, tt.expectedTitle, title)
			assert.Equal(t, tt.expectedBody, body)
		})
	}
}

func TestRenderHTML(t *testing.T) {
	t.Run("markdown becomes html", func(t *testing.T) {
		out := renderHTML("Some **bold** text.")
		assert.Contains(t, out, "<strong>bold</strong>")
	})

	t.Run("empty body renders empty", func(t *testing.T) {
		assert.Equal(t, "", renderHTML("  \n "))
	})
}

func TestBloggerPublisher_Publish(t *testing.T) {
	t.Run("missing blog id is a config error", func(t *testing.T) {
		pub := NewBloggerPublisher(BloggerConfig{})
		_, err := pub.Publish(context.Background(), "# Post\n\nBody.")

		var cfgErr *ConfigError
		require.ErrorAs(t, err, &cfgErr)
		assert.Contains(t, cfgErr.Reason, "BLOGGER_BLOG_ID")
	})

	t.Run("successful post", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/blogger/v3/blogs/777/posts/", r.URL.Path)
			assert.Equal(t, "Bearer blog-token", r.Header.Get("Authorization"))

			var payload bloggerPostRequest
			json.NewDecoder(r.Body).Decode(&payload)
			assert.Equal(t, "blogger#post", payload.Kind)
			assert.Equal(t, "777", payload.Blog.ID)
			assert.Equal(t, "Market Update", payload.Title)
			assert.Contains(t, payload.Content, "<style>")
			assert.Contains(t, payload.Content, "<strong>volatile</strong>")

			json.NewEncoder(w).Encode(bloggerPostResponse{
				ID:  "9001",
				URL: "https://example.blogspot.com/2026/08/market-update.html",
			})
		}))
		defer server.Close()

		pub := NewBloggerPublisher(BloggerConfig{
			BlogID: "777",
			APIURL: server.URL,
			TokenPath: writeBloggerToken(t, &credstore.Token{
				AccessToken: "blog-token",
				ExpiresAt:   time.Now().Add(time.Hour).Unix(),
			}),
		})

		result, err := pub.Publish(context.Background(), "# Market Update\n\nA **volatile** week.")
		require.NoError(t, err)
		assert.Equal(t, "9001", result.PostID)
		assert.Equal(t, "https://example.blogspot.com/2026/08/market-update.html", result.PostURL)
	})

	t.Run("stale token refreshes silently before posting", func(t *testing.T) {
		tokenPath := writeBloggerToken(t, &credstore.Token{
			AccessToken:  "stale-token",
			RefreshToken: "blog-refresh",
			ExpiresAt:    time.Now().Add(10 * time.Second).Unix(), // under the 1m leeway
		})

		var mux http.ServeMux
		server := httptest.NewServer(&mux)
		defer server.Close()

		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
			assert.Equal(t, "blog-refresh", r.PostForm.Get("refresh_token"))

			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "fresh-blog-token",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		})
		mux.HandleFunc("/blogger/v3/blogs/777/posts/", func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "Bearer fresh-blog-token", r.Header.Get("Authorization"))
			json.NewEncoder(w).Encode(bloggerPostResponse{ID: "9002", URL: "https://example.blogspot.com/p"})
		})

		pub := NewBloggerPublisher(BloggerConfig{
			ClientID:     "client",
			ClientSecret: "secret",
			BlogID:       "777",
			APIURL:       server.URL,
			TokenURL:     server.URL + "/token",
			TokenPath:    tokenPath,
		})

		result, err := pub.Publish(context.Background(), "# Post\n\nBody.")
		require.NoError(t, err)
		assert.Equal(t, "9002", result.PostID)

		// The refresh token survived even though the response omitted it.
		saved, err := credstore.LoadToken(tokenPath)
		require.NoError(t, err)
		assert.Equal(t, "fresh-blog-token", saved.AccessToken)
		assert.Equal(t, "blog-refresh", saved.RefreshToken)
	})

	t.Run("rejected token retries once then fails", func(t *testing.T) {
		var postCalls atomic.Int32
		var mux http.ServeMux
		server := httptest.NewServer(&mux)
		defer server.Close()

		mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]any{
				"access_token": "still-rejected",
				"token_type":   "Bearer",
				"expires_in":   3600,
			})
		})
		mux.HandleFunc("/blogger/v3/blogs/777/posts/", func(w http.ResponseWriter, r *http.Request) {
			postCalls.Add(1)
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":{"message":"Invalid Credentials"}}`))
		})

		pub := NewBloggerPublisher(BloggerConfig{
			ClientID:     "client",
			ClientSecret: "secret",
			BlogID:       "777",
			APIURL:       server.URL,
			TokenURL:     server.URL + "/token",
			TokenPath: writeBloggerToken(t, &credstore.Token{
				AccessToken:  "blog-token",
				RefreshToken: "blog-refresh",
				ExpiresAt:    time.Now().Add(time.Hour).Unix(),
			}),
		})

		_, err := pub.Publish(context.Background(), "# Post\n\nBody.")
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Equal(t, int32(2), postCalls.Load())
	})

	t.Run("server error is a provider error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("backend unavailable"))
		}))
		defer server.Close()

		pub := NewBloggerPublisher(BloggerConfig{
			BlogID: "777",
			APIURL: server.URL,
			TokenPath: writeBloggerToken(t, &credstore.Token{
				AccessToken: "blog-token",
				ExpiresAt:   time.Now().Add(time.Hour).Unix(),
			}),
		})

		_, err := pub.Publish(context.Background(), "# Post\n\nBody.")
		var provErr *ProviderError
		require.ErrorAs(t, err, &provErr)
		assert.Equal(t, http.StatusInternalServerError, provErr.Status)
	})
}
