package trends

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBearer is a scriptable BearerSource.
type fakeBearer struct {
	token string
	err   error
}

func (f *fakeBearer) AccessToken(ctx context.Context) (string, error) {
	return f.token, f.err
}

func testKeys() OAuth1Keys {
	return OAuth1Keys{
		ConsumerKey:    "ck",
		ConsumerSecret: "cs",
		AccessToken:    "at",
		AccessSecret:   "as",
	}
}

func TestXSource_Name(t *testing.T) {
	assert.Equal(t, "x", NewXSource(XSourceConfig{}).Name())
}

func TestOAuth1Keys_complete(t *testing.T) {
	assert.True(t, testKeys().complete())

	partial := testKeys()
	partial.AccessSecret = ""
	assert.False(t, partial.complete())
	assert.False(t, OAuth1Keys{}.complete())
}

func TestXSource_Fetch(t *testing.T) {
	t.Run("v2 trends preferred when bearer available", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/2/users/personalized_trends", r.URL.Path)
			assert.Equal(t, "Bearer v2-token", r.Header.Get("Authorization"))
			fmt.Fprint(w, `{"data":[{"trend_name":"ignored","name":"Bitcoin ETF"},{"topic":"Ethereum Upgrade"}]}`)
		}))
		defer server.Close()

		source := NewXSource(XSourceConfig{
			Bearer: &fakeBearer{token: "v2-token"},
			APIURL: server.URL,
		})

		items, err := source.Fetch(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, items, 2)
		assert.Equal(t, "Bitcoin ETF", items[0].Name)
		assert.Equal(t, "Ethereum Upgrade", items[1].Name)
	})

	t.Run("falls back to legacy endpoint when v2 fails", func(t *testing.T) {
		var v2Calls atomic.Int32
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/2/users/personalized_trends":
				v2Calls.Add(1)
				w.WriteHeader(http.StatusForbidden)
				fmt.Fprint(w, `{"detail":"not in your plan"}`)
			case "/1.1/trends/place.json":
				assert.Equal(t, "23424977", r.URL.Query().Get("id"))
				assert.Contains(t, r.Header.Get("Authorization"), "OAuth")
				fmt.Fprint(w, `[{"trends":[{"name":"#Bitcoin","url":"http://twitter.com/search?q=%23Bitcoin","tweet_volume":120000}]}]`)
			default:
				t.Errorf("unexpected request: %s", r.URL.Path)
			}
		}))
		defer server.Close()

		source := NewXSource(XSourceConfig{
			Bearer: &fakeBearer{token: "v2-token"},
			Keys:   testKeys(),
			APIURL: server.URL,
		})

		items, err := source.Fetch(context.Background(), 23424977)
		require.NoError(t, err)
		assert.Equal(t, int32(1), v2Calls.Load())
		require.Len(t, items, 1)
		assert.Equal(t, "#Bitcoin", items[0].Name)
		assert.Equal(t, 120000, items[0].Volume)
		assert.NotEmpty(t, items[0].URL)
	})

	t.Run("bearer failure still reaches the fallback", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, "/1.1/trends/place.json", r.URL.Path)
			fmt.Fprint(w, `[{"trends":[{"name":"#ETH"}]}]`)
		}))
		defer server.Close()

		source := NewXSource(XSourceConfig{
			Bearer: &fakeBearer{err: errors.New("no stored token")},
			Keys:   testKeys(),
			APIURL: server.URL,
		})

		items, err := source.Fetch(context.Background(), 1)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "#ETH", items[0].Name)
	})

	t.Run("fallback without oauth1 keys is an error", func(t *testing.T) {
		source := NewXSource(XSourceConfig{APIURL: "http://127.0.0.1:0"})
		_, err := source.Fetch(context.Background(), 1)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OAuth1")
	})

	t.Run("legacy result capped at ten items", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `[{"trends":[`)
			for i := 0; i < 15; i++ {
				if i > 0 {
					fmt.Fprint(w, ",")
				}
				fmt.Fprintf(w, `{"name":"trend-%d"}`, i)
			}
			fmt.Fprint(w, `]}]`)
		}))
		defer server.Close()

		source := NewXSource(XSourceConfig{Keys: testKeys(), APIURL: server.URL})
		items, err := source.Fetch(context.Background(), 1)
		require.NoError(t, err)
		assert.Len(t, items, 10)
	})
}

func TestParseV2Trends(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected []string
	}{
		{
			name:     "top-level array of objects",
			body:     `[{"name":"A"},{"name":"B"}]`,
			expected: []string{"A", "B"},
		},
		{
			name:     "data wrapper",
			body:     `{"data":[{"name":"A"}]}`,
			expected: []string{"A"},
		},
		{
			name:     "trends wrapper",
			body:     `{"trends":[{"display_name":"A"}]}`,
			expected: []string{"A"},
		},
		{
			name:     "string entries",
			body:     `["A","B"]`,
			expected: []string{"A", "B"},
		},
		{
			name:     "query key fallback",
			body:     `{"data":[{"query":"%23Bitcoin"}]}`,
			expected: []string{"%23Bitcoin"},
		},
		{
			name:     "nameless entries dropped",
			body:     `{"data":[{"volume":12},{"name":"A"}]}`,
			expected: []string{"A"},
		},
		{
			name:     "not json",
			body:     `<html>`,
			expected: nil,
		},
		{
			name:     "unexpected shape",
			body:     `{"meta":{"count":0}}`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items := parseV2Trends([]byte(tt.body))
			names := make([]string, 0, len(items))
			for _, item := range items {
				names = append(names, item.Name)
			}
			if tt.expected == nil {
				assert.Empty(t, names)
				return
			}
			assert.Equal(t, tt.expected, names)
		})
	}
}
