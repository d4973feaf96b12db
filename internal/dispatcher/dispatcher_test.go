package dispatcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arbitengine/shellcaster/internal/platform"
)

// fakePublisher is a scriptable platform adapter.
type fakePublisher struct {
	name   string
	result *platform.PostResult
	err    error
	panics bool
	calls  int
}

func (f *fakePublisher) Platform() string { return f.name }

func (f *fakePublisher) Publish(ctx context.Context, text string) (*platform.PostResult, error) {
	f.calls++
	if f.panics {
		panic("nil map write")
	}
	return f.result, f.err
}

// mapCreds satisfies Credentials from a plain map.
type mapCreds map[string]string

func (m mapCreds) Get(name string) string { return m[name] }

func fullCreds() mapCreds {
	return mapCreds{
		"FACEBOOK_PAGE_ID":      "123",
		"FACEBOOK_ACCESS_TOKEN": "fb-token",
		"LINKEDIN_ACCESS_TOKEN": "li-token",
		"LINKEDIN_AUTHOR_URN":   "urn:li:person:abc",
		"X_CONSUMER_KEY":        "ck",
		"X_CONSUMER_SECRET":     "cs",
		"X_ACCESS_TOKEN":        "at",
		"X_ACCESS_TOKEN_SECRET": "as",
		"BLOGGER_ACCESS_TOKEN":  "bg-token",
		"BLOGGER_BLOG_ID":       "777",
	}
}

func TestDispatcher_Run(t *testing.T) {
	t.Run("publishes to requested platforms in order", func(t *testing.T) {
		x := &fakePublisher{name: "x", result: &platform.PostResult{Message: "Post successful."}}
		fb := &fakePublisher{name: "facebook", result: &platform.PostResult{Message: "Post successful."}}
		li := &fakePublisher{name: "linkedin", result: &platform.PostResult{Message: "Post successful."}}

		d := New(Config{Publishers: []platform.Publisher{x, fb, li}, Creds: fullCreds()})
		results := d.Run(context.Background(), "hello", []string{"x", "facebook"})

		require.Len(t, results, 2)
		assert.Equal(t, "x", results[0].Platform)
		assert.Equal(t, StatusSuccess, results[0].Status)
		assert.Equal(t, "facebook", results[1].Platform)
		assert.Equal(t, StatusSuccess, results[1].Status)
		assert.Equal(t, 0, li.calls, "unrequested platform must not be invoked")
	})

	t.Run("empty list means all default platforms", func(t *testing.T) {
		pubs := []platform.Publisher{
			&fakePublisher{name: "facebook", result: &platform.PostResult{Message: "ok"}},
			&fakePublisher{name: "linkedin", result: &platform.PostResult{Message: "ok"}},
			&fakePublisher{name: "x", result: &platform.PostResult{Message: "ok"}},
			&fakePublisher{name: "blogger", result: &platform.PostResult{Message: "ok"}},
		}
		d := New(Config{Publishers: pubs, Creds: fullCreds()})

		results := d.Run(context.Background(), "hello", nil)
		require.Len(t, results, len(DefaultPlatforms))
		for i, name := range DefaultPlatforms {
			assert.Equal(t, name, results[i].Platform)
		}
	})

	t.Run("platform names are normalized", func(t *testing.T) {
		x := &fakePublisher{name: "x", result: &platform.PostResult{Message: "ok"}}
		d := New(Config{Publishers: []platform.Publisher{x}, Creds: fullCreds()})

		results := d.Run(context.Background(), "hello", []string{" X ", ""})
		require.Len(t, results, 1)
		assert.Equal(t, "x", results[0].Platform)
		assert.Equal(t, StatusSuccess, results[0].Status)
	})

	t.Run("unknown platform is skipped", func(t *testing.T) {
		d := New(Config{Creds: fullCreds()})
		results := d.Run(context.Background(), "hello", []string{"myspace"})

		require.Len(t, results, 1)
		assert.Equal(t, StatusSkipped, results[0].Status)
		assert.Equal(t, "unsupported platform", results[0].Message)
	})

	t.Run("missing credentials skip without invoking the adapter", func(t *testing.T) {
		fb := &fakePublisher{name: "facebook"}
		creds := fullCreds()
		delete(creds, "FACEBOOK_ACCESS_TOKEN")

		d := New(Config{Publishers: []platform.Publisher{fb}, Creds: creds})
		results := d.Run(context.Background(), "hello", []string{"facebook"})

		require.Len(t, results, 1)
		assert.Equal(t, StatusSkipped, results[0].Status)
		assert.Equal(t, "credentials not set", results[0].Message)
		assert.Equal(t, 0, fb.calls)
	})

	t.Run("placeholder credentials skip without invoking the adapter", func(t *testing.T) {
		fb := &fakePublisher{name: "facebook"}
		creds := fullCreds()
		creds["FACEBOOK_ACCESS_TOKEN"] = "your_facebook_token_here"

		d := New(Config{Publishers: []platform.Publisher{fb}, Creds: creds})
		results := d.Run(context.Background(), "hello", []string{"facebook"})

		require.Len(t, results, 1)
		assert.Equal(t, StatusSkipped, results[0].Status)
		assert.Equal(t, 0, fb.calls)
	})

	t.Run("config error from adapter is a skip", func(t *testing.T) {
		fb := &fakePublisher{name: "facebook", err: &platform.ConfigError{Reason: "FACEBOOK_PAGE_ID is not set"}}
		d := New(Config{Publishers: []platform.Publisher{fb}, Creds: fullCreds()})

		results := d.Run(context.Background(), "hello", []string{"facebook"})
		require.Len(t, results, 1)
		assert.Equal(t, StatusSkipped, results[0].Status)
		assert.Equal(t, "FACEBOOK_PAGE_ID is not set", results[0].Message)
	})

	t.Run("one failure does not stop the rest", func(t *testing.T) {
		x := &fakePublisher{name: "x", err: errors.New("boom")}
		fb := &fakePublisher{name: "facebook", result: &platform.PostResult{Message: "Post successful."}}

		d := New(Config{Publishers: []platform.Publisher{x, fb}, Creds: fullCreds()})
		results := d.Run(context.Background(), "hello", []string{"x", "facebook"})

		require.Len(t, results, 2)
		assert.Equal(t, StatusFailed, results[0].Status)
		assert.Contains(t, results[0].Message, "boom")
		assert.Equal(t, StatusSuccess, results[1].Status)
		assert.Equal(t, 1, fb.calls)
	})

	t.Run("adapter panic becomes a failure, not a crash", func(t *testing.T) {
		x := &fakePublisher{name: "x", panics: true}
		fb := &fakePublisher{name: "facebook", result: &platform.PostResult{Message: "Post successful."}}

		d := New(Config{Publishers: []platform.Publisher{x, fb}, Creds: fullCreds()})
		results := d.Run(context.Background(), "hello", []string{"x", "facebook"})

		require.Len(t, results, 2)
		assert.Equal(t, StatusFailed, results[0].Status)
		assert.Contains(t, results[0].Message, "panic")
		assert.Equal(t, StatusSuccess, results[1].Status)
	})
}
