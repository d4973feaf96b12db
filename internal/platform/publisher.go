package platform

import (
	"context"
)

// PostResult describes a successful publish.
type PostResult struct {
	PostID  string
	PostURL string
	Message string
}

// Publisher is the interface every platform adapter implements. Publish
// runs the adapter's full authentication lifecycle internally: it loads
// or refreshes credentials as needed before the provider call, and on an
// auth rejection it refreshes and retries exactly once.
type Publisher interface {
	// Platform returns the name of the platform.
	Platform() string

	// Publish posts text to the platform.
	Publish(ctx context.Context, text string) (*PostResult, error)
}

// maxPublishAttempts bounds the refresh-and-retry cycle: one initial
// attempt plus one retry after a token refresh.
const maxPublishAttempts = 2
