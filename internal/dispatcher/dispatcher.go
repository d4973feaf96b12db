// Package dispatcher routes one message to N platform adapters with
// independent failure handling.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arbitengine/shellcaster/internal/credstore"
	"github.com/arbitengine/shellcaster/internal/platform"
)

// Status classifies a per-platform outcome.
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusFailed  Status = "failed"
)

// Result is the per-platform outcome of one run.
type Result struct {
	Platform string
	Status   Status
	Message  string
}

// DefaultPlatforms is the dispatch order when no platform list is given.
var DefaultPlatforms = []string{"facebook", "linkedin", "x", "blogger"}

// requiredCredentials lists, per platform, the credential names that
// must be present and non-placeholder before the adapter is invoked.
var requiredCredentials = map[string][]string{
	"facebook": {"FACEBOOK_PAGE_ID", "FACEBOOK_ACCESS_TOKEN"},
	"linkedin": {"LINKEDIN_ACCESS_TOKEN", "LINKEDIN_AUTHOR_URN"},
	"x":        {"X_CONSUMER_KEY", "X_CONSUMER_SECRET", "X_ACCESS_TOKEN", "X_ACCESS_TOKEN_SECRET"},
	"blogger":  {"BLOGGER_ACCESS_TOKEN", "BLOGGER_BLOG_ID"},
}

// Credentials is the read side of the credential store.
type Credentials interface {
	Get(name string) string
}

// Dispatcher fans a message out to platform adapters sequentially. One
// platform's failure never prevents the rest from being attempted.
type Dispatcher struct {
	publishers map[string]platform.Publisher
	creds      Credentials
}

// Config holds dispatcher configuration.
type Config struct {
	Publishers []platform.Publisher
	Creds      Credentials
}

// New creates a dispatcher over the given adapters.
func New(cfg Config) *Dispatcher {
	publishers := make(map[string]platform.Publisher, len(cfg.Publishers))
	for _, p := range cfg.Publishers {
		publishers[p.Platform()] = p
	}
	return &Dispatcher{
		publishers: publishers,
		creds:      cfg.Creds,
	}
}

// Run publishes text to each requested platform in list order and
// returns one Result per platform. A nil or empty list means all known
// platforms.
func (d *Dispatcher) Run(ctx context.Context, text string, platforms []string) []Result {
	if len(platforms) == 0 {
		platforms = DefaultPlatforms
	}

	results := make([]Result, 0, len(platforms))
	for _, name := range platforms {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		results = append(results, d.dispatch(ctx, name, text))
	}
	return results
}

func (d *Dispatcher) dispatch(ctx context.Context, name, text string) Result {
	pub, ok := d.publishers[name]
	if !ok {
		return Result{Platform: name, Status: StatusSkipped, Message: "unsupported platform"}
	}

	if missing := d.missingCredentials(name); missing != "" {
		slog.Warn("skipping platform, credentials not set", "platform", name, "credential", missing)
		return Result{Platform: name, Status: StatusSkipped, Message: "credentials not set"}
	}

	result, err := d.publishSafe(ctx, pub, text)
	if err != nil {
		var cfgErr *platform.ConfigError
		if errors.As(err, &cfgErr) {
			slog.Warn("skipping platform", "platform", name, "reason", cfgErr.Reason)
			return Result{Platform: name, Status: StatusSkipped, Message: cfgErr.Reason}
		}
		slog.Error("publish failed", "platform", name, "error", err)
		return Result{Platform: name, Status: StatusFailed, Message: err.Error()}
	}

	return Result{Platform: name, Status: StatusSuccess, Message: result.Message}
}

// publishSafe guards an adapter call so a programming defect in one
// adapter cannot abort the run.
func (d *Dispatcher) publishSafe(ctx context.Context, pub platform.Publisher, text string) (result *platform.PostResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("adapter panic: %v", r)
		}
	}()
	return pub.Publish(ctx, text)
}

// missingCredentials returns the first required credential for the
// platform that is absent or a placeholder, or "" when all are usable.
func (d *Dispatcher) missingCredentials(name string) string {
	for _, key := range requiredCredentials[name] {
		val := d.creds.Get(key)
		if val == "" || credstore.Placeholder(val) {
			return key
		}
	}
	return ""
}
