package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds all application configuration. Static identifiers and
// client secrets live here; mutable access tokens go through the
// credential store so refreshes can persist them.
type Config struct {
	// Secrets file backing the credential store
	EnvPath string

	// Gemini API
	GeminiAPIKey string
	GeminiModel  string

	// Blogger
	GoogleClientID     string
	GoogleClientSecret string
	BloggerBlogID      string
	BloggerTokenPath   string

	// Facebook
	FacebookPageID    string
	FacebookAppID     string
	FacebookAppSecret string

	// LinkedIn
	LinkedInClientID        string
	LinkedInClientSecret    string
	LinkedInOrganizationURN string
	LinkedInAuthorURN       string

	// X
	XClientID     string
	XClientSecret string
	XTokenPath    string

	// X legacy trends (OAuth1)
	XConsumerKey       string
	XConsumerSecret    string
	XAccessToken       string
	XAccessTokenSecret string

	// Workflow settings
	TrendWindowHours int
	TemplatePath     string

	// Logging
	LogLevel string
}

// Load reads configuration from environment variables.
// It automatically loads .env file if present.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	cfg := &Config{
		EnvPath:                 getEnv("SHELLCASTER_ENV_PATH", ".env"),
		GeminiAPIKey:            getEnv("GEMINI_API_KEY", ""),
		GeminiModel:             getEnv("GEMINI_MODEL", ""),
		GoogleClientID:          getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:      getEnv("GOOGLE_CLIENT_SECRET", ""),
		BloggerBlogID:           getEnv("BLOGGER_BLOG_ID", ""),
		BloggerTokenPath:        getEnv("BLOGGER_TOKEN_PATH", ".blogger_token.json"),
		FacebookPageID:          getEnv("FACEBOOK_PAGE_ID", ""),
		FacebookAppID:           getEnv("FACEBOOK_APP_ID", ""),
		FacebookAppSecret:       getEnv("FACEBOOK_APP_SECRET", ""),
		LinkedInClientID:        getEnv("LINKEDIN_CLIENT_ID", ""),
		LinkedInClientSecret:    getEnv("LINKEDIN_CLIENT_SECRET", ""),
		LinkedInOrganizationURN: getEnv("LINKEDIN_ORGANIZATION_URN", ""),
		LinkedInAuthorURN:       getEnv("LINKEDIN_AUTHOR_URN", ""),
		XClientID:               getEnv("X_CLIENT_ID", ""),
		XClientSecret:           getEnv("X_CLIENT_SECRET", ""),
		XTokenPath:              getEnv("X_TOKEN_PATH", ".x_token.json"),
		XConsumerKey:            getEnv("X_CONSUMER_KEY", ""),
		XConsumerSecret:         getEnv("X_CONSUMER_SECRET", ""),
		XAccessToken:            getEnv("X_ACCESS_TOKEN", ""),
		XAccessTokenSecret:      getEnv("X_ACCESS_TOKEN_SECRET", ""),
		TemplatePath:            getEnv("TEMPLATE_PATH", "post.md"),
		LogLevel:                getEnv("LOG_LEVEL", "info"),
	}

	window, err := strconv.Atoi(getEnv("TREND_WINDOW_HOURS", "72"))
	if err != nil {
		return nil, fmt.Errorf("invalid TREND_WINDOW_HOURS: %w", err)
	}
	cfg.TrendWindowHours = window

	return cfg, nil
}

// ValidateForWorkflow checks configuration needed for the full
// trend-to-blog-to-social workflow.
func (c *Config) ValidateForWorkflow() error {
	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required for the workflow")
	}
	if c.BloggerBlogID == "" {
		return fmt.Errorf("BLOGGER_BLOG_ID is required for the workflow")
	}
	return nil
}

// ValidateForBlogger checks configuration needed to publish to Blogger.
func (c *Config) ValidateForBlogger() error {
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
		return fmt.Errorf("GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required for Blogger")
	}
	if c.BloggerBlogID == "" {
		return fmt.Errorf("BLOGGER_BLOG_ID is required for Blogger")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
