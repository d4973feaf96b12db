package app

import (
	"github.com/arbitengine/shellcaster/internal/config"
	"github.com/arbitengine/shellcaster/internal/credstore"
	"github.com/arbitengine/shellcaster/internal/dispatcher"
	"github.com/arbitengine/shellcaster/internal/platform"
	"github.com/arbitengine/shellcaster/internal/trends"
)

// App is the main application container holding all dependencies.
type App struct {
	Config     *config.Config
	Creds      *credstore.Store
	Publishers []platform.Publisher
	Dispatcher *dispatcher.Dispatcher
	Trends     *trends.XSource
}

// New wires up the adapters from configuration. The X publisher doubles
// as the bearer source for the trends fetch.
func New(cfg *config.Config) *App {
	creds := credstore.New(cfg.EnvPath)
	authorizer := platform.NewTerminalAuthorizer()

	x := platform.NewXPublisher(platform.XConfig{
		ClientID:     cfg.XClientID,
		ClientSecret: cfg.XClientSecret,
		TokenPath:    cfg.XTokenPath,
		Authorizer:   authorizer,
	})

	publishers := []platform.Publisher{
		platform.NewFacebookPublisher(platform.FacebookConfig{
			PageID:    cfg.FacebookPageID,
			AppID:     cfg.FacebookAppID,
			AppSecret: cfg.FacebookAppSecret,
			Creds:     creds,
		}),
		platform.NewLinkedInPublisher(platform.LinkedInConfig{
			ClientID:        cfg.LinkedInClientID,
			ClientSecret:    cfg.LinkedInClientSecret,
			OrganizationURN: cfg.LinkedInOrganizationURN,
			AuthorURN:       cfg.LinkedInAuthorURN,
			Creds:           creds,
			Authorizer:      authorizer,
		}),
		x,
		platform.NewBloggerPublisher(platform.BloggerConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			BlogID:       cfg.BloggerBlogID,
			TokenPath:    cfg.BloggerTokenPath,
			Authorizer:   authorizer,
		}),
	}

	a := &App{
		Config:     cfg,
		Creds:      creds,
		Publishers: publishers,
		Dispatcher: dispatcher.New(dispatcher.Config{
			Publishers: publishers,
			Creds:      creds,
		}),
		Trends: trends.NewXSource(trends.XSourceConfig{
			Bearer: x,
			Keys: trends.OAuth1Keys{
				ConsumerKey:    cfg.XConsumerKey,
				ConsumerSecret: cfg.XConsumerSecret,
				AccessToken:    cfg.XAccessToken,
				AccessSecret:   cfg.XAccessTokenSecret,
			},
		}),
	}
	return a
}

// Publisher returns the adapter for the named platform, or nil.
func (a *App) Publisher(name string) platform.Publisher {
	for _, p := range a.Publishers {
		if p.Platform() == name {
			return p
		}
	}
	return nil
}
