package main

import (
	"errors"
	"fmt"

	"github.com/pevans/briefsmith/brief"
	"github.com/pevans/briefsmith/browser"
	"github.com/pevans/briefsmith/config"
	"github.com/pevans/briefsmith/fetcher"
	"github.com/pevans/briefsmith/llm"
	"github.com/pevans/briefsmith/pipeline"
	"github.com/pevans/briefsmith/sessions"
	"github.com/pevans/briefsmith/sites"
	"github.com/pevans/briefsmith/stock"
	"github.com/pevans/briefsmith/summarize"
	"github.com/pevans/briefsmith/wordpress"
	"go.uber.org/zap"
)

func (a *app) registry() *sites.Registry {
	return sites.NewRegistry(a.cfg.Browser.SitesFile)
}

func (a *app) manager() (*browser.Manager, error) {
	store, err := sessions.NewFileStore(a.cfg.Browser.SessionsDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open sessions: %w", err)
	}
	launcher := browser.ChromeLauncher{ExecPath: a.cfg.Browser.ExecPath}
	return browser.NewManager(launcher, store, a.registry(), a.logger.Named("browser"), browser.Options{}), nil
}

// claude builds an Anthropic completer for apiKey using the configured
// model and endpoint.
func (a *app) claude(apiKey string) llm.Completer {
	return llm.NewAnthropic(apiKey, a.cfg.Anthropic.Model, a.cfg.Anthropic.BaseURL)
}

// gemini returns nil when no Gemini key is configured.
func (a *app) gemini() llm.Completer {
	if a.cfg.Gemini.APIKey == "" {
		return nil
	}
	return llm.NewGemini(a.cfg.Gemini.APIKey, a.cfg.Gemini.Model, a.cfg.Gemini.BaseURL)
}

// curationModel returns nil when no Anthropic key is configured.
func (a *app) curationModel() llm.Completer {
	if a.cfg.Anthropic.APIKey == "" {
		return nil
	}
	return a.claude(a.cfg.Anthropic.APIKey)
}

func (a *app) generator(manager *browser.Manager) *pipeline.Generator {
	factory := func(apiKey string) pipeline.Summarizer {
		return summarize.NewSummarizer(a.claude(apiKey))
	}
	var sessionFetcher pipeline.SessionFetcher
	if manager != nil {
		sessionFetcher = manager
	}
	return pipeline.NewGenerator(fetcher.New(), sessionFetcher, factory, a.cfg.Anthropic.APIKey, a.logger.Named("pipeline"))
}

func (a *app) briefStore() (brief.Store, error) {
	switch a.cfg.Storage.Briefs.Type {
	case config.BriefsRedis:
		return brief.ConnectRedis(a.cfg.Storage.Briefs.DSN)
	default:
		return brief.NewSQLiteStore(a.cfg.Storage.Briefs.DSN)
	}
}

// wordpress returns nil when credentials are missing.
func (a *app) wordpress() (*wordpress.Client, error) {
	wp := a.cfg.WordPress
	client, err := wordpress.New(wp.URL, wp.Username, wp.AppPassword)
	if errors.Is(err, wordpress.ErrNotConfigured) {
		return nil, nil
	}
	return client, err
}

// stock returns nil when credentials are missing.
func (a *app) stock() (*stock.Client, error) {
	client, err := stock.New(stock.Config{APIKey: a.cfg.Getty.APIKey, APISecret: a.cfg.Getty.APISecret})
	if errors.Is(err, stock.ErrNotConfigured) {
		return nil, nil
	}
	return client, err
}

func (a *app) logIntegrations() {
	status := a.cfg.Status()
	a.logger.Info("integrations",
		zap.Bool("anthropic", status.HasAnthropic),
		zap.Bool("gemini", status.HasGemini),
		zap.Bool("wordpress", status.HasWordPress),
		zap.Bool("getty", status.HasGetty),
		zap.String("briefs", a.cfg.Storage.Briefs.Type),
	)
}
