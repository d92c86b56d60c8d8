// Package browser replays saved login sessions in a headless browser to read
// paywalled articles, and drives the visible login window that captures
// those sessions.
package browser

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/briefsmith/article"
	"github.com/pevans/briefsmith/extract"
	"github.com/pevans/briefsmith/sessions"
	"github.com/pevans/briefsmith/sites"
	"github.com/pevans/briefsmith/urlcheck"
	"go.uber.org/zap"
)

// Page is one browser tab.
type Page interface {
	Navigate(ctx context.Context, url string) error
	URL(ctx context.Context) (string, error)
	HTML(ctx context.Context) (string, error)
	Cookies(ctx context.Context) ([]sessions.Cookie, error)
	SetCookies(ctx context.Context, cookies []sessions.Cookie) error
	Close() error
}

// Browser is a running browser process.
type Browser interface {
	NewPage(ctx context.Context) (Page, error)
	Pages() int
	Close() error
}

// Launcher starts browser processes.
type Launcher interface {
	Launch(ctx context.Context, headless bool) (Browser, error)
}

// SiteResolver finds site configs by key or article URL.
type SiteResolver interface {
	Get(key string) (*sites.Site, error)
	Lookup(rawURL string) (*sites.Site, error)
	All() ([]sites.Site, error)
}

var (
	ErrNoSiteConfig = errors.New("No configuration found for this site.")
	ErrNeedsLogin   = errors.New("login required")
	ErrUnknownSite  = errors.New("unknown site")
)

// SessionError reports a missing or expired session. It matches
// ErrNeedsLogin so callers can route the editor to the login flow.
type SessionError struct {
	Site    string
	Message string
}

func (e *SessionError) Error() string {
	return e.Message
}

func (e *SessionError) Is(target error) bool {
	return target == ErrNeedsLogin
}

// Defaults for Options.
const (
	DefaultPollInterval    = 2 * time.Second
	DefaultLoginTimeout    = 5 * time.Minute
	DefaultSettleDelay     = 2 * time.Second
	DefaultLoginNavTimeout = 60 * time.Second
	DefaultFetchNavTimeout = 30 * time.Second
)

// Options tunes the manager's timing. Zero values select the defaults; a
// negative SettleDelay skips the wait after navigation.
type Options struct {
	PollInterval    time.Duration
	LoginTimeout    time.Duration
	SettleDelay     time.Duration
	LoginNavTimeout time.Duration
	FetchNavTimeout time.Duration
}

func (o *Options) applyDefaults() {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultPollInterval
	}
	if o.LoginTimeout <= 0 {
		o.LoginTimeout = DefaultLoginTimeout
	}
	if o.SettleDelay == 0 {
		o.SettleDelay = DefaultSettleDelay
	}
	if o.LoginNavTimeout <= 0 {
		o.LoginNavTimeout = DefaultLoginNavTimeout
	}
	if o.FetchNavTimeout <= 0 {
		o.FetchNavTimeout = DefaultFetchNavTimeout
	}
}

// Manager owns the shared browser handle. The browser is launched on first
// use and kept until Close.
type Manager struct {
	launcher Launcher
	store    sessions.Store
	sites    SiteResolver
	logger   *zap.Logger
	opts     Options

	mu       sync.Mutex
	browser  Browser
	headless bool
}

// NewManager creates a manager. A nil logger discards output.
func NewManager(launcher Launcher, store sessions.Store, resolver SiteResolver, logger *zap.Logger, opts Options) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	opts.applyDefaults()
	return &Manager{
		launcher: launcher,
		store:    store,
		sites:    resolver,
		logger:   logger,
		opts:     opts,
	}
}

// acquire returns the shared browser, launching it if absent. A running
// browser in the other mode is replaced once it has no open pages.
func (m *Manager) acquire(ctx context.Context, headless bool) (Browser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser != nil {
		if m.headless == headless || m.browser.Pages() > 0 {
			return m.browser, nil
		}
		if err := m.browser.Close(); err != nil {
			m.logger.Warn("failed to close browser", zap.Error(err))
		}
		m.browser = nil
	}

	b, err := m.launcher.Launch(ctx, headless)
	if err != nil {
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}
	m.browser = b
	m.headless = headless
	return b, nil
}

// release closes the shared browser when no pages remain open.
func (m *Manager) release() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser == nil || m.browser.Pages() > 0 {
		return
	}
	if err := m.browser.Close(); err != nil {
		m.logger.Warn("failed to close browser", zap.Error(err))
	}
	m.browser = nil
}

// Close shuts down the shared browser if one is running.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.browser == nil {
		return nil
	}
	err := m.browser.Close()
	m.browser = nil
	return err
}

// SiteStatus is a site plus whether a session is saved for it.
type SiteStatus struct {
	sites.Site
	HasSession bool `json:"hasSession"`
}

// Sites lists every known site with its session state.
func (m *Manager) Sites() ([]SiteStatus, error) {
	all, err := m.sites.All()
	if err != nil {
		return nil, err
	}
	out := make([]SiteStatus, len(all))
	for i, site := range all {
		out[i] = SiteStatus{Site: site, HasSession: m.store.Has(site.Key)}
	}
	return out, nil
}

// HasSession reports whether rawURL belongs to a known site with a saved
// session.
func (m *Manager) HasSession(rawURL string) bool {
	site, err := m.sites.Lookup(rawURL)
	if err != nil || site == nil {
		return false
	}
	return m.store.Has(site.Key)
}

// Logout clears the saved session for key. It reports false when there
// was none.
func (m *Manager) Logout(key string) (bool, error) {
	return m.store.Delete(key)
}

// LoginResult is the outcome of an interactive login.
type LoginResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Login opens a visible browser on the site's login page and waits for the
// editor to sign in. Success is a logged-in marker on the page or a
// navigation away from the login URL. Cookies are saved either way.
func (m *Manager) Login(ctx context.Context, key string) (*LoginResult, error) {
	site, err := m.sites.Get(key)
	if err != nil {
		if errors.Is(err, sites.ErrSiteNotFound) {
			return nil, fmt.Errorf("%w: Unknown site: %s", ErrUnknownSite, key)
		}
		return nil, err
	}

	b, err := m.acquire(ctx, false)
	if err != nil {
		return nil, err
	}
	page, err := b.NewPage(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}

	m.logger.Info("opening login page", zap.String("site", key), zap.String("url", site.LoginURL))
	navCtx, cancel := context.WithTimeout(ctx, m.opts.LoginNavTimeout)
	err = page.Navigate(navCtx, site.LoginURL)
	cancel()
	if err != nil {
		m.closePage(page)
		m.release()
		return nil, fmt.Errorf("failed to open login page: %w", err)
	}

	loggedIn, err := m.waitForLogin(ctx, page, site)
	if err != nil {
		m.closePage(page)
		m.release()
		return nil, err
	}

	m.saveCookies(ctx, page, key)
	m.closePage(page)

	if !loggedIn {
		return &LoginResult{
			Success: false,
			Message: fmt.Sprintf("Login timed out after %s. Any partial session has been saved.", describe(m.opts.LoginTimeout)),
		}, nil
	}

	m.release()
	return &LoginResult{
		Success: true,
		Message: fmt.Sprintf("Successfully logged into %s. Session saved.", site.Name),
	}, nil
}

// waitForLogin polls the page until it looks logged in or the login
// timeout passes. Errors while the page navigates are ignored.
func (m *Manager) waitForLogin(ctx context.Context, page Page, site *sites.Site) (bool, error) {
	deadline := time.NewTimer(m.opts.LoginTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(m.opts.PollInterval)
	defer ticker.Stop()

	for {
		if m.looksLoggedIn(ctx, page, site) {
			return true, nil
		}

		select {
		case <-ctx.Done():
			return false, ctx.Err()
		case <-deadline.C:
			return false, nil
		case <-ticker.C:
		}
	}
}

func (m *Manager) looksLoggedIn(ctx context.Context, page Page, site *sites.Site) bool {
	current, err := page.URL(ctx)
	if err != nil {
		return false
	}
	onLoginPage := containsAny(current, "login", "signin", "account")
	if !onLoginPage && !strings.Contains(current, site.LoginURL) {
		return true
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return false
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}
	return doc.Find(site.LoginIndicator).Length() > 0
}

// Result is an article read through a saved session.
type Result struct {
	HTML       string `json:"-"`
	Headline   string `json:"headline"`
	Content    string `json:"content"`
	SourceName string `json:"sourceName"`
}

// Fetch loads rawURL with the site's saved cookies and extracts the
// article. Missing or expired sessions return a *SessionError. The
// browser is shut down once no pages remain open.
func (m *Manager) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	site, err := m.sites.Lookup(rawURL)
	if err != nil {
		return nil, err
	}
	if site == nil {
		return nil, ErrNoSiteConfig
	}

	cookies, err := m.store.Load(site.Key)
	if err != nil {
		if errors.Is(err, sessions.ErrNoSession) {
			return nil, &SessionError{
				Site:    site.Key,
				Message: fmt.Sprintf("No saved session for %s. Please log in first using the Login button.", site.Name),
			}
		}
		return nil, err
	}

	b, err := m.acquire(ctx, true)
	if err != nil {
		return nil, err
	}
	page, err := b.NewPage(ctx)
	if err != nil {
		m.release()
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer func() {
		m.closePage(page)
		m.release()
	}()

	if err := page.SetCookies(ctx, cookies); err != nil {
		m.logger.Warn("failed to load cookies", zap.String("site", site.Key), zap.Error(err))
	}

	m.logger.Info("fetching with browser", zap.String("site", site.Key), zap.String("url", rawURL))
	navCtx, cancel := context.WithTimeout(ctx, m.opts.FetchNavTimeout)
	err = page.Navigate(navCtx, rawURL)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("failed to load article: %w", err)
	}

	if err := sleep(ctx, m.opts.SettleDelay); err != nil {
		return nil, err
	}

	current, err := page.URL(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page URL: %w", err)
	}
	if containsAny(current, "login", "signin", "subscribe") {
		return nil, &SessionError{
			Site:    site.Key,
			Message: fmt.Sprintf("Session expired for %s. Please log in again.", site.Name),
		}
	}

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read page: %w", err)
	}

	// Sessions can rotate tokens.
	m.saveCookies(ctx, page, site.Key)

	rendered := extract.FromRendered(html, site.HeadlineSelector, site.ContentSelector)
	if extract.Length(rendered.Content) < article.MinContentLength {
		return nil, &SessionError{
			Site:    site.Key,
			Message: "Could not extract full article content. Session may have expired - please log in again.",
		}
	}

	source := rendered.SourceName
	if source == "" {
		source = site.Name
	}
	return &Result{
		HTML:       html,
		Headline:   rendered.Headline,
		Content:    rendered.Content,
		SourceName: urlcheck.NormalizeSourceName(source),
	}, nil
}

func (m *Manager) saveCookies(ctx context.Context, page Page, key string) {
	cookies, err := page.Cookies(ctx)
	if err != nil {
		m.logger.Warn("failed to read cookies", zap.String("site", key), zap.Error(err))
		return
	}
	if err := m.store.Save(key, cookies); err != nil {
		m.logger.Warn("failed to save cookies", zap.String("site", key), zap.Error(err))
		return
	}
	m.logger.Info("saved cookies", zap.String("site", key), zap.Int("count", len(cookies)))
}

func (m *Manager) closePage(page Page) {
	if err := page.Close(); err != nil {
		m.logger.Warn("failed to close page", zap.Error(err))
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// describe renders whole minutes as "5 minutes" and anything else with
// Duration.String.
func describe(d time.Duration) string {
	if d >= time.Minute && d%time.Minute == 0 {
		n := int(d / time.Minute)
		if n == 1 {
			return "1 minute"
		}
		return fmt.Sprintf("%d minutes", n)
	}
	return d.String()
}
