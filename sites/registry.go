package sites

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"
)

// CustomPrefix starts every key the registry generates.
const CustomPrefix = "custom-"

var (
	ErrSiteNotFound    = errors.New("Site not found")
	ErrDuplicateDomain = errors.New("domain already registered")
	ErrInvalidLoginURL = errors.New("Invalid login URL format")
	ErrMissingFields   = errors.New("Name, domain, and login URL are required")
	ErrBuiltinSite     = errors.New("Cannot delete built-in sites")
)

// CustomSite is a user-registered site as stored on disk.
type CustomSite struct {
	Name     string   `json:"name"`
	Domains  []string `json:"domains"`
	LoginURL string   `json:"loginUrl"`
}

type registryFile struct {
	Sites map[string]CustomSite `json:"sites"`
}

// Registry stores custom sites in a single JSON file and resolves URLs
// against built-in and custom sites.
type Registry struct {
	path string
	mu   sync.Mutex
}

// NewRegistry creates a registry backed by the file at path. The file is
// created on first write.
func NewRegistry(path string) *Registry {
	return &Registry{path: path}
}

func (r *Registry) load() (map[string]CustomSite, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]CustomSite{}, nil
		}
		return nil, fmt.Errorf("failed to read custom sites: %w", err)
	}

	var file registryFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse custom sites: %w", err)
	}
	if file.Sites == nil {
		file.Sites = map[string]CustomSite{}
	}
	return file.Sites, nil
}

func (r *Registry) save(sites map[string]CustomSite) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("failed to create custom sites directory: %w", err)
	}

	data, err := json.MarshalIndent(registryFile{Sites: sites}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal custom sites: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write custom sites: %w", err)
	}
	return nil
}

var (
	schemePrefix = regexp.MustCompile(`^https?://`)
	tldSuffix    = regexp.MustCompile(`(?i)\.(com|org|net|co\.uk|io|biz)$`)
	nonKeyChars  = regexp.MustCompile(`[^a-z0-9]`)
)

// CleanDomain strips the scheme, a leading "www." and any path.
func CleanDomain(domain string) string {
	d := strings.ToLower(strings.TrimSpace(domain))
	d = schemePrefix.ReplaceAllString(d, "")
	d = strings.TrimPrefix(d, "www.")
	d, _, _ = strings.Cut(d, "/")
	return d
}

// KeyFor derives the registry key for a cleaned domain.
func KeyFor(domain string) string {
	d := strings.Replace(strings.ToLower(domain), "www.", "", 1)
	d = tldSuffix.ReplaceAllString(d, "")
	return CustomPrefix + nonKeyChars.ReplaceAllString(d, "-")
}

// Add registers a site and returns its key. A domain may belong to only
// one custom site.
func (r *Registry) Add(name, domain, loginURL string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.TrimSpace(domain) == "" || strings.TrimSpace(loginURL) == "" {
		return "", ErrMissingFields
	}

	clean := CleanDomain(domain)
	if u, err := url.Parse(loginURL); err != nil || u.Scheme == "" || u.Host == "" {
		return "", ErrInvalidLoginURL
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sites, err := r.load()
	if err != nil {
		return "", err
	}

	for _, existing := range sites {
		for _, d := range existing.Domains {
			if d == clean {
				return "", fmt.Errorf("%w: A site with domain %q already exists", ErrDuplicateDomain, clean)
			}
		}
	}

	// example.com and example.org both clean to custom-example.
	key := KeyFor(clean)
	for n := 2; ; n++ {
		if _, taken := sites[key]; !taken {
			break
		}
		key = KeyFor(clean) + "-" + strconv.Itoa(n)
	}

	sites[key] = CustomSite{Name: name, Domains: []string{clean}, LoginURL: loginURL}
	if err := r.save(sites); err != nil {
		return "", err
	}
	return key, nil
}

// Remove deletes a custom site. Built-in keys are refused.
func (r *Registry) Remove(key string) error {
	if !strings.HasPrefix(key, CustomPrefix) {
		return ErrBuiltinSite
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	sites, err := r.load()
	if err != nil {
		return err
	}
	if _, ok := sites[key]; !ok {
		return ErrSiteNotFound
	}

	delete(sites, key)
	return r.save(sites)
}

// Custom returns the registered sites sorted by key.
func (r *Registry) Custom() ([]Site, error) {
	r.mu.Lock()
	sites, err := r.load()
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(sites))
	for key := range sites {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := make([]Site, 0, len(keys))
	for _, key := range keys {
		out = append(out, Site{Key: key, Custom: true, Config: customConfig(sites[key])})
	}
	return out, nil
}

// All returns built-in sites followed by custom sites.
func (r *Registry) All() ([]Site, error) {
	custom, err := r.Custom()
	if err != nil {
		return nil, err
	}
	return append(Builtin(), custom...), nil
}

// Get returns the site registered under key.
func (r *Registry) Get(key string) (*Site, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	for _, site := range all {
		if site.Key == key {
			return &site, nil
		}
	}
	return nil, ErrSiteNotFound
}

// Lookup finds the site whose domains cover rawURL. A nil site with a nil
// error means no site matched.
func (r *Registry) Lookup(rawURL string) (*Site, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	site, ok := match(all, rawURL)
	if !ok {
		return nil, nil
	}
	return &site, nil
}
