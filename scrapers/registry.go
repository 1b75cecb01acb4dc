package scrapers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	domainScraper "github.com/AzielCF/az-bot/domains/scraper"
	pkgError "github.com/AzielCF/az-bot/pkg/error"
	"github.com/AzielCF/az-bot/pkg/loader"
	"github.com/AzielCF/az-bot/validations"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultTimeout bounds one scrape when the manifest sets none.
const DefaultTimeout = 15 * time.Second

// Factory builds a scraper for one manifest.
type Factory func(manifest domainScraper.Manifest) (domainScraper.IScraper, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if factory == nil {
		panic("scrapers: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("scrapers: Register called twice for " + name)
	}
	factories[name] = factory
}

func Factories() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type Entry struct {
	Source   string
	Name     string
	Hosts    []string
	Timeout  time.Duration
	Scraper  domainScraper.IScraper
	Manifest domainScraper.Manifest
}

type Registry struct {
	mu      sync.RWMutex
	entries []*Entry
	bySrc   map[string]int
}

func NewRegistry() *Registry {
	return &Registry{bySrc: make(map[string]int)}
}

var _ domainScraper.IRegistry = (*Registry)(nil)

// Load registers every scraper manifest under folder accepted by filter.
// Failures are collected per file.
func (r *Registry) Load(folder string, filter loader.Filter, opts loader.Options) ([]string, error) {
	files, err := loader.Files(folder, filter, opts)
	if err != nil {
		return nil, err
	}

	var (
		loaded []string
		errs   []error
	)
	for _, p := range files {
		name, err := r.loadFile(p)
		if err != nil {
			logrus.WithError(err).Warnf("[REGISTRY] Skipping scraper %s", p)
			errs = append(errs, &pkgError.LoadError{Path: p, Err: err})
			continue
		}
		loaded = append(loaded, name)
	}

	logrus.Infof("[REGISTRY] Scrapers loaded: %d of %d manifests from %s", len(loaded), len(files), folder)
	return loaded, errors.Join(errs...)
}

func (r *Registry) loadFile(p string) (string, error) {
	data, err := os.ReadFile(p)
	if err != nil {
		return "", err
	}
	var manifest domainScraper.Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		return "", fmt.Errorf("parse manifest: %w", err)
	}
	if err := validations.ValidateScraperManifest(context.Background(), manifest); err != nil {
		return "", err
	}

	factoriesMu.RLock()
	factory, ok := factories[manifest.Handler]
	factoriesMu.RUnlock()
	if !ok {
		return "", fmt.Errorf("unknown handler %q", manifest.Handler)
	}
	s, err := build(factory, manifest)
	if err != nil {
		return "", fmt.Errorf("build handler %q: %w", manifest.Handler, err)
	}

	r.Add(p, manifest, s)
	return manifest.Name, nil
}

func build(factory Factory, manifest domainScraper.Manifest) (s domainScraper.IScraper, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			s = nil
			err = fmt.Errorf("panic: %v", rec)
			logrus.Errorf("[REGISTRY] Scraper factory %s panicked: %v", manifest.Handler, rec)
		}
	}()
	return factory(manifest)
}

// Add registers s under source, replacing an entry with the same source in place.
func (r *Registry) Add(source string, manifest domainScraper.Manifest, s domainScraper.IScraper) {
	timeout := manifest.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	hosts := make([]string, 0, len(manifest.Hosts))
	for _, h := range manifest.Hosts {
		hosts = append(hosts, strings.ToLower(strings.TrimSpace(h)))
	}
	entry := &Entry{Source: source, Name: manifest.Name, Hosts: hosts, Timeout: timeout, Scraper: s, Manifest: manifest}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.bySrc[source]; ok {
		r.entries[i] = entry
		return
	}
	r.bySrc[source] = len(r.entries)
	r.entries = append(r.entries, entry)
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) List() []domainScraper.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainScraper.Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e.info())
	}
	return out
}

// Find returns the scrapers whose host patterns match rawURL, in registration order.
func (r *Registry) Find(rawURL string) []domainScraper.Info {
	var out []domainScraper.Info
	for _, e := range r.match(rawURL) {
		out = append(out, e.info())
	}
	return out
}

// Scrape runs the matching scrapers in order and returns the first success.
func (r *Registry) Scrape(ctx context.Context, rawURL string) (*domainScraper.Result, error) {
	entries := r.match(rawURL)
	if len(entries) == 0 {
		return nil, pkgError.NotFoundError(fmt.Sprintf("no scraper for %s", rawURL))
	}

	var errs []error
	for _, e := range entries {
		res, err := e.run(ctx, rawURL)
		if err == nil && res != nil {
			return res, nil
		}
		if err == nil {
			err = errors.New("empty result")
		}
		logrus.WithError(err).Debugf("[REGISTRY] Scraper %s failed for %s", e.Name, rawURL)
		errs = append(errs, fmt.Errorf("%s: %w", e.Name, err))
	}
	return nil, errors.Join(errs...)
}

func (r *Registry) match(rawURL string) []*Entry {
	host := hostOf(rawURL)
	if host == "" {
		return nil
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Entry
	for _, e := range r.entries {
		for _, pattern := range e.Hosts {
			if ok, _ := path.Match(pattern, host); ok {
				out = append(out, e)
				break
			}
		}
	}
	return out
}

func (e *Entry) info() domainScraper.Info {
	return domainScraper.Info{Source: e.Source, Name: e.Name, Hosts: append([]string(nil), e.Hosts...)}
}

func (e *Entry) run(ctx context.Context, rawURL string) (res *domainScraper.Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, e.Timeout)
	defer cancel()
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
		}
	}()
	return e.Scraper.Scrape(ctx, rawURL)
}

func hostOf(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return ""
	}
	return strings.ToLower(u.Hostname())
}
