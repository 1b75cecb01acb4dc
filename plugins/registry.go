package plugins

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	domainHealth "github.com/AzielCF/az-bot/domains/health"
	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	pkgError "github.com/AzielCF/az-bot/pkg/error"
	"github.com/AzielCF/az-bot/pkg/loader"
	"github.com/AzielCF/az-bot/validations"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Entry is one registered plugin. Entries are unique by Source.
type Entry struct {
	Source   string
	Name     string
	Rule     Rule
	Handler  Handler
	Manifest domainPlugin.Manifest

	invocations int64
	failures    int64
}

type Registry struct {
	deps Deps

	mu      sync.RWMutex
	entries []*Entry
	bySrc   map[string]int
}

func NewRegistry(deps Deps) *Registry {
	return &Registry{deps: deps, bySrc: make(map[string]int)}
}

var _ domainPlugin.IRegistry = (*Registry)(nil)

// SetHealth wires the health reporter, which itself needs the registry.
func (r *Registry) SetHealth(h domainHealth.IHealthUsecase) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deps.Health = h
}

// Load registers every manifest under folder accepted by filter. A broken
// manifest is skipped and reported; the rest of the folder still loads.
func (r *Registry) Load(folder string, filter loader.Filter, opts loader.Options) ([]string, error) {
	files, err := loader.Files(folder, filter, opts)
	if err != nil {
		return nil, err
	}

	var (
		loaded []string
		errs   []error
	)
	for _, path := range files {
		name, err := r.loadFile(path)
		if err != nil {
			logrus.WithError(err).Warnf("[REGISTRY] Skipping plugin %s", path)
			errs = append(errs, &pkgError.LoadError{Path: path, Err: err})
			continue
		}
		if name == "" {
			continue
		}
		loaded = append(loaded, name)
	}

	logrus.Infof("[REGISTRY] Plugins loaded: %d of %d manifests from %s", len(loaded), len(files), folder)
	return loaded, errors.Join(errs...)
}

func (r *Registry) loadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	var manifest domainPlugin.Manifest
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&manifest); err != nil {
		return "", fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Disabled {
		r.Remove(path)
		logrus.Debugf("[REGISTRY] Plugin %s is disabled", path)
		return "", nil
	}
	if manifest.Scope == "" {
		manifest.Scope = domainPlugin.ScopeAny
	}
	if err := validations.ValidatePluginManifest(context.Background(), manifest); err != nil {
		return "", err
	}

	factory, ok := lookupFactory(manifest.Handler)
	if !ok {
		return "", fmt.Errorf("unknown handler %q", manifest.Handler)
	}
	handler, err := build(factory, manifest)
	if err != nil {
		return "", fmt.Errorf("build handler %q: %w", manifest.Handler, err)
	}

	if err := r.Add(path, manifest, handler); err != nil {
		return "", err
	}
	return manifest.Name, nil
}

// build runs factory, turning a panic into an error so one bad plugin only
// costs its own manifest.
func build(factory Factory, manifest domainPlugin.Manifest) (handler Handler, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			handler = nil
			err = fmt.Errorf("panic: %v", rec)
			logrus.Errorf("[REGISTRY] Plugin factory %s panicked: %v\n%s", manifest.Handler, rec, debug.Stack())
		}
	}()
	return factory(manifest)
}

// Add registers handler under source. An existing entry with the same source
// is replaced in place so registration order is kept.
func (r *Registry) Add(source string, manifest domainPlugin.Manifest, handler Handler) error {
	rule, err := CompileRule(manifest)
	if err != nil {
		return err
	}
	entry := &Entry{Source: source, Name: manifest.Name, Rule: rule, Handler: handler, Manifest: manifest}

	r.mu.Lock()
	defer r.mu.Unlock()
	if i, ok := r.bySrc[source]; ok {
		r.entries[i] = entry
		return nil
	}
	r.bySrc[source] = len(r.entries)
	r.entries = append(r.entries, entry)
	return nil
}

func (r *Registry) Remove(source string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.bySrc[source]
	if !ok {
		return
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.bySrc, source)
	for j := i; j < len(r.entries); j++ {
		r.bySrc[r.entries[j].Source] = j
	}
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) List() []domainPlugin.Info {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domainPlugin.Info, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, domainPlugin.Info{
			Source:      e.Source,
			Name:        e.Name,
			Category:    e.Manifest.Category,
			Description: e.Manifest.Description,
			Commands:    append([]string(nil), e.Manifest.Commands...),
			Invocations: atomic.LoadInt64(&e.invocations),
			Failures:    atomic.LoadInt64(&e.failures),
		})
	}
	return out
}

// Dispatch runs every matching plugin, in registration order. A failing or
// panicking plugin is logged and counted and never stops the others.
func (r *Registry) Dispatch(ctx context.Context, msg *domainMessage.Message) domainPlugin.DispatchReport {
	report := domainPlugin.DispatchReport{TraceID: uuid.NewString()}
	if msg == nil {
		return report
	}

	r.mu.RLock()
	entries := make([]*Entry, len(r.entries))
	copy(entries, r.entries)
	deps := r.deps
	r.mu.RUnlock()

	for _, e := range entries {
		if !e.Rule.Match(msg) {
			continue
		}
		report.Matched = append(report.Matched, e.Name)
		if err := r.invoke(ctx, deps, e, msg, report.TraceID); err != nil {
			report.Failed = append(report.Failed, e.Name)
		}
	}
	return report
}

func (r *Registry) invoke(ctx context.Context, deps Deps, e *Entry, msg *domainMessage.Message, traceID string) (err error) {
	log := logrus.WithFields(logrus.Fields{
		"plugin":  e.Name,
		"chat":    msg.ChatID,
		"msg_id":  msg.Key.ID,
		"trace":   traceID,
		"command": msg.Command,
	})
	start := time.Now()
	atomic.AddInt64(&e.invocations, 1)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("panic: %v", rec)
			log.Errorf("[REGISTRY] Plugin panic: %v\n%s", rec, debug.Stack())
		}
		if err != nil {
			atomic.AddInt64(&e.failures, 1)
			if !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("[REGISTRY] Plugin failed")
			}
			return
		}
		log.Debugf("[REGISTRY] Plugin done in %s", time.Since(start))
	}()

	pc := &Context{
		Deps:     deps,
		Msg:      msg,
		Manifest: e.Manifest,
		Registry: r,
		TraceID:  traceID,
		Log:      log,
	}
	return e.Handler.Handle(ctx, pc)
}
