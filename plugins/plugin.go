package plugins

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/AzielCF/az-bot/core/config"
	domainDatabase "github.com/AzielCF/az-bot/domains/database"
	domainHealth "github.com/AzielCF/az-bot/domains/health"
	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	domainScraper "github.com/AzielCF/az-bot/domains/scraper"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	domainTransport "github.com/AzielCF/az-bot/domains/transport"
	"github.com/sirupsen/logrus"
)

// Deps are the shared services handed to every plugin invocation.
type Deps struct {
	Transport domainTransport.ITransport
	Store     domainStore.IStore
	DB        domainDatabase.IState
	Scrapers  domainScraper.IRegistry
	Health    domainHealth.IHealthUsecase
	Config    *config.Config
}

// Context is what a handler sees for one matched message.
type Context struct {
	Deps
	Msg      *domainMessage.Message
	Manifest domainPlugin.Manifest
	Registry domainPlugin.IRegistry
	TraceID  string
	Log      *logrus.Entry
}

// Reply sends text to the chat the message came from, quoting it.
func (c *Context) Reply(ctx context.Context, text string) error {
	if c.Transport == nil {
		return fmt.Errorf("plugin %s: no transport", c.Manifest.Name)
	}
	_, err := c.Transport.SendText(ctx, c.Msg.ChatID, text, domainTransport.SendOptions{Quoted: c.Msg})
	return err
}

// React puts emoji on the message.
func (c *Context) React(ctx context.Context, emoji string) error {
	if c.Transport == nil {
		return fmt.Errorf("plugin %s: no transport", c.Manifest.Name)
	}
	return c.Transport.SendReaction(ctx, c.Msg.ChatID, c.Msg.Key, emoji)
}

// Setting returns a manifest setting as a string, or def.
func (c *Context) Setting(key, def string) string {
	if v, ok := c.Manifest.Settings[key]; ok {
		if s := fmt.Sprint(v); s != "" {
			return s
		}
	}
	return def
}

type Handler interface {
	Handle(ctx context.Context, pc *Context) error
}

type HandlerFunc func(ctx context.Context, pc *Context) error

func (f HandlerFunc) Handle(ctx context.Context, pc *Context) error {
	return f(ctx, pc)
}

// Factory builds a handler for one manifest. Manifests name their factory in "handler".
type Factory func(manifest domainPlugin.Manifest) (Handler, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// Register links a handler factory under name. It panics on duplicates, like database/sql drivers.
func Register(name string, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if factory == nil {
		panic("plugins: Register factory is nil")
	}
	if _, dup := factories[name]; dup {
		panic("plugins: Register called twice for " + name)
	}
	factories[name] = factory
}

func lookupFactory(name string) (Factory, bool) {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	f, ok := factories[name]
	return f, ok
}

// Factories lists the linked handler names.
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
