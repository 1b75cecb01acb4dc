package builtin

import (
	"context"
	"fmt"
	"sync"

	"github.com/AzielCF/az-bot/core/config"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	"github.com/AzielCF/az-bot/integrations/ai"
	"github.com/AzielCF/az-bot/plugins"
)

const defaultAIMemory = 10

type aiChat struct {
	memory      *ai.MemoryStore
	newProvider func(cfg config.AIConfig) (ai.Provider, error)

	mu       sync.Mutex
	provider ai.Provider
}

func NewAI(m domainPlugin.Manifest) (plugins.Handler, error) {
	limit := defaultAIMemory
	if v, ok := m.Settings["memory"].(int); ok && v >= 0 {
		limit = v
	}
	return &aiChat{memory: ai.NewMemoryStore(limit), newProvider: ai.New}, nil
}

func (a *aiChat) getProvider(cfg config.AIConfig) (ai.Provider, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.provider != nil {
		return a.provider, nil
	}
	p, err := a.newProvider(cfg)
	if err != nil {
		return nil, err
	}
	a.provider = p
	return p, nil
}

func (a *aiChat) Handle(ctx context.Context, pc *plugins.Context) error {
	if pc.Config == nil {
		return fmt.Errorf("ai: config unavailable")
	}
	cfg := pc.Config.AI
	if model := pc.Setting("model", ""); model != "" {
		cfg.Model = model
	}
	provider, err := a.getProvider(cfg)
	if err != nil {
		return err
	}

	key := pc.Msg.ChatID + "|" + pc.Msg.Sender
	if pc.Msg.Command == pc.Setting("reset_command", "aireset") {
		a.memory.Clear(key)
		return pc.Reply(ctx, "Conversation cleared.")
	}

	if pc.Msg.Text == "" {
		return pc.Reply(ctx, fmt.Sprintf("Usage: %s%s <question>", pc.Msg.Prefix, pc.Msg.Command))
	}

	reply, err := provider.Chat(ctx, ai.Request{
		Model:        cfg.Model,
		SystemPrompt: pc.Setting("system_prompt", cfg.SystemPrompt),
		History:      a.memory.Get(key),
		UserText:     pc.Msg.Text,
	})
	if err != nil {
		return fmt.Errorf("ai %s: %w", provider.Name(), err)
	}
	if reply == "" {
		reply = "..."
	}
	a.memory.Save(key, ai.Turn{Role: "user", Text: pc.Msg.Text}, ai.Turn{Role: "assistant", Text: reply})
	return pc.Reply(ctx, reply)
}
