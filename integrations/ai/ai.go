package ai

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/AzielCF/az-bot/core/config"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"

	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-4o-mini"
)

type Turn struct {
	Role string // "user" or "assistant"
	Text string
}

type Request struct {
	Model        string
	SystemPrompt string
	History      []Turn
	UserText     string
}

// Provider answers one chat request.
type Provider interface {
	Name() string
	Chat(ctx context.Context, req Request) (string, error)
}

// New picks the provider named in cfg.Provider.
func New(cfg config.AIConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("ai: GEMINI_API_KEY is not set")
		}
		return NewGeminiProvider(cfg.GeminiAPIKey, cfg.Model), nil
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("ai: OPENAI_API_KEY is not set")
		}
		return NewOpenAIProvider(cfg.OpenAIAPIKey, cfg.Model), nil
	default:
		return nil, fmt.Errorf("ai: unknown provider %q", cfg.Provider)
	}
}

// MemoryStore keeps a bounded conversation history per key.
type MemoryStore struct {
	mu     sync.RWMutex
	limit  int
	memory map[string][]Turn
}

func NewMemoryStore(limit int) *MemoryStore {
	return &MemoryStore{limit: limit, memory: make(map[string][]Turn)}
}

func (s *MemoryStore) Get(key string) []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := s.memory[key]
	if len(turns) == 0 {
		return nil
	}
	cpy := make([]Turn, len(turns))
	copy(cpy, turns)
	return cpy
}

func (s *MemoryStore) Save(key string, turns ...Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	history := append(s.memory[key], turns...)
	if s.limit > 0 && len(history) > s.limit {
		history = history[len(history)-s.limit:]
	}
	s.memory[key] = history
}

func (s *MemoryStore) Clear(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memory, key)
}
