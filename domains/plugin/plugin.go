package plugin

import (
	"context"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
)

type Scope string

const (
	ScopeAny     Scope = "any"
	ScopeGroup   Scope = "group"
	ScopePrivate Scope = "private"
)

// Manifest is the YAML description of a plugin.
type Manifest struct {
	Name        string         `yaml:"name" json:"name"`
	Handler     string         `yaml:"handler" json:"handler"`
	Description string         `yaml:"description" json:"description,omitempty"`
	Category    string         `yaml:"category" json:"category,omitempty"`
	Commands    []string       `yaml:"commands" json:"commands,omitempty"`
	Pattern     string         `yaml:"pattern" json:"pattern,omitempty"`
	Types       []string       `yaml:"types" json:"types,omitempty"`
	Scope       Scope          `yaml:"scope" json:"scope,omitempty"`
	OwnerOnly   bool           `yaml:"owner_only" json:"owner_only,omitempty"`
	AdminOnly   bool           `yaml:"admin_only" json:"admin_only,omitempty"`
	BotAdmin    bool           `yaml:"bot_admin" json:"bot_admin,omitempty"`
	Status      bool           `yaml:"status" json:"status,omitempty"`
	FromMe      bool           `yaml:"from_me" json:"from_me,omitempty"`
	Disabled    bool           `yaml:"disabled" json:"disabled,omitempty"`
	Settings    map[string]any `yaml:"settings" json:"settings,omitempty"`
}

// Info is the public listing entry of a registered plugin.
type Info struct {
	Source      string   `json:"source"`
	Name        string   `json:"name"`
	Category    string   `json:"category,omitempty"`
	Description string   `json:"description,omitempty"`
	Commands    []string `json:"commands,omitempty"`
	Invocations int64    `json:"invocations"`
	Failures    int64    `json:"failures"`
}

// DispatchReport summarizes one registry dispatch.
type DispatchReport struct {
	TraceID string   `json:"trace_id"`
	Matched []string `json:"matched"`
	Failed  []string `json:"failed,omitempty"`
}

type IDispatcher interface {
	Dispatch(ctx context.Context, msg *domainMessage.Message) DispatchReport
}

type IRegistry interface {
	IDispatcher
	List() []Info
	Len() int
}
