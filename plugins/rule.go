package plugins

import (
	"regexp"
	"strings"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
)

// Rule is the compiled match condition of a manifest.
type Rule struct {
	commands  map[string]bool
	pattern   *regexp.Regexp
	types     map[domainMessage.Type]bool
	scope     domainPlugin.Scope
	ownerOnly bool
	adminOnly bool
	botAdmin  bool
	status    bool
	fromMe    bool
}

func CompileRule(m domainPlugin.Manifest) (Rule, error) {
	r := Rule{
		scope:     m.Scope,
		ownerOnly: m.OwnerOnly,
		adminOnly: m.AdminOnly,
		botAdmin:  m.BotAdmin,
		status:    m.Status,
		fromMe:    m.FromMe,
	}
	if r.scope == "" {
		r.scope = domainPlugin.ScopeAny
	}
	if len(m.Commands) > 0 {
		r.commands = make(map[string]bool, len(m.Commands))
		for _, c := range m.Commands {
			r.commands[strings.ToLower(strings.TrimSpace(c))] = true
		}
	}
	if m.Pattern != "" {
		re, err := regexp.Compile(m.Pattern)
		if err != nil {
			return Rule{}, err
		}
		r.pattern = re
	}
	if len(m.Types) > 0 {
		r.types = make(map[domainMessage.Type]bool, len(m.Types))
		for _, t := range m.Types {
			r.types[domainMessage.Type(t)] = true
		}
	}
	return r, nil
}

// Match reports whether msg should be handed to the plugin. Status-broadcast
// and own messages are opt-in. A rule without commands or pattern matches
// every message that passes the filters.
func (r Rule) Match(msg *domainMessage.Message) bool {
	if msg == nil {
		return false
	}
	if msg.IsStatus && !r.status {
		return false
	}
	if msg.Key.FromMe && !r.fromMe {
		return false
	}

	switch r.scope {
	case domainPlugin.ScopeGroup:
		if !msg.IsGroup {
			return false
		}
	case domainPlugin.ScopePrivate:
		if msg.IsGroup || msg.IsStatus {
			return false
		}
	}

	if r.types != nil && !r.types[msg.Type] {
		return false
	}
	if r.ownerOnly && !msg.IsOwner {
		return false
	}
	if r.adminOnly && !(msg.IsGroup && (msg.IsAdmin || msg.IsOwner)) {
		return false
	}
	if r.botAdmin && !(msg.IsGroup && msg.IsBotAdmin) {
		return false
	}

	if r.commands == nil && r.pattern == nil {
		return true
	}
	if r.commands != nil && msg.Command != "" && r.commands[msg.Command] {
		return true
	}
	return r.pattern != nil && r.pattern.MatchString(msg.Body)
}
