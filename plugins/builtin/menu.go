package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	"github.com/AzielCF/az-bot/plugins"
)

type menu struct{}

func NewMenu(domainPlugin.Manifest) (plugins.Handler, error) {
	return menu{}, nil
}

func (menu) Handle(ctx context.Context, pc *plugins.Context) error {
	if pc.Registry == nil {
		return fmt.Errorf("menu: registry unavailable")
	}
	prefix := pc.Msg.Prefix
	if prefix == "" && pc.Config != nil && len(pc.Config.App.CommandPrefixes) > 0 {
		prefix = pc.Config.App.CommandPrefixes[0]
	}
	title := pc.Setting("title", "Menu")
	return pc.Reply(ctx, renderMenu(title, prefix, pc.Registry.List()))
}

// renderMenu lists command plugins grouped by category, categories sorted by name.
func renderMenu(title, prefix string, infos []domainPlugin.Info) string {
	byCategory := make(map[string][]domainPlugin.Info)
	for _, info := range infos {
		if len(info.Commands) == 0 {
			continue
		}
		cat := info.Category
		if cat == "" {
			cat = "general"
		}
		byCategory[cat] = append(byCategory[cat], info)
	}

	categories := make([]string, 0, len(byCategory))
	for cat := range byCategory {
		categories = append(categories, cat)
	}
	sort.Strings(categories)

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", title)
	for _, cat := range categories {
		fmt.Fprintf(&b, "\n*%s*\n", strings.ToUpper(cat))
		for _, info := range byCategory[cat] {
			fmt.Fprintf(&b, "• %s%s", prefix, info.Commands[0])
			if info.Description != "" {
				fmt.Fprintf(&b, " - %s", info.Description)
			}
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
