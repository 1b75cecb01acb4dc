// Package builtin links the handlers shipped with the bot. Import it for its
// side effects; manifests under the plugin folder refer to these names.
package builtin

import (
	domainTransport "github.com/AzielCF/az-bot/domains/transport"
	"github.com/AzielCF/az-bot/plugins"
)

func init() {
	plugins.Register("ping", NewPing)
	plugins.Register("menu", NewMenu)
	plugins.Register("stats", NewStats)
	plugins.Register("register", NewRegister)
	plugins.Register("groupinfo", NewGroupInfo)
	plugins.Register("ai", NewAI)
	plugins.Register("title", NewTitle)
}

func replyOptions(pc *plugins.Context, mentions []string) domainTransport.SendOptions {
	return domainTransport.SendOptions{Quoted: pc.Msg, Mentions: mentions}
}
