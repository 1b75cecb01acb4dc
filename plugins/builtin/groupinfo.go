package builtin

import (
	"context"
	"fmt"
	"strings"
	"time"

	domainPlugin "github.com/AzielCF/az-bot/domains/plugin"
	"github.com/AzielCF/az-bot/pkg/utils"
	"github.com/AzielCF/az-bot/plugins"
	"github.com/dustin/go-humanize"
)

type groupInfo struct{}

func NewGroupInfo(domainPlugin.Manifest) (plugins.Handler, error) {
	return groupInfo{}, nil
}

func (groupInfo) Handle(ctx context.Context, pc *plugins.Context) error {
	if !pc.Msg.IsGroup {
		return pc.Reply(ctx, "This command only works in groups.")
	}
	meta, ok := pc.Store.Group(pc.Msg.ChatID)
	if !ok {
		return pc.Reply(ctx, "Group metadata is not cached yet.")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "*%s*\n", meta.Subject)
	fmt.Fprintf(&b, "ID: %s\n", meta.ID)
	if meta.Owner != "" {
		fmt.Fprintf(&b, "Owner: @%s\n", utils.UserFromJID(meta.Owner))
	}
	if meta.Creation > 0 {
		fmt.Fprintf(&b, "Created: %s\n", humanize.Time(time.Unix(meta.Creation, 0)))
	}
	fmt.Fprintf(&b, "Members: %d\n", len(meta.Participants))
	admins := meta.Admins()
	fmt.Fprintf(&b, "Admins: %d\n", len(admins))
	for _, a := range admins {
		fmt.Fprintf(&b, "• @%s\n", utils.UserFromJID(a))
	}
	fmt.Fprintf(&b, "Announce: %t  Restrict: %t", meta.Announce, meta.Restrict)
	if meta.Desc != "" {
		fmt.Fprintf(&b, "\n\n%s", meta.Desc)
	}

	mentions := admins
	if meta.Owner != "" {
		mentions = append(mentions, meta.Owner)
	}
	_, err := pc.Transport.SendText(ctx, pc.Msg.ChatID, b.String(), replyOptions(pc, mentions))
	return err
}
