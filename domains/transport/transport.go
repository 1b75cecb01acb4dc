package transport

import (
	"context"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainStore "github.com/AzielCF/az-bot/domains/store"
)

// SendOptions tweaks an outgoing text message.
type SendOptions struct {
	Quoted   *domainMessage.Message
	Mentions []string
}

// ITransport is the slice of the WhatsApp client the bot relies on.
// JIDs are passed in their string form.
type ITransport interface {
	SendText(ctx context.Context, chatJID, text string, opts SendOptions) (string, error)
	SendReaction(ctx context.Context, chatJID string, key domainMessage.Key, emoji string) error
	SendStatusReaction(ctx context.Context, key domainMessage.Key, emoji string, statusJidList []string) error
	MarkRead(ctx context.Context, key domainMessage.Key) error
	FetchAllGroups(ctx context.Context) (map[string]domainStore.GroupMetadata, error)
	GetName(ctx context.Context, jid string) string
	OwnJID() string
	IsConnected() bool
	IsLoggedIn() bool
}
