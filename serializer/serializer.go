package serializer

import (
	"context"
	"sort"
	"strings"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	"github.com/AzielCF/az-bot/pkg/utils"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// Options controls command parsing and owner detection.
type Options struct {
	Prefixes []string
	Owners   []string
}

// Identity exposes the bot's own JID.
type Identity interface {
	OwnJID() string
}

// Serialize turns a transport message event into a Message. It only reads
// the store and never fails on a structurally valid event: anything it cannot
// find keeps its zero value. A nil event yields nil.
func Serialize(ctx context.Context, self Identity, evt *events.Message, st domainStore.IStore, opts Options) *domainMessage.Message {
	if evt == nil {
		return nil
	}

	info := evt.Info
	ownJID := ""
	if self != nil {
		ownJID = self.OwnJID()
	}

	chat := info.Chat.ToNonAD().String()
	sender := info.Sender.ToNonAD().String()
	if info.Sender.IsEmpty() {
		if info.IsFromMe {
			sender = ownJID
		} else {
			sender = chat
		}
	}

	isStatus := info.Chat.String() == types.StatusBroadcastJID.String()
	m := &domainMessage.Message{
		Key: domainMessage.Key{
			RemoteJID: chat,
			FromMe:    info.IsFromMe,
			ID:        string(info.ID),
		},
		Sender:    sender,
		ChatID:    chat,
		PushName:  info.PushName,
		IsGroup:   info.IsGroup,
		IsStatus:  isStatus,
		Timestamp: info.Timestamp,
		Raw:       evt,
	}
	if info.IsGroup || isStatus {
		m.Key.Participant = sender
	}

	c := classify(unwrap(evt.Message))
	m.Type = c.typ
	m.ProtocolType = c.protocolType
	m.Body = c.body
	m.MimeType = c.mime
	m.IsMedia = c.media

	if ci := c.ctxInfo; ci != nil {
		m.Mentions = append([]string(nil), ci.GetMentionedJID()...)
		if q := ci.GetQuotedMessage(); q != nil {
			qc := classify(unwrap(q))
			qSender := utils.NormalizeJID(ci.GetParticipant())
			qChat := chat
			if remote := ci.GetRemoteJID(); remote != "" {
				qChat = utils.NormalizeJID(remote)
			}
			if qSender == "" {
				qSender = qChat
			}
			m.Quoted = &domainMessage.Quoted{
				Key: domainMessage.Key{
					RemoteJID:   qChat,
					Participant: ci.GetParticipant(),
					FromMe:      ownJID != "" && qSender == ownJID,
					ID:          ci.GetStanzaID(),
				},
				Sender: qSender,
				Type:   qc.typ,
				Body:   qc.body,
			}
		}
	}

	m.Prefix, m.Command, m.Args = parseCommand(m.Body, opts.Prefixes)
	if m.Command != "" {
		m.Text = strings.Join(m.Args, " ")
	} else {
		m.Text = m.Body
	}

	m.IsOwner = info.IsFromMe || isOwner(sender, opts.Owners)

	if st != nil {
		if m.PushName == "" {
			if contact, ok := st.Contact(sender); ok {
				m.PushName = contact.DisplayName()
			}
		}
		if m.IsGroup {
			if meta, ok := st.Group(chat); ok {
				m.GroupName = meta.Subject
				m.IsAdmin = meta.IsAdmin(sender)
				m.IsBotAdmin = ownJID != "" && meta.IsAdmin(ownJID)
			}
		}
	}

	return m
}

func isOwner(sender string, owners []string) bool {
	user := utils.UserFromJID(sender)
	if user == "" {
		return false
	}
	for _, o := range owners {
		if o == user {
			return true
		}
	}
	return false
}

// parseCommand splits "<prefix><command> args..." using the longest matching prefix.
func parseCommand(body string, prefixes []string) (prefix, command string, args []string) {
	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return "", "", nil
	}

	sorted := append([]string(nil), prefixes...)
	sort.SliceStable(sorted, func(i, j int) bool { return len(sorted[i]) > len(sorted[j]) })

	for _, p := range sorted {
		if p == "" || !strings.HasPrefix(trimmed, p) {
			continue
		}
		fields := strings.Fields(strings.TrimPrefix(trimmed, p))
		if len(fields) == 0 {
			return "", "", nil
		}
		return p, strings.ToLower(fields[0]), fields[1:]
	}
	return "", "", nil
}
