package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	domainTransport "github.com/AzielCF/az-bot/domains/transport"
	"github.com/AzielCF/az-bot/pkg/utils"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waCommon"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"google.golang.org/protobuf/proto"
)

var ErrNoClient = errors.New("whatsapp client not ready")

// Transport implements the transport port over whichever client the
// connection manager currently holds. It survives restarts.
type Transport struct {
	mu     sync.RWMutex
	client *whatsmeow.Client
	store  domainStore.IStore
}

var _ domainTransport.ITransport = (*Transport)(nil)

func NewTransport(store domainStore.IStore) *Transport {
	return &Transport{store: store}
}

func (t *Transport) setClient(c *whatsmeow.Client) {
	t.mu.Lock()
	t.client = c
	t.mu.Unlock()
}

func (t *Transport) current() (*whatsmeow.Client, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.client == nil {
		return nil, ErrNoClient
	}
	return t.client, nil
}

func (t *Transport) SendText(ctx context.Context, chatJID, text string, opts domainTransport.SendOptions) (string, error) {
	client, err := t.current()
	if err != nil {
		return "", err
	}
	chat, err := types.ParseJID(chatJID)
	if err != nil {
		return "", fmt.Errorf("invalid JID %q: %w", chatJID, err)
	}

	ext := &waE2E.ExtendedTextMessage{Text: proto.String(text)}
	if opts.Quoted != nil || len(opts.Mentions) > 0 {
		ext.ContextInfo = &waE2E.ContextInfo{MentionedJID: opts.Mentions}
	}
	if q := opts.Quoted; q != nil {
		ext.ContextInfo.StanzaID = proto.String(q.Key.ID)
		ext.ContextInfo.Participant = proto.String(q.Sender)
		if q.Raw != nil && q.Raw.Message != nil {
			ext.ContextInfo.QuotedMessage = q.Raw.Message
		} else {
			ext.ContextInfo.QuotedMessage = &waE2E.Message{Conversation: proto.String(q.Body)}
		}
	}

	resp, err := client.SendMessage(ctx, chat, &waE2E.Message{ExtendedTextMessage: ext})
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (t *Transport) SendReaction(ctx context.Context, chatJID string, key domainMessage.Key, emoji string) error {
	client, err := t.current()
	if err != nil {
		return err
	}
	chat, err := types.ParseJID(chatJID)
	if err != nil {
		return fmt.Errorf("invalid JID %q: %w", chatJID, err)
	}
	sender := senderOf(client, key)
	_, err = client.SendMessage(ctx, chat, client.BuildReaction(chat, sender, types.MessageID(key.ID), emoji))
	return err
}

// SendStatusReaction reacts to a status update. The reaction is delivered to
// the status author alone; its key still points at status@broadcast.
func (t *Transport) SendStatusReaction(ctx context.Context, key domainMessage.Key, emoji string, statusJidList []string) error {
	client, err := t.current()
	if err != nil {
		return err
	}
	author, msg, err := buildStatusReaction(key, emoji, statusJidList, time.Now())
	if err != nil {
		return err
	}
	_, err = client.SendMessage(ctx, author, msg)
	return err
}

// buildStatusReaction picks the status author (the key participant, else the
// first entry of statusJidList) and the reaction message addressed to them.
func buildStatusReaction(key domainMessage.Key, emoji string, statusJidList []string, now time.Time) (types.JID, *waE2E.Message, error) {
	raw := key.Participant
	if raw == "" && len(statusJidList) > 0 {
		raw = statusJidList[0]
	}
	if raw == "" {
		return types.EmptyJID, nil, errors.New("status reaction without author")
	}
	author, err := types.ParseJID(raw)
	if err != nil {
		return types.EmptyJID, nil, fmt.Errorf("invalid status author %q: %w", raw, err)
	}
	author = author.ToNonAD()

	msg := &waE2E.Message{
		ReactionMessage: &waE2E.ReactionMessage{
			Key: &waCommon.MessageKey{
				RemoteJID:   proto.String(types.StatusBroadcastJID.String()),
				FromMe:      proto.Bool(false),
				ID:          proto.String(key.ID),
				Participant: proto.String(author.String()),
			},
			Text:              proto.String(emoji),
			SenderTimestampMS: proto.Int64(now.UnixMilli()),
		},
	}
	return author, msg, nil
}

func (t *Transport) MarkRead(ctx context.Context, key domainMessage.Key) error {
	client, err := t.current()
	if err != nil {
		return err
	}
	chat, err := types.ParseJID(key.RemoteJID)
	if err != nil {
		return fmt.Errorf("invalid JID %q: %w", key.RemoteJID, err)
	}
	var sender types.JID
	if key.Participant != "" {
		sender, _ = types.ParseJID(key.Participant)
	}
	return client.MarkRead(ctx, []types.MessageID{types.MessageID(key.ID)}, time.Now(), chat, sender)
}

func (t *Transport) FetchAllGroups(ctx context.Context) (map[string]domainStore.GroupMetadata, error) {
	client, err := t.current()
	if err != nil {
		return nil, err
	}
	groups, err := client.GetJoinedGroups(ctx)
	if err != nil {
		return nil, err
	}
	out := make(map[string]domainStore.GroupMetadata, len(groups))
	for _, g := range groups {
		meta := convertGroup(g)
		out[meta.ID] = meta
	}
	return out, nil
}

// GetName resolves a display name from the Store, then the device contact
// store, and finally falls back to the phone number.
func (t *Transport) GetName(ctx context.Context, jid string) string {
	jid = utils.NormalizeJID(jid)
	if t.store != nil {
		if utils.IsGroupJID(jid) {
			if g, ok := t.store.Group(jid); ok && g.Subject != "" {
				return g.Subject
			}
		} else if c, ok := t.store.Contact(jid); ok && c.DisplayName() != "" {
			return c.DisplayName()
		}
	}

	client, err := t.current()
	if err == nil && client.Store != nil && client.Store.Contacts != nil {
		if parsed, perr := types.ParseJID(jid); perr == nil {
			info, cerr := client.Store.Contacts.GetContact(ctx, parsed)
			if cerr != nil {
				logrus.Debugf("[WHATSAPP] Contact lookup for %s failed: %v", jid, cerr)
			} else if info.Found {
				for _, name := range []string{info.FullName, info.PushName, info.BusinessName} {
					if name != "" {
						return name
					}
				}
			}
		}
	}
	return utils.UserFromJID(jid)
}

func (t *Transport) OwnJID() string {
	client, err := t.current()
	if err != nil || client.Store == nil || client.Store.ID == nil {
		return ""
	}
	return client.Store.ID.ToNonAD().String()
}

func (t *Transport) IsConnected() bool {
	client, err := t.current()
	return err == nil && client.IsConnected()
}

func (t *Transport) IsLoggedIn() bool {
	client, err := t.current()
	return err == nil && client.IsLoggedIn()
}

func senderOf(client *whatsmeow.Client, key domainMessage.Key) types.JID {
	if key.FromMe && client.Store != nil && client.Store.ID != nil {
		return client.Store.ID.ToNonAD()
	}
	raw := key.Participant
	if raw == "" {
		raw = key.RemoteJID
	}
	jid, err := types.ParseJID(raw)
	if err != nil {
		return types.EmptyJID
	}
	return jid.ToNonAD()
}

func convertGroup(g *types.GroupInfo) domainStore.GroupMetadata {
	meta := domainStore.GroupMetadata{
		ID:           g.JID.ToNonAD().String(),
		Subject:      g.Name,
		Desc:         g.Topic,
		Announce:     g.IsAnnounce,
		Restrict:     g.IsLocked,
		Participants: make([]domainStore.Participant, 0, len(g.Participants)),
	}
	if !g.OwnerJID.IsEmpty() {
		meta.Owner = g.OwnerJID.ToNonAD().String()
	}
	if !g.GroupCreated.IsZero() {
		meta.Creation = g.GroupCreated.Unix()
	}
	for _, p := range g.Participants {
		part := domainStore.Participant{ID: p.JID.ToNonAD().String()}
		switch {
		case p.IsSuperAdmin:
			part.Admin = domainStore.SuperAdminRole
		case p.IsAdmin:
			part.Admin = domainStore.AdminRole
		}
		meta.Participants = append(meta.Participants, part)
	}
	return meta
}
