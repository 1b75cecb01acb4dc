package whatsapp

import (
	"context"
	"fmt"
	"slices"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	pkgError "github.com/AzielCF/az-bot/pkg/error"
	"github.com/sirupsen/logrus"
	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
)

// MessageSink receives inbound message batches.
type MessageSink interface {
	Enqueue(ctx context.Context, upsert domainMessage.Upsert) error
}

// Broadcaster publishes connection events to external listeners.
type Broadcaster interface {
	Publish(code, message string, result any)
}

// session is the per-connection state the event handler works against.
type session struct {
	ctx     context.Context
	client  *whatsmeow.Client
	restart chan error
}

func (s *session) ownJID() string {
	if s.client == nil || s.client.Store == nil || s.client.Store.ID == nil {
		return ""
	}
	return s.client.Store.ID.ToNonAD().String()
}

func (s *session) fail(err error) {
	select {
	case s.restart <- err:
	default:
	}
}

func (m *Manager) handleEvent(s *session, rawEvt any) {
	switch evt := rawEvt.(type) {
	case *events.Message:
		if err := m.sink.Enqueue(s.ctx, domainMessage.Upsert{Messages: []*events.Message{evt}}); err != nil {
			logrus.WithError(err).Warnf("[WHATSAPP] Message %s not queued", evt.Info.ID)
		}
	case *events.GroupInfo:
		jid := evt.JID.ToNonAD().String()
		patch := groupPatch(evt)
		if own := s.ownJID(); own != "" && slices.Contains(patch.Leave, own) {
			m.store.RemoveGroup(jid)
			logrus.Infof("[WHATSAPP] Removed from group %s", jid)
			return
		}
		if !m.store.PatchGroup(jid, patch) {
			logrus.Debugf("[WHATSAPP] Group update for uncached group %s", evt.JID)
		}
	case *events.JoinedGroup:
		m.store.PutGroup(convertGroup(&evt.GroupInfo))
	case *events.PushName:
		m.store.SetContactName(evt.JID.ToNonAD().String(), evt.NewPushName)
	case *events.Contact:
		contact := domainStore.Contact{ID: evt.JID.ToNonAD().String()}
		if evt.Action != nil {
			contact.Name = evt.Action.GetFullName()
		}
		m.store.PutContact(contact)
	case *events.Connected:
		if s.client.Store != nil && len(s.client.Store.PushName) > 0 {
			if err := s.client.SendPresence(s.ctx, types.PresenceAvailable); err != nil {
				logrus.WithError(err).Debug("[WHATSAPP] Failed to send presence")
			}
		}
		logrus.Infof("[WHATSAPP] Connected as %s", m.transport.OwnJID())
		m.publish("CONNECTED", "Connected to WhatsApp", m.transport.OwnJID())
	case *events.PairSuccess:
		logrus.Infof("[WHATSAPP] Paired with %s", evt.ID)
		m.publish("LOGIN_SUCCESS", fmt.Sprintf("Successfully paired with %s", evt.ID.String()), nil)
	case *events.LoggedOut:
		logrus.Warnf("[WHATSAPP] Logged out (reason %v), deleting device", evt.Reason)
		if s.client.Store != nil {
			if err := s.client.Store.Delete(context.Background()); err != nil {
				logrus.WithError(err).Error("[WHATSAPP] Failed to delete device")
			}
		}
		m.publish("LOGOUT_COMPLETE", "Session logged out", nil)
		s.fail(fmt.Errorf("%w: logged out", pkgError.ErrSessionLost))
	case *events.StreamReplaced:
		s.fail(fmt.Errorf("%w: stream replaced", pkgError.ErrSessionLost))
	case *events.ConnectFailure:
		s.fail(fmt.Errorf("%w: connect failure %v", pkgError.ErrSessionLost, evt.Reason))
	case *events.TemporaryBan:
		s.fail(fmt.Errorf("%w: temporary ban %s", pkgError.ErrSessionLost, evt.String()))
	}
}

func groupPatch(evt *events.GroupInfo) domainStore.GroupPatch {
	var patch domainStore.GroupPatch
	if evt.Name != nil {
		patch.Subject = &evt.Name.Name
	}
	if evt.Topic != nil {
		patch.Desc = &evt.Topic.Topic
	}
	if evt.Announce != nil {
		patch.Announce = &evt.Announce.IsAnnounce
	}
	if evt.Locked != nil {
		patch.Restrict = &evt.Locked.IsLocked
	}
	patch.Join = jidStrings(evt.Join)
	patch.Leave = jidStrings(evt.Leave)
	patch.Promote = jidStrings(evt.Promote)
	patch.Demote = jidStrings(evt.Demote)
	return patch
}

func jidStrings(jids []types.JID) []string {
	if len(jids) == 0 {
		return nil
	}
	out := make([]string, 0, len(jids))
	for _, j := range jids {
		out = append(out, j.ToNonAD().String())
	}
	return out
}
