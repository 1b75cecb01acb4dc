package message

import (
	"time"

	"go.mau.fi/whatsmeow/types/events"
)

// Type is the normalized kind of an inbound message.
type Type string

const (
	TypeText        Type = "text"
	TypeImage       Type = "image"
	TypeVideo       Type = "video"
	TypeAudio       Type = "audio"
	TypeDocument    Type = "document"
	TypeSticker     Type = "sticker"
	TypeProtocol    Type = "protocol"
	TypeReaction    Type = "reaction"
	TypeContact     Type = "contact"
	TypeLocation    Type = "location"
	TypePoll        Type = "poll"
	TypeButtonReply Type = "button_reply"
	TypeListReply   Type = "list_reply"
	TypeUnknown     Type = "unknown"
)

// ProtocolRevoke is the protocol subtype of a "delete for everyone" message.
const ProtocolRevoke int32 = 0

// StatusBroadcast is the pseudo-chat that carries status updates.
const StatusBroadcast = "status@broadcast"

// Key identifies a message the way the transport addresses it.
type Key struct {
	RemoteJID   string `json:"remote_jid"`
	Participant string `json:"participant,omitempty"`
	FromMe      bool   `json:"from_me"`
	ID          string `json:"id"`
}

type Quoted struct {
	Key    Key    `json:"key"`
	Sender string `json:"sender"`
	Type   Type   `json:"type"`
	Body   string `json:"body"`
}

// Message is the normalized view of one inbound transport event.
// It is built once by the serializer and never mutated afterwards.
type Message struct {
	Key          Key
	Type         Type
	ProtocolType int32

	Sender    string
	ChatID    string
	PushName  string
	IsGroup   bool
	IsStatus  bool
	IsOwner   bool
	Timestamp time.Time

	Body    string
	Prefix  string
	Command string
	Args    []string
	Text    string

	Mentions []string
	Quoted   *Quoted
	MimeType string
	IsMedia  bool

	GroupName  string
	IsAdmin    bool
	IsBotAdmin bool

	Raw *events.Message
}

// IsRevoke reports whether the message retracts an earlier one.
func (m *Message) IsRevoke() bool {
	return m != nil && m.Type == TypeProtocol && m.ProtocolType == ProtocolRevoke
}

// IsCommand reports whether the body started with a configured prefix.
func (m *Message) IsCommand() bool {
	return m != nil && m.Prefix != "" && m.Command != ""
}

// Upsert is one batch of inbound messages delivered by the transport.
type Upsert struct {
	Messages []*events.Message
}

// First returns the only message the pipeline looks at, or nil.
func (u Upsert) First() *events.Message {
	if len(u.Messages) == 0 {
		return nil
	}
	return u.Messages[0]
}
