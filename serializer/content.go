package serializer

import (
	domainMessage "github.com/AzielCF/az-bot/domains/message"
	"go.mau.fi/whatsmeow/proto/waE2E"
)

const maxWrapDepth = 8

// unwrap peels the ephemeral, view-once, document-with-caption and edit
// envelopes off a message.
func unwrap(m *waE2E.Message) *waE2E.Message {
	for i := 0; m != nil && i < maxWrapDepth; i++ {
		var inner *waE2E.Message
		switch {
		case m.GetEphemeralMessage() != nil:
			inner = m.GetEphemeralMessage().GetMessage()
		case m.GetViewOnceMessage() != nil:
			inner = m.GetViewOnceMessage().GetMessage()
		case m.GetViewOnceMessageV2() != nil:
			inner = m.GetViewOnceMessageV2().GetMessage()
		case m.GetViewOnceMessageV2Extension() != nil:
			inner = m.GetViewOnceMessageV2Extension().GetMessage()
		case m.GetDocumentWithCaptionMessage() != nil:
			inner = m.GetDocumentWithCaptionMessage().GetMessage()
		case m.GetEditedMessage() != nil:
			inner = m.GetEditedMessage().GetMessage()
		default:
			return m
		}
		if inner == nil {
			return m
		}
		m = inner
	}
	return m
}

type content struct {
	typ          domainMessage.Type
	body         string
	mime         string
	media        bool
	protocolType int32
	ctxInfo      *waE2E.ContextInfo
}

func classify(m *waE2E.Message) content {
	if m == nil {
		return content{typ: domainMessage.TypeUnknown}
	}

	switch {
	case m.GetConversation() != "":
		return content{typ: domainMessage.TypeText, body: m.GetConversation()}
	case m.GetExtendedTextMessage() != nil:
		x := m.GetExtendedTextMessage()
		return content{typ: domainMessage.TypeText, body: x.GetText(), ctxInfo: x.GetContextInfo()}
	case m.GetImageMessage() != nil:
		x := m.GetImageMessage()
		return content{typ: domainMessage.TypeImage, body: x.GetCaption(), mime: x.GetMimetype(), media: true, ctxInfo: x.GetContextInfo()}
	case m.GetVideoMessage() != nil:
		x := m.GetVideoMessage()
		return content{typ: domainMessage.TypeVideo, body: x.GetCaption(), mime: x.GetMimetype(), media: true, ctxInfo: x.GetContextInfo()}
	case m.GetAudioMessage() != nil:
		x := m.GetAudioMessage()
		return content{typ: domainMessage.TypeAudio, mime: x.GetMimetype(), media: true, ctxInfo: x.GetContextInfo()}
	case m.GetDocumentMessage() != nil:
		x := m.GetDocumentMessage()
		return content{typ: domainMessage.TypeDocument, body: x.GetCaption(), mime: x.GetMimetype(), media: true, ctxInfo: x.GetContextInfo()}
	case m.GetStickerMessage() != nil:
		x := m.GetStickerMessage()
		return content{typ: domainMessage.TypeSticker, mime: x.GetMimetype(), media: true, ctxInfo: x.GetContextInfo()}
	case m.GetProtocolMessage() != nil:
		return content{typ: domainMessage.TypeProtocol, protocolType: int32(m.GetProtocolMessage().GetType())}
	case m.GetReactionMessage() != nil:
		return content{typ: domainMessage.TypeReaction, body: m.GetReactionMessage().GetText()}
	case m.GetContactMessage() != nil:
		x := m.GetContactMessage()
		return content{typ: domainMessage.TypeContact, body: x.GetDisplayName(), ctxInfo: x.GetContextInfo()}
	case m.GetContactsArrayMessage() != nil:
		x := m.GetContactsArrayMessage()
		return content{typ: domainMessage.TypeContact, body: x.GetDisplayName(), ctxInfo: x.GetContextInfo()}
	case m.GetLocationMessage() != nil:
		x := m.GetLocationMessage()
		return content{typ: domainMessage.TypeLocation, body: x.GetName(), ctxInfo: x.GetContextInfo()}
	case m.GetLiveLocationMessage() != nil:
		x := m.GetLiveLocationMessage()
		return content{typ: domainMessage.TypeLocation, body: x.GetCaption(), ctxInfo: x.GetContextInfo()}
	case m.GetPollCreationMessage() != nil:
		x := m.GetPollCreationMessage()
		return content{typ: domainMessage.TypePoll, body: x.GetName(), ctxInfo: x.GetContextInfo()}
	case m.GetPollCreationMessageV3() != nil:
		x := m.GetPollCreationMessageV3()
		return content{typ: domainMessage.TypePoll, body: x.GetName(), ctxInfo: x.GetContextInfo()}
	case m.GetButtonsResponseMessage() != nil:
		x := m.GetButtonsResponseMessage()
		return content{typ: domainMessage.TypeButtonReply, body: x.GetSelectedButtonID(), ctxInfo: x.GetContextInfo()}
	case m.GetTemplateButtonReplyMessage() != nil:
		x := m.GetTemplateButtonReplyMessage()
		return content{typ: domainMessage.TypeButtonReply, body: x.GetSelectedID(), ctxInfo: x.GetContextInfo()}
	case m.GetListResponseMessage() != nil:
		x := m.GetListResponseMessage()
		return content{typ: domainMessage.TypeListReply, body: x.GetSingleSelectReply().GetSelectedRowID(), ctxInfo: x.GetContextInfo()}
	}
	return content{typ: domainMessage.TypeUnknown}
}
