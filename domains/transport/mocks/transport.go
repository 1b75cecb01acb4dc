// Package mocks holds testify doubles for the transport port.
package mocks

import (
	"context"

	domainMessage "github.com/AzielCF/az-bot/domains/message"
	domainStore "github.com/AzielCF/az-bot/domains/store"
	domainTransport "github.com/AzielCF/az-bot/domains/transport"
	"github.com/stretchr/testify/mock"
)

type Transport struct {
	mock.Mock
}

var _ domainTransport.ITransport = (*Transport)(nil)

func (m *Transport) SendText(ctx context.Context, chatJID, text string, opts domainTransport.SendOptions) (string, error) {
	args := m.Called(ctx, chatJID, text, opts)
	return args.String(0), args.Error(1)
}

func (m *Transport) SendReaction(ctx context.Context, chatJID string, key domainMessage.Key, emoji string) error {
	return m.Called(ctx, chatJID, key, emoji).Error(0)
}

func (m *Transport) SendStatusReaction(ctx context.Context, key domainMessage.Key, emoji string, statusJidList []string) error {
	return m.Called(ctx, key, emoji, statusJidList).Error(0)
}

func (m *Transport) MarkRead(ctx context.Context, key domainMessage.Key) error {
	return m.Called(ctx, key).Error(0)
}

func (m *Transport) FetchAllGroups(ctx context.Context) (map[string]domainStore.GroupMetadata, error) {
	args := m.Called(ctx)
	groups, _ := args.Get(0).(map[string]domainStore.GroupMetadata)
	return groups, args.Error(1)
}

func (m *Transport) GetName(ctx context.Context, jid string) string {
	return m.Called(ctx, jid).String(0)
}

func (m *Transport) OwnJID() string {
	return m.Called().String(0)
}

func (m *Transport) IsConnected() bool {
	return m.Called().Bool(0)
}

func (m *Transport) IsLoggedIn() bool {
	return m.Called().Bool(0)
}
